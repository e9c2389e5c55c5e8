package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/user"
	"strings"

	"repeatbot/internal/command"
	"repeatbot/internal/config"
	"repeatbot/internal/runtime/supervisor"
	"repeatbot/internal/storage"
	"repeatbot/internal/task"
	logx "repeatbot/pkg/logx"
)

// App wires config, logging, the task store, the audit log and the
// command executor together.
type App struct {
	cfgm *config.ConfigManager

	log  logx.Logger
	logs *logx.Service

	tasks *task.Store
	audit storage.Store
	exec  *command.Executor
}

func New(ctx context.Context, cfgPath string) (*App, error) {
	cfgm := config.NewConfigManager(cfgPath)
	cfgm.SetLogger(logx.NewConsole("INFO").With(logx.String("comp", "config")))
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", cfgPath, err)
	}

	logSvc, log := logx.New(cfg.LogConfig())
	cfgm.SetLogger(log.With(logx.String("comp", "config")))
	log = log.With(logx.String("comp", "app"))

	var audit storage.Store
	if sc, enabled, err := cfg.AuditStorage(); err != nil {
		_ = logSvc.Close()
		return nil, err
	} else if enabled {
		st, err := storage.Open(sc, log.With(logx.String("comp", "storage")))
		if err != nil {
			_ = logSvc.Close()
			return nil, fmt.Errorf("open audit %s: %w", sc.Path, err)
		}
		audit = st
		log.Info("audit enabled", logx.String("driver", sc.Driver), logx.String("path", sc.Path))
	}

	tasks := task.NewStore(cfg.StorePath(), storage.OSFiles{}, log.With(logx.String("comp", "tasks")))
	if err := tasks.Init(ctx); err != nil {
		if audit != nil {
			_ = audit.Close()
		}
		_ = logSvc.Close()
		return nil, err
	}

	exec := command.NewExecutor(tasks,
		command.WithPrefix(cfg.Command.Prefix),
		command.WithLogger(log.With(logx.String("comp", "commands"))),
		command.WithAudit(audit),
	)

	log.Info("ready",
		logx.String("env", cfg.Env),
		logx.String("store", tasks.Path()),
		logx.String("prefix", cfg.Command.Prefix),
	)
	return &App{
		cfgm:  cfgm,
		log:   log,
		logs:  logSvc,
		tasks: tasks,
		audit: audit,
		exec:  exec,
	}, nil
}

func (a *App) Executor() *command.Executor { return a.exec }

func (a *App) Tasks() *task.Store { return a.tasks }

// Exec runs a single command line.
func (a *App) Exec(ctx context.Context, text, source string) string {
	return a.exec.Exec(ctx, command.Message{Text: text, Actor: CurrentActor(), Source: source})
}

// Serve executes one command per input line and writes non-empty replies to
// out until in is exhausted or ctx is done. The config file is watched
// meanwhile and logging and prefix changes apply live.
func (a *App) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	sup := supervisor.New(ctx,
		supervisor.WithLogger(a.log),
		supervisor.WithCancelOnError(true),
	)

	// subscribe before the watcher starts so no reload is missed
	sub := a.cfgm.Subscribe(8)
	sup.Go("config.watch", a.cfgm.Watch)
	sup.Go0("config.reload", func(c context.Context) {
		defer a.cfgm.Unsubscribe(sub)
		a.reloadLoop(c, sub)
	})
	sup.Go("input", func(c context.Context) error {
		defer sup.Cancel()
		return a.readLoop(c, in, out)
	})

	return sup.Wait(context.Background())
}

func (a *App) readLoop(ctx context.Context, in io.Reader, out io.Writer) error {
	actor := CurrentActor()
	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- sc.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-scanErr:
					if err != nil {
						return fmt.Errorf("read input: %w", err)
					}
				default:
				}
				return nil
			}
			if strings.TrimSpace(line) == "" {
				continue
			}
			reply := a.exec.Exec(ctx, command.Message{Text: line, Actor: actor, Source: "stdin"})
			if reply == "" {
				continue
			}
			if _, err := fmt.Fprintln(out, reply); err != nil {
				return fmt.Errorf("write reply: %w", err)
			}
		}
	}
}

// reloadLoop applies published configs. Bursts are coalesced to the newest.
func (a *App) reloadLoop(ctx context.Context, sub <-chan *config.Config) {
	lastApplied := a.cfgm.Get()
	for {
		select {
		case <-ctx.Done():
			return
		case newCfg, ok := <-sub:
			if !ok {
				return
			}
		drain:
			for {
				select {
				case newer := <-sub:
					if newer != nil {
						newCfg = newer
					}
				default:
					break drain
				}
			}
			a.apply(lastApplied, newCfg)
			lastApplied = newCfg
		}
	}
}

func (a *App) apply(oldCfg, newCfg *config.Config) {
	sections, attrs := config.SummarizeConfigChange(oldCfg, newCfg)
	if len(sections) == 0 {
		a.log.Debug("config reload received, but no effective changes detected")
		return
	}
	fields := append([]logx.Field{logx.String("changed", strings.Join(sections, ","))}, attrs...)
	a.log.Info("config reloaded", fields...)
	if restart := config.RestartRequired(sections); len(restart) > 0 {
		a.log.Warn("config changed; restart required for changes to take effect",
			logx.String("sections", strings.Join(restart, ",")))
	}

	a.logs.Apply(newCfg.LogConfig())
	a.exec.SetPrefix(newCfg.Command.Prefix)
}

func (a *App) Close() error {
	var errs []error
	if a.audit != nil {
		errs = append(errs, a.audit.Close())
	}
	errs = append(errs, a.logs.Close())
	return errors.Join(errs...)
}

// CurrentActor names the local user for audit entries.
func CurrentActor() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	if v := os.Getenv("USER"); v != "" {
		return v
	}
	return "unknown"
}
