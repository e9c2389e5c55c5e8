package command

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"repeatbot/internal/storage"
	"repeatbot/internal/task"
	logx "repeatbot/pkg/logx"
)

const (
	DefaultPrefix = "say"

	replyInvalidStore = "Invalid Task List."
	replyIOFailure    = "Could not access the task list."
)

// Message is one line of chat text plus who sent it and from where.
type Message struct {
	Text   string
	Actor  string
	Source string
}

// Executor turns messages into store operations and reply text.
// It is safe for concurrent use.
type Executor struct {
	store *task.Store
	log   logx.Logger
	audit storage.Store
	now   func() time.Time

	mu     sync.RWMutex
	prefix string
}

type Option func(*Executor)

func WithPrefix(prefix string) Option {
	return func(e *Executor) { e.prefix = strings.TrimSpace(prefix) }
}

func WithLogger(log logx.Logger) Option {
	return func(e *Executor) {
		if !log.IsZero() {
			e.log = log
		}
	}
}

// WithAudit records every executed command in st. A nil st disables auditing.
func WithAudit(st storage.Store) Option {
	return func(e *Executor) { e.audit = st }
}

func WithClock(now func() time.Time) Option {
	return func(e *Executor) {
		if now != nil {
			e.now = now
		}
	}
}

func NewExecutor(store *task.Store, opts ...Option) *Executor {
	e := &Executor{
		store:  store,
		log:    logx.Nop(),
		now:    time.Now,
		prefix: DefaultPrefix,
	}
	for _, o := range opts {
		o(e)
	}
	e.log = e.log.With(logx.String("comp", "executor"))
	return e
}

// Prefix returns the command word messages must start with.
func (e *Executor) Prefix() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.prefix
}

// SetPrefix swaps the command word; used on config reload.
func (e *Executor) SetPrefix(prefix string) {
	e.mu.Lock()
	e.prefix = strings.TrimSpace(prefix)
	e.mu.Unlock()
}

// Exec runs one message and returns the reply. Text that is not addressed
// to the bot yields "". Failures are reported in the reply, never returned.
func (e *Executor) Exec(ctx context.Context, msg Message) string {
	start := e.now()
	prefix := e.Prefix()

	req, err := Parse(msg.Text, prefix)
	if errors.Is(err, ErrNotCommand) {
		return ""
	}

	var reply string
	if err == nil {
		reply, err = e.dispatch(ctx, req, prefix, start)
	}
	if err != nil {
		reply = e.replyFor(req, err)
	}

	took := e.now().Sub(start)
	e.log.Debug("command executed",
		logx.String("action", req.Kind.String()),
		logx.String("task", req.Name),
		logx.String("actor", msg.Actor),
		logx.Bool("ok", err == nil),
		logx.Duration("took", took),
	)
	e.record(ctx, msg, req, err, start, took)
	return reply
}

func (e *Executor) dispatch(ctx context.Context, req Request, prefix string, now time.Time) (string, error) {
	switch req.Kind {
	case KindCreate:
		return e.store.Create(ctx, req.Name, req.Task)
	case KindModify:
		return e.store.Modify(ctx, req.Name, req.Patch)
	case KindDelete:
		return e.store.Delete(ctx, req.Name)
	case KindClear:
		return e.store.Clear(ctx)
	case KindList:
		tasks, err := e.store.List(ctx)
		if err != nil {
			return "", err
		}
		return formatList(tasks, now), nil
	case KindHelp:
		return Help(prefix), nil
	default:
		return "", fmt.Errorf("unknown request kind %d", req.Kind)
	}
}

func (e *Executor) replyFor(req Request, err error) string {
	var (
		usage *UsageError
		verr  *task.ValidationError
		nerr  *task.NameError
	)
	switch {
	case errors.As(err, &usage):
		return usage.Usage
	case errors.As(err, &verr):
		return verr.Message
	case errors.As(err, &nerr) && errors.Is(err, task.ErrExists):
		return fmt.Sprintf("Task %q already exists.", nerr.Name)
	case errors.As(err, &nerr) && errors.Is(err, task.ErrNotFound):
		return fmt.Sprintf("Task %q does not exist.", nerr.Name)
	case errors.Is(err, task.ErrInvalidStore):
		return replyInvalidStore
	default:
		e.log.Error("command failed",
			logx.String("action", req.Kind.String()),
			logx.String("task", req.Name),
			logx.String("path", e.store.Path()),
			logx.Err(err),
		)
		return replyIOFailure
	}
}

// record appends an audit entry. Audit failures never affect the reply.
func (e *Executor) record(ctx context.Context, msg Message, req Request, err error, at time.Time, took time.Duration) {
	if e.audit == nil {
		return
	}
	entry := storage.AuditEntry{
		At:     at,
		Actor:  msg.Actor,
		Source: msg.Source,
		Action: req.Kind.String(),
		Target: req.Name,
		OK:     err == nil,
		TookMS: took.Milliseconds(),
	}
	if err != nil {
		entry.Error = err.Error()
	}
	if aerr := e.audit.AppendAudit(context.WithoutCancel(ctx), entry); aerr != nil {
		e.log.Debug("audit append failed", logx.Err(aerr))
	}
}

// formatList renders tasks sorted by name with their next run after now.
func formatList(tasks task.Tasks, now time.Time) string {
	if len(tasks) == 0 {
		return "No tasks."
	}
	names := make([]string, 0, len(tasks))
	for name := range tasks {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	fmt.Fprintf(&b, "%d task(s):", len(names))
	for _, name := range names {
		t := tasks[name]
		next := task.NextRun(t, now)
		fmt.Fprintf(&b, "\n  %s: every %s on %s, next at %s: %q",
			name, task.Interval(t.TotalWaitInterval), t.Channel,
			next.Format(time.DateTime), t.TaskMessage)
	}
	return b.String()
}
