package config

import (
	"strings"

	logx "repeatbot/pkg/logx"
)

// SummarizeConfigChange returns the changed top-level sections and
// structured attrs describing their new values, for logging.
func SummarizeConfigChange(oldCfg, newCfg *Config) ([]string, []logx.Field) {
	if oldCfg == nil {
		oldCfg = &Config{}
	}
	if newCfg == nil {
		newCfg = &Config{}
	}

	changed := make([]string, 0, 5)
	attrs := make([]logx.Field, 0, 10)

	if !strings.EqualFold(oldCfg.Env, newCfg.Env) {
		changed = append(changed, "env")
		attrs = append(attrs, logx.String("env", newCfg.Env))
	}

	if oldCfg.Command.Prefix != newCfg.Command.Prefix {
		changed = append(changed, "command")
		attrs = append(attrs, logx.String("command.prefix", newCfg.Command.Prefix))
	}

	if oldCfg.Store != newCfg.Store {
		changed = append(changed, "store")
		attrs = append(attrs,
			logx.String("store.path", newCfg.Store.Path),
			logx.String("store.test_path", newCfg.Store.TestPath),
		)
	}

	if oldCfg.Logging.Level != newCfg.Logging.Level ||
		oldCfg.Logging.Console != newCfg.Logging.Console ||
		oldCfg.Logging.File.Enabled != newCfg.Logging.File.Enabled ||
		strings.TrimSpace(oldCfg.Logging.File.Path) != strings.TrimSpace(newCfg.Logging.File.Path) {
		changed = append(changed, "logging")
		attrs = append(attrs,
			logx.String("logging.level", newCfg.Logging.Level),
			logx.Bool("logging.console", newCfg.Logging.Console),
			logx.Bool("logging.file_enabled", newCfg.Logging.File.Enabled),
		)
	}

	var oldAudit, newAudit AuditConfig
	if oldCfg.Audit != nil {
		oldAudit = *oldCfg.Audit
	}
	if newCfg.Audit != nil {
		newAudit = *newCfg.Audit
	}
	if oldAudit != newAudit {
		changed = append(changed, "audit")
		attrs = append(attrs,
			logx.String("audit.driver", newAudit.Driver),
			logx.String("audit.path", newAudit.Path),
		)
	}

	return changed, attrs
}

// RestartRequired reports sections whose changes only apply on restart.
func RestartRequired(sections []string) []string {
	var out []string
	for _, s := range sections {
		switch s {
		case "env", "store", "audit":
			out = append(out, s)
		}
	}
	return out
}
