package config

import (
	"fmt"
	"strings"
	"time"

	"repeatbot/internal/storage"
	"repeatbot/internal/task"
	logx "repeatbot/pkg/logx"
)

const (
	EnvProduction  = "production"
	EnvDevelopment = "development"
	EnvTest        = "test"

	DefaultPrefix = "say"
)

type Config struct {
	// Env selects the task document: "test" uses store.test_path.
	Env string `json:"env" validate:"omitempty,oneof=production development test"`

	Command CommandConfig `json:"command"`
	Store   StoreConfig   `json:"store"`
	Logging LoggingConfig `json:"logging"`
	Audit   *AuditConfig  `json:"audit,omitempty"`
}

type CommandConfig struct {
	// Prefix is the first word of every command (default "say").
	Prefix string `json:"prefix" validate:"required,cmdword"`
}

type StoreConfig struct {
	Path     string `json:"path" validate:"required"`
	TestPath string `json:"test_path" validate:"required"`
}

type LoggingConfig struct {
	Level   string      `json:"level" validate:"omitempty,loglevel"`
	Console bool        `json:"console"`
	File    LoggingFile `json:"file"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// AuditConfig enables the command audit log.
//
// Driver values: "none" (default), "file", "sqlite".
type AuditConfig struct {
	Driver      string `json:"driver" validate:"omitempty,oneof=none file sqlite sqlite3"`
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // Go duration string (sqlite)
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Env:     EnvProduction,
		Command: CommandConfig{Prefix: DefaultPrefix},
		Store:   StoreConfig{Path: task.DBPath, TestPath: task.TestDBPath},
		Logging: LoggingConfig{Level: "info", Console: true},
	}
}

// StorePath returns the task document for the active environment.
func (c *Config) StorePath() string {
	if strings.EqualFold(c.Env, EnvTest) {
		return c.Store.TestPath
	}
	return c.Store.Path
}

func (c *Config) LogConfig() logx.Config {
	return logx.Config{
		Level:   c.Logging.Level,
		Console: c.Logging.Console,
		File: logx.FileConfig{
			Enabled: c.Logging.File.Enabled,
			Path:    c.Logging.File.Path,
		},
	}
}

// AuditStorage maps the audit block to a storage config.
// The bool is false when auditing is disabled.
func (c *Config) AuditStorage() (storage.Config, bool, error) {
	if c == nil || c.Audit == nil {
		return storage.Config{}, false, nil
	}
	ac := c.Audit
	driver := strings.ToLower(strings.TrimSpace(ac.Driver))
	if driver == "" || driver == "none" {
		return storage.Config{}, false, nil
	}
	path := strings.TrimSpace(ac.Path)
	if path == "" {
		return storage.Config{}, false, fmt.Errorf("audit.path is required when audit.driver=%s", driver)
	}

	switch driver {
	case "file":
		return storage.Config{Driver: driver, Path: path}, true, nil
	case "sqlite", "sqlite3":
		busy, err := ParseDurationOrDefault("audit.busy_timeout", ac.BusyTimeout, time.Second)
		if err != nil {
			return storage.Config{}, false, err
		}
		return storage.Config{Driver: "sqlite", Path: path, BusyTimeout: busy}, true, nil
	default:
		return storage.Config{}, false, fmt.Errorf("unknown audit.driver: %s", ac.Driver)
	}
}
