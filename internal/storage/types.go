package storage

import (
	"errors"
	"time"
)

var ErrDisabled = errors.New("storage disabled")

// Config configures the audit store.
//
// Driver values:
//   - "file": JSON Lines next to Path (<prefix>.audit.jsonl)
//   - "sqlite": SQLite database file at Path
//
// If Driver is empty or "none", auditing is disabled.
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
}

// AuditEntry records one executed command.
// Keep it compact and schema-stable.
type AuditEntry struct {
	ID     string    `json:"id"` // UUID, assigned on append when empty
	At     time.Time `json:"at"`
	Actor  string    `json:"actor,omitempty"`
	Source string    `json:"source,omitempty"`
	Action string    `json:"action"`
	Target string    `json:"target,omitempty"`
	OK     bool      `json:"ok"`
	Error  string    `json:"error,omitempty"`
	TookMS int64     `json:"took_ms"`
}
