package storage

import (
	"errors"
	"time"
)

var ErrDisabled = errors.New("storage disabled")

// Config configures storage.
//
// Driver values:
//   - "file": JSON Lines files next to Path
//   - "sqlite": SQLite database file at Path
//   - "postgres": database at DSN
//
// If Driver is empty or "none", storage is disabled.
type Config struct {
	Driver      string
	Path        string
	DSN         string
	BusyTimeout time.Duration // sqlite only; 0 means default
}

// AuditEntry records an operator action or configuration change.
type AuditEntry struct {
	ID     string    `json:"id"`
	At     time.Time `json:"at"`
	Actor  string    `json:"actor,omitempty"`
	Source string    `json:"source"` // command | service | config
	Action string    `json:"action"`
	Target string    `json:"target,omitempty"`
	OK     bool      `json:"ok"`
	Error  string    `json:"error,omitempty"`
	Meta   string    `json:"meta,omitempty"` // JSON
}

// DeliveryRecord records one announcement delivery.
type DeliveryRecord struct {
	ID        string    `json:"id"`
	At        time.Time `json:"at"`
	Trigger   string    `json:"trigger"`
	Index     int       `json:"index"`
	Mode      string    `json:"mode"`
	Broadcast bool      `json:"broadcast"`
	Texts     int       `json:"texts"`
	Commands  int       `json:"commands"`
	Delivered int       `json:"delivered"`
	Skipped   int       `json:"skipped"`
	Failures  int       `json:"failures"`
}
