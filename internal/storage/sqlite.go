package storage

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	logx "announcer/pkg/logx"
)

//go:embed sqlite_schema.sql
var sqliteSchema string

type sqliteStore struct {
	db  *sql.DB
	log logx.Logger
}

func openSQLite(ctx context.Context, cfg Config, log logx.Logger) (Store, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	path := cfg.Path
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// SQLite prefers a small number of concurrent writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	busy := cfg.BusyTimeout
	if busy <= 0 {
		busy = 5 * time.Second
	}
	_, _ = db.ExecContext(ctx, fmt.Sprintf("PRAGMA busy_timeout = %d", busy.Milliseconds()))
	_, _ = db.ExecContext(ctx, "PRAGMA journal_mode = WAL")
	_, _ = db.ExecContext(ctx, "PRAGMA synchronous = NORMAL")

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}
	log.Debug("sqlite store opened", logx.String("path", path))
	return &sqliteStore{db: db, log: log}, nil
}

func (s *sqliteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *sqliteStore) AppendAudit(ctx context.Context, e AuditEntry) error {
	if s == nil || s.db == nil {
		return ErrDisabled
	}
	stamp(&e.ID, &e.At)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO audit(id, at, actor, source, action, target, ok, err, meta)
		 VALUES(?,?,?,?,?,?,?,?,?)`,
		e.ID, e.At.Format(time.RFC3339Nano), nullStr(e.Actor), e.Source, e.Action,
		nullStr(e.Target), boolInt(e.OK), nullStr(e.Error), nullStr(e.Meta),
	)
	return err
}

func (s *sqliteStore) AppendDelivery(ctx context.Context, r DeliveryRecord) error {
	if s == nil || s.db == nil {
		return ErrDisabled
	}
	stamp(&r.ID, &r.At)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO deliveries(id, at, fired_by, idx, mode, broadcast, texts, commands, delivered, skipped, failures)
		 VALUES(?,?,?,?,?,?,?,?,?,?,?)`,
		r.ID, r.At.Format(time.RFC3339Nano), r.Trigger, r.Index, r.Mode, boolInt(r.Broadcast),
		r.Texts, r.Commands, r.Delivered, r.Skipped, r.Failures,
	)
	return err
}

func nullStr(v string) any {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	return v
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
