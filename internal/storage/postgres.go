package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	logx "announcer/pkg/logx"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

type postgresStore struct {
	db  *sql.DB
	log logx.Logger
}

func openPostgres(ctx context.Context, cfg Config, log logx.Logger) (Store, error) {
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return nil, errors.New("storage.dsn is required for postgres driver")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}
	if err := migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	log.Debug("postgres store opened")
	return &postgresStore{db: db, log: log}, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrationsFS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("setting goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	return nil
}

func (s *postgresStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *postgresStore) AppendAudit(ctx context.Context, e AuditEntry) error {
	if s == nil || s.db == nil {
		return ErrDisabled
	}
	stamp(&e.ID, &e.At)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO announcer_audit(id, at, actor, source, action, target, ok, err, meta)
		 VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		e.ID, e.At, nullStr(e.Actor), e.Source, e.Action, nullStr(e.Target), e.OK, nullStr(e.Error), nullStr(e.Meta),
	)
	return err
}

func (s *postgresStore) AppendDelivery(ctx context.Context, r DeliveryRecord) error {
	if s == nil || s.db == nil {
		return ErrDisabled
	}
	stamp(&r.ID, &r.At)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO announcer_deliveries(id, at, fired_by, idx, mode, broadcast, texts, commands, delivered, skipped, failures)
		 VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		r.ID, r.At, r.Trigger, r.Index, r.Mode, r.Broadcast, r.Texts, r.Commands, r.Delivered, r.Skipped, r.Failures,
	)
	return err
}
