// Package storage keeps an append-only history of the announcer:
// operator actions (audit) and announcement deliveries.
//
// Drivers: "file" (JSON Lines), "sqlite" (modernc, pure Go) and
// "postgres" (pgx via database/sql, schema managed by goose).
package storage
