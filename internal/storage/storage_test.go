package storage

import (
	"bufio"
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	logx "announcer/pkg/logx"
)

func TestOpenDisabled(t *testing.T) {
	for _, driver := range []string{"", "none", " NONE "} {
		st, err := Open(context.Background(), Config{Driver: driver}, logx.Nop())
		require.NoError(t, err)
		assert.Nil(t, st)
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), Config{Driver: "redis"}, logx.Nop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis")
}

func TestOpenRequiresLocation(t *testing.T) {
	ctx := context.Background()
	_, err := Open(ctx, Config{Driver: "file"}, logx.Nop())
	assert.Error(t, err)
	_, err = Open(ctx, Config{Driver: "sqlite"}, logx.Nop())
	assert.Error(t, err)
	_, err = Open(ctx, Config{Driver: "postgres"}, logx.Nop())
	assert.Error(t, err)
}

func readLines(t *testing.T, path string) []map[string]any {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	var out []map[string]any
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var m map[string]any
		require.NoError(t, json.Unmarshal(sc.Bytes(), &m))
		out = append(out, m)
	}
	require.NoError(t, sc.Err())
	return out
}

func TestFileStore(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	st, err := Open(ctx, Config{Driver: "file", Path: filepath.Join(dir, "data", "history.db")}, logx.Nop())
	require.NoError(t, err)

	require.NoError(t, st.AppendAudit(ctx, AuditEntry{Actor: "CONSOLE", Source: "command", Action: "add", OK: true}))
	require.NoError(t, st.AppendDelivery(ctx, DeliveryRecord{Trigger: "schedule", Index: 2, Mode: "sequential", Texts: 1, Broadcast: true}))
	require.NoError(t, st.Close())
	require.NoError(t, st.Close())

	audit := readLines(t, filepath.Join(dir, "data", "history.audit.jsonl"))
	require.Len(t, audit, 1)
	assert.Equal(t, "add", audit[0]["action"])
	assert.NotEmpty(t, audit[0]["id"])
	assert.NotEmpty(t, audit[0]["at"])

	del := readLines(t, filepath.Join(dir, "data", "history.deliveries.jsonl"))
	require.Len(t, del, 1)
	assert.EqualValues(t, 2, del[0]["index"])

	assert.Error(t, st.AppendAudit(ctx, AuditEntry{Action: "late"}))
}

func TestSQLiteStore(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "announcer.sqlite")
	st, err := Open(ctx, Config{Driver: "sqlite", Path: path, BusyTimeout: time.Second}, logx.Nop())
	require.NoError(t, err)

	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, st.AppendAudit(ctx, AuditEntry{ID: "a1", At: at, Source: "config", Action: "reload", OK: false, Error: "bad yaml"}))
	require.NoError(t, st.AppendDelivery(ctx, DeliveryRecord{Trigger: "command", Index: 1, Mode: "random", Delivered: 3}))
	require.NoError(t, st.Close())

	// reopening applies the schema again without error
	st, err = Open(ctx, Config{Driver: "sqlite", Path: path}, logx.Nop())
	require.NoError(t, err)
	require.NoError(t, st.Close())

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	var action, errText string
	var ok int
	require.NoError(t, db.QueryRow(`SELECT action, ok, err FROM audit WHERE id = 'a1'`).Scan(&action, &ok, &errText))
	assert.Equal(t, "reload", action)
	assert.Zero(t, ok)
	assert.Equal(t, "bad yaml", errText)

	var delivered int
	require.NoError(t, db.QueryRow(`SELECT delivered FROM deliveries`).Scan(&delivered))
	assert.Equal(t, 3, delivered)
}

func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("ANNOUNCER_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("ANNOUNCER_TEST_POSTGRES_DSN not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	st, err := Open(ctx, Config{Driver: "postgres", DSN: dsn}, logx.Nop())
	require.NoError(t, err)
	defer st.Close()

	require.NoError(t, st.AppendAudit(ctx, AuditEntry{Source: "command", Action: "delete", Target: "3", OK: true, Meta: `{"args":["3"]}`}))
	require.NoError(t, st.AppendDelivery(ctx, DeliveryRecord{Trigger: "schedule", Index: 1, Mode: "sequential"}))
}
