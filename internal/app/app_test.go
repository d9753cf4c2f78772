package app

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"announcer/internal/announce"
	"announcer/internal/command"
	"announcer/internal/config"
	"announcer/internal/eventbus"
	"announcer/internal/host"
	"announcer/internal/storage"
	logx "announcer/pkg/logx"
)

type syncBuffer struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.String()
}

type opSender struct{ got []string }

func (o *opSender) Name() string                       { return "tester" }
func (o *opSender) HasCapability(host.Capability) bool { return true }
func (o *opSender) SendMessage(_ context.Context, t string) error {
	o.got = append(o.got, t)
	return nil
}

func noEnv(string) (string, bool) { return "", false }

func TestMapStorageConfig(t *testing.T) {
	_, ok, err := mapStorageConfig(&config.Config{})
	require.NoError(t, err)
	assert.False(t, ok)

	sc, ok, err := mapStorageConfig(&config.Config{Storage: &config.StorageConfig{Driver: "SQLite", Path: "a.db", BusyTimeout: "3s"}})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, storage.Config{Driver: "sqlite", Path: "a.db", BusyTimeout: 3 * time.Second}, sc)

	sc, ok, err = mapStorageConfig(&config.Config{Storage: &config.StorageConfig{Driver: "postgres", DSN: "postgres://x"}})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "postgres://x", sc.DSN)

	_, _, err = mapStorageConfig(&config.Config{Storage: &config.StorageConfig{Driver: "sqlite"}})
	assert.Error(t, err)
	_, _, err = mapStorageConfig(&config.Config{Storage: &config.StorageConfig{Driver: "mongo"}})
	assert.Error(t, err)
}

func TestMapTelegramConfig(t *testing.T) {
	_, ok, err := mapTelegramConfig(&config.Config{})
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = mapTelegramConfig(&config.Config{Telegram: &config.TelegramConfig{OwnerUserIDs: []int64{1}}})
	require.NoError(t, err)
	assert.False(t, ok, "no token means disabled")

	tc, ok, err := mapTelegramConfig(&config.Config{Telegram: &config.TelegramConfig{Token: " t ", OpsChatID: -5}})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "t", tc.Token)
	assert.Equal(t, 10*time.Second, tc.PollTimeout)

	_, _, err = mapTelegramConfig(&config.Config{Telegram: &config.TelegramConfig{Token: "t", PollTimeout: "soon"}})
	assert.Error(t, err)
}

func TestMapRCONConfig(t *testing.T) {
	rc, err := mapRCONConfig(&config.Config{Server: config.ServerConfig{RCON: config.RCONConfig{Addr: " mc:25575 "}}})
	require.NoError(t, err)
	assert.Equal(t, "mc:25575", rc.Addr)
	assert.Equal(t, 5*time.Second, rc.Timeout)
}

func TestRecordEvent(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	st, err := storage.Open(ctx, storage.Config{Driver: "file", Path: filepath.Join(dir, "h")}, logx.Nop())
	require.NoError(t, err)
	defer st.Close()

	require.NoError(t, recordEvent(ctx, st, eventbus.Event{Type: announce.TopicChanged, Data: announce.Change{Action: "add", Index: 4, Text: "hi"}}))
	require.NoError(t, recordEvent(ctx, st, eventbus.Event{Type: command.TopicExecuted, Data: command.Executed{Sender: "op", Verb: "add", OK: true}}))
	require.NoError(t, recordEvent(ctx, st, eventbus.Event{Type: announce.TopicDelivered, Data: announce.Delivery{Trigger: "schedule", Index: 1, Mode: "sequential"}}))
	require.NoError(t, recordEvent(ctx, st, eventbus.Event{Type: "other", Data: 42}))

	audit, err := os.ReadFile(filepath.Join(dir, "h.audit.jsonl"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(audit)), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"target":"4"`)
	assert.Contains(t, lines[1], `"actor":"op"`)

	del, err := os.ReadFile(filepath.Join(dir, "h.deliveries.jsonl"))
	require.NoError(t, err)
	assert.Contains(t, string(del), `"trigger":"schedule"`)
}

func TestAppLifecycle(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "announcer.yaml")
	out := &syncBuffer{}

	a, err := New(path, Options{
		Info:      command.Info{Name: "Announcer", Version: "test"},
		Stdout:    out,
		LookupEnv: noEnv,
	})
	require.NoError(t, err)
	require.FileExists(t, path)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, a.Start(ctx))

	op := &opSender{}
	d := a.Dispatcher()
	d.ExecuteLine(ctx, op, "announce add Vote for us &aonline!")
	d.ExecuteLine(ctx, op, "announce interval 30")
	d.ExecuteLine(ctx, op, "announce broadcast 4")

	assert.Contains(t, op.got, announce.Green.Format()+"Added announcement successfully!")
	assert.Contains(t, out.String(), "Vote for us")

	raw, err := config.NewManager(path).Parse()
	require.NoError(t, err)
	require.Len(t, raw.Announcement.Messages, 4)
	assert.Equal(t, "Vote for us &aonline!", raw.Announcement.Messages[3])
	require.NotNil(t, raw.Announcement.Interval)
	assert.Equal(t, 30, *raw.Announcement.Interval)

	// an external edit followed by /announce reload replaces the list
	raw.Announcement.Messages = []string{"edited"}
	require.NoError(t, config.NewManager(path).Save(raw))
	op.got = nil
	d.ExecuteLine(ctx, op, "announce reload")
	assert.Equal(t, []string{announce.Green.Format() + "Configuration reloaded."}, op.got)
	got, err := a.svc.Get(1)
	require.NoError(t, err)
	assert.Equal(t, "edited", got)

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer stopCancel()
	assert.NoError(t, a.Stop(stopCtx, StopAppStop))
}

func TestHotReloadKeepsCommandMutations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "announcer.yaml")
	a, err := New(path, Options{Stdout: &syncBuffer{}, LookupEnv: noEnv})
	require.NoError(t, err)
	ctx := context.Background()

	initial := a.cfgm.Get()
	a.Dispatcher().ExecuteLine(ctx, &opSender{}, "announce add fresh")
	require.Equal(t, 4, a.svc.Count())

	// an edit of another section must not bring back the old list
	edited := *a.cfgm.Get()
	edited.Server.Color = "never"
	a.cfgm.Commit(&edited)
	a.applyConfig(initial, &edited)
	assert.Equal(t, 4, a.svc.Count())

	// a version read before the last save is dropped
	a.applyConfig(&edited, initial)
	assert.Equal(t, 4, a.svc.Count())
	got, err := a.svc.Get(4)
	require.NoError(t, err)
	assert.Equal(t, "fresh", got)

	// a current edit of the list is applied
	list := *a.cfgm.Get()
	list.Announcement.Messages = []string{"only"}
	a.cfgm.Commit(&list)
	a.applyConfig(&edited, &list)
	assert.Equal(t, 1, a.svc.Count())
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "announcer.yaml")
	require.NoError(t, os.WriteFile(path, []byte("announcement:\n  interval: 0\n"), 0o600))
	_, err := New(path, Options{LookupEnv: noEnv})
	assert.Error(t, err)
}
