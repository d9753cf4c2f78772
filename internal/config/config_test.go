package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"announcer/internal/announce"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestParseYAMLDefaults(t *testing.T) {
	p := writeFile(t, "announcer.yaml", "announcement:\n  interval: 60\n")
	m := NewManager(p)
	cfg, err := m.Load()
	require.NoError(t, err)

	s, err := cfg.Announcement.Settings()
	require.NoError(t, err)
	assert.Equal(t, 60, s.Interval)
	assert.Equal(t, announce.DefaultMessages(), s.Messages)
	assert.Equal(t, "Announcement", s.Tag)
	assert.Equal(t, announce.LightPurple, s.MessageColor)
	assert.Equal(t, announce.LightPurple, s.TagColor)
	assert.True(t, s.Enabled)
	assert.False(t, s.Random)
	assert.True(t, s.SendToAll)
}

func TestTagColorFollowsMessageColor(t *testing.T) {
	a := AnnouncementConfig{BroadcastColor: "gold"}
	s, err := a.Settings()
	require.NoError(t, err)
	assert.Equal(t, announce.Gold, s.TagColor)

	a.BroadcastTagColor = "RED"
	s, err = a.Settings()
	require.NoError(t, err)
	assert.Equal(t, announce.Red, s.TagColor)
	assert.Equal(t, announce.Gold, s.MessageColor)
}

func TestExplicitEmptyMessagesStayEmpty(t *testing.T) {
	p := writeFile(t, "a.yaml", "announcement:\n  messages: []\n")
	cfg, err := NewManager(p).Parse()
	require.NoError(t, err)
	s, err := cfg.Announcement.Settings()
	require.NoError(t, err)
	assert.Empty(t, s.Messages)
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	p := writeFile(t, "a.yaml", "announcement:\n  bogus: 1\n")
	_, err := NewManager(p).Parse()
	assert.Error(t, err)
}

func TestParseJSON(t *testing.T) {
	p := writeFile(t, "a.json", `{"announcement":{"messages":["x"],"random":true}}`)
	cfg, err := NewManager(p).Parse()
	require.NoError(t, err)
	s, err := cfg.Announcement.Settings()
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, s.Messages)
	assert.True(t, s.Random)
}

func TestSaveRoundTrip(t *testing.T) {
	for _, name := range []string{"announcer.yaml", "announcer.json"} {
		t.Run(name, func(t *testing.T) {
			p := filepath.Join(t.TempDir(), name)
			m := NewManager(p)

			st := announce.DefaultSettings()
			st.Messages = []string{"&aHello&n/say hi", "true", "key: value", "#not a comment"}
			st.Tag = ""
			cfg := Default()
			cfg.Announcement = AnnouncementFrom(st)
			require.NoError(t, m.Save(cfg))

			got, err := m.Parse()
			require.NoError(t, err)
			want, err := marshalJSON(cfg)
			require.NoError(t, err)
			have, err := marshalJSON(got)
			require.NoError(t, err)
			assert.JSONEq(t, string(want), string(have))

			back, err := got.Announcement.Settings()
			require.NoError(t, err)
			assert.Equal(t, st, back)
			assert.Same(t, cfg, m.Get())
		})
	}
}

func TestSaveWritesBlockYAML(t *testing.T) {
	p := filepath.Join(t.TempDir(), "announcer.yaml")
	require.NoError(t, NewManager(p).Save(Default()))
	b, err := os.ReadFile(p)
	require.NoError(t, err)
	out := string(b)
	assert.Contains(t, out, "announcement:\n")
	assert.Contains(t, out, "  sendToAll: true\n")
	assert.NotContains(t, out, "{")
}

func TestUpdate(t *testing.T) {
	p := filepath.Join(t.TempDir(), "announcer.yaml")
	m := NewManager(p)
	require.NoError(t, m.Save(Default()))
	require.NoError(t, m.Update(func(c *Config) { c.Server.Driver = "rcon" }))
	got, err := m.Parse()
	require.NoError(t, err)
	assert.Equal(t, "rcon", got.Server.Driver)
}

func TestEnsureFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "sub", "announcer.yaml")
	created, err := EnsureFile(p)
	require.NoError(t, err)
	assert.True(t, created)

	cfg, err := NewManager(p).Parse()
	require.NoError(t, err)
	require.NoError(t, Validate(cfg))

	created, err = EnsureFile(p)
	require.NoError(t, err)
	assert.False(t, created)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(c *Config)
		errSub string
	}{
		{"ok", func(c *Config) {}, ""},
		{"bad color", func(c *Config) { c.Announcement.BroadcastColor = "MAGENTA" }, "broadcast-color"},
		{"zero interval", func(c *Config) { z := 0; c.Announcement.Interval = &z }, "interval"},
		{"huge interval", func(c *Config) { n := announce.MaxInterval + 1; c.Announcement.Interval = &n }, "interval"},
		{"bad driver", func(c *Config) { c.Server.Driver = "ssh" }, "server.driver"},
		{"rcon no addr", func(c *Config) { c.Server.Driver = "rcon"; c.Server.RCON.Addr = "" }, "server.rcon.addr"},
		{"bad timeout", func(c *Config) { c.Server.Driver = "rcon"; c.Server.RCON.Timeout = "soon" }, "server.rcon.timeout"},
		{"bad console color", func(c *Config) { c.Server.Color = "rainbow" }, "server.color"},
		{"bad storage", func(c *Config) { c.Storage = &StorageConfig{Driver: "mongo"} }, "storage.driver"},
		{"sqlite no path", func(c *Config) { c.Storage = &StorageConfig{Driver: "sqlite"} }, "storage.path"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := Default()
			tc.mutate(c)
			err := Validate(c)
			if tc.errSub == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.errSub)
		})
	}
}

func TestWithEnv(t *testing.T) {
	cfg := Default()
	cfg.Storage = &StorageConfig{Driver: "postgres"}
	env := map[string]string{
		EnvRCONPassword:  "s3cret",
		EnvTelegramToken: "123:abc",
		EnvStorageDSN:    "postgres://x",
	}
	out := WithEnv(cfg, func(k string) (string, bool) { v, ok := env[k]; return v, ok })

	assert.Equal(t, "s3cret", out.Server.RCON.Password)
	require.NotNil(t, out.Telegram)
	assert.Equal(t, "123:abc", out.Telegram.Token)
	assert.Equal(t, "postgres://x", out.Storage.DSN)

	// the input config keeps no secrets
	assert.Empty(t, cfg.Server.RCON.Password)
	assert.Nil(t, cfg.Telegram)
	assert.Empty(t, cfg.Storage.DSN)
}

func TestSummarizeConfigChange(t *testing.T) {
	a := Default()
	b := Default()
	b.Announcement.Messages = append(b.Announcement.Messages, "new")
	b.Telegram = &TelegramConfig{Token: "secret"}

	changed, attrs := SummarizeConfigChange(a, b)
	assert.Equal(t, []string{"announcement", "telegram"}, changed)
	assert.NotEmpty(t, attrs)

	changed, _ = SummarizeConfigChange(a, Default())
	assert.Empty(t, changed)
}

func TestEmptyYAMLDocument(t *testing.T) {
	p := writeFile(t, "a.yaml", "   \n")
	cfg, err := NewManager(p).Parse()
	require.NoError(t, err)
	assert.True(t, strings.TrimSpace(cfg.Server.Driver) == "")
}

func TestReloadSkipsOwnSave(t *testing.T) {
	p := filepath.Join(t.TempDir(), "announcer.yaml")
	m := NewManager(p)
	sub := m.Subscribe()
	defer m.Unsubscribe(sub)

	require.NoError(t, m.Save(Default()))
	require.NoError(t, m.Update(func(c *Config) { c.Server.Color = "never" }))
	m.reload(context.Background())
	assert.Empty(t, sub)
}

func TestReloadPublishesEdit(t *testing.T) {
	p := filepath.Join(t.TempDir(), "announcer.yaml")
	m := NewManager(p)
	require.NoError(t, m.Save(Default()))
	sub := m.Subscribe()
	defer m.Unsubscribe(sub)

	edit := Default()
	edit.Server.Color = "always"
	b, err := encode(p, edit)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(p, b, 0o600))

	m.reload(context.Background())
	require.Len(t, sub, 1)
	got := <-sub
	assert.Equal(t, "always", got.Server.Color)
	assert.Same(t, got, m.Get())

	// the same bytes again are not a new edit
	m.reload(context.Background())
	assert.Empty(t, sub)
}

func TestReloadKeepsPreviousOnRejection(t *testing.T) {
	p := filepath.Join(t.TempDir(), "announcer.yaml")
	m := NewManager(p)
	require.NoError(t, m.Save(Default()))
	before := m.Get()
	m.SetValidator(func(_ context.Context, c *Config) error { return Validate(c) })
	sub := m.Subscribe()
	defer m.Unsubscribe(sub)

	require.NoError(t, os.WriteFile(p, []byte("server:\n  driver: ssh\n"), 0o600))
	m.reload(context.Background())
	require.NoError(t, os.WriteFile(p, []byte("not: [valid"), 0o600))
	m.reload(context.Background())

	assert.Empty(t, sub)
	assert.Same(t, before, m.Get())
}

func TestSubscriberSeesLatestOnly(t *testing.T) {
	m := NewManager(filepath.Join(t.TempDir(), "announcer.yaml"))
	sub := m.Subscribe()
	a, b := Default(), Default()
	m.publish(a)
	m.publish(b)
	require.Len(t, sub, 1)
	assert.Same(t, b, <-sub)

	m.Unsubscribe(sub)
	_, open := <-sub
	assert.False(t, open)
	m.publish(a)
}

func TestWatchPublishesFileEdit(t *testing.T) {
	p := filepath.Join(t.TempDir(), "announcer.yaml")
	m := NewManager(p)
	require.NoError(t, m.Save(Default()))
	sub := m.Subscribe()
	defer m.Unsubscribe(sub)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Watch(ctx) }()
	defer func() {
		cancel()
		assert.NoError(t, <-done)
	}()

	edit := Default()
	edit.Server.Color = "always"
	b, err := encode(p, edit)
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		// rewrite until the watcher is registered and picks it up
		_ = os.WriteFile(p, b, 0o600)
		return len(sub) == 1
	}, 5*time.Second, 100*time.Millisecond)
	assert.Equal(t, "always", (<-sub).Server.Color)
}
