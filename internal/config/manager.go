package config

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	logx "announcer/pkg/logx"
)

// watchDebounce lets an editor finish a multi-step save before the file is read.
const watchDebounce = 250 * time.Millisecond

// Manager loads, writes and watches the config document at path.
//
// Save records a digest of the bytes it wrote. The watcher compares the file
// against that digest, so the announcer's own write-through is never
// published back to it as an operator edit.
type Manager struct {
	path string

	mu        sync.RWMutex
	cfg       *Config
	validator func(ctx context.Context, cfg *Config) error

	// ioMu orders Save against the watcher's read-validate-commit.
	ioMu   sync.Mutex
	digest uint64 // file bytes last loaded, written or published

	subsMu sync.Mutex
	subs   []chan *Config

	log logx.Logger
}

func NewManager(path string) *Manager {
	return &Manager{path: path}
}

func (m *Manager) Path() string { return m.path }

func (m *Manager) SetLogger(log logx.Logger) { m.log = log }

// SetValidator installs the check Watch runs before publishing an edit.
func (m *Manager) SetValidator(fn func(ctx context.Context, cfg *Config) error) {
	m.mu.Lock()
	m.validator = fn
	m.mu.Unlock()
}

func (m *Manager) validate(ctx context.Context, cfg *Config) error {
	m.mu.RLock()
	fn := m.validator
	m.mu.RUnlock()
	if fn == nil {
		return nil
	}
	return fn(ctx, cfg)
}

// Parse reads and decodes the file without committing it.
func (m *Manager) Parse() (*Config, error) {
	b, err := os.ReadFile(m.path)
	if err != nil {
		return nil, err
	}
	return decode(m.path, b)
}

func decode(path string, b []byte) (*Config, error) {
	jb, _, err := coerceToJSONBytes(path, b)
	if err != nil {
		return nil, err
	}
	var cfg Config
	dec := json.NewDecoder(bytes.NewReader(jb))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		if err == nil {
			return nil, fmt.Errorf("%s: trailing data after document", path)
		}
		return nil, err
	}
	return &cfg, nil
}

// Load parses the file and makes it the current config.
func (m *Manager) Load() (*Config, error) {
	m.ioMu.Lock()
	defer m.ioMu.Unlock()
	b, err := os.ReadFile(m.path)
	if err != nil {
		return nil, err
	}
	cfg, err := decode(m.path, b)
	if err != nil {
		return nil, err
	}
	m.digest = hashBytes(b)
	m.Commit(cfg)
	return cfg, nil
}

// Commit makes cfg the current config without touching the file.
func (m *Manager) Commit(cfg *Config) {
	m.mu.Lock()
	m.cfg = cfg
	m.mu.Unlock()
}

func (m *Manager) Get() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cfg
}

// Save writes cfg to disk in the file's format and commits it.
// The write is a plain overwrite; a crash mid-write can leave a partial file.
func (m *Manager) Save(cfg *Config) error {
	if cfg == nil {
		return errors.New("save: config is nil")
	}
	b, err := encode(m.path, cfg)
	if err != nil {
		return fmt.Errorf("save: encode: %w", err)
	}
	m.ioMu.Lock()
	defer m.ioMu.Unlock()
	if err := os.WriteFile(m.path, b, 0o600); err != nil {
		return fmt.Errorf("save: %w", err)
	}
	m.digest = hashBytes(b)
	m.Commit(cfg)
	m.log.Debug("config saved", logx.String("path", m.path), logx.Int("bytes", len(b)))
	return nil
}

// Update applies fn to a copy of the current config and saves the result.
func (m *Manager) Update(fn func(cfg *Config)) error {
	next := Config{}
	if cur := m.Get(); cur != nil {
		next = *cur
	}
	fn(&next)
	return m.Save(&next)
}

// Subscribe returns a channel that holds the newest published config.
// A reader that falls behind sees only the latest version.
func (m *Manager) Subscribe() chan *Config {
	ch := make(chan *Config, 1)
	m.subsMu.Lock()
	m.subs = append(m.subs, ch)
	m.subsMu.Unlock()
	return ch
}

func (m *Manager) Unsubscribe(ch chan *Config) {
	m.subsMu.Lock()
	defer m.subsMu.Unlock()
	for i, s := range m.subs {
		if s == ch {
			m.subs = append(m.subs[:i], m.subs[i+1:]...)
			close(ch)
			return
		}
	}
}

func (m *Manager) publish(cfg *Config) {
	m.subsMu.Lock()
	defer m.subsMu.Unlock()
	for _, ch := range m.subs {
		select {
		case <-ch: // superseded
		default:
		}
		ch <- cfg
	}
}

// Watch publishes operator edits of the file until ctx is done. If the
// platform watcher cannot start, hot reload stays off and Watch returns nil;
// "/announce reload" keeps working.
func (m *Manager) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		m.log.Warn("config watch unavailable; use reload", logx.Err(err))
		return nil
	}
	defer w.Close()

	// the directory is watched so editors that replace the file are seen
	dir, file := filepath.Dir(m.path), filepath.Base(m.path)
	if err := w.Add(dir); err != nil {
		m.log.Warn("config watch unavailable; use reload", logx.String("dir", dir), logx.Err(err))
		return nil
	}
	m.log.Debug("config watch started", logx.String("path", m.path))

	settle := time.NewTimer(time.Hour)
	settle.Stop()
	defer settle.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				m.log.Warn("config watch stopped; use reload")
				return nil
			}
			if filepath.Base(ev.Name) == file && ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				settle.Reset(watchDebounce)
			}
		case err, ok := <-w.Errors:
			if !ok {
				m.log.Warn("config watch stopped; use reload")
				return nil
			}
			m.log.Warn("config watch error", logx.Err(err))
			if errors.Is(err, fsnotify.ErrEventOverflow) {
				settle.Reset(watchDebounce)
			}
		case <-settle.C:
			m.reload(ctx)
		}
	}
}

// reload publishes the file unless it is the last version this manager
// loaded or wrote, or the validator rejects it.
func (m *Manager) reload(ctx context.Context) {
	m.ioMu.Lock()
	defer m.ioMu.Unlock()

	b, err := os.ReadFile(m.path)
	if err != nil {
		m.log.Warn("config read failed; keeping previous", logx.String("path", m.path), logx.Err(err))
		return
	}
	sum := hashBytes(b)
	if sum == m.digest {
		m.log.Debug("config unchanged on disk", logx.String("path", m.path))
		return
	}
	cfg, err := decode(m.path, b)
	if err != nil {
		m.log.Warn("config parse failed; keeping previous", logx.Err(err))
		return
	}
	vctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	err = m.validate(vctx, cfg)
	cancel()
	if err != nil {
		m.log.Warn("config rejected; keeping previous", logx.String("path", m.path), logx.Err(err))
		return
	}

	m.digest = sum
	m.Commit(cfg)
	m.publish(cfg)
	m.log.Debug("config edit published", logx.String("path", m.path))
}
