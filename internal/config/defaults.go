package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"announcer/internal/announce"
	"announcer/internal/host"
)

// Default returns the document written on first run.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:   "info",
			Console: true,
			File:    LoggingFile{Enabled: false, Path: "./announcer.log"},
			Ops:     LoggingOps{Enabled: false, MinLevel: "warn", RatePerSec: 1},
		},
		Announcement: AnnouncementFrom(announce.DefaultSettings()),
		Server: ServerConfig{
			Driver: "console",
			RCON:   RCONConfig{Addr: "127.0.0.1:25575", Timeout: "5s"},
		},
		Permissions: PermissionsConfig{
			Defaults: []string{string(host.CapReceiver)},
		},
	}
}

// EnsureFile writes Default() to path if nothing exists there yet.
func EnsureFile(path string) (created bool, err error) {
	_, err = os.Stat(path)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return false, err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return false, err
		}
	}
	b, err := encode(path, Default())
	if err != nil {
		return false, err
	}
	if err := os.WriteFile(path, b, 0o600); err != nil {
		return false, fmt.Errorf("write default config: %w", err)
	}
	return true, nil
}
