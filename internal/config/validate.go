package config

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownServerDriver  = errors.New("unknown server driver")
	ErrUnknownStorageDriver = errors.New("unknown storage driver")
)

// Validate checks everything that would otherwise fail later at wiring time.
// It is used at startup and before committing a hot reload.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("config is nil")
	}
	var errs []error

	if _, err := cfg.Announcement.Settings(); err != nil {
		errs = append(errs, err)
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Server.Driver)) {
	case "", "console":
	case "rcon":
		if strings.TrimSpace(cfg.Server.RCON.Addr) == "" {
			errs = append(errs, errors.New("server.rcon.addr is required for rcon driver"))
		}
		if _, err := ParseDurationField("server.rcon.timeout", cfg.Server.RCON.Timeout); err != nil {
			errs = append(errs, err)
		}
	default:
		errs = append(errs, fmt.Errorf("server.driver %q: %w", cfg.Server.Driver, ErrUnknownServerDriver))
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Server.Color)) {
	case "", "auto", "always", "never":
	default:
		errs = append(errs, fmt.Errorf("server.color %q: want auto, always or never", cfg.Server.Color))
	}

	if tg := cfg.Telegram; tg != nil {
		if _, err := ParseDurationField("telegram.poll_timeout", tg.PollTimeout); err != nil {
			errs = append(errs, err)
		}
	}

	if st := cfg.Storage; st != nil {
		switch strings.ToLower(strings.TrimSpace(st.Driver)) {
		case "", "none":
		case "file", "sqlite", "sqlite3":
			if strings.TrimSpace(st.Path) == "" {
				errs = append(errs, fmt.Errorf("storage.path is required for %s driver", st.Driver))
			}
			if _, err := ParseDurationField("storage.busy_timeout", st.BusyTimeout); err != nil {
				errs = append(errs, err)
			}
		case "postgres", "pgx":
		default:
			errs = append(errs, fmt.Errorf("storage.driver %q: %w", st.Driver, ErrUnknownStorageDriver))
		}
	}

	return errors.Join(errs...)
}
