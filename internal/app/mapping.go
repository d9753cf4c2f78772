package app

import (
	"fmt"
	"strings"
	"time"

	"announcer/internal/config"
	"announcer/internal/host"
	"announcer/internal/host/rcon"
	"announcer/internal/storage"
	"announcer/internal/transport/telegram"
	logx "announcer/pkg/logx"
)

func mapLogConfig(cfg *config.Config) logx.Config {
	lc := cfg.Logging
	return logx.Config{
		Level:   lc.Level,
		Console: lc.Console,
		File:    logx.FileConfig{Enabled: lc.File.Enabled, Path: lc.File.Path},
		Ops: logx.OpsConfig{
			Enabled:    lc.Ops.Enabled,
			MinLevel:   lc.Ops.MinLevel,
			RatePerSec: lc.Ops.RatePerSec,
		},
	}
}

func mapStorageConfig(cfg *config.Config) (storage.Config, bool, error) {
	if cfg == nil || cfg.Storage == nil {
		return storage.Config{}, false, nil
	}
	sc := cfg.Storage
	driver := strings.ToLower(strings.TrimSpace(sc.Driver))
	if driver == "" || driver == "none" {
		return storage.Config{}, false, nil
	}
	path := strings.TrimSpace(sc.Path)

	switch driver {
	case "file":
		return storage.Config{Driver: "file", Path: path}, true, nil
	case "sqlite", "sqlite3":
		if path == "" {
			return storage.Config{}, false, fmt.Errorf("storage.path is required when storage.driver=sqlite")
		}
		busy, err := config.ParseDurationOrDefault("storage.busy_timeout", sc.BusyTimeout, time.Second)
		if err != nil {
			return storage.Config{}, false, err
		}
		return storage.Config{Driver: "sqlite", Path: path, BusyTimeout: busy}, true, nil
	case "postgres", "postgresql", "pgx":
		return storage.Config{Driver: "postgres", DSN: sc.DSN}, true, nil
	default:
		return storage.Config{}, false, fmt.Errorf("unknown storage.driver: %s", sc.Driver)
	}
}

func mapRCONConfig(cfg *config.Config) (rcon.Config, error) {
	rc := cfg.Server.RCON
	timeout, err := config.ParseDurationOrDefault("server.rcon.timeout", rc.Timeout, 5*time.Second)
	if err != nil {
		return rcon.Config{}, err
	}
	return rcon.Config{Addr: strings.TrimSpace(rc.Addr), Password: rc.Password, Timeout: timeout}, nil
}

// mapTelegramConfig returns ok=false when the operator channel is not configured.
func mapTelegramConfig(cfg *config.Config) (telegram.Config, bool, error) {
	tg := cfg.Telegram
	if tg == nil || strings.TrimSpace(tg.Token) == "" {
		return telegram.Config{}, false, nil
	}
	poll, err := config.ParseDurationOrDefault("telegram.poll_timeout", tg.PollTimeout, 10*time.Second)
	if err != nil {
		return telegram.Config{}, false, err
	}
	return telegram.Config{
		Token:        strings.TrimSpace(tg.Token),
		OwnerUserIDs: append([]int64(nil), tg.OwnerUserIDs...),
		OpsChatID:    tg.OpsChatID,
		PollTimeout:  poll,
	}, true, nil
}

func mapPermissions(cfg *config.Config) *host.Permissions {
	return host.NewPermissions(cfg.Permissions.Defaults, cfg.Permissions.Users)
}

func serverDriver(cfg *config.Config) string {
	d := strings.ToLower(strings.TrimSpace(cfg.Server.Driver))
	if d == "" {
		return "console"
	}
	return d
}
