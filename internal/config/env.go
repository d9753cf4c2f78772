package config

import "strings"

// Environment variables that override secrets. Values from the environment are
// never written back by Save.
const (
	EnvRCONPassword  = "ANNOUNCER_RCON_PASSWORD"
	EnvTelegramToken = "ANNOUNCER_TELEGRAM_TOKEN"
	EnvStorageDSN    = "ANNOUNCER_STORAGE_DSN"
)

// WithEnv returns a copy of cfg with secrets taken from lookup where set.
func WithEnv(cfg *Config, lookup func(string) (string, bool)) *Config {
	if cfg == nil {
		return nil
	}
	out := *cfg
	get := func(k string) (string, bool) {
		v, ok := lookup(k)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}
	if v, ok := get(EnvRCONPassword); ok {
		out.Server.RCON.Password = v
	}
	if v, ok := get(EnvTelegramToken); ok {
		tg := TelegramConfig{}
		if cfg.Telegram != nil {
			tg = *cfg.Telegram
		}
		tg.Token = v
		out.Telegram = &tg
	}
	if v, ok := get(EnvStorageDSN); ok && cfg.Storage != nil {
		st := *cfg.Storage
		st.DSN = v
		out.Storage = &st
	}
	return &out
}
