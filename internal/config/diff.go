package config

import (
	"reflect"
	"sort"
	"strings"

	logx "announcer/pkg/logx"
)

// SummarizeConfigChange returns the changed top-level sections and safe
// structured attrs for the reload log. Secrets (tokens, passwords, DSNs)
// are reported only as "set" flags.
func SummarizeConfigChange(oldCfg, newCfg *Config) ([]string, []logx.Field) {
	if oldCfg == nil {
		oldCfg = &Config{}
	}
	if newCfg == nil {
		newCfg = &Config{}
	}

	changed := make([]string, 0, 6)
	attrs := make([]logx.Field, 0, 16)

	if !reflect.DeepEqual(oldCfg.Logging, newCfg.Logging) {
		changed = append(changed, "logging")
		attrs = append(attrs,
			logx.String("logging.level", newCfg.Logging.Level),
			logx.Bool("logging.console", newCfg.Logging.Console),
			logx.Bool("logging.file_enabled", newCfg.Logging.File.Enabled),
			logx.Bool("logging.ops_enabled", newCfg.Logging.Ops.Enabled),
		)
	}

	oa, na := oldCfg.Announcement, newCfg.Announcement
	if !reflect.DeepEqual(oa, na) {
		changed = append(changed, "announcement")
		attrs = append(attrs, logx.Int("announcement.messages", len(na.Messages)))
		if s, err := na.Settings(); err == nil {
			attrs = append(attrs,
				logx.Int("announcement.interval", s.Interval),
				logx.Bool("announcement.enabled", s.Enabled),
				logx.Bool("announcement.random", s.Random),
				logx.Bool("announcement.send_to_all", s.SendToAll),
			)
		}
	}

	oSrv, nSrv := oldCfg.Server, newCfg.Server
	if oSrv.Driver != nSrv.Driver || oSrv.RCON.Addr != nSrv.RCON.Addr || oSrv.RCON.Timeout != nSrv.RCON.Timeout ||
		(oSrv.RCON.Password != "") != (nSrv.RCON.Password != "") {
		changed = append(changed, "server")
		attrs = append(attrs,
			logx.String("server.driver", strings.TrimSpace(nSrv.Driver)),
			logx.String("server.rcon_addr", strings.TrimSpace(nSrv.RCON.Addr)),
			logx.Bool("server.rcon_password_set", nSrv.RCON.Password != ""),
		)
	}

	ot, nt := derefTelegram(oldCfg.Telegram), derefTelegram(newCfg.Telegram)
	if !reflect.DeepEqual(ot.OwnerUserIDs, nt.OwnerUserIDs) || ot.OpsChatID != nt.OpsChatID ||
		strings.TrimSpace(ot.PollTimeout) != strings.TrimSpace(nt.PollTimeout) ||
		(ot.Token != "") != (nt.Token != "") ||
		(oldCfg.Telegram == nil) != (newCfg.Telegram == nil) {
		changed = append(changed, "telegram")
		attrs = append(attrs,
			logx.Bool("telegram.present", newCfg.Telegram != nil),
			logx.Int("telegram.owner_count", len(nt.OwnerUserIDs)),
			logx.Bool("telegram.ops_chat_set", nt.OpsChatID != 0),
			logx.Bool("telegram.token_set", nt.Token != ""),
		)
	}

	if !reflect.DeepEqual(oldCfg.Permissions, newCfg.Permissions) {
		changed = append(changed, "permissions")
		attrs = append(attrs,
			logx.Strings("permissions.defaults", newCfg.Permissions.Defaults),
			logx.Int("permissions.users", len(newCfg.Permissions.Users)),
		)
	}

	// Nil means disabled.
	var oDriver, nDriver, oBusy, nBusy string
	var oPathSet, nPathSet, oDSNSet, nDSNSet bool
	if s := oldCfg.Storage; s != nil {
		oDriver, oBusy = strings.TrimSpace(s.Driver), strings.TrimSpace(s.BusyTimeout)
		oPathSet, oDSNSet = strings.TrimSpace(s.Path) != "", s.DSN != ""
	}
	if s := newCfg.Storage; s != nil {
		nDriver, nBusy = strings.TrimSpace(s.Driver), strings.TrimSpace(s.BusyTimeout)
		nPathSet, nDSNSet = strings.TrimSpace(s.Path) != "", s.DSN != ""
	}
	if oDriver != nDriver || oBusy != nBusy || oPathSet != nPathSet || oDSNSet != nDSNSet {
		changed = append(changed, "storage")
		attrs = append(attrs,
			logx.String("storage.driver", nDriver),
			logx.Bool("storage.path_set", nPathSet),
			logx.Bool("storage.dsn_set", nDSNSet),
			logx.String("storage.busy_timeout", nBusy),
		)
	}

	sort.Strings(changed)
	return changed, attrs
}

func derefTelegram(t *TelegramConfig) TelegramConfig {
	if t == nil {
		return TelegramConfig{}
	}
	return *t
}
