package config

// Config is the on-disk document. Keys under "announcement" keep the names
// used by existing announcer configs.
type Config struct {
	Logging      LoggingConfig      `json:"logging"`
	Announcement AnnouncementConfig `json:"announcement"`
	Server       ServerConfig       `json:"server"`
	Telegram     *TelegramConfig    `json:"telegram,omitempty"`
	Permissions  PermissionsConfig  `json:"permissions"`
	Storage      *StorageConfig     `json:"storage,omitempty"`
}

// AnnouncementConfig mirrors announce.Settings. Pointer fields distinguish
// "omitted" (use the default) from an explicit zero value.
type AnnouncementConfig struct {
	// Messages nil means "use the sample messages"; an explicit empty list stays empty.
	Messages          []string `json:"messages"`
	Interval          *int     `json:"interval,omitempty"`
	BroadcastColor    string   `json:"broadcast-color,omitempty"`
	BroadcastTagColor string   `json:"broadcast-tag-color,omitempty"`
	BroadcastTag      *string  `json:"broadcast-tag,omitempty"`
	Enabled           *bool    `json:"enabled,omitempty"`
	Random            *bool    `json:"random,omitempty"`
	SendToAll         *bool    `json:"sendToAll,omitempty"`
}

// ServerConfig selects how the announcer reaches the game.
//
// Driver values:
//   - "console": local stdin/stdout console, no players (default)
//   - "rcon": Minecraft RCON
type ServerConfig struct {
	Driver string `json:"driver"`
	// Color controls console rendering: "auto" (default), "always" or "never".
	Color string     `json:"color,omitempty"`
	RCON  RCONConfig `json:"rcon"`
}

type RCONConfig struct {
	Addr     string `json:"addr"`
	Password string `json:"password,omitempty"` // prefer ANNOUNCER_RCON_PASSWORD
	// Timeout is a Go duration string (e.g. "5s").
	Timeout string `json:"timeout,omitempty"`
}

type TelegramConfig struct {
	Token        string  `json:"token,omitempty"` // prefer ANNOUNCER_TELEGRAM_TOKEN
	OwnerUserIDs []int64 `json:"owner_user_ids"`
	// OpsChatID receives warn+ log records when logging.ops is enabled.
	OpsChatID int64 `json:"ops_chat_id,omitempty"`
	// PollTimeout is a Go duration string (e.g. "10s", "2m").
	PollTimeout string `json:"poll_timeout,omitempty"`
}

type LoggingConfig struct {
	Level   string      `json:"level"`
	Console bool        `json:"console"`
	File    LoggingFile `json:"file"`
	Ops     LoggingOps  `json:"ops"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// LoggingOps forwards important records to the Telegram ops chat.
type LoggingOps struct {
	Enabled    bool   `json:"enabled"`
	MinLevel   string `json:"min_level"`
	RatePerSec int    `json:"rate_per_sec"`
}

// PermissionsConfig grants capabilities to principals.
// Players are keyed by name, Telegram users by "telegram:<id>".
//
// Example:
//
//	permissions:
//	  defaults: [announcer.receiver]
//	  users:
//	    notch: [announcer.admin]
type PermissionsConfig struct {
	Defaults []string            `json:"defaults"`
	Users    map[string][]string `json:"users,omitempty"`
}

// StorageConfig controls the optional audit/delivery log.
//
// Driver values:
//   - "file": JSON Lines next to Path
//   - "sqlite": SQLite database at Path
//   - "postgres": DSN (prefer ANNOUNCER_STORAGE_DSN)
//
// If the section is omitted or Driver is "none", storage is disabled.
type StorageConfig struct {
	Driver      string `json:"driver"`
	Path        string `json:"path,omitempty"`
	DSN         string `json:"dsn,omitempty"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // Go duration string (sqlite)
}
