package announce

import (
	"fmt"
	"math"
	"slices"
	"time"
)

// Host tick granularity: an interval of N seconds is N*20 ticks of 50ms.
const (
	TicksPerSecond = 20
	TickDuration   = 50 * time.Millisecond
)

// MaxInterval keeps Period well inside time.Duration and fits a 32-bit int.
const MaxInterval = math.MaxInt32

const (
	DefaultInterval = 1000
	DefaultTag      = "Announcement"
	DefaultColor    = LightPurple
)

// Period converts an interval in seconds to the trigger period.
func Period(interval int) time.Duration {
	return time.Duration(interval) * TicksPerSecond * TickDuration
}

// Settings is the persisted state of the announcer.
type Settings struct {
	Messages     []string
	Interval     int // seconds
	Tag          string
	TagColor     Color
	MessageColor Color
	Enabled      bool
	Random       bool
	SendToAll    bool
}

func DefaultMessages() []string {
	return []string{
		"This is the first default announcement!",
		"Use /announce help to get info how to config this plugin.",
		"You can also configure this plugin with its 'config.yml' too!",
	}
}

func DefaultSettings() Settings {
	return Settings{
		Messages:     DefaultMessages(),
		Interval:     DefaultInterval,
		Tag:          DefaultTag,
		TagColor:     DefaultColor,
		MessageColor: DefaultColor,
		Enabled:      true,
		Random:       false,
		SendToAll:    true,
	}
}

// CheckInterval reports whether seconds is a usable rotation interval.
func CheckInterval(seconds int) error {
	if seconds <= 0 {
		return fmt.Errorf("interval %d: %w", seconds, ErrInvalidInterval)
	}
	if seconds > MaxInterval {
		return fmt.Errorf("interval %d above %d: %w", seconds, MaxInterval, ErrIntervalTooLong)
	}
	return nil
}

func (s Settings) Validate() error {
	if err := CheckInterval(s.Interval); err != nil {
		return err
	}
	if !s.TagColor.Valid() {
		return fmt.Errorf("invalid tag color %d", s.TagColor)
	}
	if !s.MessageColor.Valid() {
		return fmt.Errorf("invalid message color %d", s.MessageColor)
	}
	return nil
}

// Equal reports whether s and o hold the same state. Nil and empty message
// lists are equal.
func (s Settings) Equal(o Settings) bool {
	return s.Interval == o.Interval &&
		s.Tag == o.Tag &&
		s.TagColor == o.TagColor &&
		s.MessageColor == o.MessageColor &&
		s.Enabled == o.Enabled &&
		s.Random == o.Random &&
		s.SendToAll == o.SendToAll &&
		slices.Equal(s.Messages, o.Messages)
}

func (s Settings) style() Style {
	return Style{Tag: s.Tag, TagColor: s.TagColor, MessageColor: s.MessageColor, SendToAll: s.SendToAll}
}

func (s Settings) clone() Settings {
	s.Messages = append([]string(nil), s.Messages...)
	return s
}
