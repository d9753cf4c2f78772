package config

import (
	"fmt"

	"announcer/internal/announce"
)

// Settings resolves the announcement section, filling defaults for omitted keys.
// The tag color defaults to the message color.
func (a AnnouncementConfig) Settings() (announce.Settings, error) {
	s := announce.DefaultSettings()

	if a.Messages != nil {
		s.Messages = append([]string(nil), a.Messages...)
	}
	if a.Interval != nil {
		s.Interval = *a.Interval
	}
	if a.BroadcastTag != nil {
		s.Tag = *a.BroadcastTag
	}
	if a.Enabled != nil {
		s.Enabled = *a.Enabled
	}
	if a.Random != nil {
		s.Random = *a.Random
	}
	if a.SendToAll != nil {
		s.SendToAll = *a.SendToAll
	}
	if a.BroadcastColor != "" {
		c, err := announce.ParseColor(a.BroadcastColor)
		if err != nil {
			return announce.Settings{}, fmt.Errorf("announcement.broadcast-color: %w", err)
		}
		s.MessageColor = c
	}
	s.TagColor = s.MessageColor
	if a.BroadcastTagColor != "" {
		c, err := announce.ParseColor(a.BroadcastTagColor)
		if err != nil {
			return announce.Settings{}, fmt.Errorf("announcement.broadcast-tag-color: %w", err)
		}
		s.TagColor = c
	}
	if err := s.Validate(); err != nil {
		return announce.Settings{}, fmt.Errorf("announcement: %w", err)
	}
	return s, nil
}

// AnnouncementFrom writes every key explicitly so the saved document is complete.
func AnnouncementFrom(s announce.Settings) AnnouncementConfig {
	msgs := append([]string{}, s.Messages...)
	interval := s.Interval
	tag := s.Tag
	enabled, random, all := s.Enabled, s.Random, s.SendToAll
	return AnnouncementConfig{
		Messages:          msgs,
		Interval:          &interval,
		BroadcastColor:    s.MessageColor.Name(),
		BroadcastTagColor: s.TagColor.Name(),
		BroadcastTag:      &tag,
		Enabled:           &enabled,
		Random:            &random,
		SendToAll:         &all,
	}
}
