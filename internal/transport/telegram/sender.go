package telegram

import (
	"context"

	"announcer/internal/announce"
	"announcer/internal/host"
)

// sender collects command output so it can be sent as one reply.
type sender struct {
	principal string
	display   string
	owner     bool
	perms     *host.Permissions
	lines     []string
}

func (s *sender) Name() string { return s.display }

func (s *sender) HasCapability(c host.Capability) bool {
	if s.owner {
		return true
	}
	return s.perms.HasOwn(s.principal, c)
}

func (s *sender) SendMessage(_ context.Context, text string) error {
	s.lines = append(s.lines, announce.Strip(text))
	return nil
}
