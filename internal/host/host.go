package host

import (
	"context"
	"errors"
)

// ErrNotConnected is returned by servers that have no live link to the game.
var ErrNotConnected = errors.New("host: not connected")

// Sender is anyone that can receive messages and hold capabilities:
// an online player, the console, or a remote operator.
type Sender interface {
	Name() string
	HasCapability(c Capability) bool
	SendMessage(ctx context.Context, text string) error
}

// Server is the game server seen from the announcer.
type Server interface {
	// Online returns the currently connected recipients.
	Online(ctx context.Context) ([]Sender, error)
	// Broadcast sends text to every connected recipient.
	Broadcast(ctx context.Context, text string) error
	// Dispatch runs a command line as the console identity.
	Dispatch(ctx context.Context, command string) error
}

// ConsoleName is the sender name used for the local operator console.
const ConsoleName = "CONSOLE"
