// Package rcon reaches a Minecraft server over RCON.
//
// Online players come from "list", messages go out as "tellraw" and
// announcement commands are executed verbatim. The connection is opened on
// first use and dropped after any error, so the next call reconnects.
package rcon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	gorcon "github.com/gorcon/rcon"

	"announcer/internal/announce"
	"announcer/internal/host"
	logx "announcer/pkg/logx"
)

type Config struct {
	Addr     string
	Password string
	Timeout  time.Duration
}

type conn interface {
	Execute(command string) (string, error)
	Close() error
}

type dialFunc func(addr, password string, timeout time.Duration) (conn, error)

func dialRCON(addr, password string, timeout time.Duration) (conn, error) {
	return gorcon.Dial(addr, password, gorcon.SetDialTimeout(timeout), gorcon.SetDeadline(timeout))
}

// Host implements host.Server over RCON. Player capabilities come from perms.
type Host struct {
	cfg   Config
	perms *host.Permissions
	log   logx.Logger
	dial  dialFunc

	mu   sync.Mutex
	conn conn
}

func New(cfg Config, perms *host.Permissions, log logx.Logger) *Host {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Host{cfg: cfg, perms: perms, log: log, dial: dialRCON}
}

// SetPermissions swaps the permission table after a config reload.
func (h *Host) SetPermissions(p *host.Permissions) {
	h.mu.Lock()
	h.perms = p
	h.mu.Unlock()
}

func (h *Host) exec(ctx context.Context, command string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.conn == nil {
		c, err := h.dial(h.cfg.Addr, h.cfg.Password, h.cfg.Timeout)
		if err != nil {
			return "", fmt.Errorf("rcon dial %s: %w", h.cfg.Addr, errors.Join(host.ErrNotConnected, err))
		}
		h.conn = c
		h.log.Info("rcon connected", logx.String("addr", h.cfg.Addr))
	}
	out, err := h.conn.Execute(command)
	if err != nil {
		_ = h.conn.Close()
		h.conn = nil
		return "", fmt.Errorf("rcon execute: %w", err)
	}
	return out, nil
}

func (h *Host) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.conn == nil {
		return nil
	}
	err := h.conn.Close()
	h.conn = nil
	return err
}

func (h *Host) Online(ctx context.Context) ([]host.Sender, error) {
	out, err := h.exec(ctx, "list")
	if err != nil {
		return nil, err
	}
	names := parseList(out)
	h.mu.Lock()
	perms := h.perms
	h.mu.Unlock()
	senders := make([]host.Sender, 0, len(names))
	for _, n := range names {
		senders = append(senders, &player{h: h, name: n, perms: perms})
	}
	return senders, nil
}

func (h *Host) Broadcast(ctx context.Context, text string) error {
	return h.tellraw(ctx, "@a", text)
}

func (h *Host) Dispatch(ctx context.Context, command string) error {
	out, err := h.exec(ctx, command)
	if err != nil {
		return err
	}
	if out = strings.TrimSpace(out); out != "" {
		h.log.Debug("rcon command output", logx.String("command", command), logx.String("output", announce.Strip(out)))
	}
	return nil
}

func (h *Host) tellraw(ctx context.Context, target, text string) error {
	b, err := json.Marshal(struct {
		Text string `json:"text"`
	}{Text: text})
	if err != nil {
		return err
	}
	_, err = h.exec(ctx, "tellraw "+target+" "+string(b))
	return err
}

type player struct {
	h     *Host
	name  string
	perms *host.Permissions
}

func (p *player) Name() string { return p.name }

func (p *player) HasCapability(c host.Capability) bool { return p.perms.Has(p.name, c) }

func (p *player) SendMessage(ctx context.Context, text string) error {
	return p.h.tellraw(ctx, p.name, text)
}

// parseList extracts player names from the "list" reply. Both vanilla forms
// are accepted:
//
//	There are 2 of a max of 20 players online: alice, bob
//	There are 2/20 players online:\nalice, bob
func parseList(out string) []string {
	out = announce.Strip(out)
	i := strings.LastIndex(out, ":")
	if i < 0 {
		return nil
	}
	rest := strings.NewReplacer("\n", ",", "\r", "").Replace(out[i+1:])
	var names []string
	for _, n := range strings.Split(rest, ",") {
		n = strings.TrimSpace(n)
		if n != "" {
			names = append(names, n)
		}
	}
	return names
}
