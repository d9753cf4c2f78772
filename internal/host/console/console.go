// Package console is a host without a game: announcements and replies are
// printed to a terminal and operator commands are read from stdin.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"announcer/internal/host"
	logx "announcer/pkg/logx"
)

type Options struct {
	In  io.Reader
	Out io.Writer
	// Color is "auto" (detect from Out), "always" or "never".
	Color string
	Log   logx.Logger
}

// Host implements host.Server on top of a terminal.
type Host struct {
	in  io.Reader
	log logx.Logger

	mu  sync.Mutex
	out io.Writer
	r   *lipgloss.Renderer
}

func New(opt Options) *Host {
	if opt.Out == nil {
		opt.Out = os.Stdout
	}
	if opt.Log.IsZero() {
		opt.Log = logx.Nop()
	}
	r := lipgloss.NewRenderer(opt.Out)
	switch strings.ToLower(strings.TrimSpace(opt.Color)) {
	case "always":
		r.SetColorProfile(termenv.ANSI)
	case "never":
		r.SetColorProfile(termenv.Ascii)
	}
	return &Host{in: opt.In, out: opt.Out, r: r, log: opt.Log}
}

// Online is always empty: nobody is connected to a console.
func (h *Host) Online(context.Context) ([]host.Sender, error) { return nil, nil }

func (h *Host) Broadcast(_ context.Context, text string) error {
	return h.println(text)
}

// Dispatch echoes the command; there is no game to run it.
func (h *Host) Dispatch(_ context.Context, command string) error {
	h.log.Info("console command", logx.String("command", command))
	return h.println("§7> " + command)
}

func (h *Host) println(text string) error {
	line := Render(h.r, text)
	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := fmt.Fprintln(h.out, line)
	return err
}

// Console returns the operator sender. It holds every capability.
func (h *Host) Console() host.Sender { return consoleSender{h: h} }

type consoleSender struct{ h *Host }

func (consoleSender) Name() string                       { return host.ConsoleName }
func (consoleSender) HasCapability(host.Capability) bool { return true }
func (c consoleSender) SendMessage(_ context.Context, text string) error {
	return c.h.println(text)
}

// Run feeds each non-empty input line to handle as the console sender until
// ctx is done or input ends.
func (h *Host) Run(ctx context.Context, handle func(ctx context.Context, sender host.Sender, line string)) error {
	if h.in == nil {
		<-ctx.Done()
		return nil
	}
	lines := make(chan string)
	errc := make(chan error, 1)
	go func() {
		sc := bufio.NewScanner(h.in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		errc <- sc.Err()
	}()

	sender := h.Console()
	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-errc:
			if err != nil {
				return fmt.Errorf("console input: %w", err)
			}
			h.log.Debug("console input closed")
			<-ctx.Done()
			return nil
		case line := <-lines:
			if strings.TrimSpace(line) == "" {
				continue
			}
			handle(ctx, sender, line)
		}
	}
}
