// Package telegram is the remote operator channel: /announce commands from a
// Telegram chat and the ops log sink.
package telegram

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	tele "gopkg.in/telebot.v4"

	"announcer/internal/command"
	"announcer/internal/host"
	rtsup "announcer/internal/runtime/supervisor"
	logx "announcer/pkg/logx"
)

type Config struct {
	Token        string
	OwnerUserIDs []int64
	OpsChatID    int64
	PollTimeout  time.Duration
}

// Executor runs announce commands. *command.Dispatcher implements it.
type Executor interface {
	ExecuteLine(ctx context.Context, sender host.Sender, line string) bool
}

// inbound is the part of a Telegram message the bot looks at.
type inbound struct {
	ChatID   int64
	ThreadID int
	FromID   int64
	Username string
	Text     string
}

type sendFunc func(ctx context.Context, chatID int64, threadID int, text string) error

type Bot struct {
	cfg  Config
	log  logx.Logger
	exec Executor

	owners map[int64]struct{}
	perms  atomic.Pointer[host.Permissions]

	bot  *tele.Bot
	send sendFunc

	runMu   sync.Mutex
	running bool
	sup     *rtsup.Supervisor
}

func New(cfg Config, exec Executor, perms *host.Permissions, log logx.Logger) (*Bot, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("telegram token is empty")
	}
	timeout := cfg.PollTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	tb, err := tele.NewBot(tele.Settings{
		Token:  cfg.Token,
		Poller: &tele.LongPoller{Timeout: timeout},
	})
	if err != nil {
		return nil, err
	}
	b := newBot(cfg, exec, perms, log)
	b.bot = tb
	b.send = b.teleSend
	tb.Handle("/"+command.Labels[0], b.onCommand)
	tb.Handle("/"+command.Labels[1], b.onCommand)
	return b, nil
}

func newBot(cfg Config, exec Executor, perms *host.Permissions, log logx.Logger) *Bot {
	if log.IsZero() {
		log = logx.Nop()
	}
	b := &Bot{
		cfg:    cfg,
		log:    log.With(logx.String("comp", "telegram")),
		exec:   exec,
		owners: map[int64]struct{}{},
	}
	for _, id := range cfg.OwnerUserIDs {
		b.owners[id] = struct{}{}
	}
	b.perms.Store(perms)
	return b
}

// SetPermissions swaps the grants used for non-owner senders.
func (b *Bot) SetPermissions(p *host.Permissions) { b.perms.Store(p) }

func (b *Bot) onCommand(c tele.Context) error {
	m := c.Message()
	if m == nil || m.Sender == nil {
		return nil
	}
	in := inbound{
		ChatID:   m.Chat.ID,
		ThreadID: m.ThreadID,
		FromID:   m.Sender.ID,
		Username: m.Sender.Username,
		Text:     m.Text,
	}
	ctx, cancel := context.WithTimeout(b.baseContext(), 30*time.Second)
	defer cancel()
	b.handle(ctx, in)
	return nil
}

func (b *Bot) baseContext() context.Context {
	b.runMu.Lock()
	defer b.runMu.Unlock()
	if b.sup != nil {
		return b.sup.Context()
	}
	return context.Background()
}

// handle executes one command message and replies with the collected output.
func (b *Bot) handle(ctx context.Context, in inbound) {
	s := b.sender(in)
	if !b.exec.ExecuteLine(ctx, s, in.Text) {
		return
	}

	out := strings.TrimSpace(strings.Join(s.lines, "\n"))
	if out == "" {
		out = "OK"
	}
	for _, chunk := range splitText(out, textLimit) {
		if err := b.send(ctx, in.ChatID, in.ThreadID, chunk); err != nil {
			b.log.Warn("reply failed", logx.Int64("chat_id", in.ChatID), logx.Err(err))
			return
		}
	}
}

func (b *Bot) sender(in inbound) *sender {
	_, owner := b.owners[in.FromID]
	return &sender{
		principal: Principal(in.FromID),
		display:   displayName(in),
		owner:     owner,
		perms:     b.perms.Load(),
	}
}

// Principal is the permissions key for a Telegram user.
func Principal(userID int64) string { return "telegram:" + strconv.FormatInt(userID, 10) }

func displayName(in inbound) string {
	if in.Username != "" {
		return "@" + in.Username
	}
	return Principal(in.FromID)
}

func (b *Bot) teleSend(ctx context.Context, chatID int64, threadID int, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := b.bot.Send(&tele.Chat{ID: chatID}, text, &tele.SendOptions{
		DisableWebPagePreview: true,
		ThreadID:              threadID,
	})
	return err
}

// Notify posts text to the ops chat. It is a no-op without an ops chat.
func (b *Bot) Notify(ctx context.Context, text string) error {
	if b.cfg.OpsChatID == 0 || b.send == nil {
		return nil
	}
	for _, chunk := range splitText(text, textLimit) {
		if err := b.send(ctx, b.cfg.OpsChatID, 0, chunk); err != nil {
			return err
		}
	}
	return nil
}

func (b *Bot) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	b.runMu.Lock()
	if b.running {
		b.runMu.Unlock()
		return nil
	}
	b.running = true
	b.sup = rtsup.New(ctx,
		rtsup.WithLogger(b.log),
		// polling errors must not take down the announcer
		rtsup.WithCancelOnError(false),
	)
	sup := b.sup
	b.runMu.Unlock()

	sup.Go0("telebot.stop_on_cancel", func(c context.Context) {
		<-c.Done()
		if b.bot != nil {
			b.bot.Stop()
		}
	})

	// telebot's Start blocks until Stop; restart it if it returns early.
	sup.GoRestart("telebot.poll", func(c context.Context) error {
		if b.bot == nil {
			return nil
		}
		b.log.Info("polling started")
		b.bot.Start()
		b.log.Info("polling stopped")
		if c.Err() != nil {
			return nil
		}
		return errors.New("poller exited")
	}, rtsup.WithRestartBackoff(500*time.Millisecond, 10*time.Second))
	return nil
}

func (b *Bot) Stop(ctx context.Context) error {
	b.runMu.Lock()
	sup := b.sup
	b.sup = nil
	wasRunning := b.running
	b.running = false
	b.runMu.Unlock()

	if !wasRunning || sup == nil {
		return nil
	}
	b.log.Info("stopping")
	sup.Cancel()

	// keep shutdown snappy even if getUpdates is still waiting
	grace := 2 * time.Second
	if dl, ok := ctx.Deadline(); ok {
		if rem := time.Until(dl); rem > 0 && rem < grace {
			grace = rem
		}
	}
	wctx, cancel := context.WithTimeout(ctx, grace)
	defer cancel()
	if err := sup.Wait(wctx); err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			b.log.Warn("telegram stop timed out", logx.Err(err))
			return nil
		}
		b.log.Debug("telegram stopped with error", logx.Err(err))
	}
	return nil
}
