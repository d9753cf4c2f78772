package command

import (
	"context"
	"errors"
	"strings"
	"time"

	"announcer/internal/announce"
	"announcer/internal/eventbus"
	"announcer/internal/host"
	logx "announcer/pkg/logx"
)

// TopicExecuted is published after every dispatched command.
const TopicExecuted = "command.executed"

// DefaultPageSize is the number of entries per list page.
const DefaultPageSize = 7

const invalidArguments = "Invalid arguments! Use '/announce help' to get a list of valid commands."

// Service is the part of announce.Service the commands drive.
type Service interface {
	Get(index int) (string, error)
	Count() int
	Page(page, pageSize int) ([]announce.Entry, int)
	Add(ctx context.Context, msg string) (int, error)
	Remove(ctx context.Context, index int) (string, error)
	Interval() int
	SetInterval(ctx context.Context, seconds int) error
	Tag() string
	SetTag(ctx context.Context, tag string) error
	Random() bool
	SetRandom(ctx context.Context, random bool) error
	Enabled() bool
	SetEnabled(ctx context.Context, enabled bool) error
	Reload(ctx context.Context) error
	AnnounceNext(ctx context.Context) (announce.Report, bool)
	AnnounceIndex(ctx context.Context, index int) (announce.Report, error)
}

// Info is shown by the version and help screens.
type Info struct {
	Name    string
	Version string
	Author  string
	Website string
}

type Options struct {
	Info Info
	// PageSize for list; 0 uses DefaultPageSize, negative lists everything on one page.
	PageSize int
	Bus      eventbus.Bus
	Log      logx.Logger
}

// Executed is the payload of TopicExecuted.
type Executed struct {
	Sender string   `json:"sender"`
	Label  string   `json:"label"`
	Verb   string   `json:"verb"`
	Args   []string `json:"args,omitempty"`
	OK     bool     `json:"ok"`
	Error  string   `json:"error,omitempty"`
}

type Dispatcher struct {
	svc      Service
	info     Info
	pageSize int
	bus      eventbus.Bus
	log      logx.Logger

	verbs []*verb
	index map[string]*verb
}

func New(svc Service, opt Options) *Dispatcher {
	log := opt.Log
	if log.IsZero() {
		log = logx.Nop()
	}
	info := opt.Info
	if info.Name == "" {
		info.Name = "Announcer"
	}
	if info.Version == "" {
		info.Version = "dev"
	}
	ps := opt.PageSize
	if ps == 0 {
		ps = DefaultPageSize
	}
	d := &Dispatcher{
		svc:      svc,
		info:     info,
		pageSize: ps,
		bus:      opt.Bus,
		log:      log.With(logx.String("comp", "command")),
		verbs:    table(),
		index:    map[string]*verb{},
	}
	for _, v := range d.verbs {
		d.index[v.name] = v
		for _, a := range v.aliases {
			d.index[a] = v
		}
	}
	return d
}

// call is one command invocation.
type call struct {
	sender host.Sender
	label  string
	verb   *verb
	args   []string
	// text is the raw argument text after the verb, for verbs that take
	// free-form announcement text.
	text string
}

func (c *call) reply(ctx context.Context, lines ...string) {
	for _, l := range lines {
		_ = c.sender.SendMessage(ctx, l)
	}
}

// ExecuteLine tokenizes a raw line and executes it when it starts with an
// announce label. It reports whether the line was an announce command.
func (d *Dispatcher) ExecuteLine(ctx context.Context, sender host.Sender, line string) bool {
	label, args, ok := SplitLabel(Tokenize(line))
	if !ok {
		return false
	}
	d.execute(ctx, sender, label, args, Rest(line, 2))
	return true
}

// execute runs the sub-verb in args[0] for sender. Every failure is
// answered on the sender's channel.
func (d *Dispatcher) execute(ctx context.Context, sender host.Sender, label string, args []string, text string) {
	start := time.Now()
	c := &call{sender: sender, label: label, text: text}

	name := "version"
	rest := args
	if len(args) > 0 {
		name = strings.ToLower(args[0])
		rest = args[1:]
	}
	c.args = rest

	err := d.resolve(c, name)
	if err == nil {
		err = c.verb.run(ctx, d, c)
	}
	d.respond(ctx, c, err)

	verbName := name
	if c.verb != nil {
		verbName = c.verb.name
	}
	fields := []logx.Field{
		logx.String("sender", senderName(sender)),
		logx.String("verb", verbName),
		logx.Duration("took", time.Since(start)),
	}
	switch {
	case err == nil:
		d.log.Debug("command executed", fields...)
	case errors.Is(err, ErrPermissionDenied):
		d.log.Warn("command denied", append(fields, logx.Err(err))...)
	case isUserFacing(err):
		d.log.Debug("command rejected", append(fields, logx.Err(err))...)
	default:
		d.log.Error("command failed", append(fields, logx.Err(err))...)
	}
	d.publish(Executed{
		Sender: senderName(sender),
		Label:  label,
		Verb:   verbName,
		Args:   append([]string(nil), rest...),
		OK:     err == nil,
		Error:  errString(err),
	})
}

func (d *Dispatcher) resolve(c *call, name string) error {
	v, ok := d.index[name]
	if !ok {
		return ErrUsage
	}
	c.verb = v
	if !v.allowed(c.sender) {
		return ErrPermissionDenied
	}
	if !v.arityOK(len(c.args)) {
		return ErrUsage
	}
	return nil
}

func (d *Dispatcher) respond(ctx context.Context, c *call, err error) {
	if err == nil {
		return
	}
	var ue *UserError
	switch {
	case errors.As(err, &ue):
		c.reply(ctx, red+ue.Msg)
	case errors.Is(err, ErrUsage), errors.Is(err, ErrPermissionDenied):
		c.reply(ctx, red+invalidArguments)
	case errors.Is(err, announce.ErrOutOfRange):
		c.reply(ctx,
			red+"There isn't any announcement with the passed index!",
			red+"Use '/announce list' to view all available announcements.",
		)
	default:
		c.reply(ctx, red+"Command failed! See the server log for details.")
	}
}

func isUserFacing(err error) bool {
	var ue *UserError
	return errors.Is(err, ErrUsage) || errors.Is(err, announce.ErrOutOfRange) || errors.As(err, &ue)
}

// Allowed lists the verbs sender may run, in help order.
func (d *Dispatcher) Allowed(sender host.Sender) []string {
	out := make([]string, 0, len(d.verbs))
	for _, v := range d.verbs {
		if v.allowed(sender) {
			out = append(out, v.name)
		}
	}
	return out
}

func (d *Dispatcher) publish(e Executed) {
	if d.bus == nil {
		return
	}
	d.bus.Publish(eventbus.Event{Type: TopicExecuted, Time: time.Now(), Data: e})
}

func senderName(s host.Sender) string {
	if s == nil {
		return ""
	}
	return s.Name()
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
