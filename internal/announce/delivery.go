package announce

import (
	"context"
	"strings"

	"announcer/internal/host"
	logx "announcer/pkg/logx"
)

// LineBreak separates sub-messages inside one template.
const LineBreak = "&n"

// Split breaks a template into its sub-messages. It never returns an empty slice.
func Split(template string) []string {
	return strings.Split(template, LineBreak)
}

type PartKind int

const (
	PartText PartKind = iota
	PartCommand
)

func (k PartKind) String() string {
	if k == PartCommand {
		return "command"
	}
	return "text"
}

// Part is a classified sub-message. For commands Payload has the leading '/' removed.
type Part struct {
	Kind    PartKind
	Payload string
}

func Classify(sub string) Part {
	if strings.HasPrefix(sub, "/") {
		return Part{Kind: PartCommand, Payload: sub[1:]}
	}
	return Part{Kind: PartText, Payload: sub}
}

// Style is the text decoration and fan-out policy applied to every text part.
type Style struct {
	Tag          string
	TagColor     Color
	MessageColor Color
	SendToAll    bool
}

// Render builds the formatted line for one text part.
func Render(st Style, text string) string {
	var raw string
	if st.Tag != "" {
		raw = st.TagColor.Format() + "[" + st.Tag + "] " + st.MessageColor.Format() + text
	} else {
		raw = st.TagColor.Format() + " " + st.MessageColor.Format() + text
	}
	return Format(raw)
}

// Report summarizes one delivery.
type Report struct {
	Index     int      `json:"index"`
	Texts     int      `json:"texts"`
	Commands  int      `json:"commands"`
	Broadcast bool     `json:"broadcast"`
	Delivered int      `json:"delivered"`
	Skipped   int      `json:"skipped"`
	Failures  int      `json:"failures"`
	Lines     []string `json:"lines,omitempty"`
}

// Deliver expands template and sends every part in order.
// Failures are logged and counted, never returned.
func Deliver(ctx context.Context, srv host.Server, st Style, template string, log logx.Logger) Report {
	var rep Report
	rep.Broadcast = st.SendToAll

	for _, sub := range Split(template) {
		p := Classify(sub)
		if p.Kind == PartCommand {
			rep.Commands++
			if err := srv.Dispatch(ctx, p.Payload); err != nil {
				rep.Failures++
				log.Warn("announcement command failed", logx.String("command", p.Payload), logx.Err(err))
			}
			continue
		}

		line := Render(st, p.Payload)
		rep.Texts++
		rep.Lines = append(rep.Lines, line)

		if st.SendToAll {
			if err := srv.Broadcast(ctx, line); err != nil {
				rep.Failures++
				log.Warn("announcement broadcast failed", logx.Err(err))
			}
			continue
		}

		online, err := srv.Online(ctx)
		if err != nil {
			rep.Failures++
			log.Warn("listing recipients failed", logx.Err(err))
			continue
		}
		for _, r := range online {
			if !r.HasCapability(host.CapReceiver) {
				rep.Skipped++
				continue
			}
			if err := r.SendMessage(ctx, line); err != nil {
				rep.Failures++
				log.Warn("announcement send failed", logx.String("recipient", r.Name()), logx.Err(err))
				continue
			}
			rep.Delivered++
		}
	}
	return rep
}
