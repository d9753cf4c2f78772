package app

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"announcer/internal/announce"
	"announcer/internal/command"
	"announcer/internal/eventbus"
	"announcer/internal/storage"
	logx "announcer/pkg/logx"
)

// recordHistory copies bus events into the store until ctx is done.
func recordHistory(ctx context.Context, events <-chan eventbus.Event, st storage.Store, log logx.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			wctx, cancel := context.WithTimeout(ctx, 5*time.Second)
			if err := recordEvent(wctx, st, e); err != nil {
				log.Warn("history write failed", logx.String("type", e.Type), logx.Err(err))
			}
			cancel()
		}
	}
}

func recordEvent(ctx context.Context, st storage.Store, e eventbus.Event) error {
	at := e.Time
	switch d := e.Data.(type) {
	case announce.Delivery:
		return st.AppendDelivery(ctx, storage.DeliveryRecord{
			At:        at,
			Trigger:   d.Trigger,
			Index:     d.Index,
			Mode:      d.Mode,
			Broadcast: d.Report.Broadcast,
			Texts:     d.Report.Texts,
			Commands:  d.Report.Commands,
			Delivered: d.Report.Delivered,
			Skipped:   d.Report.Skipped,
			Failures:  d.Report.Failures,
		})
	case announce.Change:
		target := ""
		if d.Index > 0 {
			target = strconv.Itoa(d.Index)
		}
		return st.AppendAudit(ctx, storage.AuditEntry{
			At:     at,
			Source: "service",
			Action: d.Action,
			Target: target,
			OK:     true,
			Meta:   metaJSON(d),
		})
	case command.Executed:
		return st.AppendAudit(ctx, storage.AuditEntry{
			At:     at,
			Actor:  d.Sender,
			Source: "command",
			Action: d.Verb,
			OK:     d.OK,
			Error:  d.Error,
			Meta:   metaJSON(map[string]any{"label": d.Label, "args": d.Args}),
		})
	}
	return nil
}

func metaJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}
