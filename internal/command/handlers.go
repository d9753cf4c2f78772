package command

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"announcer/internal/announce"
	logx "announcer/pkg/logx"
)

var (
	red    = announce.Red.Format()
	green  = announce.Green.Format()
	purple = announce.LightPurple.Format()
	gray   = announce.Gray.Format()
	white  = announce.White.Format()
)

func (d *Dispatcher) banner() string {
	return fmt.Sprintf("%s === %s [Version %s] === ", purple, d.info.Name, d.info.Version)
}

func runVersion(ctx context.Context, d *Dispatcher, c *call) error {
	lines := []string{d.banner()}
	if d.info.Author != "" {
		lines = append(lines, "Author: "+d.info.Author)
	}
	if d.info.Website != "" {
		lines = append(lines, "Website: "+d.info.Website)
	}
	lines = append(lines,
		"Version: "+d.info.Version,
		"Features:",
		"- InGame Configuration",
		"- Permissions Support",
		"",
		gray+"Use '/announce help' to get a list of valid commands.",
	)
	c.reply(ctx, lines...)
	return nil
}

func runHelp(ctx context.Context, d *Dispatcher, c *call) error {
	lines := []string{d.banner()}
	for _, v := range d.verbs {
		if v.usage == "" || !v.allowed(c.sender) {
			continue
		}
		lines = append(lines, gray+v.usage+white+" - "+v.summary)
	}
	c.reply(ctx, lines...)
	return nil
}

func runAdd(ctx context.Context, d *Dispatcher, c *call) error {
	msg := c.text
	if strings.TrimSpace(msg) == "" {
		return userErr("You need to pass a message to announce!", ErrUsage)
	}
	if _, err := d.svc.Add(ctx, msg); err != nil {
		return err
	}
	c.reply(ctx, green+"Added announcement successfully!")
	return nil
}

func runBroadcast(ctx context.Context, d *Dispatcher, c *call) error {
	if len(c.args) == 0 {
		d.svc.AnnounceNext(ctx)
		return nil
	}
	idx, err := parseInt(c.args[0], "Index must be a integer!")
	if err != nil {
		return err
	}
	_, err = d.svc.AnnounceIndex(ctx, idx)
	return err
}

func runDelete(ctx context.Context, d *Dispatcher, c *call) error {
	idx, err := parseInt(c.args[0], "Index must be a integer!")
	if err != nil {
		return err
	}
	removed, err := d.svc.Remove(ctx, idx)
	if errors.Is(err, announce.ErrOutOfRange) {
		return err
	}
	c.reply(ctx, fmt.Sprintf("%sRemoved announcement: '%s'", green, announce.Format(removed)))
	return err
}

func runInterval(ctx context.Context, d *Dispatcher, c *call) error {
	if len(c.args) == 0 {
		c.reply(ctx, fmt.Sprintf("%sPeriod duration is %d", purple, d.svc.Interval()))
		return nil
	}
	n, err := parseInt(c.args[0], "Interval must be a number!")
	if err != nil {
		return err
	}
	if err := d.svc.SetInterval(ctx, n); err != nil {
		if errors.Is(err, announce.ErrInvalidInterval) {
			return userErr("Interval must be greater than 0!", err)
		}
		if errors.Is(err, announce.ErrIntervalTooLong) {
			return userErr(fmt.Sprintf("Interval must not be greater than %d!", announce.MaxInterval), err)
		}
		return err
	}
	c.reply(ctx, green+"Set interval of scheduled announcements successfully!")
	return nil
}

func runPrefix(ctx context.Context, d *Dispatcher, c *call) error {
	if len(c.args) == 0 {
		c.reply(ctx, fmt.Sprintf("%sPrefix is %s", purple, announce.Format(d.svc.Tag())))
		return nil
	}
	if err := d.svc.SetTag(ctx, c.text); err != nil {
		return err
	}
	c.reply(ctx, green+"Set prefix for all announcements successfully!")
	return nil
}

func runList(ctx context.Context, d *Dispatcher, c *call) error {
	page := 1
	if len(c.args) == 1 {
		n, err := strconv.Atoi(c.args[0])
		if err != nil || n < 1 {
			return userErr("Invalid page number!", ErrMalformedNumber)
		}
		page = n
	}
	entries, total := d.svc.Page(page, d.pageSize)
	lines := make([]string, 0, len(entries)+1)
	lines = append(lines, green+fmt.Sprintf(" === Announcements [Page %d/%d] ===", page, total))
	for _, e := range entries {
		lines = append(lines, fmt.Sprintf("%d - %s", e.Index, announce.Format(e.Text)))
	}
	c.reply(ctx, lines...)
	return nil
}

func runRandom(ctx context.Context, d *Dispatcher, c *call) error {
	if len(c.args) == 0 {
		if d.svc.Random() {
			c.reply(ctx, purple+"Random mode is enabled.")
		} else {
			c.reply(ctx, purple+"Sequential mode is enabled.")
		}
		return nil
	}
	on, err := parseToggle(c.args[0])
	if err != nil {
		return err
	}
	if err := d.svc.SetRandom(ctx, on); err != nil {
		return err
	}
	if on {
		c.reply(ctx, green+"Random mode enabled!")
	} else {
		c.reply(ctx, green+"Sequential mode enabled!")
	}
	return nil
}

func runEnable(ctx context.Context, d *Dispatcher, c *call) error {
	if len(c.args) == 0 {
		if d.svc.Enabled() {
			c.reply(ctx, purple+"Announcer is enabled.")
		} else {
			c.reply(ctx, purple+"Announcer is disabled.")
		}
		return nil
	}
	on, err := parseToggle(c.args[0])
	if err != nil {
		return err
	}
	if err := d.svc.SetEnabled(ctx, on); err != nil {
		return err
	}
	if on {
		c.reply(ctx, green+"Announcer enabled!")
	} else {
		c.reply(ctx, green+"Announcer disabled!")
	}
	return nil
}

func runReload(ctx context.Context, d *Dispatcher, c *call) error {
	if err := d.svc.Reload(ctx); err != nil {
		d.log.Error("configuration reload failed", logx.Err(err))
		return userErr("Reloading the configuration failed! See the server log.", err)
	}
	c.reply(ctx, green+"Configuration reloaded.")
	return nil
}

func parseInt(s, msg string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, userErr(msg, fmt.Errorf("%w: %q", ErrMalformedNumber, s))
	}
	return n, nil
}

func parseToggle(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "true":
		return true, nil
	case "false":
		return false, nil
	}
	return false, userErr("Use true or false to enable or disable! Use '/announce help' to view the help.", ErrUsage)
}
