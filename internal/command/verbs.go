package command

import (
	"context"

	"announcer/internal/host"
)

// Labels are the accepted top-level command names.
var Labels = []string{"announce", "announcer"}

const unbounded = -1

type handlerFunc func(ctx context.Context, d *Dispatcher, c *call) error

// verb is one row of the command table.
type verb struct {
	name    string
	aliases []string
	cap     host.Capability // empty: everyone
	min     int
	max     int // unbounded for variadic verbs
	usage   string
	summary string
	run     handlerFunc
}

func (v *verb) arityOK(n int) bool {
	if n < v.min {
		return false
	}
	return v.max == unbounded || n <= v.max
}

func (v *verb) allowed(s host.Sender) bool {
	return v.cap == "" || (s != nil && s.HasCapability(v.cap))
}

// table is ordered the way help lists it.
func table() []*verb {
	return []*verb{
		{name: "version", aliases: []string{"info"}, max: 0, run: runVersion},
		{name: "help", max: 0, run: runHelp},
		{
			name: "add", cap: host.CapAdd, min: 1, max: unbounded,
			usage: "/announce add <message>", summary: "Adds a new announcement",
			run: runAdd,
		},
		{
			name: "broadcast", aliases: []string{"now"}, cap: host.CapBroadcast, max: 1,
			usage: "/announce broadcast [<index>]", summary: "Broadcast an announcement NOW",
			run: runBroadcast,
		},
		{
			name: "delete", cap: host.CapDelete, min: 1, max: 1,
			usage: "/announce delete <index>", summary: "Removes the announcement with the passed index",
			run: runDelete,
		},
		{
			name: "enable", cap: host.CapModerate, max: 1,
			usage: "/announce enable [true|false]", summary: "Enables or disables the announcer.",
			run: runEnable,
		},
		{
			name: "interval", cap: host.CapModerate, max: 1,
			usage: "/announce interval <seconds>", summary: "Sets the seconds between the announcements.",
			run: runInterval,
		},
		{
			name: "prefix", cap: host.CapModerate, max: unbounded,
			usage: "/announce prefix <message>", summary: "Sets the prefix for all announcements.",
			run: runPrefix,
		},
		{
			name: "list", cap: host.CapModerate, max: 1,
			usage: "/announce list [<page>]", summary: "Lists all announcements",
			run: runList,
		},
		{
			name: "random", cap: host.CapModerate, max: 1,
			usage: "/announce random [true|false]", summary: "Enables or disables the random announcing mode.",
			run: runRandom,
		},
		{
			name: "reload", cap: host.CapModerate, max: 0,
			usage: "/announce reload", summary: "Reloads the configuration file",
			run: runReload,
		},
	}
}
