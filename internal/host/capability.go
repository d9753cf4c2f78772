package host

import (
	"sort"
	"strings"
)

// Capability is a permission key such as "announcer.add".
type Capability string

const (
	CapReceiver  Capability = "announcer.receiver"
	CapAdd       Capability = "announcer.add"
	CapDelete    Capability = "announcer.delete"
	CapBroadcast Capability = "announcer.broadcast"
	CapModerate  Capability = "announcer.moderate"
	CapAdmin     Capability = "announcer.admin"

	CapAll       Capability = "*"
	CapAnnouncer Capability = "announcer.*"
)

// adminImplies lists what announcer.admin grants besides itself.
var adminImplies = []Capability{CapAdd, CapDelete, CapBroadcast, CapModerate}

func normalize(c string) Capability {
	return Capability(strings.ToLower(strings.TrimSpace(c)))
}

// Grants is a set of capabilities with wildcard and admin expansion.
type Grants map[Capability]struct{}

func NewGrants(caps ...string) Grants {
	g := Grants{}
	for _, c := range caps {
		n := normalize(c)
		if n == "" {
			continue
		}
		g[n] = struct{}{}
	}
	return g
}

// Has reports whether c is granted directly, via a wildcard, or via announcer.admin.
func (g Grants) Has(c Capability) bool {
	if len(g) == 0 {
		return false
	}
	c = normalize(string(c))
	if _, ok := g[c]; ok {
		return true
	}
	if _, ok := g[CapAll]; ok {
		return true
	}
	if _, ok := g[CapAnnouncer]; ok && strings.HasPrefix(string(c), "announcer.") {
		return true
	}
	if _, ok := g[CapAdmin]; ok {
		for _, ic := range adminImplies {
			if ic == c {
				return true
			}
		}
	}
	return false
}

func (g Grants) List() []string {
	out := make([]string, 0, len(g))
	for c := range g {
		out = append(out, string(c))
	}
	sort.Strings(out)
	return out
}

// Permissions resolves principals to grants. Principals are case-insensitive;
// remote operators use "telegram:<user id>".
type Permissions struct {
	defaults Grants
	users    map[string]Grants
}

func NewPermissions(defaults []string, users map[string][]string) *Permissions {
	p := &Permissions{defaults: NewGrants(defaults...), users: map[string]Grants{}}
	for name, caps := range users {
		p.users[strings.ToLower(strings.TrimSpace(name))] = NewGrants(caps...)
	}
	return p
}

// Has checks the principal's own grants, then the defaults.
func (p *Permissions) Has(principal string, c Capability) bool {
	if p == nil {
		return false
	}
	if g, ok := p.users[strings.ToLower(strings.TrimSpace(principal))]; ok && g.Has(c) {
		return true
	}
	return p.defaults.Has(c)
}

// HasOwn checks only the principal's explicit grants. Remote operators use it
// so the defaults meant for players never reach them.
func (p *Permissions) HasOwn(principal string, c Capability) bool {
	if p == nil {
		return false
	}
	g, ok := p.users[strings.ToLower(strings.TrimSpace(principal))]
	return ok && g.Has(c)
}
