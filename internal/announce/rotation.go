package announce

import (
	"math/rand/v2"
	"strings"
)

type Mode int

const (
	Sequential Mode = iota
	Random
)

func (m Mode) String() string {
	if m == Random {
		return "random"
	}
	return "sequential"
}

// ModeOf maps the persisted "random" flag to a Mode.
func ModeOf(random bool) Mode {
	if random {
		return Random
	}
	return Sequential
}

func ParseMode(s string) (Mode, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sequential", "seq":
		return Sequential, true
	case "random", "rand":
		return Random, true
	}
	return Sequential, false
}

// Selector picks the next 0-based index to announce.
//
// lastIndex starts at -1 so the first sequential pick is 0. The index is always
// reduced modulo the current size, so a shrinking store never yields a stale one.
type Selector struct {
	mode Mode
	last int
	intn func(n int) int
}

// NewSelector returns a selector. A nil rnd uses the global math/rand/v2 source.
func NewSelector(mode Mode, rnd *rand.Rand) *Selector {
	s := &Selector{mode: mode, last: -1, intn: rand.IntN}
	if rnd != nil {
		s.intn = rnd.IntN
	}
	return s
}

func (s *Selector) Mode() Mode { return s.mode }

func (s *Selector) SetMode(m Mode) { s.mode = m }

// Last returns the last selected index, or -1 if none yet.
func (s *Selector) Last() int { return s.last }

func (s *Selector) Reset() { s.last = -1 }

// Next returns the next index in [0, size). ok is false when size is 0.
func (s *Selector) Next(size int) (idx int, ok bool) {
	if size <= 0 {
		return 0, false
	}
	switch s.mode {
	case Random:
		idx = s.intn(size)
	default:
		idx = (s.last + 1) % size
		if idx < 0 {
			idx = 0
		}
	}
	s.last = idx
	return idx, true
}
