package announce

import (
	"context"
	"errors"
	"sync"
	"time"

	"announcer/internal/host"
)

type fakeSender struct {
	name string
	caps host.Grants
	got  []string
}

func newSender(name string, caps ...string) *fakeSender {
	return &fakeSender{name: name, caps: host.NewGrants(caps...)}
}

func (f *fakeSender) Name() string                         { return f.name }
func (f *fakeSender) HasCapability(c host.Capability) bool { return f.caps.Has(c) }
func (f *fakeSender) SendMessage(_ context.Context, text string) error {
	f.got = append(f.got, text)
	return nil
}

type fakeServer struct {
	players    []*fakeSender
	broadcasts []string
	commands   []string
	failCmd    bool
}

func (f *fakeServer) Online(context.Context) ([]host.Sender, error) {
	out := make([]host.Sender, 0, len(f.players))
	for _, p := range f.players {
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeServer) Broadcast(_ context.Context, text string) error {
	f.broadcasts = append(f.broadcasts, text)
	return nil
}

func (f *fakeServer) Dispatch(_ context.Context, cmd string) error {
	f.commands = append(f.commands, cmd)
	if f.failCmd {
		return errors.New("unknown command")
	}
	return nil
}

type fakePersister struct {
	mu     sync.Mutex
	writes []Settings
	err    error
}

func (f *fakePersister) Persist(_ context.Context, s Settings) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes = append(f.writes, s)
	return f.err
}

func (f *fakePersister) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.writes)
}

type fakeTrigger struct {
	every   map[string]time.Duration
	jobs    map[string]func(ctx context.Context) error
	adds    int
	removed []string
}

func newTrigger() *fakeTrigger {
	return &fakeTrigger{every: map[string]time.Duration{}, jobs: map[string]func(ctx context.Context) error{}}
}

func (f *fakeTrigger) AddInterval(name string, every, _ time.Duration, job func(ctx context.Context) error) (string, error) {
	f.adds++
	f.every[name] = every
	f.jobs[name] = job
	return name, nil
}

func (f *fakeTrigger) Remove(name string) bool {
	_, ok := f.jobs[name]
	delete(f.jobs, name)
	delete(f.every, name)
	f.removed = append(f.removed, name)
	return ok
}

func (f *fakeTrigger) fire(ctx context.Context) error {
	return f.jobs[ScheduleName](ctx)
}
