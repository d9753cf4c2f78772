package announce

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"announcer/internal/eventbus"
	"announcer/internal/host"
	logx "announcer/pkg/logx"
)

// ScheduleName is the trigger name registered with the scheduler.
const ScheduleName = "announce.rotation"

const (
	TopicDelivered = "announce.delivered"
	TopicChanged   = "announce.changed"
)

// Persister writes settings back to durable configuration.
type Persister interface {
	Persist(ctx context.Context, s Settings) error
}

// PersistFunc adapts a function to Persister.
type PersistFunc func(ctx context.Context, s Settings) error

func (f PersistFunc) Persist(ctx context.Context, s Settings) error { return f(ctx, s) }

// Loader re-reads settings from durable configuration.
type Loader interface {
	Load(ctx context.Context) (Settings, error)
}

type LoadFunc func(ctx context.Context) (Settings, error)

func (f LoadFunc) Load(ctx context.Context) (Settings, error) { return f(ctx) }

// Trigger registers repeating jobs. Registering a name again replaces the previous job.
type Trigger interface {
	AddInterval(name string, every, timeout time.Duration, job func(ctx context.Context) error) (string, error)
	Remove(name string) bool
}

// Change is published on TopicChanged after every successful mutation.
type Change struct {
	Action string `json:"action"`
	Index  int    `json:"index,omitempty"`
	Text   string `json:"text,omitempty"`
	Value  string `json:"value,omitempty"`
}

// Delivery is published on TopicDelivered.
type Delivery struct {
	Trigger string `json:"trigger"` // "schedule" | "command"
	Index   int    `json:"index"`
	Mode    string `json:"mode"`
	Report  Report `json:"report"`
}

type Options struct {
	Server    host.Server
	Persister Persister
	Loader    Loader
	Trigger   Trigger
	Bus       eventbus.Bus
	Log       logx.Logger
	// Rand seeds random mode; nil uses the global source.
	Rand *rand.Rand
}

// Service owns the announcement list, rotation state and delivery settings.
// All methods are safe for concurrent use.
type Service struct {
	mu sync.Mutex

	log     logx.Logger
	srv     host.Server
	persist Persister
	loader  Loader
	trigger Trigger
	bus     eventbus.Bus

	settings Settings // Messages is kept in store
	store    *Store
	sel      *Selector
	started  bool
}

func New(s Settings, opt Options) *Service {
	log := opt.Log
	if log.IsZero() {
		log = logx.Nop()
	}
	svc := &Service{
		log:     log,
		srv:     opt.Server,
		persist: opt.Persister,
		loader:  opt.Loader,
		trigger: opt.Trigger,
		bus:     opt.Bus,
		store:   NewStore(s.Messages),
		sel:     NewSelector(ModeOf(s.Random), opt.Rand),
	}
	s.Messages = nil
	svc.settings = s
	return svc
}

// Start registers the repeating trigger.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return nil
	}
	if err := s.scheduleLocked(); err != nil {
		return err
	}
	s.started = true
	s.log.Info("announcer started",
		logx.Int("announcements", s.store.Size()),
		logx.Int("interval", s.settings.Interval),
		logx.String("mode", s.sel.Mode().String()),
		logx.Bool("enabled", s.settings.Enabled),
	)
	return nil
}

// Stop removes the repeating trigger. An in-flight delivery is not interrupted.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return nil
	}
	s.started = false
	if s.trigger != nil {
		s.trigger.Remove(ScheduleName)
	}
	s.log.Info("announcer stopped")
	return nil
}

func (s *Service) scheduleLocked() error {
	if s.trigger == nil {
		return nil
	}
	every := Period(s.settings.Interval)
	if _, err := s.trigger.AddInterval(ScheduleName, every, every, s.Tick); err != nil {
		return fmt.Errorf("schedule rotation: %w", err)
	}
	s.log.Debug("rotation scheduled", logx.Duration("every", every))
	return nil
}

// Tick is the scheduled job: one rotation cycle if the announcer is enabled.
func (s *Service) Tick(ctx context.Context) error {
	s.cycle(ctx, "schedule")
	return nil
}

// AnnounceNext runs one rotation cycle on demand. ok is false when the
// announcer is disabled or there is nothing to announce.
func (s *Service) AnnounceNext(ctx context.Context) (Report, bool) {
	return s.cycle(ctx, "command")
}

func (s *Service) cycle(ctx context.Context, trigger string) (Report, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.settings.Enabled {
		s.log.Debug("rotation skipped; announcer disabled")
		return Report{}, false
	}
	idx, ok := s.sel.Next(s.store.Size())
	if !ok {
		s.log.Debug("rotation skipped; no announcements")
		return Report{}, false
	}
	return s.deliverLocked(ctx, idx+1, trigger), true
}

// AnnounceIndex delivers the announcement at the 1-based index immediately,
// regardless of the enabled flag. Rotation state is not touched.
func (s *Service) AnnounceIndex(ctx context.Context, index int) (Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.check(index); err != nil {
		return Report{}, err
	}
	return s.deliverLocked(ctx, index, "command"), nil
}

func (s *Service) deliverLocked(ctx context.Context, index int, trigger string) Report {
	tpl, err := s.store.Get(index)
	if err != nil {
		return Report{}
	}
	if s.srv == nil {
		s.log.Warn("no server attached; delivery dropped", logx.Int("index", index))
		return Report{Index: index}
	}
	rep := Deliver(ctx, s.srv, s.settings.style(), tpl, s.log)
	rep.Index = index
	s.log.Debug("announcement delivered",
		logx.Int("index", index),
		logx.String("trigger", trigger),
		logx.Int("texts", rep.Texts),
		logx.Int("commands", rep.Commands),
		logx.Int("delivered", rep.Delivered),
		logx.Int("failures", rep.Failures),
	)
	s.publish(TopicDelivered, Delivery{Trigger: trigger, Index: index, Mode: s.sel.Mode().String(), Report: rep})
	return rep
}

func (s *Service) Get(index int) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Get(index)
}

func (s *Service) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Size()
}

// Page returns one page of entries and the total page count.
func (s *Service) Page(page, pageSize int) ([]Entry, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Page(page, pageSize), s.store.Pages(pageSize)
}

// Add appends an announcement and persists. It returns the new 1-based index.
func (s *Service) Add(ctx context.Context, msg string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.store.Add(msg)
	s.changedLocked(Change{Action: "add", Index: idx, Text: msg})
	return idx, s.persistLocked(ctx)
}

// Remove deletes the announcement at the 1-based index and persists.
func (s *Service) Remove(ctx context.Context, index int) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed, err := s.store.Remove(index)
	if err != nil {
		return "", err
	}
	s.changedLocked(Change{Action: "delete", Index: index, Text: removed})
	return removed, s.persistLocked(ctx)
}

func (s *Service) Interval() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings.Interval
}

// SetInterval persists the new interval and replaces the repeating trigger.
// The change applies from the next firing.
func (s *Service) SetInterval(ctx context.Context, seconds int) error {
	if err := CheckInterval(seconds); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings.Interval = seconds
	s.changedLocked(Change{Action: "interval", Value: fmt.Sprint(seconds)})
	perr := s.persistLocked(ctx)
	if s.started {
		if err := s.scheduleLocked(); err != nil {
			return errors.Join(perr, err)
		}
	}
	return perr
}

func (s *Service) Tag() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings.Tag
}

func (s *Service) SetTag(ctx context.Context, tag string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings.Tag = tag
	s.changedLocked(Change{Action: "prefix", Value: tag})
	return s.persistLocked(ctx)
}

func (s *Service) Random() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings.Random
}

// SetRandom switches between random and sequential rotation and persists.
func (s *Service) SetRandom(ctx context.Context, random bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings.Random = random
	s.sel.SetMode(ModeOf(random))
	s.changedLocked(Change{Action: "random", Value: fmt.Sprint(random)})
	return s.persistLocked(ctx)
}

func (s *Service) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings.Enabled
}

func (s *Service) SetEnabled(ctx context.Context, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings.Enabled = enabled
	s.changedLocked(Change{Action: "enable", Value: fmt.Sprint(enabled)})
	return s.persistLocked(ctx)
}

// Settings returns a snapshot including the current messages.
func (s *Service) Settings() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Service) snapshotLocked() Settings {
	cur := s.settings.clone()
	cur.Messages = s.store.All()
	return cur
}

// Apply replaces the in-memory settings without persisting, as after a config
// reload. Rotation continues from the last index, reduced modulo the new size.
func (s *Service) Apply(next Settings) error {
	_, err := s.ApplyIf(next, nil)
	return err
}

// ApplyIf is Apply guarded by current, which is checked under the service
// lock so no mutation can land between the check and the swap. It reports
// false without changes when current returns false.
func (s *Service) ApplyIf(next Settings, current func() bool) (bool, error) {
	if err := next.Validate(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if current != nil && !current() {
		return false, nil
	}

	intervalChanged := next.Interval != s.settings.Interval
	s.store.Replace(next.Messages)
	s.sel.SetMode(ModeOf(next.Random))
	next.Messages = nil
	s.settings = next

	if intervalChanged && s.started {
		if err := s.scheduleLocked(); err != nil {
			return true, err
		}
	}
	s.log.Info("announcer settings applied",
		logx.Int("announcements", s.store.Size()),
		logx.Int("interval", next.Interval),
		logx.Bool("enabled", next.Enabled),
		logx.Bool("random", next.Random),
	)
	return true, nil
}

// Reload re-reads settings through the Loader and applies them.
func (s *Service) Reload(ctx context.Context) error {
	if s.loader == nil {
		return errors.New("announce: no loader configured")
	}
	next, err := s.loader.Load(ctx)
	if err != nil {
		return fmt.Errorf("reload: %w", err)
	}
	if err := s.Apply(next); err != nil {
		return fmt.Errorf("reload: %w", err)
	}
	s.mu.Lock()
	s.changedLocked(Change{Action: "reload"})
	s.mu.Unlock()
	return nil
}

func (s *Service) persistLocked(ctx context.Context) error {
	if s.persist == nil {
		return nil
	}
	if err := s.persist.Persist(ctx, s.snapshotLocked()); err != nil {
		s.log.Error("persisting announcer settings failed", logx.Err(err))
		return fmt.Errorf("persist: %w", err)
	}
	return nil
}

func (s *Service) changedLocked(c Change) {
	s.publish(TopicChanged, c)
}

func (s *Service) publish(topic string, data any) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(eventbus.Event{Type: topic, Data: data})
}
