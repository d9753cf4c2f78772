package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"

	"announcer/internal/announce"
	"announcer/internal/command"
	"announcer/internal/config"
	"announcer/internal/eventbus"
	"announcer/internal/host"
	"announcer/internal/host/console"
	"announcer/internal/host/rcon"
	"announcer/internal/runtime/supervisor"
	"announcer/internal/scheduler"
	"announcer/internal/storage"
	"announcer/internal/transport/telegram"
	logx "announcer/pkg/logx"
)

type Options struct {
	Info command.Info
	// Stdin feeds operator commands to the console; nil disables console input.
	Stdin  io.Reader
	Stdout io.Writer
	// LookupEnv resolves secret overrides; nil uses os.LookupEnv.
	LookupEnv func(string) (string, bool)
}

type App struct {
	cfgPath string
	opt     Options

	cfgm *config.Manager
	sup  *supervisor.Supervisor

	log   logx.Logger
	logs  *logx.Service
	bus   eventbus.Bus
	store storage.Store

	console *console.Host
	rcon    *rcon.Host
	sched   *scheduler.Service
	svc     *announce.Service
	disp    *command.Dispatcher
	tg      *telegram.Bot
}

func New(cfgPath string, opt Options) (*App, error) {
	if opt.LookupEnv == nil {
		opt.LookupEnv = os.LookupEnv
	}
	if created, err := config.EnsureFile(cfgPath); err != nil {
		return nil, fmt.Errorf("write default config: %w", err)
	} else if created {
		logx.NewConsole("INFO").Info("default config written", logx.String("path", cfgPath))
	}

	cfgm := config.NewManager(cfgPath)
	raw, err := cfgm.Load()
	if err != nil {
		return nil, err
	}
	cfg := config.WithEnv(raw, opt.LookupEnv)
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", cfgPath, err)
	}

	logSvc, log := logx.New(mapLogConfig(cfg))
	cfgm.SetLogger(log.With(logx.String("comp", "config")))

	a := &App{
		cfgPath: cfgPath,
		opt:     opt,
		cfgm:    cfgm,
		log:     log.With(logx.String("comp", "app")),
		logs:    logSvc,
		bus:     eventbus.New(),
	}

	// Storage (optional)
	if sc, enabled, err := mapStorageConfig(cfg); err != nil {
		return nil, err
	} else if enabled {
		octx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		st, err := storage.Open(octx, sc, log)
		cancel()
		if err != nil {
			return nil, fmt.Errorf("storage: %w", err)
		}
		a.store = st
		a.log.Info("storage enabled", logx.String("driver", sc.Driver))
	}

	perms := mapPermissions(cfg)
	a.console = console.New(console.Options{
		In:    opt.Stdin,
		Out:   opt.Stdout,
		Color: cfg.Server.Color,
		Log:   log.With(logx.String("comp", "console")),
	})
	var server host.Server = a.console
	if serverDriver(cfg) == "rcon" {
		rc, err := mapRCONConfig(cfg)
		if err != nil {
			return nil, err
		}
		a.rcon = rcon.New(rc, perms, log.With(logx.String("comp", "rcon")))
		server = a.rcon
	}

	a.sched = scheduler.New(scheduler.Config{}, log.With(logx.String("comp", "scheduler")))

	settings, err := cfg.Announcement.Settings()
	if err != nil {
		return nil, err
	}
	a.svc = announce.New(settings, announce.Options{
		Server:    server,
		Persister: announce.PersistFunc(a.persist),
		Loader:    announce.LoadFunc(a.load),
		Trigger:   a.sched,
		Bus:       a.bus,
		Log:       log.With(logx.String("comp", "announcer")),
	})
	a.disp = command.New(a.svc, command.Options{
		Info: opt.Info,
		Bus:  a.bus,
		Log:  log,
	})

	if tc, ok, err := mapTelegramConfig(cfg); err != nil {
		return nil, err
	} else if ok {
		bot, err := telegram.New(tc, a.disp, perms, log)
		if err != nil {
			return nil, fmt.Errorf("telegram: %w", err)
		}
		a.tg = bot
		logSvc.SetNotifier(bot)
	}
	return a, nil
}

// Dispatcher exposes the command surface, e.g. for an embedding host.
func (a *App) Dispatcher() *command.Dispatcher { return a.disp }

// Done is closed when the app supervisor context is canceled (fatal error or Stop()).
func (a *App) Done() <-chan struct{} {
	if a.sup == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return a.sup.Context().Done()
}

// Err returns the first fatal error observed by the supervisor (if any).
func (a *App) Err() error {
	if a.sup == nil {
		return nil
	}
	return a.sup.Err()
}

// persist writes the announcement section back to the config file.
func (a *App) persist(_ context.Context, s announce.Settings) error {
	return a.cfgm.Update(func(c *config.Config) {
		c.Announcement = config.AnnouncementFrom(s)
	})
}

// load re-reads the config file for /announce reload. Logging and
// permissions are applied here too; the announcement section is returned
// to the service.
func (a *App) load(ctx context.Context) (announce.Settings, error) {
	raw, err := a.cfgm.Parse()
	if err != nil {
		return announce.Settings{}, err
	}
	cfg := config.WithEnv(raw, a.opt.LookupEnv)
	if err := config.Validate(cfg); err != nil {
		return announce.Settings{}, err
	}
	sdNotify(a.log, daemon.SdNotifyReloading)
	defer sdNotify(a.log, daemon.SdNotifyReady)

	prev := a.cfgm.Get()
	a.cfgm.Commit(raw)
	a.applyAmbient(prev, cfg)
	return cfg.Announcement.Settings()
}

func (a *App) Start(ctx context.Context) error {
	a.sup = supervisor.New(ctx, supervisor.WithLogger(a.log), supervisor.WithCancelOnError(true))
	a.cfgm.SetValidator(func(_ context.Context, c *config.Config) error {
		return config.Validate(config.WithEnv(c, a.opt.LookupEnv))
	})

	if a.store != nil {
		events, unsub := a.bus.Subscribe(256, announce.TopicDelivered, announce.TopicChanged, command.TopicExecuted)
		st := a.store
		a.sup.Go0("history.record", func(c context.Context) {
			defer unsub()
			recordHistory(c, events, st, a.log.With(logx.String("comp", "history")))
		})
	}

	a.sched.Start(a.sup.Context())
	if err := a.svc.Start(a.sup.Context()); err != nil {
		return fmt.Errorf("announcer: %w", err)
	}

	if a.opt.Stdin != nil {
		a.sup.Go("console.input", func(c context.Context) error {
			return a.console.Run(c, a.handleConsole)
		})
	}
	if a.tg != nil {
		if err := a.tg.Start(a.sup.Context()); err != nil {
			return err
		}
	}

	sub := a.cfgm.Subscribe()
	a.sup.Go0("config.reload", func(c context.Context) {
		defer a.cfgm.Unsubscribe(sub)
		a.reloadLoop(c, sub)
	})
	a.sup.Go("config.watch", func(c context.Context) error {
		return a.cfgm.Watch(c)
	})

	sdNotify(a.log, daemon.SdNotifyReady)
	a.log.Info("app started", logx.String("config", a.cfgPath))
	for _, it := range a.sched.Snapshot() {
		a.log.Debug("schedule active", logx.String("name", it.Name), logx.String("spec", it.Spec), logx.Time("next", it.Next))
	}
	return nil
}

func (a *App) handleConsole(ctx context.Context, s host.Sender, line string) {
	if !a.disp.ExecuteLine(ctx, s, line) {
		// bare verbs are accepted on the console
		a.disp.ExecuteLine(ctx, s, command.Labels[0]+" "+line)
	}
}

func (a *App) reloadLoop(ctx context.Context, sub chan *config.Config) {
	lastApplied := a.cfgm.Get()
	for {
		select {
		case <-ctx.Done():
			return
		case raw, ok := <-sub:
			if !ok {
				return
			}
			sdNotify(a.log, daemon.SdNotifyReloading)
			a.applyConfig(lastApplied, raw)
			lastApplied = raw
			sdNotify(a.log, daemon.SdNotifyReady)
		}
	}
}

// applyConfig applies a hot-reloaded document. Validation already happened
// in the manager, so errors here only skip the affected section.
func (a *App) applyConfig(prevRaw, raw *config.Config) {
	cfg := config.WithEnv(raw, a.opt.LookupEnv)
	sections, attrs := config.SummarizeConfigChange(prevRaw, raw)
	a.applyAmbient(prevRaw, cfg)
	applied := a.applyAnnouncement(raw, cfg)

	for _, s := range []string{"server", "telegram", "storage"} {
		if contains(sections, s) {
			a.log.Warn(s + " config changed; restart required for changes to take effect")
		}
	}
	if len(sections) == 0 && !applied {
		a.log.Info("config reloaded (no changes)")
		return
	}
	fields := append([]logx.Field{
		logx.String("changed", strings.Join(sections, ",")),
		logx.Bool("announcements_applied", applied),
	}, attrs...)
	a.log.Info("config reloaded", fields...)
}

// applyAnnouncement compares the edited section with the live service state,
// not with the previous file: the service's own saves change the file too.
// The edit is dropped if a newer version was saved after it was read.
func (a *App) applyAnnouncement(raw, cfg *config.Config) bool {
	next, err := cfg.Announcement.Settings()
	if err != nil {
		a.log.Warn("invalid announcement config; keeping previous", logx.Err(err))
		return false
	}
	if next.Equal(a.svc.Settings()) {
		return false
	}
	ok, err := a.svc.ApplyIf(next, func() bool { return a.cfgm.Get() == raw })
	if err != nil {
		a.log.Warn("applying announcement config failed", logx.Err(err))
		return false
	}
	if !ok {
		a.log.Debug("announcement edit superseded by a newer save")
	}
	return ok
}

// applyAmbient applies the sections that change live besides the announcement list.
func (a *App) applyAmbient(prev, cfg *config.Config) {
	if prev == nil || !sameLogging(prev, cfg) {
		a.logs.Apply(mapLogConfig(cfg))
	}
	perms := mapPermissions(cfg)
	if a.rcon != nil {
		a.rcon.SetPermissions(perms)
	}
	if a.tg != nil {
		a.tg.SetPermissions(perms)
	}
}

func sameLogging(a, b *config.Config) bool {
	return mapLogConfig(a) == mapLogConfig(b)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func (a *App) Stop(ctx context.Context, reason StopReason) error {
	if a.sup == nil {
		return nil
	}
	a.log.Info("stopping", logx.String("reason", string(reason)))
	sdNotify(a.log, daemon.SdNotifyStopping)

	// unwind background loops first
	a.sup.Cancel()

	var errs []error
	step := func(name string, max time.Duration, fn func(context.Context) error) {
		start := time.Now()
		stepCtx, cancel := context.WithTimeout(ctx, max)
		defer cancel()

		done := make(chan error, 1)
		go func() {
			defer func() {
				if r := recover(); r != nil {
					done <- fmt.Errorf("panic in stop step %s: %v", name, r)
				}
			}()
			done <- fn(stepCtx)
		}()

		select {
		case err := <-done:
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", name, err))
				a.log.Warn("stop step error", logx.String("name", name), logx.Err(err))
			}
			a.log.Debug("stop step end", logx.String("name", name), logx.Duration("took", time.Since(start)))
		case <-stepCtx.Done():
			a.log.Warn("stop step deadline reached (continuing)",
				logx.String("name", name),
				logx.Duration("elapsed", time.Since(start)),
			)
		}
	}

	step("announcer", 2*time.Second, a.svc.Stop)
	step("scheduler", 2*time.Second, func(c context.Context) error { a.sched.Stop(c); return nil })
	step("telegram", 3*time.Second, func(c context.Context) error {
		if a.tg == nil {
			return nil
		}
		return a.tg.Stop(c)
	})
	step("supervisor", 2*time.Second, func(c context.Context) error {
		err := a.sup.Wait(c)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	step("rcon", time.Second, func(context.Context) error {
		if a.rcon == nil {
			return nil
		}
		return a.rcon.Close()
	})
	step("storage", time.Second, func(context.Context) error {
		if a.store == nil {
			return nil
		}
		return a.store.Close()
	})

	a.log.Info("stopped", logx.Uint64("goroutines", a.sup.Started()), logx.Int64("still_active", a.sup.Active()))
	if a.logs != nil {
		_ = a.logs.Close()
	}
	return errors.Join(errs...)
}
