// Package watch is the long-running mode: it re-solves the plan whenever the
// plan file changes (and optionally on a cron schedule) and publishes results
// on the event bus for the CLI to render and record.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/fsnotify/fsnotify"
	"github.com/robfig/cron/v3"
	"golang.org/x/time/rate"

	"optiplan/internal/config"
	"optiplan/internal/eventbus"
	"optiplan/internal/runtime/supervisor"
	"optiplan/internal/solver"
	logx "optiplan/pkg/logx"
)

// Triggers, as published on events.
const (
	TriggerStart      = "start"
	TriggerFileChange = "file-change"
	TriggerCron       = "cron"
)

// Service watches one plan file and re-solves it on change.
type Service struct {
	path string
	bus  eventbus.Bus
	log  logx.Logger
	logs *logx.Service // optional; re-applies logging config on plan reload

	mu       sync.Mutex
	lastHash uint64
	settle   time.Duration

	limiter *rate.Limiter

	// Buffered at 1: a trigger that arrives while a solve is queued coalesces
	// into it.
	triggers chan string
}

func New(path string, bus eventbus.Bus, log logx.Logger, logs *logx.Service) *Service {
	return &Service{
		path:     path,
		bus:      bus,
		log:      log.With(logx.String("path", path)),
		logs:     logs,
		settle:   config.DefaultSettle,
		limiter:  rate.NewLimiter(rate.Every(time.Minute/config.DefaultMaxPerMinute), config.DefaultMaxPerMinute),
		triggers: make(chan string, 1),
	}
}

// Run blocks until ctx is canceled. The initial plan load must succeed; after
// that, broken rewrites are reported on the bus and the last good settings
// (settle, rate limit) stay in effect.
func (s *Service) Run(ctx context.Context) error {
	cfg, err := config.Load(s.path)
	if err != nil {
		return fmt.Errorf("initial plan load: %w", err)
	}
	settle, _ := cfg.WatchSettle()
	perMin := cfg.WatchMaxPerMinute()

	s.mu.Lock()
	s.settle = settle
	s.mu.Unlock()
	s.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMin)), perMin)

	sup := supervisor.New(ctx, supervisor.WithLogger(s.log))
	sup.GoRestart("plan-watch", s.watchLoop)
	sup.Go("solve-loop", s.solveLoop)

	var cr *cron.Cron
	if spec := strings.TrimSpace(cfg.Watch.Resolve); spec != "" {
		cr = cron.New()
		if _, err := cr.AddFunc(spec, func() { s.trigger(TriggerCron) }); err != nil {
			sup.Cancel()
			stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = sup.Wait(stopCtx)
			return fmt.Errorf("watch.resolve %q: %w", spec, err)
		}
		cr.Start()
		s.log.Info("cron re-solve scheduled", logx.String("spec", spec))
	}

	// Solve once at startup so watch mode always has a current result.
	s.trigger(TriggerStart)

	_, _ = daemon.SdNotify(false, daemon.SdNotifyReady)
	s.log.Info("watching plan",
		logx.Duration("settle", settle), logx.Int("max_per_minute", perMin))

	<-ctx.Done()
	_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)

	if cr != nil {
		<-cr.Stop().Done()
	}
	stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sup.Stop(stopCtx); err != nil && err != context.DeadlineExceeded {
		return err
	}
	return nil
}

func (s *Service) trigger(reason string) {
	select {
	case s.triggers <- reason:
	default:
		// A solve is already queued; the pending trigger covers this one.
	}
}

func (s *Service) solveLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case reason := <-s.triggers:
			s.resolve(ctx, reason)
		}
	}
}

// resolve loads, solves, and publishes one run. Load or validation failures
// are published as error events; the previous result stays authoritative.
func (s *Service) resolve(ctx context.Context, trigger string) {
	cfg, err := config.Load(s.path)
	if err != nil {
		s.log.Warn("plan rejected", logx.Err(err))
		s.bus.Publish(eventbus.Event{Type: eventbus.TypeError, Trigger: trigger, Err: err})
		return
	}

	// Skip no-op rewrites (editors often touch the file without changing
	// content). Cron triggers re-solve regardless.
	h := cfg.Hash()
	s.mu.Lock()
	unchanged := trigger == TriggerFileChange && h != 0 && h == s.lastHash
	if !unchanged {
		s.lastHash = h
		if settle, serr := cfg.WatchSettle(); serr == nil {
			s.settle = settle
		}
	}
	s.mu.Unlock()
	if unchanged {
		s.log.Debug("plan unchanged; skipping re-solve")
		s.bus.Publish(eventbus.Event{
			Type: eventbus.TypeSkip, Plan: cfg.Plan, Trigger: trigger, Reason: "unchanged",
		})
		return
	}

	if !s.limiter.Allow() {
		s.log.Warn("re-solve rate limited", logx.String("trigger", trigger))
		s.bus.Publish(eventbus.Event{
			Type: eventbus.TypeSkip, Plan: cfg.Plan, Trigger: trigger, Reason: "rate-limited",
		})
		return
	}

	if s.logs != nil {
		s.logs.Apply(logx.Config{
			Level:   cfg.Logging.Level,
			Console: cfg.Logging.ConsoleEnabled(),
			File: logx.FileConfig{
				Enabled: cfg.Logging.File.Enabled,
				Path:    cfg.Logging.File.Path,
			},
		})
	}

	res, err := solvePlan(ctx, cfg)
	if err != nil {
		s.log.Warn("solve failed", logx.Err(err))
		s.bus.Publish(eventbus.Event{
			Type: eventbus.TypeError, Plan: cfg.Plan, Trigger: trigger, Err: err, Result: res,
		})
		return
	}

	s.log.Info("plan solved",
		logx.String("trigger", trigger),
		logx.Bool("feasible", res.Feasible),
		logx.Int("makespan", res.Makespan),
		logx.Uint64("leaves", res.Leaves),
		logx.Duration("elapsed", res.Elapsed))
	s.bus.Publish(eventbus.Event{
		Type: eventbus.TypeSolve, Plan: cfg.Plan, Trigger: trigger, Result: res,
	})
}

// solvePlan runs one bounded solve. On deadline the incumbent (best schedule
// found so far) is returned alongside the error.
func solvePlan(ctx context.Context, cfg *config.Config) (solver.Result, error) {
	p, err := cfg.Problem()
	if err != nil {
		return solver.Result{}, err
	}
	sv, err := solver.New(p)
	if err != nil {
		return solver.Result{}, err
	}
	if timeout, terr := cfg.SolveTimeout(); terr == nil && timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return sv.Solve(ctx)
}

// watchLoop runs one fsnotify watcher until it breaks, then returns an error
// so the supervisor restart loop recreates it with backoff. fsnotify can stop
// delivering events or close its channels when the watched directory churns;
// recreating the watcher self-heals.
func (s *Service) watchLoop(ctx context.Context) error {
	dir := filepath.Dir(s.path)
	file := filepath.Base(s.path)

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watcher init: %w", err)
	}
	defer w.Close()
	if err := w.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	s.log.Debug("plan watcher started", logx.String("dir", dir))

	// Settle debounce against partial editor writes: every event resets the
	// timer, and only a quiet period fires the trigger.
	var (
		timerMu sync.Mutex
		timer   *time.Timer
	)
	defer func() {
		timerMu.Lock()
		if timer != nil {
			timer.Stop()
		}
		timerMu.Unlock()
	}()
	debounce := func() {
		s.mu.Lock()
		settle := s.settle
		s.mu.Unlock()

		timerMu.Lock()
		defer timerMu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(settle, func() { s.trigger(TriggerFileChange) })
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return fmt.Errorf("watcher event channel closed")
			}
			// Compare by basename; editors replace files via rename and paths
			// may come back absolute or relative.
			if strings.EqualFold(filepath.Base(ev.Name), file) {
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove|fsnotify.Chmod) != 0 {
					debounce()
				}
			}
		case err, ok := <-w.Errors:
			if !ok {
				return fmt.Errorf("watcher error channel closed")
			}
			if err == nil {
				continue
			}
			// Overflow means events may have been missed; re-solve once and
			// keep the watcher alive.
			if strings.Contains(strings.ToLower(err.Error()), "overflow") {
				s.log.Warn("watch overflow; forcing re-solve", logx.Err(err))
				debounce()
				continue
			}
			if strings.Contains(strings.ToLower(err.Error()), "closed") {
				return fmt.Errorf("watcher closed: %w", err)
			}
			s.log.Warn("watch error", logx.Err(err))
		}
	}
}
