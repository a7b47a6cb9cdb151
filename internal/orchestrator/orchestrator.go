// Package orchestrator supervises the whole platform: one automation
// loop per active tenant, a self-growth loop, and the monitoring,
// daily-task, and health loops that keep them honest.
package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sumitrevolt/leadgenrationaivoiceagent-sub001/internal/clock"
	"github.com/sumitrevolt/leadgenrationaivoiceagent-sub001/internal/journey"
	"github.com/sumitrevolt/leadgenrationaivoiceagent-sub001/internal/loop"
	"github.com/sumitrevolt/leadgenrationaivoiceagent-sub001/internal/model"
	"github.com/sumitrevolt/leadgenrationaivoiceagent-sub001/internal/registry"
	"github.com/sumitrevolt/leadgenrationaivoiceagent-sub001/internal/schedule"
	"github.com/sumitrevolt/leadgenrationaivoiceagent-sub001/internal/transfer"
)

const quotaWarnThreshold = 0.8

// GrowthConfig describes the platform's own lead-generation tenant.
type GrowthConfig struct {
	Enabled          bool
	Niches           []string
	TargetCities     []string
	MonthlyCallLimit int
}

// Config tunes the orchestrator's supervisory loops.
type Config struct {
	MonitorInterval time.Duration
	HealthInterval  time.Duration
	ScrapeAllHour   int
	ReportAllHour   int
	TrialDays       int
	Loop            loop.Config
	Growth          GrowthConfig
}

func (c Config) withDefaults() Config {
	if c.MonitorInterval <= 0 {
		c.MonitorInterval = time.Minute
	}
	if c.HealthInterval <= 0 {
		c.HealthInterval = 5 * time.Minute
	}
	if c.ScrapeAllHour <= 0 {
		c.ScrapeAllHour = 8
	}
	if c.ReportAllHour <= 0 {
		c.ReportAllHour = 18
	}
	if c.TrialDays <= 0 {
		c.TrialDays = 7
	}
	return c
}

type handle struct {
	cancel context.CancelFunc
	done   chan struct{}
}

func (h *handle) alive() bool {
	select {
	case <-h.done:
		return false
	default:
		return true
	}
}

// Orchestrator owns the process-wide start/stop lifecycle. It is the
// only component that launches goroutines for tenant loops, and it
// retains a handle per loop so Stop can join them all.
type Orchestrator struct {
	cfg       Config
	registry  *registry.Registry
	scheduler *schedule.Scheduler
	queue     loop.CallQueue
	source    loop.LeadSource
	notifier  loop.Notifier
	transfers *transfer.Manager
	journeys  *journey.Tracker
	clock     clock.Clock
	logger    *zap.Logger

	mu        sync.Mutex
	running   bool
	startedAt time.Time
	baseCtx   context.Context
	cancel    context.CancelFunc
	handles   map[uuid.UUID]*handle
	wg        sync.WaitGroup

	warned          map[uuid.UUID]bool // 80% quota warnings sent this month
	lastMaintenance string             // YYYY-MM-DD of the last midnight run
	growthID        uuid.UUID
}

// New wires an orchestrator. transfers and journeys may be nil.
func New(
	cfg Config,
	reg *registry.Registry,
	sched *schedule.Scheduler,
	queue loop.CallQueue,
	source loop.LeadSource,
	notifier loop.Notifier,
	transfers *transfer.Manager,
	journeys *journey.Tracker,
	clk clock.Clock,
	logger *zap.Logger,
) *Orchestrator {
	if clk == nil {
		clk = clock.Real()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		cfg:       cfg.withDefaults(),
		registry:  reg,
		scheduler: sched,
		queue:     queue,
		source:    source,
		notifier:  notifier,
		transfers: transfers,
		journeys:  journeys,
		clock:     clk,
		logger:    logger,
		handles:   make(map[uuid.UUID]*handle),
		warned:    make(map[uuid.UUID]bool),
	}
}

// Start launches one loop per automatable tenant, the platform's
// growth loop, and the three supervisory loops. It returns once
// everything is launched; Stop tears it all down.
func (o *Orchestrator) Start(ctx context.Context) error {
	o.mu.Lock()
	if o.running {
		o.mu.Unlock()
		return fmt.Errorf("orchestrator already running")
	}
	runCtx, cancel := context.WithCancel(ctx)
	o.running = true
	o.startedAt = o.clock.Now()
	o.baseCtx = runCtx
	o.cancel = cancel
	o.mu.Unlock()

	o.logger.Info("orchestrator starting")

	if o.cfg.Growth.Enabled {
		if err := o.ensureGrowthTenant(); err != nil {
			o.logger.Warn("growth tenant setup failed", zap.Error(err))
		}
	}

	for _, t := range o.registry.ListAutomatable() {
		if err := o.launchTenant(runCtx, t.ID); err != nil {
			o.logger.Warn("failed to launch tenant loop",
				zap.String("tenant_id", t.ID.String()), zap.Error(err))
		}
	}

	o.supervise(runCtx, o.monitorLoop)
	o.supervise(runCtx, o.dailyLoop)
	o.supervise(runCtx, o.healthLoop)

	o.logger.Info("orchestrator started",
		zap.Int("tenants", o.registry.Count()))
	return nil
}

// Stop clears the running flag, cancels every loop, and waits for
// them to observe the cancellation. Cooperative: in-flight collabora-
// tor calls finish, no new work starts.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	if !o.running {
		o.mu.Unlock()
		return
	}
	o.running = false
	cancel := o.cancel
	o.cancel = nil
	o.baseCtx = nil
	handles := o.handles
	o.handles = make(map[uuid.UUID]*handle)
	o.mu.Unlock()

	o.logger.Info("orchestrator stopping")
	for id := range handles {
		_ = o.registry.SetRunning(id, false)
	}
	cancel()
	for _, h := range handles {
		<-h.done
	}
	o.wg.Wait()
	o.logger.Info("orchestrator stopped")
}

// Running reports whether the orchestrator is live.
func (o *Orchestrator) Running() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.running
}

// StartTenant launches (or relaunches) one tenant's loop. Used on
// resume and by the monitor's restart path.
func (o *Orchestrator) StartTenant(id uuid.UUID) error {
	o.mu.Lock()
	if !o.running {
		o.mu.Unlock()
		return fmt.Errorf("orchestrator is not running")
	}
	runCtx := o.runContext()
	o.mu.Unlock()
	return o.launchTenant(runCtx, id)
}

// PauseTenant pauses a tenant; its loop exits at the next iteration
// boundary.
func (o *Orchestrator) PauseTenant(id uuid.UUID) error {
	return o.registry.Pause(id)
}

// ResumeTenant moves a paused tenant back to active and relaunches
// its loop if the orchestrator is live.
func (o *Orchestrator) ResumeTenant(id uuid.UUID) error {
	if err := o.registry.Resume(id); err != nil {
		return err
	}
	if !o.Running() {
		return nil
	}
	return o.StartTenant(id)
}

// BeginTrial starts a tenant's trial and opens its journey funnel at
// trial_started.
func (o *Orchestrator) BeginTrial(id uuid.UUID) error {
	now := o.clock.Now()
	if err := o.registry.StartTrial(id, now); err != nil {
		return err
	}
	if err := o.registry.SetRunning(id, true); err != nil {
		return err
	}
	if o.journeys != nil {
		if t, ok := o.registry.Get(id); ok {
			o.journeys.Begin(id, t.Name)
			_ = o.journeys.Advance(id, model.StageContacted, "onboarding call")
			_ = o.journeys.Advance(id, model.StageInterested, "")
			_ = o.journeys.Advance(id, model.StageTrialStarted, "trial activated")
		}
	}
	if o.Running() {
		return o.StartTenant(id)
	}
	return nil
}

// launchTenant flags the tenant as running and spawns its loop with a
// panic guard so one tenant's crash never reaches its siblings.
func (o *Orchestrator) launchTenant(runCtx context.Context, id uuid.UUID) error {
	if runCtx == nil {
		return fmt.Errorf("orchestrator is not running")
	}
	tenant, ok := o.registry.Get(id)
	if !ok {
		return fmt.Errorf("tenant %s not found", id)
	}
	if !tenant.Status.Automatable() {
		return fmt.Errorf("tenant %s is %s, not automatable", id, tenant.Status)
	}

	o.mu.Lock()
	if h, exists := o.handles[id]; exists && h.alive() {
		o.mu.Unlock()
		// The previous loop is still live; flip the flag back on and
		// let it keep cycling instead of racing a second loop.
		return o.registry.SetRunning(id, true)
	}
	loopCtx, loopCancel := context.WithCancel(runCtx)
	h := &handle{cancel: loopCancel, done: make(chan struct{})}
	o.handles[id] = h
	o.mu.Unlock()

	if err := o.registry.SetRunning(id, true); err != nil {
		loopCancel()
		close(h.done)
		return err
	}

	lp := loop.New(id, o.cfg.Loop, o.registry, o.scheduler,
		o.queue, o.source, o.notifier, o.transfers, o.clock, o.logger)

	go func() {
		defer close(h.done)
		defer func() {
			if r := recover(); r != nil {
				o.logger.Error("tenant loop panicked",
					zap.String("tenant_id", id.String()),
					zap.Any("panic", r))
				_ = o.registry.SetRunning(id, false)
			}
		}()
		lp.Run(loopCtx)
	}()
	return nil
}

func (o *Orchestrator) ensureGrowthTenant() error {
	cfg := o.cfg.Growth
	limit := cfg.MonthlyCallLimit
	if limit <= 0 {
		limit = 500
	}
	growth, err := model.NewTenant("platform-growth", "", "saas", model.TenantConfig{
		Niches:           cfg.Niches,
		TargetCities:     cfg.TargetCities,
		AutoScrape:       true,
		AutoCall:         true,
		SubscriptionTier: "internal",
		MonthlyCallLimit: limit,
	})
	if err != nil {
		return err
	}
	growth.Status = model.StatusActive
	if err := o.registry.Add(growth); err != nil {
		return err
	}
	o.mu.Lock()
	o.growthID = growth.ID
	o.mu.Unlock()
	return nil
}

// GrowthTenantID returns the id of the platform's own lead-gen
// tenant, zero if growth is disabled.
func (o *Orchestrator) GrowthTenantID() uuid.UUID {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.growthID
}

// supervise runs fn on the waitgroup.
func (o *Orchestrator) supervise(ctx context.Context, fn func(context.Context)) {
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		fn(ctx)
	}()
}

// runContext rebuilds the context tenant loops should derive from.
// Caller must hold o.mu.
func (o *Orchestrator) runContext() context.Context {
	// Stop replaces handles and cancels; any context derived before
	// that is already cancelled, so loops launched late exit cleanly.
	if o.cancel == nil {
		return nil
	}
	return o.baseCtx
}
