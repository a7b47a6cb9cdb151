// Package loop runs one tenant's automation cycle: scrape leads,
// place calls within quota and schedule, process results, and report.
package loop

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sumitrevolt/leadgenrationaivoiceagent-sub001/internal/clock"
	"github.com/sumitrevolt/leadgenrationaivoiceagent-sub001/internal/hotlead"
	"github.com/sumitrevolt/leadgenrationaivoiceagent-sub001/internal/metrics"
	"github.com/sumitrevolt/leadgenrationaivoiceagent-sub001/internal/model"
	"github.com/sumitrevolt/leadgenrationaivoiceagent-sub001/internal/registry"
	"github.com/sumitrevolt/leadgenrationaivoiceagent-sub001/internal/schedule"
	"github.com/sumitrevolt/leadgenrationaivoiceagent-sub001/internal/transfer"
)

// Config tunes one automation loop. Zero values fall back to the
// defaults below.
type Config struct {
	CycleInterval     time.Duration
	ErrorBackoff      time.Duration
	QuotaBackoff      time.Duration
	ScrapeInterval    time.Duration
	MaxLeadsPerScrape int
	MaxCallsPerCycle  int
	ReportHour        int
}

func (c Config) withDefaults() Config {
	if c.CycleInterval <= 0 {
		c.CycleInterval = time.Minute
	}
	if c.ErrorBackoff <= 0 {
		c.ErrorBackoff = 5 * time.Minute
	}
	if c.QuotaBackoff <= 0 {
		c.QuotaBackoff = time.Hour
	}
	if c.ScrapeInterval <= 0 {
		c.ScrapeInterval = 24 * time.Hour
	}
	if c.MaxLeadsPerScrape <= 0 {
		c.MaxLeadsPerScrape = 20
	}
	if c.MaxCallsPerCycle <= 0 {
		c.MaxCallsPerCycle = 10
	}
	if c.ReportHour <= 0 {
		c.ReportHour = 18
	}
	return c
}

// Loop is one tenant's scrape → call → report cycle. It holds only
// the tenant's id; every read or write of tenant state goes through
// the registry.
type Loop struct {
	tenantID  uuid.UUID
	cfg       Config
	registry  *registry.Registry
	scheduler *schedule.Scheduler
	queue     CallQueue
	source    LeadSource
	notifier  Notifier
	transfers *transfer.Manager
	clock     clock.Clock
	logger    *zap.Logger
}

// New builds an automation loop for one tenant. transfers may be nil
// when the deployment has no human reps; hot leads then surface as
// alerts only.
func New(
	tenantID uuid.UUID,
	cfg Config,
	reg *registry.Registry,
	sched *schedule.Scheduler,
	queue CallQueue,
	source LeadSource,
	notifier Notifier,
	transfers *transfer.Manager,
	clk clock.Clock,
	logger *zap.Logger,
) *Loop {
	if clk == nil {
		clk = clock.Real()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loop{
		tenantID:  tenantID,
		cfg:       cfg.withDefaults(),
		registry:  reg,
		scheduler: sched,
		queue:     queue,
		source:    source,
		notifier:  notifier,
		transfers: transfers,
		clock:     clk,
		logger:    logger.With(zap.String("tenant_id", tenantID.String())),
	}
}

// TenantID returns the tenant this loop serves.
func (l *Loop) TenantID() uuid.UUID { return l.tenantID }

// Run executes cycles until the context is cancelled or the tenant's
// running flag is cleared. Transient errors back off and retry; they
// never terminate the loop.
func (l *Loop) Run(ctx context.Context) {
	label := l.tenantID.String()
	metrics.LoopActive.WithLabelValues(label).Set(1)
	defer metrics.LoopActive.WithLabelValues(label).Set(0)

	l.logger.Info("automation loop started")
	for {
		wait, cont, err := l.RunCycle(ctx)
		if err != nil {
			l.logger.Warn("cycle error, backing off",
				zap.Duration("backoff", wait), zap.Error(err))
		}
		if !cont {
			l.logger.Info("automation loop stopped")
			return
		}
		select {
		case <-ctx.Done():
			l.logger.Info("automation loop cancelled")
			return
		case <-l.clock.After(wait):
		}
	}
}

// RunCycle performs one scrape → call → results → report pass. It
// returns how long to wait before the next cycle and whether the loop
// should keep going.
func (l *Loop) RunCycle(ctx context.Context) (time.Duration, bool, error) {
	tenant, ok := l.registry.Get(l.tenantID)
	if !ok {
		return 0, false, nil
	}
	if !tenant.IsRunning || !tenant.Status.Automatable() {
		return 0, false, nil
	}

	now := l.clock.Now()

	// Quota exhausted: idle until the monitor or a monthly reset
	// changes the picture. No work is attempted.
	if tenant.QuotaExhausted() {
		return l.cfg.QuotaBackoff, true, nil
	}

	var cycleErr error

	if tenant.Config.AutoScrape && now.Sub(tenant.LastScrape) >= l.cfg.ScrapeInterval {
		if err := l.scrapeCycle(ctx, tenant, now); err != nil {
			cycleErr = err
		}
	}

	if tenant.Config.AutoCall && l.scheduler.IsWorkingTime(now) {
		if err := l.callCycle(ctx, tenant, now); err != nil && cycleErr == nil {
			cycleErr = err
		}
	}

	if err := l.processResults(ctx, tenant); err != nil && cycleErr == nil {
		cycleErr = err
	}

	l.maybeSendDailyReport(ctx, now)

	if cycleErr != nil {
		return l.cfg.ErrorBackoff, true, cycleErr
	}
	return l.cfg.CycleInterval, true, nil
}

// scrapeCycle pulls fresh leads for every configured niche and queues
// calls for them at that niche's optimal hours.
func (l *Loop) scrapeCycle(ctx context.Context, tenant model.Tenant, now time.Time) error {
	niches := tenant.Config.Niches
	if len(niches) == 0 {
		niches = []string{tenant.Industry}
	}

	total := 0
	var lastErr error
	for _, niche := range niches {
		leads, err := l.source.ScrapeLeads(ctx, niche, tenant.Config.TargetCities, l.cfg.MaxLeadsPerScrape)
		if err != nil {
			lastErr = fmt.Errorf("scrape %s: %w", niche, err)
			continue
		}
		slots := l.scheduler.OptimalCallTimes(niche, len(leads), now)
		for i, lead := range leads {
			call := model.OutboundCall{
				ID:          uuid.New(),
				TenantID:    tenant.ID,
				LeadID:      lead.ID,
				Phone:       lead.Phone,
				CompanyName: lead.CompanyName,
				Niche:       niche,
				EnqueuedAt:  now,
			}
			if i < len(slots) {
				call.ScheduledAt = slots[i]
			} else {
				call.ScheduledAt = l.scheduler.NextWorkingTime(now)
			}
			if err := l.queue.Enqueue(ctx, call); err != nil {
				lastErr = fmt.Errorf("enqueue call for %s: %w", lead.CompanyName, err)
			}
		}
		total += len(leads)
	}

	if total > 0 || lastErr == nil {
		_ = l.registry.RecordScrape(tenant.ID, total, now)
		metrics.LeadsScraped.WithLabelValues(tenant.ID.String()).Add(float64(total))
		l.logger.Info("scraped leads", zap.Int("count", total))
	}
	return lastErr
}

// callCycle drains the tenant's call queue, never past the remaining
// monthly allowance, and pauses the tenant the moment the limit is
// reached.
func (l *Loop) callCycle(ctx context.Context, tenant model.Tenant, now time.Time) error {
	want := l.cfg.MaxCallsPerCycle
	if remaining := tenant.Config.RemainingCalls(); want > remaining {
		want = remaining
	}
	if want <= 0 {
		return nil
	}

	placed, err := l.queue.Drain(ctx, tenant.ID, want)
	if placed > 0 {
		if !l.registry.TryIncrementUsage(tenant.ID, placed) {
			// Usage moved concurrently and the placed calls would
			// breach the cap. Pause immediately.
			l.pauseForQuota(ctx, tenant)
			return fmt.Errorf("tenant %s breached quota mid-cycle", tenant.ID)
		}
		_ = l.registry.RecordCalls(tenant.ID, placed, now)
		metrics.CallsPlaced.WithLabelValues(tenant.ID.String()).Add(float64(placed))
		l.logger.Info("placed calls", zap.Int("count", placed))
	}
	if err != nil {
		return fmt.Errorf("drain call queue: %w", err)
	}

	if updated, ok := l.registry.Get(tenant.ID); ok && updated.QuotaExhausted() {
		l.pauseForQuota(ctx, updated)
	}
	return nil
}

func (l *Loop) pauseForQuota(ctx context.Context, tenant model.Tenant) {
	if tenant.Status == model.StatusPaused {
		return
	}
	_ = l.registry.Pause(tenant.ID)
	metrics.QuotaPauses.Inc()
	l.logger.Info("tenant paused: monthly call limit reached",
		zap.Int("limit", tenant.Config.MonthlyCallLimit))
	if err := l.notifier.SendAlert(ctx, tenant, "Monthly call limit reached",
		fmt.Sprintf("All %d calls for this month have been used. Calling is paused until the next billing cycle.",
			tenant.Config.MonthlyCallLimit)); err != nil {
		l.logger.Warn("limit alert failed", zap.Error(err))
	}
}

// processResults pulls completed-call outcomes, runs hot-lead
// detection, and routes transfers or callbacks.
func (l *Loop) processResults(ctx context.Context, tenant model.Tenant) error {
	results, err := l.queue.CollectResults(ctx, tenant.ID)
	if err != nil {
		return fmt.Errorf("collect call results: %w", err)
	}

	for _, result := range results {
		if result.AppointmentSet {
			_ = l.registry.RecordAppointment(tenant.ID)
			l.notify(ctx, tenant, "Appointment booked",
				fmt.Sprintf("%s booked an appointment.", result.CompanyName))
		}

		det := hotlead.Detect(result.Transcript, result.Qualification, result.LeadScore)
		if !det.IsHot {
			continue
		}
		metrics.HotLeadsDetected.WithLabelValues(tenant.ID.String()).Inc()
		l.logger.Info("hot lead detected",
			zap.String("company", result.CompanyName),
			zap.String("reason", string(det.Reason)),
			zap.Float64("confidence", det.Confidence))

		if l.transfers == nil {
			l.notify(ctx, tenant, "Hot lead",
				fmt.Sprintf("%s is a hot lead (%s).", result.CompanyName, det.Reason))
			continue
		}

		req := transfer.RequestFromDetection(result, det)
		executed, err := l.transfers.ExecuteTransfer(req)
		switch {
		case err == transfer.ErrNoRepAvailable:
			l.scheduleCallback(ctx, tenant, result)
		case err != nil:
			l.logger.Warn("transfer failed", zap.Error(err))
		default:
			metrics.TransfersCompleted.Inc()
			l.notify(ctx, tenant, "Hot lead transferred",
				fmt.Sprintf("%s was transferred to rep %s (%s urgency).",
					result.CompanyName, executed.RepID, executed.Urgency))
		}
	}
	return nil
}

// scheduleCallback queues a follow-up call at the next working time
// when no rep could take the transfer.
func (l *Loop) scheduleCallback(ctx context.Context, tenant model.Tenant, result model.CallResult) {
	at := l.scheduler.NextWorkingTime(l.clock.Now().Add(30 * time.Minute))
	callback := model.OutboundCall{
		ID:          uuid.New(),
		TenantID:    tenant.ID,
		LeadID:      result.LeadID,
		Phone:       result.Phone,
		CompanyName: result.CompanyName,
		ScheduledAt: at,
		EnqueuedAt:  l.clock.Now(),
	}
	if err := l.queue.Enqueue(ctx, callback); err != nil {
		l.logger.Warn("callback enqueue failed", zap.Error(err))
		return
	}
	l.notify(ctx, tenant, "Callback scheduled",
		fmt.Sprintf("No rep was available for %s; a callback is scheduled for %s.",
			result.CompanyName, at.Format(time.RFC1123)))
}

// maybeSendDailyReport sends at most one report per day, at the
// configured hour in the tenant's schedule timezone. The dedupe stamp
// lives on the tenant, so a loop restarted mid-hour stays quiet if
// today's report already went out.
func (l *Loop) maybeSendDailyReport(ctx context.Context, now time.Time) {
	local := now.In(l.scheduler.Location())
	if local.Hour() != l.cfg.ReportHour {
		return
	}
	tenant, ok := l.registry.Get(l.tenantID)
	if !ok {
		return
	}
	day := local.Format("2006-01-02")
	if !tenant.LastReport.IsZero() &&
		tenant.LastReport.In(l.scheduler.Location()).Format("2006-01-02") == day {
		return
	}
	stats := model.DailyStats{
		Date:         local,
		LeadsScraped: tenant.Stats.LeadsToday,
		CallsPlaced:  tenant.Stats.CallsToday,
		Appointments: tenant.Stats.Appointments,
		CallsUsed:    tenant.Config.CallsUsed,
		MonthlyLimit: tenant.Config.MonthlyCallLimit,
		TotalLeads:   tenant.Stats.LeadsGenerated,
		TotalCalls:   tenant.Stats.CallsMade,
	}
	if err := l.notifier.SendDailyReport(ctx, tenant, stats); err != nil {
		l.logger.Warn("daily report failed", zap.Error(err))
		return
	}
	_ = l.registry.RecordReport(tenant.ID, now)
}

func (l *Loop) notify(ctx context.Context, tenant model.Tenant, subject, message string) {
	if err := l.notifier.SendAlert(ctx, tenant, subject, message); err != nil {
		l.logger.Warn("alert failed", zap.String("subject", subject), zap.Error(err))
	}
}
