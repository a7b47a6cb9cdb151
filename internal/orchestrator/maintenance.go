package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/sumitrevolt/leadgenrationaivoiceagent-sub001/internal/metrics"
	"github.com/sumitrevolt/leadgenrationaivoiceagent-sub001/internal/model"
)

// monitorLoop restarts stalled tenant loops and watches quota usage
// against the 80% and 100% thresholds.
func (o *Orchestrator) monitorLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-o.clock.After(o.cfg.MonitorInterval):
		}
		o.CheckTenants(ctx)
	}
}

// CheckTenants performs one monitor pass. Exported so tests can drive
// it without waiting on the ticker.
func (o *Orchestrator) CheckTenants(ctx context.Context) {
	active := 0
	for _, t := range o.registry.List() {
		if t.Status.Automatable() {
			active++
		}

		if t.Status == model.StatusActive && !t.IsRunning && o.Running() {
			o.logger.Info("restarting stalled tenant loop",
				zap.String("tenant_id", t.ID.String()))
			if err := o.StartTenant(t.ID); err != nil {
				o.logger.Warn("restart failed",
					zap.String("tenant_id", t.ID.String()), zap.Error(err))
			}
		}

		ratio := t.UsageRatio()
		switch {
		case ratio >= 1.0 && t.Status.Automatable():
			_ = o.registry.Pause(t.ID)
			metrics.QuotaPauses.Inc()
			o.alert(ctx, t, "Monthly call limit reached",
				fmt.Sprintf("All %d calls for this month have been used. Calling is paused.",
					t.Config.MonthlyCallLimit))
		case ratio >= quotaWarnThreshold && t.Status.Automatable():
			o.mu.Lock()
			seen := o.warned[t.ID]
			o.warned[t.ID] = true
			o.mu.Unlock()
			if !seen {
				o.alert(ctx, t, "Approaching monthly call limit",
					fmt.Sprintf("%d of %d calls used (%.0f%%).",
						t.Config.CallsUsed, t.Config.MonthlyCallLimit, ratio*100))
			}
		}
	}
	metrics.ActiveTenants.Set(float64(active))
}

// dailyLoop fires scrape-all, report-all, and midnight maintenance at
// their configured hours, computing each next fire time from a cron
// expression in the platform timezone.
func (o *Orchestrator) dailyLoop(ctx context.Context) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

	type task struct {
		name     string
		schedule cron.Schedule
		run      func(context.Context)
	}
	parse := func(spec string) cron.Schedule {
		s, err := parser.Parse(spec)
		if err != nil {
			// The specs are built from validated integer hours, so
			// this only fires on a programming error.
			panic(fmt.Sprintf("invalid cron spec %q: %v", spec, err))
		}
		return s
	}
	tasks := []task{
		{"scrape-all", parse(fmt.Sprintf("0 %d * * *", o.cfg.ScrapeAllHour)), o.ScrapeAll},
		{"report-all", parse(fmt.Sprintf("0 %d * * *", o.cfg.ReportAllHour)), o.ReportAll},
		{"maintenance", parse("0 0 * * *"), o.RunMidnightMaintenance},
	}

	loc := o.scheduler.Location()
	for {
		now := o.clock.Now().In(loc)
		nextIdx := 0
		nextAt := tasks[0].schedule.Next(now)
		for i := 1; i < len(tasks); i++ {
			if at := tasks[i].schedule.Next(now); at.Before(nextAt) {
				nextIdx, nextAt = i, at
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-o.clock.After(nextAt.Sub(now)):
		}
		o.logger.Info("daily task firing", zap.String("task", tasks[nextIdx].name))
		tasks[nextIdx].run(ctx)
	}
}

// ScrapeAll marks every automatable tenant's scrape as due; each loop
// picks it up on its next cycle.
func (o *Orchestrator) ScrapeAll(ctx context.Context) {
	for _, t := range o.registry.ListAutomatable() {
		if !t.Config.AutoScrape {
			continue
		}
		if err := o.registry.MarkScrapeDue(t.ID); err != nil {
			o.logger.Warn("scrape-all mark failed",
				zap.String("tenant_id", t.ID.String()), zap.Error(err))
		}
	}
}

// ReportAll sends a platform-driven daily report to every automatable
// tenant.
func (o *Orchestrator) ReportAll(ctx context.Context) {
	now := o.clock.Now()
	for _, t := range o.registry.ListAutomatable() {
		stats := model.DailyStats{
			Date:         now,
			LeadsScraped: t.Stats.LeadsToday,
			CallsPlaced:  t.Stats.CallsToday,
			Appointments: t.Stats.Appointments,
			CallsUsed:    t.Config.CallsUsed,
			MonthlyLimit: t.Config.MonthlyCallLimit,
			TotalLeads:   t.Stats.LeadsGenerated,
			TotalCalls:   t.Stats.CallsMade,
		}
		if err := o.notifier.SendDailyReport(ctx, t, stats); err != nil {
			o.logger.Warn("daily report failed",
				zap.String("tenant_id", t.ID.String()), zap.Error(err))
		}
	}
}

// RunMidnightMaintenance expires stale trials, resets daily counters,
// and on the first of the month resets quota usage. Running it twice
// in one day is a no-op.
func (o *Orchestrator) RunMidnightMaintenance(ctx context.Context) {
	now := o.clock.Now().In(o.scheduler.Location())
	day := now.Format("2006-01-02")

	o.mu.Lock()
	if o.lastMaintenance == day {
		o.mu.Unlock()
		return
	}
	o.lastMaintenance = day
	o.mu.Unlock()

	trialMax := time.Duration(o.cfg.TrialDays) * 24 * time.Hour
	for _, t := range o.registry.List() {
		if t.Status != model.StatusTrial {
			continue
		}
		age := t.TrialAge(now)
		switch {
		case age >= trialMax:
			_ = o.registry.Pause(t.ID)
			o.alert(ctx, t, "Trial ended",
				"Your 7-day trial has ended. Upgrade to keep your automation running.")
			o.advanceJourney(t.ID, model.StageTrialEnded, "trial expired")
			o.logger.Info("trial expired",
				zap.String("tenant_id", t.ID.String()),
				zap.Duration("age", age))
		case age >= trialMax-24*time.Hour:
			o.advanceJourney(t.ID, model.StageTrialEnding, "")
		case age >= 3*24*time.Hour:
			o.advanceJourney(t.ID, model.StageTrialDay3, "")
		}
	}

	o.registry.ResetDailyCounters()

	if now.Day() == 1 {
		o.registry.ResetMonthlyUsage()
		o.mu.Lock()
		o.warned = make(map[uuid.UUID]bool)
		o.mu.Unlock()
		o.logger.Info("monthly usage counters reset")
	}

	if o.journeys != nil {
		if retired := o.journeys.Retire(); retired > 0 {
			o.logger.Info("retired finished journeys", zap.Int("count", retired))
		}
	}
}

// advanceJourney is best-effort: journeys that already passed the
// stage (or ended) simply refuse the move.
func (o *Orchestrator) advanceJourney(id uuid.UUID, stage model.JourneyStage, note string) {
	if o.journeys == nil {
		return
	}
	_ = o.journeys.Advance(id, stage, note)
}

// Health is a point-in-time liveness snapshot of the platform.
type Health struct {
	Running       bool          `json:"running"`
	Uptime        time.Duration `json:"uptime"`
	TenantCount   int           `json:"tenant_count"`
	ActiveTenants int           `json:"active_tenants"`
	TotalCalls    int           `json:"total_calls"`
	TotalLeads    int           `json:"total_leads"`
	Appointments  int           `json:"appointments"`
}

// HealthSnapshot aggregates platform counters.
func (o *Orchestrator) HealthSnapshot() Health {
	o.mu.Lock()
	running := o.running
	startedAt := o.startedAt
	o.mu.Unlock()

	h := Health{Running: running}
	if running {
		h.Uptime = o.clock.Now().Sub(startedAt)
	}
	for _, t := range o.registry.List() {
		h.TenantCount++
		if t.Status.Automatable() {
			h.ActiveTenants++
		}
		h.TotalCalls += t.Stats.CallsMade
		h.TotalLeads += t.Stats.LeadsGenerated
		h.Appointments += t.Stats.Appointments
	}
	return h
}

func (o *Orchestrator) healthLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-o.clock.After(o.cfg.HealthInterval):
		}
		h := o.HealthSnapshot()
		metrics.ActiveTenants.Set(float64(h.ActiveTenants))
		o.logger.Info("health check",
			zap.Duration("uptime", h.Uptime),
			zap.Int("active_tenants", h.ActiveTenants),
			zap.Int("total_calls", h.TotalCalls))
	}
}

func (o *Orchestrator) alert(ctx context.Context, t model.Tenant, subject, message string) {
	if err := o.notifier.SendAlert(ctx, t, subject, message); err != nil {
		o.logger.Warn("alert failed",
			zap.String("tenant_id", t.ID.String()),
			zap.String("subject", subject),
			zap.Error(err))
	}
}
