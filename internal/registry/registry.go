// Package registry owns every tenant's mutable state. All other
// components hold tenant ids and operate on value snapshots; any
// mutation goes through the registry so concurrent loops can never
// race a tenant past its quota or into an invalid status.
package registry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sumitrevolt/leadgenrationaivoiceagent-sub001/internal/model"
)

// Store persists tenant state changes. The registry treats it as
// write-behind: persistence errors are logged, never surfaced to the
// mutating caller.
type Store interface {
	SaveTenant(ctx context.Context, t model.Tenant) error
}

// Registry is a concurrency-safe map of tenant id to tenant. Each
// tenant has its own lock so independent loops never contend.
type Registry struct {
	mu      sync.RWMutex
	tenants map[uuid.UUID]*entry

	store  Store
	logger *zap.Logger
}

type entry struct {
	mu sync.Mutex
	t  model.Tenant
}

// New builds an empty registry. store may be nil for memory-only use.
func New(store Store, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		tenants: make(map[uuid.UUID]*entry),
		store:   store,
		logger:  logger,
	}
}

// Add registers a tenant. It fails if the id is already present.
func (r *Registry) Add(t *model.Tenant) error {
	if t == nil {
		return fmt.Errorf("nil tenant")
	}
	if !t.Status.Valid() {
		return fmt.Errorf("invalid tenant status %q", t.Status)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tenants[t.ID]; exists {
		return fmt.Errorf("tenant %s already registered", t.ID)
	}
	r.tenants[t.ID] = &entry{t: cloneTenant(*t)}
	r.persist(*t)
	return nil
}

// Remove drops a tenant from the registry.
func (r *Registry) Remove(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tenants, id)
}

// Get returns a snapshot of the tenant.
func (r *Registry) Get(id uuid.UUID) (model.Tenant, bool) {
	e := r.lookup(id)
	if e == nil {
		return model.Tenant{}, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return cloneTenant(e.t), true
}

// List returns snapshots of every tenant.
func (r *Registry) List() []model.Tenant {
	r.mu.RLock()
	entries := make([]*entry, 0, len(r.tenants))
	for _, e := range r.tenants {
		entries = append(entries, e)
	}
	r.mu.RUnlock()

	out := make([]model.Tenant, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		out = append(out, cloneTenant(e.t))
		e.mu.Unlock()
	}
	return out
}

// ListAutomatable returns snapshots of tenants in trial or active
// status.
func (r *Registry) ListAutomatable() []model.Tenant {
	var out []model.Tenant
	for _, t := range r.List() {
		if t.Status.Automatable() {
			out = append(out, t)
		}
	}
	return out
}

// SetStatus moves a tenant to the given status.
func (r *Registry) SetStatus(id uuid.UUID, status model.TenantStatus) error {
	if !status.Valid() {
		return fmt.Errorf("invalid tenant status %q", status)
	}
	return r.update(id, func(t *model.Tenant) {
		t.Status = status
	})
}

// SetRunning flips the tenant's loop flag. Loops poll this at each
// iteration boundary.
func (r *Registry) SetRunning(id uuid.UUID, running bool) error {
	return r.update(id, func(t *model.Tenant) {
		t.IsRunning = running
	})
}

// StartTrial moves a pending tenant onto trial and stamps the trial
// start time.
func (r *Registry) StartTrial(id uuid.UUID, now time.Time) error {
	return r.update(id, func(t *model.Tenant) {
		t.Status = model.StatusTrial
		t.TrialStartedAt = now
	})
}

// Pause stops a tenant's automation: status paused, running flag
// cleared. The loop observes the flag and exits at its next cycle.
func (r *Registry) Pause(id uuid.UUID) error {
	return r.update(id, func(t *model.Tenant) {
		t.Status = model.StatusPaused
		t.IsRunning = false
	})
}

// Resume moves a paused tenant back to active. The orchestrator is
// responsible for relaunching its loop.
func (r *Registry) Resume(id uuid.UUID) error {
	e := r.lookup(id)
	if e == nil {
		return fmt.Errorf("tenant %s not found", id)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.t.Status != model.StatusPaused {
		return fmt.Errorf("tenant %s is %s, not paused", id, e.t.Status)
	}
	e.t.Status = model.StatusActive
	r.persist(e.t)
	return nil
}

// TryIncrementUsage atomically adds n to the tenant's calls_used,
// refusing (and leaving the counter untouched) if that would cross
// the monthly limit. This is the single point where the quota
// invariant is enforced.
func (r *Registry) TryIncrementUsage(id uuid.UUID, n int) bool {
	e := r.lookup(id)
	if e == nil || n < 0 {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.t.Config.CallsUsed+n > e.t.Config.MonthlyCallLimit {
		return false
	}
	e.t.Config.CallsUsed += n
	r.persist(e.t)
	return true
}

// RecordScrape stamps the scrape time and adds to the lead counters.
func (r *Registry) RecordScrape(id uuid.UUID, leads int, now time.Time) error {
	return r.update(id, func(t *model.Tenant) {
		t.LastScrape = now
		t.Stats.LeadsGenerated += leads
		t.Stats.LeadsToday += leads
	})
}

// MarkScrapeDue clears the tenant's last-scrape stamp so its loop
// scrapes on the next cycle. Used by the orchestrator's scrape-all
// task.
func (r *Registry) MarkScrapeDue(id uuid.UUID) error {
	return r.update(id, func(t *model.Tenant) {
		t.LastScrape = time.Time{}
	})
}

// RecordCalls stamps the call time and adds to the call counters.
// Quota accounting happens separately in TryIncrementUsage.
func (r *Registry) RecordCalls(id uuid.UUID, n int, now time.Time) error {
	return r.update(id, func(t *model.Tenant) {
		t.LastCall = now
		t.Stats.CallsMade += n
		t.Stats.CallsToday += n
	})
}

// RecordReport stamps the daily-report time. The stamp outlives any
// one loop instance, so a restarted loop will not resend the same
// day's report.
func (r *Registry) RecordReport(id uuid.UUID, now time.Time) error {
	return r.update(id, func(t *model.Tenant) {
		t.LastReport = now
	})
}

// RecordAppointment bumps the appointment counter.
func (r *Registry) RecordAppointment(id uuid.UUID) error {
	return r.update(id, func(t *model.Tenant) {
		t.Stats.Appointments++
	})
}

// RecordConversion bumps the conversion counter.
func (r *Registry) RecordConversion(id uuid.UUID) error {
	return r.update(id, func(t *model.Tenant) {
		t.Stats.Conversions++
	})
}

// ResetDailyCounters zeroes every tenant's per-day counters. Run by
// midnight maintenance.
func (r *Registry) ResetDailyCounters() {
	for _, t := range r.List() {
		_ = r.update(t.ID, func(t *model.Tenant) {
			t.Stats.CallsToday = 0
			t.Stats.LeadsToday = 0
		})
	}
}

// ResetMonthlyUsage zeroes every tenant's calls_used. Run on the
// first of the month.
func (r *Registry) ResetMonthlyUsage() {
	for _, t := range r.List() {
		_ = r.update(t.ID, func(t *model.Tenant) {
			t.Config.CallsUsed = 0
		})
	}
}

// Count returns the number of registered tenants.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tenants)
}

func (r *Registry) lookup(id uuid.UUID) *entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tenants[id]
}

func (r *Registry) update(id uuid.UUID, fn func(*model.Tenant)) error {
	e := r.lookup(id)
	if e == nil {
		return fmt.Errorf("tenant %s not found", id)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	fn(&e.t)
	r.persist(e.t)
	return nil
}

// persist writes the tenant through to the store, logging failures.
// Called with the entry lock held; the snapshot is taken first so the
// store never sees a half-applied mutation.
func (r *Registry) persist(t model.Tenant) {
	if r.store == nil {
		return
	}
	snapshot := cloneTenant(t)
	if err := r.store.SaveTenant(context.Background(), snapshot); err != nil {
		r.logger.Warn("failed to persist tenant",
			zap.String("tenant_id", t.ID.String()),
			zap.Error(err))
	}
}

func cloneTenant(t model.Tenant) model.Tenant {
	c := t
	c.Config.Niches = append([]string(nil), t.Config.Niches...)
	c.Config.TargetCities = append([]string(nil), t.Config.TargetCities...)
	return c
}
