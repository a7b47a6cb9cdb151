package registry

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sumitrevolt/leadgenrationaivoiceagent-sub001/internal/model"
)

func newTenant(t *testing.T, limit int) *model.Tenant {
	t.Helper()
	tenant, err := model.NewTenant("Acme Dental", "ops@acme.test", "dental", model.TenantConfig{
		Niches:           []string{"dental"},
		TargetCities:     []string{"Austin"},
		AutoScrape:       true,
		AutoCall:         true,
		MonthlyCallLimit: limit,
	})
	require.NoError(t, err)
	return tenant
}

func TestAddAndGetReturnsSnapshot(t *testing.T) {
	r := New(nil, nil)
	tenant := newTenant(t, 100)
	require.NoError(t, r.Add(tenant))

	got, ok := r.Get(tenant.ID)
	require.True(t, ok)
	assert.Equal(t, model.StatusPending, got.Status)

	// Mutating the snapshot must not leak into the registry.
	got.Config.Niches[0] = "hvac"
	got.Config.CallsUsed = 99

	again, _ := r.Get(tenant.ID)
	assert.Equal(t, "dental", again.Config.Niches[0])
	assert.Zero(t, again.Config.CallsUsed)
}

func TestAddRejectsDuplicate(t *testing.T) {
	r := New(nil, nil)
	tenant := newTenant(t, 100)
	require.NoError(t, r.Add(tenant))
	assert.Error(t, r.Add(tenant))
}

func TestTryIncrementUsageRefusesOverLimit(t *testing.T) {
	r := New(nil, nil)
	tenant := newTenant(t, 100)
	require.NoError(t, r.Add(tenant))

	require.True(t, r.TryIncrementUsage(tenant.ID, 95))
	assert.False(t, r.TryIncrementUsage(tenant.ID, 10), "95+10 crosses the limit")
	assert.True(t, r.TryIncrementUsage(tenant.ID, 5), "95+5 hits the limit exactly")
	assert.False(t, r.TryIncrementUsage(tenant.ID, 1))

	got, _ := r.Get(tenant.ID)
	assert.Equal(t, 100, got.Config.CallsUsed)
	assert.True(t, got.QuotaExhausted())
}

func TestTryIncrementUsageConcurrent(t *testing.T) {
	r := New(nil, nil)
	tenant := newTenant(t, 100)
	require.NoError(t, r.Add(tenant))

	var wg sync.WaitGroup
	for g := 0; g < 20; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 10; i++ {
				r.TryIncrementUsage(tenant.ID, 1)
			}
		}()
	}
	wg.Wait()

	got, _ := r.Get(tenant.ID)
	assert.Equal(t, 100, got.Config.CallsUsed, "usage must never exceed the limit under contention")
}

func TestPauseAndResume(t *testing.T) {
	r := New(nil, nil)
	tenant := newTenant(t, 100)
	require.NoError(t, r.Add(tenant))
	require.NoError(t, r.SetStatus(tenant.ID, model.StatusActive))
	require.NoError(t, r.SetRunning(tenant.ID, true))

	require.NoError(t, r.Pause(tenant.ID))
	got, _ := r.Get(tenant.ID)
	assert.Equal(t, model.StatusPaused, got.Status)
	assert.False(t, got.IsRunning)

	require.NoError(t, r.Resume(tenant.ID))
	got, _ = r.Get(tenant.ID)
	assert.Equal(t, model.StatusActive, got.Status)

	assert.Error(t, r.Resume(tenant.ID), "resuming a non-paused tenant fails")
}

func TestStartTrial(t *testing.T) {
	r := New(nil, nil)
	tenant := newTenant(t, 100)
	require.NoError(t, r.Add(tenant))

	now := time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)
	require.NoError(t, r.StartTrial(tenant.ID, now))

	got, _ := r.Get(tenant.ID)
	assert.Equal(t, model.StatusTrial, got.Status)
	assert.Equal(t, now, got.TrialStartedAt)
	assert.True(t, got.Status.Automatable())
}

func TestListAutomatable(t *testing.T) {
	r := New(nil, nil)
	active := newTenant(t, 100)
	paused := newTenant(t, 100)
	require.NoError(t, r.Add(active))
	require.NoError(t, r.Add(paused))
	require.NoError(t, r.SetStatus(active.ID, model.StatusActive))
	require.NoError(t, r.Pause(paused.ID))

	got := r.ListAutomatable()
	require.Len(t, got, 1)
	assert.Equal(t, active.ID, got[0].ID)
}

func TestCountersAndResets(t *testing.T) {
	r := New(nil, nil)
	tenant := newTenant(t, 100)
	require.NoError(t, r.Add(tenant))

	now := time.Date(2025, time.March, 10, 14, 0, 0, 0, time.UTC)
	require.NoError(t, r.RecordScrape(tenant.ID, 12, now))
	require.NoError(t, r.RecordCalls(tenant.ID, 7, now))
	require.NoError(t, r.RecordAppointment(tenant.ID))
	require.True(t, r.TryIncrementUsage(tenant.ID, 7))

	got, _ := r.Get(tenant.ID)
	assert.Equal(t, 12, got.Stats.LeadsGenerated)
	assert.Equal(t, 12, got.Stats.LeadsToday)
	assert.Equal(t, 7, got.Stats.CallsMade)
	assert.Equal(t, 7, got.Stats.CallsToday)
	assert.Equal(t, 1, got.Stats.Appointments)
	assert.Equal(t, now, got.LastScrape)

	r.ResetDailyCounters()
	got, _ = r.Get(tenant.ID)
	assert.Zero(t, got.Stats.CallsToday)
	assert.Zero(t, got.Stats.LeadsToday)
	assert.Equal(t, 7, got.Stats.CallsMade, "lifetime counters survive the daily reset")

	r.ResetMonthlyUsage()
	got, _ = r.Get(tenant.ID)
	assert.Zero(t, got.Config.CallsUsed)
}

func TestMarkScrapeDue(t *testing.T) {
	r := New(nil, nil)
	tenant := newTenant(t, 100)
	require.NoError(t, r.Add(tenant))
	require.NoError(t, r.RecordScrape(tenant.ID, 5, time.Now()))

	require.NoError(t, r.MarkScrapeDue(tenant.ID))
	got, _ := r.Get(tenant.ID)
	assert.True(t, got.LastScrape.IsZero())
}

// failingStore always errors so we can check write-behind semantics.
type failingStore struct {
	mu    sync.Mutex
	calls int
}

func (f *failingStore) SaveTenant(_ context.Context, _ model.Tenant) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return errors.New("db down")
}

func TestPersistenceFailuresDoNotSurface(t *testing.T) {
	store := &failingStore{}
	r := New(store, nil)
	tenant := newTenant(t, 100)

	require.NoError(t, r.Add(tenant), "store failure must not fail the mutation")
	require.NoError(t, r.SetStatus(tenant.ID, model.StatusActive))
	assert.True(t, r.TryIncrementUsage(tenant.ID, 1))

	store.mu.Lock()
	defer store.mu.Unlock()
	assert.Equal(t, 3, store.calls, "every mutation attempts a save")
}

func TestUnknownTenantOperations(t *testing.T) {
	r := New(nil, nil)
	id := newTenant(t, 10).ID

	_, ok := r.Get(id)
	assert.False(t, ok)
	assert.Error(t, r.SetRunning(id, true))
	assert.False(t, r.TryIncrementUsage(id, 1))
	assert.Zero(t, r.Count())
}
