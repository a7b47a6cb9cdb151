package transfer

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sumitrevolt/leadgenrationaivoiceagent-sub001/internal/clock"
	"github.com/sumitrevolt/leadgenrationaivoiceagent-sub001/internal/hotlead"
	"github.com/sumitrevolt/leadgenrationaivoiceagent-sub001/internal/model"
)

func pendingRequest(industry string) model.TransferRequest {
	return model.TransferRequest{
		ID:          uuid.New(),
		CallID:      uuid.New(),
		TenantID:    uuid.New(),
		LeadID:      uuid.New(),
		LeadCompany: "Smile Dental",
		Industry:    industry,
		Type:        model.TransferWarm,
		Reason:      model.ReasonReadyToBuy,
		Urgency:     model.UrgencyHigh,
		Status:      model.TransferPending,
	}
}

func TestExecuteTransferAssignsRep(t *testing.T) {
	fake := clock.NewFake(time.Date(2025, time.March, 10, 10, 0, 0, 0, time.UTC))
	pool := NewRepPool([]model.SalesRep{rep("r1", 0, 2)})
	m := NewManager(pool, fake, nil)

	got, err := m.ExecuteTransfer(pendingRequest("dental"))
	require.NoError(t, err)
	assert.Equal(t, "r1", got.RepID)
	assert.Equal(t, model.TransferCompleted, got.Status)
	assert.Equal(t, fake.Now(), got.CompletedAt)

	r, _ := pool.Rep("r1")
	assert.Equal(t, 1, r.CurrentCalls)
	assert.Equal(t, 1, r.TotalTransfers)
}

func TestExecuteTransferNoRepDowngradesToCallback(t *testing.T) {
	pool := NewRepPool([]model.SalesRep{rep("r1", 1, 1)})
	m := NewManager(pool, nil, nil)

	got, err := m.ExecuteTransfer(pendingRequest("dental"))
	require.ErrorIs(t, err, ErrNoRepAvailable)
	assert.Equal(t, model.TransferCallback, got.Type)
	assert.Equal(t, model.TransferFailed, got.Status)
	assert.Empty(t, got.RepID)

	// Failed request is still recorded for inspection.
	stored, ok := m.Request(got.ID)
	require.True(t, ok)
	assert.Equal(t, model.TransferFailed, stored.Status)
}

func TestExecuteTransferConcurrentNeverExceedsCapacity(t *testing.T) {
	pool := NewRepPool([]model.SalesRep{
		rep("r1", 0, 3),
		rep("r2", 0, 2),
	})
	m := NewManager(pool, nil, nil)

	const attempts = 20
	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := m.ExecuteTransfer(pendingRequest("dental")); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, succeeded, "only five slots exist across the pool")
	for _, r := range pool.Reps() {
		assert.LessOrEqual(t, r.CurrentCalls, r.MaxConcurrent,
			"rep %s pushed past capacity", r.ID)
	}
}

func TestFinishCallReleasesSlot(t *testing.T) {
	pool := NewRepPool([]model.SalesRep{rep("r1", 0, 1)})
	m := NewManager(pool, nil, nil)

	got, err := m.ExecuteTransfer(pendingRequest("dental"))
	require.NoError(t, err)

	require.NoError(t, m.FinishCall(got.ID, true))
	r, _ := pool.Rep("r1")
	assert.Zero(t, r.CurrentCalls)
	assert.Equal(t, 1, r.SuccessfulCloses)

	// The slot is usable again.
	_, err = m.ExecuteTransfer(pendingRequest("dental"))
	assert.NoError(t, err)
}

func TestFinishCallUnknownTransfer(t *testing.T) {
	m := NewManager(NewRepPool(nil), nil, nil)
	assert.Error(t, m.FinishCall(uuid.New(), false))
}

func TestRequestFromDetection(t *testing.T) {
	result := model.CallResult{
		CallID:      uuid.New(),
		TenantID:    uuid.New(),
		LeadID:      uuid.New(),
		CompanyName: "Smile Dental",
		Phone:       "+15125550100",
		Industry:    "dental",
	}

	t.Run("critical urgency goes blind", func(t *testing.T) {
		req := RequestFromDetection(result, hotlead.Result{
			Reason:  model.ReasonRequestedHuman,
			Urgency: model.UrgencyCritical,
		})
		assert.Equal(t, model.TransferBlind, req.Type)
		assert.Equal(t, model.TransferPending, req.Status)
		assert.Equal(t, result.CallID, req.CallID)
	})

	t.Run("everything else goes warm", func(t *testing.T) {
		req := RequestFromDetection(result, hotlead.Result{
			Reason:  model.ReasonReadyToBuy,
			Urgency: model.UrgencyHigh,
		})
		assert.Equal(t, model.TransferWarm, req.Type)
	})
}

func TestCompletedSince(t *testing.T) {
	start := time.Date(2025, time.March, 10, 10, 0, 0, 0, time.UTC)
	fake := clock.NewFake(start)
	pool := NewRepPool([]model.SalesRep{rep("r1", 0, 10)})
	m := NewManager(pool, fake, nil)

	_, err := m.ExecuteTransfer(pendingRequest("dental"))
	require.NoError(t, err)
	fake.Advance(time.Hour)
	_, err = m.ExecuteTransfer(pendingRequest("dental"))
	require.NoError(t, err)

	assert.Equal(t, 2, m.CompletedSince(start))
	assert.Equal(t, 1, m.CompletedSince(start.Add(time.Minute)))
}
