package transfer

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sumitrevolt/leadgenrationaivoiceagent-sub001/internal/clock"
	"github.com/sumitrevolt/leadgenrationaivoiceagent-sub001/internal/hotlead"
	"github.com/sumitrevolt/leadgenrationaivoiceagent-sub001/internal/model"
)

// ErrNoRepAvailable signals that every rep is busy or offline. Not a
// hard failure: callers fall back to scheduling a callback.
var ErrNoRepAvailable = fmt.Errorf("no sales rep available")

// Manager executes transfers: it picks a rep, moves the request
// through pending → in_progress → completed, and keeps the rep's
// live-call count honest.
type Manager struct {
	pool   *RepPool
	clock  clock.Clock
	logger *zap.Logger

	mu       sync.Mutex
	requests map[uuid.UUID]*model.TransferRequest
}

// NewManager builds a transfer manager over the given rep pool.
func NewManager(pool *RepPool, clk clock.Clock, logger *zap.Logger) *Manager {
	if clk == nil {
		clk = clock.Real()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		pool:     pool,
		clock:    clk,
		logger:   logger,
		requests: make(map[uuid.UUID]*model.TransferRequest),
	}
}

// RequestFromDetection builds a pending transfer request from a call
// result and the detector's verdict.
func RequestFromDetection(result model.CallResult, det hotlead.Result) model.TransferRequest {
	transferType := model.TransferWarm
	if det.Urgency == model.UrgencyCritical {
		transferType = model.TransferBlind
	}
	return model.TransferRequest{
		ID:          uuid.New(),
		CallID:      result.CallID,
		TenantID:    result.TenantID,
		LeadID:      result.LeadID,
		LeadCompany: result.CompanyName,
		LeadPhone:   result.Phone,
		Industry:    result.Industry,
		Type:        transferType,
		Reason:      det.Reason,
		Urgency:     det.Urgency,
		Status:      model.TransferPending,
	}
}

// ExecuteTransfer assigns the best rep for the request's industry and
// runs the handoff. When no rep is eligible the request is downgraded
// to a callback and ErrNoRepAvailable is returned.
func (m *Manager) ExecuteTransfer(req model.TransferRequest) (model.TransferRequest, error) {
	req.RequestedAt = m.clock.Now()

	for {
		rep, ok := m.pool.FindBestRep(req.Industry)
		if !ok {
			req.Type = model.TransferCallback
			req.Status = model.TransferFailed
			m.remember(req)
			return req, ErrNoRepAvailable
		}
		// claim re-validates under the pool lock; a concurrent
		// transfer may have taken the rep's last slot since the
		// scoring pass.
		if m.pool.claim(rep.ID) {
			req.RepID = rep.ID
			break
		}
	}

	req.Status = model.TransferInProgress
	m.remember(req)
	m.logger.Info("transferring hot lead",
		zap.String("transfer_id", req.ID.String()),
		zap.String("rep_id", req.RepID),
		zap.String("company", req.LeadCompany),
		zap.String("urgency", string(req.Urgency)))

	req.Status = model.TransferCompleted
	req.CompletedAt = m.clock.Now()
	m.remember(req)
	return req, nil
}

// FinishCall releases the rep's slot once the transferred call ends.
func (m *Manager) FinishCall(transferID uuid.UUID, closed bool) error {
	m.mu.Lock()
	req, ok := m.requests[transferID]
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("transfer %s not found", transferID)
	}
	if req.RepID == "" {
		return fmt.Errorf("transfer %s has no assigned rep", transferID)
	}
	m.pool.release(req.RepID, closed)
	return nil
}

// Request returns a snapshot of a transfer request.
func (m *Manager) Request(id uuid.UUID) (model.TransferRequest, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	req, ok := m.requests[id]
	if !ok {
		return model.TransferRequest{}, false
	}
	return *req, true
}

// CompletedSince counts transfers completed at or after t.
func (m *Manager) CompletedSince(t time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, req := range m.requests {
		if req.Status == model.TransferCompleted && !req.CompletedAt.Before(t) {
			n++
		}
	}
	return n
}

func (m *Manager) remember(req model.TransferRequest) {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := req
	m.requests[req.ID] = &copied
}
