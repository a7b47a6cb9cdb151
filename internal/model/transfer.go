package model

import (
	"time"

	"github.com/google/uuid"
)

// TransferType is how a call is handed to a human rep.
type TransferType string

const (
	TransferWarm       TransferType = "warm"
	TransferBlind      TransferType = "blind"
	TransferConference TransferType = "conference"
	TransferCallback   TransferType = "callback"
)

// TransferReason is why a transfer was requested.
type TransferReason string

const (
	ReasonReadyToBuy     TransferReason = "ready_to_buy"
	ReasonRequestedHuman TransferReason = "requested_human"
	ReasonHighIntent     TransferReason = "high_intent"
	ReasonComplexInquiry TransferReason = "complex_inquiry"
)

// Urgency ranks how fast a hot lead must reach a human.
type Urgency string

const (
	UrgencyLow      Urgency = "low"
	UrgencyMedium   Urgency = "medium"
	UrgencyHigh     Urgency = "high"
	UrgencyCritical Urgency = "critical"
)

// TransferStatus tracks a transfer request through its lifecycle.
type TransferStatus string

const (
	TransferPending    TransferStatus = "pending"
	TransferInProgress TransferStatus = "in_progress"
	TransferCompleted  TransferStatus = "completed"
	TransferFailed     TransferStatus = "failed"
)

// TransferRequest is a handoff of a live or near-live call from the
// automation to a sales rep. Created from detector output, mutated
// only by the transfer manager.
type TransferRequest struct {
	ID          uuid.UUID      `json:"id"`
	CallID      uuid.UUID      `json:"call_id"`
	TenantID    uuid.UUID      `json:"tenant_id"`
	LeadID      uuid.UUID      `json:"lead_id"`
	LeadCompany string         `json:"lead_company"`
	LeadPhone   string         `json:"lead_phone"`
	Industry    string         `json:"industry,omitempty"`
	RepID       string         `json:"rep_id,omitempty"`
	Type        TransferType   `json:"type"`
	Reason      TransferReason `json:"reason"`
	Urgency     Urgency        `json:"urgency"`
	Status      TransferStatus `json:"status"`
	RequestedAt time.Time      `json:"requested_at"`
	CompletedAt time.Time      `json:"completed_at,omitempty"`
}

// SalesRep is a human agent who can receive transfers. CurrentCalls
// is mutated only by the rep pool under its lock.
type SalesRep struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	Phone            string   `json:"phone"`
	Specializations  []string `json:"specializations"`
	Available        bool     `json:"available"`
	CurrentCalls     int      `json:"current_calls"`
	MaxConcurrent    int      `json:"max_concurrent"`
	TotalTransfers   int      `json:"total_transfers"`
	SuccessfulCloses int      `json:"successful_closes"`
}

// Specializes reports whether the rep covers the given industry.
func (r *SalesRep) Specializes(industry string) bool {
	for _, s := range r.Specializations {
		if s == industry {
			return true
		}
	}
	return false
}

// AtCapacity reports whether the rep cannot take another call.
func (r *SalesRep) AtCapacity() bool {
	return r.CurrentCalls >= r.MaxConcurrent
}
