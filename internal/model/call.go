package model

import (
	"time"

	"github.com/google/uuid"
)

// Lead is a prospect produced by the lead source. Only id, phone and
// company name are guaranteed; everything else is best-effort.
type Lead struct {
	ID          uuid.UUID `json:"id"`
	TenantID    uuid.UUID `json:"tenant_id"`
	CompanyName string    `json:"company_name"`
	Phone       string    `json:"phone"`
	ContactName string    `json:"contact_name,omitempty"`
	Industry    string    `json:"industry,omitempty"`
	City        string    `json:"city,omitempty"`
	Niche       string    `json:"niche,omitempty"`
	Score       int       `json:"score"`
	ScrapedAt   time.Time `json:"scraped_at"`
}

// OutboundCall is a single call waiting in a tenant's queue.
type OutboundCall struct {
	ID          uuid.UUID `json:"id"`
	TenantID    uuid.UUID `json:"tenant_id"`
	LeadID      uuid.UUID `json:"lead_id"`
	Phone       string    `json:"phone"`
	CompanyName string    `json:"company_name"`
	Niche       string    `json:"niche,omitempty"`
	ScheduledAt time.Time `json:"scheduled_at"`
	EnqueuedAt  time.Time `json:"enqueued_at"`
}

// ConversationTurn is one exchange in a call transcript.
type ConversationTurn struct {
	Role string `json:"role"` // "assistant" or "user"
	Text string `json:"text"`
}

// Qualification holds the facts the voice agent collected during a
// call.
type Qualification struct {
	IsDecisionMaker bool   `json:"is_decision_maker"`
	Budget          string `json:"budget,omitempty"`
	Timeline        string `json:"timeline,omitempty"`
	Need            string `json:"need,omitempty"`
}

// CallResult is the outcome of a completed call, consumed by the
// automation loop to drive hot-lead detection and notifications.
type CallResult struct {
	CallID         uuid.UUID          `json:"call_id"`
	TenantID       uuid.UUID          `json:"tenant_id"`
	LeadID         uuid.UUID          `json:"lead_id"`
	CompanyName    string             `json:"company_name"`
	Phone          string             `json:"phone"`
	Industry       string             `json:"industry,omitempty"`
	Transcript     []ConversationTurn `json:"transcript,omitempty"`
	Qualification  Qualification      `json:"qualification"`
	LeadScore      int                `json:"lead_score"`
	AppointmentSet bool               `json:"appointment_set"`
	CompletedAt    time.Time          `json:"completed_at"`
}

// DailyStats is the payload of a tenant's end-of-day report.
type DailyStats struct {
	Date         time.Time `json:"date"`
	LeadsScraped int       `json:"leads_scraped"`
	CallsPlaced  int       `json:"calls_placed"`
	Appointments int       `json:"appointments"`
	CallsUsed    int       `json:"calls_used"`
	MonthlyLimit int       `json:"monthly_limit"`
	TotalLeads   int       `json:"total_leads"`
	TotalCalls   int       `json:"total_calls"`
}
