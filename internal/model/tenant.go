package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TenantStatus is the lifecycle state of a client account.
type TenantStatus string

const (
	StatusPending TenantStatus = "pending"
	StatusTrial   TenantStatus = "trial"
	StatusActive  TenantStatus = "active"
	StatusPaused  TenantStatus = "paused"
	StatusChurned TenantStatus = "churned"
)

// Valid reports whether s is one of the known statuses.
func (s TenantStatus) Valid() bool {
	switch s {
	case StatusPending, StatusTrial, StatusActive, StatusPaused, StatusChurned:
		return true
	}
	return false
}

// Automatable reports whether a tenant in this status may run its
// automation loop.
func (s TenantStatus) Automatable() bool {
	return s == StatusTrial || s == StatusActive
}

// TenantConfig holds the per-tenant automation settings.
type TenantConfig struct {
	Niches           []string `json:"niches"`
	TargetCities     []string `json:"target_cities"`
	AutoScrape       bool     `json:"auto_scrape"`
	AutoCall         bool     `json:"auto_call"`
	SubscriptionTier string   `json:"subscription_tier"`
	MonthlyCallLimit int      `json:"monthly_call_limit"`
	CallsUsed        int      `json:"calls_used"`
}

// RemainingCalls returns how many calls the tenant may still place
// this month.
func (c TenantConfig) RemainingCalls() int {
	r := c.MonthlyCallLimit - c.CallsUsed
	if r < 0 {
		return 0
	}
	return r
}

// TenantStats are cumulative counters for a tenant.
type TenantStats struct {
	LeadsGenerated int `json:"leads_generated"`
	CallsMade      int `json:"calls_made"`
	Appointments   int `json:"appointments"`
	Conversions    int `json:"conversions"`
	CallsToday     int `json:"calls_today"`
	LeadsToday     int `json:"leads_today"`
}

// Tenant is one client business with its own quota, schedule, and
// lead funnel. All mutable fields are owned by the registry; other
// components operate on value snapshots.
type Tenant struct {
	ID             uuid.UUID    `json:"id" db:"id"`
	Name           string       `json:"name" db:"name"`
	Email          string       `json:"email" db:"email"`
	Phone          string       `json:"phone" db:"phone"`
	Industry       string       `json:"industry" db:"industry"`
	Config         TenantConfig `json:"config"`
	Status         TenantStatus `json:"status" db:"status"`
	IsRunning      bool         `json:"is_running"`
	Stats          TenantStats  `json:"stats"`
	LastScrape     time.Time    `json:"last_scrape"`
	LastCall       time.Time    `json:"last_call"`
	LastReport     time.Time    `json:"last_report"`
	TrialStartedAt time.Time    `json:"trial_started_at"`
	CreatedAt      time.Time    `json:"created_at" db:"created_at"`
}

// NewTenant builds a tenant in pending state with sane defaults.
// The monthly limit must be positive and calls_used starts at zero,
// so the quota invariant holds from construction.
func NewTenant(name, email, industry string, cfg TenantConfig) (*Tenant, error) {
	if name == "" {
		return nil, fmt.Errorf("tenant name is required")
	}
	if cfg.MonthlyCallLimit <= 0 {
		return nil, fmt.Errorf("monthly call limit must be positive, got %d", cfg.MonthlyCallLimit)
	}
	if cfg.CallsUsed != 0 {
		return nil, fmt.Errorf("new tenant cannot start with calls used")
	}
	return &Tenant{
		ID:        uuid.New(),
		Name:      name,
		Email:     email,
		Industry:  industry,
		Config:    cfg,
		Status:    StatusPending,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// QuotaExhausted reports whether the tenant has used up its monthly
// call allowance.
func (t *Tenant) QuotaExhausted() bool {
	return t.Config.CallsUsed >= t.Config.MonthlyCallLimit
}

// UsageRatio returns calls_used / monthly_call_limit in [0,1+].
func (t *Tenant) UsageRatio() float64 {
	if t.Config.MonthlyCallLimit == 0 {
		return 0
	}
	return float64(t.Config.CallsUsed) / float64(t.Config.MonthlyCallLimit)
}

// TrialAge returns how long the tenant has been on trial as of now.
// Zero if the trial never started.
func (t *Tenant) TrialAge(now time.Time) time.Duration {
	if t.TrialStartedAt.IsZero() {
		return 0
	}
	return now.Sub(t.TrialStartedAt)
}
