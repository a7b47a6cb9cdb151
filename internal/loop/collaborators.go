package loop

import (
	"context"

	"github.com/google/uuid"

	"github.com/sumitrevolt/leadgenrationaivoiceagent-sub001/internal/model"
)

// CallQueue is the telephony-side collaborator. Enqueue adds a call
// to the tenant's queue; Drain hands up to max pending calls to the
// dialer and reports how many were actually placed; CollectResults
// returns outcomes of completed calls. The loop enforces quota before
// calling Drain, so max never exceeds the tenant's remaining
// allowance.
type CallQueue interface {
	Enqueue(ctx context.Context, call model.OutboundCall) error
	Drain(ctx context.Context, tenantID uuid.UUID, max int) (int, error)
	CollectResults(ctx context.Context, tenantID uuid.UUID) ([]model.CallResult, error)
}

// LeadSource scrapes prospects for a niche across the given cities.
// It may return fewer than maxLeads and must not fail on an empty
// result.
type LeadSource interface {
	ScrapeLeads(ctx context.Context, niche string, cities []string, maxLeads int) ([]model.Lead, error)
}

// Notifier delivers alerts and reports. Fire-and-forget from the
// loop's perspective: failures are logged, never retried within the
// cycle.
type Notifier interface {
	SendAlert(ctx context.Context, tenant model.Tenant, subject, message string) error
	SendDailyReport(ctx context.Context, tenant model.Tenant, stats model.DailyStats) error
}
