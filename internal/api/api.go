// Package api exposes the control plane's externally observable
// surface: orchestrator start/stop, aggregate statistics, and tenant
// pause/resume. Simple command/query handlers, no bespoke formats.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/sumitrevolt/leadgenrationaivoiceagent-sub001/internal/auth"
	"github.com/sumitrevolt/leadgenrationaivoiceagent-sub001/internal/metrics"
	"github.com/sumitrevolt/leadgenrationaivoiceagent-sub001/internal/orchestrator"
	"github.com/sumitrevolt/leadgenrationaivoiceagent-sub001/internal/registry"
)

// QueueProvisioner creates a tenant's messaging queues when the
// tenant is registered. Nil disables provisioning (tests).
type QueueProvisioner interface {
	DeclareTenantQueues(tenantID string) error
}

type API struct {
	Orchestrator *orchestrator.Orchestrator
	Registry     *registry.Registry
	Queues       QueueProvisioner
	Logger       *zap.Logger
}

func NewAPI(orch *orchestrator.Orchestrator, reg *registry.Registry, queues QueueProvisioner, logger *zap.Logger) *API {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &API{
		Orchestrator: orch,
		Registry:     reg,
		Queues:       queues,
		Logger:       logger,
	}
}

func (a *API) Router() http.Handler {
	r := chi.NewRouter()

	// Public
	r.Get("/health", a.GetHealth)
	r.Get("/stats", a.GetPlatformStats)
	r.Handle("/metrics", metrics.Handler())

	// Secured
	r.Group(func(r chi.Router) {
		r.Use(auth.JWTAuthMiddleware)

		r.Post("/orchestrator/start", a.StartOrchestrator)
		r.Post("/orchestrator/stop", a.StopOrchestrator)

		r.Post("/tenants", a.CreateTenant)
		r.Get("/tenants", a.ListTenants)
		r.Get("/tenants/{id}", a.GetTenant)
		r.Post("/tenants/{id}/trial", a.StartTrial)
		r.Post("/tenants/{id}/pause", a.PauseTenant)
		r.Post("/tenants/{id}/resume", a.ResumeTenant)
	})

	return r
}
