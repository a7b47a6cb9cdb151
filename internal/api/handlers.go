package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sumitrevolt/leadgenrationaivoiceagent-sub001/internal/model"
)

// GetHealth returns the orchestrator's liveness snapshot.
func (a *API) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.Orchestrator.HealthSnapshot())
}

// GetPlatformStats returns per-tenant aggregate counters.
func (a *API) GetPlatformStats(w http.ResponseWriter, r *http.Request) {
	type tenantStats struct {
		ID        string             `json:"id"`
		Name      string             `json:"name"`
		Status    model.TenantStatus `json:"status"`
		IsRunning bool               `json:"is_running"`
		CallsUsed int                `json:"calls_used"`
		CallLimit int                `json:"call_limit"`
		Stats     model.TenantStats  `json:"stats"`
	}
	tenants := a.Registry.List()
	out := make([]tenantStats, 0, len(tenants))
	for _, t := range tenants {
		out = append(out, tenantStats{
			ID:        t.ID.String(),
			Name:      t.Name,
			Status:    t.Status,
			IsRunning: t.IsRunning,
			CallsUsed: t.Config.CallsUsed,
			CallLimit: t.Config.MonthlyCallLimit,
			Stats:     t.Stats,
		})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"health":  a.Orchestrator.HealthSnapshot(),
		"tenants": out,
	})
}

// StartOrchestrator launches the platform loops.
func (a *API) StartOrchestrator(w http.ResponseWriter, r *http.Request) {
	if err := a.Orchestrator.Start(context.Background()); err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	a.Logger.Info("API: orchestrator started")
	writeJSON(w, http.StatusOK, map[string]string{"status": "started"})
}

// StopOrchestrator tears the platform loops down.
func (a *API) StopOrchestrator(w http.ResponseWriter, r *http.Request) {
	a.Orchestrator.Stop()
	a.Logger.Info("API: orchestrator stopped")
	writeJSON(w, http.StatusOK, map[string]string{"status": "stopped"})
}

type createTenantRequest struct {
	Name     string             `json:"name"`
	Email    string             `json:"email"`
	Industry string             `json:"industry"`
	Config   model.TenantConfig `json:"config"`
}

// CreateTenant registers a pending tenant.
func (a *API) CreateTenant(w http.ResponseWriter, r *http.Request) {
	var body createTenantRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "bad request body", http.StatusBadRequest)
		return
	}
	tenant, err := model.NewTenant(body.Name, body.Email, body.Industry, body.Config)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := a.Registry.Add(tenant); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if a.Queues != nil {
		if err := a.Queues.DeclareTenantQueues(tenant.ID.String()); err != nil {
			a.Logger.Warn("failed to declare tenant queues",
				zap.String("tenant_id", tenant.ID.String()), zap.Error(err))
		}
	}
	a.Logger.Info("API: created tenant", zap.String("tenant_id", tenant.ID.String()))
	writeJSON(w, http.StatusCreated, map[string]string{"tenant_id": tenant.ID.String()})
}

// ListTenants returns snapshots of every tenant.
func (a *API) ListTenants(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.Registry.List())
}

// GetTenant returns one tenant snapshot.
func (a *API) GetTenant(w http.ResponseWriter, r *http.Request) {
	id, ok := tenantID(w, r)
	if !ok {
		return
	}
	tenant, found := a.Registry.Get(id)
	if !found {
		http.Error(w, "tenant not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, tenant)
}

// StartTrial begins a pending tenant's trial and launches its loop.
func (a *API) StartTrial(w http.ResponseWriter, r *http.Request) {
	id, ok := tenantID(w, r)
	if !ok {
		return
	}
	if err := a.Orchestrator.BeginTrial(id); err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	a.Logger.Info("API: trial started", zap.String("tenant_id", id.String()))
	w.WriteHeader(http.StatusNoContent)
}

// PauseTenant pauses a tenant's automation.
func (a *API) PauseTenant(w http.ResponseWriter, r *http.Request) {
	id, ok := tenantID(w, r)
	if !ok {
		return
	}
	if err := a.Orchestrator.PauseTenant(id); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	a.Logger.Info("API: tenant paused", zap.String("tenant_id", id.String()))
	w.WriteHeader(http.StatusNoContent)
}

// ResumeTenant reactivates a paused tenant and relaunches its loop.
func (a *API) ResumeTenant(w http.ResponseWriter, r *http.Request) {
	id, ok := tenantID(w, r)
	if !ok {
		return
	}
	if err := a.Orchestrator.ResumeTenant(id); err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	a.Logger.Info("API: tenant resumed", zap.String("tenant_id", id.String()))
	w.WriteHeader(http.StatusNoContent)
}

func tenantID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid tenant id", http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
