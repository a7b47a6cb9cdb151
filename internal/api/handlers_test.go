package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sumitrevolt/leadgenrationaivoiceagent-sub001/internal/auth"
	"github.com/sumitrevolt/leadgenrationaivoiceagent-sub001/internal/model"
	"github.com/sumitrevolt/leadgenrationaivoiceagent-sub001/internal/orchestrator"
	"github.com/sumitrevolt/leadgenrationaivoiceagent-sub001/internal/registry"
	"github.com/sumitrevolt/leadgenrationaivoiceagent-sub001/internal/schedule"
)

type noopQueue struct{}

func (noopQueue) Enqueue(context.Context, model.OutboundCall) error          { return nil }
func (noopQueue) Drain(context.Context, uuid.UUID, int) (int, error)         { return 0, nil }
func (noopQueue) CollectResults(context.Context, uuid.UUID) ([]model.CallResult, error) {
	return nil, nil
}

type noopSource struct{}

func (noopSource) ScrapeLeads(context.Context, string, []string, int) ([]model.Lead, error) {
	return nil, nil
}

type noopNotifier struct{}

func (noopNotifier) SendAlert(context.Context, model.Tenant, string, string) error { return nil }
func (noopNotifier) SendDailyReport(context.Context, model.Tenant, model.DailyStats) error {
	return nil
}

func newTestAPI(t *testing.T) (*API, *registry.Registry) {
	t.Helper()
	auth.SetSecret("test-secret")
	reg := registry.New(nil, nil)
	sched := schedule.New(schedule.DefaultConfig(), nil, nil)
	orch := orchestrator.New(orchestrator.Config{}, reg, sched,
		noopQueue{}, noopSource{}, noopNotifier{}, nil, nil, nil, nil)
	return NewAPI(orch, reg, nil, nil), reg
}

func bearer(t *testing.T) string {
	t.Helper()
	token, err := auth.GenerateToken("ops")
	require.NoError(t, err)
	return "Bearer " + token
}

func doRequest(t *testing.T, a *API, method, path, token string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	rec := httptest.NewRecorder()
	a.Router().ServeHTTP(rec, req)
	return rec
}

func TestHealthIsPublic(t *testing.T) {
	a, _ := newTestAPI(t)
	rec := doRequest(t, a, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var h orchestrator.Health
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &h))
	assert.False(t, h.Running)
}

func TestSecuredRoutesRejectMissingToken(t *testing.T) {
	a, _ := newTestAPI(t)

	rec := doRequest(t, a, http.MethodPost, "/tenants", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doRequest(t, a, http.MethodPost, "/tenants", "Bearer garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateAndGetTenant(t *testing.T) {
	a, reg := newTestAPI(t)

	body, _ := json.Marshal(createTenantRequest{
		Name:     "Acme Dental",
		Email:    "ops@acme.test",
		Industry: "dental",
		Config: model.TenantConfig{
			Niches:           []string{"dental"},
			MonthlyCallLimit: 200,
		},
	})
	rec := doRequest(t, a, http.MethodPost, "/tenants", bearer(t), body)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	id, err := uuid.Parse(created["tenant_id"])
	require.NoError(t, err)
	assert.Equal(t, 1, reg.Count())

	rec = doRequest(t, a, http.MethodGet, "/tenants/"+id.String(), bearer(t), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var got model.Tenant
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "Acme Dental", got.Name)
	assert.Equal(t, model.StatusPending, got.Status)
}

func TestCreateTenantValidation(t *testing.T) {
	a, _ := newTestAPI(t)

	rec := doRequest(t, a, http.MethodPost, "/tenants", bearer(t), []byte("{not json"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	body, _ := json.Marshal(createTenantRequest{Name: "No Limit Inc"})
	rec = doRequest(t, a, http.MethodPost, "/tenants", bearer(t), body)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "zero monthly limit is rejected")
}

func TestGetTenantNotFound(t *testing.T) {
	a, _ := newTestAPI(t)

	rec := doRequest(t, a, http.MethodGet, "/tenants/"+uuid.NewString(), bearer(t), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(t, a, http.MethodGet, "/tenants/not-a-uuid", bearer(t), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPauseAndResumeTenant(t *testing.T) {
	a, reg := newTestAPI(t)
	tenant, err := model.NewTenant("Acme Dental", "", "dental", model.TenantConfig{MonthlyCallLimit: 100})
	require.NoError(t, err)
	require.NoError(t, reg.Add(tenant))
	require.NoError(t, reg.SetStatus(tenant.ID, model.StatusActive))

	rec := doRequest(t, a, http.MethodPost, "/tenants/"+tenant.ID.String()+"/pause", bearer(t), nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
	got, _ := reg.Get(tenant.ID)
	assert.Equal(t, model.StatusPaused, got.Status)

	rec = doRequest(t, a, http.MethodPost, "/tenants/"+tenant.ID.String()+"/resume", bearer(t), nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
	got, _ = reg.Get(tenant.ID)
	assert.Equal(t, model.StatusActive, got.Status)

	// Resuming again conflicts.
	rec = doRequest(t, a, http.MethodPost, "/tenants/"+tenant.ID.String()+"/resume", bearer(t), nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestStartTrialEndpoint(t *testing.T) {
	a, reg := newTestAPI(t)
	tenant, err := model.NewTenant("Acme Dental", "", "dental", model.TenantConfig{MonthlyCallLimit: 100})
	require.NoError(t, err)
	require.NoError(t, reg.Add(tenant))

	rec := doRequest(t, a, http.MethodPost, "/tenants/"+tenant.ID.String()+"/trial", bearer(t), nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	got, _ := reg.Get(tenant.ID)
	assert.Equal(t, model.StatusTrial, got.Status)
}

func TestOrchestratorStartStopEndpoints(t *testing.T) {
	a, _ := newTestAPI(t)

	rec := doRequest(t, a, http.MethodPost, "/orchestrator/start", bearer(t), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, a.Orchestrator.Running())

	rec = doRequest(t, a, http.MethodPost, "/orchestrator/start", bearer(t), nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doRequest(t, a, http.MethodPost, "/orchestrator/stop", bearer(t), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, a.Orchestrator.Running())
}

func TestStatsEndpoint(t *testing.T) {
	a, reg := newTestAPI(t)
	tenant, err := model.NewTenant("Acme Dental", "", "dental", model.TenantConfig{MonthlyCallLimit: 100})
	require.NoError(t, err)
	require.NoError(t, reg.Add(tenant))

	rec := doRequest(t, a, http.MethodGet, "/stats", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var out struct {
		Tenants []struct {
			ID        string `json:"id"`
			CallLimit int    `json:"call_limit"`
		} `json:"tenants"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out.Tenants, 1)
	assert.Equal(t, tenant.ID.String(), out.Tenants[0].ID)
	assert.Equal(t, 100, out.Tenants[0].CallLimit)
}
