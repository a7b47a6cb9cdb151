package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTenantDefaults(t *testing.T) {
	tenant, err := NewTenant("Acme Dental", "ops@acme.test", "dental", TenantConfig{
		MonthlyCallLimit: 100,
	})
	require.NoError(t, err)

	assert.Equal(t, StatusPending, tenant.Status)
	assert.False(t, tenant.IsRunning)
	assert.Zero(t, tenant.Config.CallsUsed)
	assert.False(t, tenant.CreatedAt.IsZero())
}

func TestNewTenantValidation(t *testing.T) {
	_, err := NewTenant("", "", "", TenantConfig{MonthlyCallLimit: 100})
	assert.Error(t, err, "name is required")

	_, err = NewTenant("Acme", "", "", TenantConfig{})
	assert.Error(t, err, "limit must be positive")

	_, err = NewTenant("Acme", "", "", TenantConfig{MonthlyCallLimit: 100, CallsUsed: 5})
	assert.Error(t, err, "fresh tenants start at zero usage")
}

func TestStatusAutomatable(t *testing.T) {
	assert.True(t, StatusTrial.Automatable())
	assert.True(t, StatusActive.Automatable())
	assert.False(t, StatusPending.Automatable())
	assert.False(t, StatusPaused.Automatable())
	assert.False(t, StatusChurned.Automatable())
}

func TestQuotaHelpers(t *testing.T) {
	tenant := Tenant{Config: TenantConfig{MonthlyCallLimit: 100, CallsUsed: 80}}
	assert.False(t, tenant.QuotaExhausted())
	assert.InDelta(t, 0.8, tenant.UsageRatio(), 0.001)
	assert.Equal(t, 20, tenant.Config.RemainingCalls())

	tenant.Config.CallsUsed = 100
	assert.True(t, tenant.QuotaExhausted())
	assert.Zero(t, tenant.Config.RemainingCalls())
}

func TestTrialAge(t *testing.T) {
	now := time.Date(2025, time.March, 17, 9, 0, 0, 0, time.UTC)

	var tenant Tenant
	assert.Zero(t, tenant.TrialAge(now), "no trial, no age")

	tenant.TrialStartedAt = now.Add(-7 * 24 * time.Hour)
	assert.Equal(t, 7*24*time.Hour, tenant.TrialAge(now))
}
