// Package storage persists tenants and journey events to PostgreSQL.
// The registry treats it as write-behind; the control plane never
// blocks on it beyond process boot.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/sumitrevolt/leadgenrationaivoiceagent-sub001/internal/model"
)

type Storage struct {
	DB *sql.DB
}

func NewStorage(dsn string) (*Storage, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to db: %w", err)
	}
	return &Storage{DB: db}, nil
}

// EnsureSchema creates the tables if they do not exist.
func (s *Storage) EnsureSchema(ctx context.Context) error {
	_, err := s.DB.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS tenants (
			id UUID PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT NOT NULL DEFAULT '',
			phone TEXT NOT NULL DEFAULT '',
			industry TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL,
			config JSONB NOT NULL,
			stats JSONB NOT NULL,
			last_scrape TIMESTAMPTZ,
			last_call TIMESTAMPTZ,
			last_report TIMESTAMPTZ,
			trial_started_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE TABLE IF NOT EXISTS journey_events (
			id BIGSERIAL PRIMARY KEY,
			lead_id UUID NOT NULL,
			stage TEXT NOT NULL,
			note TEXT NOT NULL DEFAULT '',
			occurred_at TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS journey_events_lead_idx
			ON journey_events (lead_id, occurred_at);
	`)
	if err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// SaveTenant upserts the full tenant row. Satisfies registry.Store.
func (s *Storage) SaveTenant(ctx context.Context, t model.Tenant) error {
	config, err := json.Marshal(t.Config)
	if err != nil {
		return fmt.Errorf("marshal tenant config: %w", err)
	}
	stats, err := json.Marshal(t.Stats)
	if err != nil {
		return fmt.Errorf("marshal tenant stats: %w", err)
	}
	_, err = s.DB.ExecContext(ctx, `
		INSERT INTO tenants
			(id, name, email, phone, industry, status, config, stats,
			 last_scrape, last_call, last_report, trial_started_at, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,NOW())
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			email = EXCLUDED.email,
			phone = EXCLUDED.phone,
			industry = EXCLUDED.industry,
			status = EXCLUDED.status,
			config = EXCLUDED.config,
			stats = EXCLUDED.stats,
			last_scrape = EXCLUDED.last_scrape,
			last_call = EXCLUDED.last_call,
			last_report = EXCLUDED.last_report,
			trial_started_at = EXCLUDED.trial_started_at,
			updated_at = NOW()
	`, t.ID, t.Name, t.Email, t.Phone, t.Industry, string(t.Status),
		config, stats,
		nullTime(t.LastScrape), nullTime(t.LastCall), nullTime(t.LastReport),
		nullTime(t.TrialStartedAt), t.CreatedAt)
	if err != nil {
		return fmt.Errorf("save tenant: %w", err)
	}
	return nil
}

// LoadTenants reads every tenant row, used to rebuild the registry at
// boot. Loops are relaunched by the orchestrator, so is_running is
// not persisted.
func (s *Storage) LoadTenants(ctx context.Context) ([]model.Tenant, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT id, name, email, phone, industry, status, config, stats,
		       last_scrape, last_call, last_report, trial_started_at, created_at
		FROM tenants
		ORDER BY created_at
	`)
	if err != nil {
		return nil, fmt.Errorf("query tenants: %w", err)
	}
	defer rows.Close()

	var tenants []model.Tenant
	for rows.Next() {
		var (
			t          model.Tenant
			status     string
			config     []byte
			stats      []byte
			lastScrape sql.NullTime
			lastCall   sql.NullTime
			lastReport sql.NullTime
			trialStart sql.NullTime
		)
		if err := rows.Scan(&t.ID, &t.Name, &t.Email, &t.Phone, &t.Industry,
			&status, &config, &stats,
			&lastScrape, &lastCall, &lastReport, &trialStart, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan tenant: %w", err)
		}
		t.Status = model.TenantStatus(status)
		if !t.Status.Valid() {
			t.Status = model.StatusPaused
		}
		if err := json.Unmarshal(config, &t.Config); err != nil {
			return nil, fmt.Errorf("unmarshal config for %s: %w", t.ID, err)
		}
		if err := json.Unmarshal(stats, &t.Stats); err != nil {
			return nil, fmt.Errorf("unmarshal stats for %s: %w", t.ID, err)
		}
		t.LastScrape = lastScrape.Time
		t.LastCall = lastCall.Time
		t.LastReport = lastReport.Time
		t.TrialStartedAt = trialStart.Time
		tenants = append(tenants, t)
	}
	return tenants, rows.Err()
}

// DeleteTenant removes a tenant row.
func (s *Storage) DeleteTenant(ctx context.Context, id uuid.UUID) error {
	_, err := s.DB.ExecContext(ctx, `DELETE FROM tenants WHERE id = $1`, id)
	return err
}

// RecordJourneyEvent appends one funnel event. Satisfies
// journey.EventSink.
func (s *Storage) RecordJourneyEvent(leadID uuid.UUID, event model.JourneyEvent) error {
	_, err := s.DB.Exec(`
		INSERT INTO journey_events (lead_id, stage, note, occurred_at)
		VALUES ($1, $2, $3, $4)
	`, leadID, string(event.Stage), event.Note, event.OccurredAt)
	if err != nil {
		return fmt.Errorf("record journey event: %w", err)
	}
	return nil
}

// ListJourneyEvents returns a lead's funnel history in order.
func (s *Storage) ListJourneyEvents(ctx context.Context, leadID uuid.UUID) ([]model.JourneyEvent, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT stage, note, occurred_at
		FROM journey_events
		WHERE lead_id = $1
		ORDER BY occurred_at, id
	`, leadID)
	if err != nil {
		return nil, fmt.Errorf("query journey events: %w", err)
	}
	defer rows.Close()

	var events []model.JourneyEvent
	for rows.Next() {
		var (
			stage string
			e     model.JourneyEvent
		)
		if err := rows.Scan(&stage, &e.Note, &e.OccurredAt); err != nil {
			return nil, fmt.Errorf("scan journey event: %w", err)
		}
		e.Stage = model.JourneyStage(stage)
		events = append(events, e)
	}
	return events, rows.Err()
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}
