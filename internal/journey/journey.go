// Package journey tracks prospective clients through the sales
// funnel, from first contact until they convert or drop out.
package journey

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sumitrevolt/leadgenrationaivoiceagent-sub001/internal/clock"
	"github.com/sumitrevolt/leadgenrationaivoiceagent-sub001/internal/model"
)

// retireAfter is how long a terminal journey stays queryable before
// Retire sweeps it out. Archival to cold storage is the store's
// concern, not ours.
const retireAfter = 30 * 24 * time.Hour

// stageOrder defines the forward path through the funnel. Terminal
// branches (converted, churned, not_interested) may be entered from
// any non-terminal stage.
var stageOrder = map[model.JourneyStage]int{
	model.StageNewLead:      0,
	model.StageContacted:    1,
	model.StageInterested:   2,
	model.StageTrialStarted: 3,
	model.StageTrialDay3:    4,
	model.StageTrialEnding:  5,
	model.StageTrialEnded:   6,
}

// EventSink receives journey events as they happen. The postgres
// store implements this; a nil sink is fine.
type EventSink interface {
	RecordJourneyEvent(leadID uuid.UUID, event model.JourneyEvent) error
}

// Tracker holds every in-flight journey, keyed by lead id.
type Tracker struct {
	mu       sync.Mutex
	journeys map[uuid.UUID]*model.Journey

	sink   EventSink
	clock  clock.Clock
	logger *zap.Logger
}

// NewTracker builds an empty tracker. sink may be nil.
func NewTracker(sink EventSink, clk clock.Clock, logger *zap.Logger) *Tracker {
	if clk == nil {
		clk = clock.Real()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tracker{
		journeys: make(map[uuid.UUID]*model.Journey),
		sink:     sink,
		clock:    clk,
		logger:   logger,
	}
}

// Begin creates a journey at new_lead on the first contact attempt.
// Re-beginning an existing journey is a no-op.
func (t *Tracker) Begin(leadID uuid.UUID, company string) *model.Journey {
	t.mu.Lock()
	defer t.mu.Unlock()
	if j, ok := t.journeys[leadID]; ok {
		c := *j
		return &c
	}
	now := t.clock.Now()
	j := &model.Journey{
		LeadID:       leadID,
		CompanyName:  company,
		Stage:        model.StageNewLead,
		QualityScore: 5,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	t.journeys[leadID] = j
	t.emit(leadID, model.JourneyEvent{Stage: model.StageNewLead, OccurredAt: now})
	c := *j
	return &c
}

// Advance moves a journey to the given stage. Terminal stages are
// always reachable; otherwise the funnel only moves forward.
func (t *Tracker) Advance(leadID uuid.UUID, stage model.JourneyStage, note string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	j, ok := t.journeys[leadID]
	if !ok {
		return fmt.Errorf("journey for lead %s not found", leadID)
	}
	if j.Stage.Terminal() {
		return fmt.Errorf("journey for lead %s already ended at %s", leadID, j.Stage)
	}
	if !stage.Terminal() {
		cur, curOK := stageOrder[j.Stage]
		next, nextOK := stageOrder[stage]
		if !curOK || !nextOK || next <= cur {
			return fmt.Errorf("cannot move journey from %s to %s", j.Stage, stage)
		}
	}

	now := t.clock.Now()
	j.Stage = stage
	j.UpdatedAt = now
	event := model.JourneyEvent{Stage: stage, Note: note, OccurredAt: now}
	j.Events = append(j.Events, event)
	t.emit(leadID, event)
	return nil
}

// AdjustQuality nudges the 1-10 quality score by delta, clamped.
func (t *Tracker) AdjustQuality(leadID uuid.UUID, delta int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	j, ok := t.journeys[leadID]
	if !ok {
		return
	}
	j.QualityScore += delta
	if j.QualityScore < 1 {
		j.QualityScore = 1
	}
	if j.QualityScore > 10 {
		j.QualityScore = 10
	}
	j.UpdatedAt = t.clock.Now()
}

// Get returns a snapshot of one journey.
func (t *Tracker) Get(leadID uuid.UUID) (model.Journey, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	j, ok := t.journeys[leadID]
	if !ok {
		return model.Journey{}, false
	}
	c := *j
	c.Events = append([]model.JourneyEvent(nil), j.Events...)
	return c, true
}

// InStage returns snapshots of every journey currently at stage.
func (t *Tracker) InStage(stage model.JourneyStage) []model.Journey {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []model.Journey
	for _, j := range t.journeys {
		if j.Stage == stage {
			c := *j
			c.Events = append([]model.JourneyEvent(nil), j.Events...)
			out = append(out, c)
		}
	}
	return out
}

// Retire drops journeys that ended more than thirty days ago and
// returns how many were removed.
func (t *Tracker) Retire() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	cutoff := t.clock.Now().Add(-retireAfter)
	removed := 0
	for id, j := range t.journeys {
		if j.Stage.Terminal() && j.UpdatedAt.Before(cutoff) {
			delete(t.journeys, id)
			removed++
		}
	}
	return removed
}

// Count returns the number of tracked journeys.
func (t *Tracker) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.journeys)
}

func (t *Tracker) emit(leadID uuid.UUID, event model.JourneyEvent) {
	if t.sink == nil {
		return
	}
	if err := t.sink.RecordJourneyEvent(leadID, event); err != nil {
		t.logger.Warn("failed to record journey event",
			zap.String("lead_id", leadID.String()),
			zap.Error(err))
	}
}
