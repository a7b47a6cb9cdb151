package model

import (
	"time"

	"github.com/google/uuid"
)

// JourneyStage is where a prospective client sits in the sales
// funnel. Stages only move forward except for the terminal branches.
type JourneyStage string

const (
	StageNewLead       JourneyStage = "new_lead"
	StageContacted     JourneyStage = "contacted"
	StageInterested    JourneyStage = "interested"
	StageTrialStarted  JourneyStage = "trial_started"
	StageTrialDay3     JourneyStage = "trial_day_3"
	StageTrialEnding   JourneyStage = "trial_ending"
	StageTrialEnded    JourneyStage = "trial_ended"
	StageConverted     JourneyStage = "converted"
	StageChurned       JourneyStage = "churned"
	StageNotInterested JourneyStage = "not_interested"
)

// Terminal reports whether the funnel ends at this stage.
func (s JourneyStage) Terminal() bool {
	switch s {
	case StageConverted, StageChurned, StageNotInterested:
		return true
	}
	return false
}

// JourneyEvent is one entry in a prospect's ordered event log.
type JourneyEvent struct {
	Stage      JourneyStage `json:"stage"`
	Note       string       `json:"note,omitempty"`
	OccurredAt time.Time    `json:"occurred_at"`
}

// Journey tracks one prospective client through the funnel, from
// first contact attempt until conversion or loss.
type Journey struct {
	LeadID       uuid.UUID      `json:"lead_id"`
	CompanyName  string         `json:"company_name"`
	Stage        JourneyStage   `json:"stage"`
	QualityScore int            `json:"quality_score"` // bounded 1-10
	Events       []JourneyEvent `json:"events"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}
