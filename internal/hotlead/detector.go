// Package hotlead scores live conversation signals to decide whether
// a prospect should be handed to a human. Pure functions, no I/O.
package hotlead

import (
	"strings"

	"github.com/sumitrevolt/leadgenrationaivoiceagent-sub001/internal/model"
)

// Phrase sets scanned against the concatenated user turns. Matching
// is case-insensitive substring membership.
var (
	highIntentPhrases = []string{
		"i want to buy",
		"ready to buy",
		"sign me up",
		"let's do it",
		"lets do it",
		"how do i get started",
		"how do we get started",
		"send me the contract",
		"where do i sign",
		"i'm ready",
		"im ready",
		"we're interested",
		"sounds good, let's move forward",
	}

	humanRequestPhrases = []string{
		"talk to a human",
		"speak to a human",
		"talk to a person",
		"speak to a person",
		"real person",
		"talk to someone",
		"speak with someone",
		"speak to a representative",
		"talk to sales",
		"transfer me",
		"can i talk to your manager",
	}

	budgetPhrases = []string{
		"our budget is",
		"we can spend",
		"what does it cost",
		"how much is it",
		"how much does it cost",
		"price range",
		"we have budget",
		"budget approved",
	}

	urgentTimelineKeywords = []string{
		"asap",
		"immediately",
		"urgent",
		"right away",
		"this week",
		"today",
	}
)

// Result is the detector's verdict on one conversation.
type Result struct {
	IsHot      bool
	Confidence float64 // 0..1
	Reason     model.TransferReason
	Urgency    model.Urgency
	Signals    []string
}

// Detect scans the user side of a transcript plus the qualification
// facts gathered so far. An explicit request for a human always makes
// the lead hot with critical urgency, whatever the score says.
func Detect(history []model.ConversationTurn, facts model.Qualification, leadScore int) Result {
	text := userText(history)

	res := Result{Reason: model.ReasonHighIntent}

	if matchesAny(text, highIntentPhrases) {
		res.Reason = model.ReasonReadyToBuy
		res.Signals = append(res.Signals, "high_intent_phrase")
	}

	humanRequested := matchesAny(text, humanRequestPhrases)
	if humanRequested {
		res.Reason = model.ReasonRequestedHuman
		res.Signals = append(res.Signals, "requested_human")
	}

	// Budget talk strengthens the signal but never changes the reason.
	if matchesAny(text, budgetPhrases) {
		res.Signals = append(res.Signals, "budget_mention")
	}

	if facts.IsDecisionMaker {
		res.Signals = append(res.Signals, "decision_maker")
	}
	if facts.Budget != "" {
		res.Signals = append(res.Signals, "budget_qualified")
	}
	if containsAny(strings.ToLower(facts.Timeline), urgentTimelineKeywords) ||
		containsAny(text, urgentTimelineKeywords) {
		res.Signals = append(res.Signals, "urgent_timeline")
	}

	confidence := float64(len(res.Signals)) / 10.0
	if confidence > 1.0 {
		confidence = 1.0
	}
	switch {
	case leadScore >= 80:
		confidence += 0.3
	case leadScore >= 60:
		confidence += 0.1
	}
	if confidence > 1.0 {
		confidence = 1.0
	}
	res.Confidence = confidence

	res.IsHot = confidence >= 0.5 || humanRequested

	switch {
	case humanRequested:
		res.Urgency = model.UrgencyCritical
	case res.Reason == model.ReasonReadyToBuy || confidence >= 0.7:
		res.Urgency = model.UrgencyHigh
	case confidence >= 0.5:
		res.Urgency = model.UrgencyMedium
	default:
		res.Urgency = model.UrgencyLow
	}
	return res
}

func userText(history []model.ConversationTurn) string {
	var b strings.Builder
	for _, turn := range history {
		if turn.Role != "user" {
			continue
		}
		b.WriteString(strings.ToLower(turn.Text))
		b.WriteByte(' ')
	}
	return b.String()
}

func matchesAny(text string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(text, p) {
			return true
		}
	}
	return false
}

func containsAny(text string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}
