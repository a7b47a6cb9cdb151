package hotlead

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sumitrevolt/leadgenrationaivoiceagent-sub001/internal/model"
)

func user(text string) model.ConversationTurn {
	return model.ConversationTurn{Role: "user", Text: text}
}

func agent(text string) model.ConversationTurn {
	return model.ConversationTurn{Role: "agent", Text: text}
}

func TestDetectHumanRequestAlwaysHot(t *testing.T) {
	res := Detect([]model.ConversationTurn{
		user("Honestly I'd rather talk to a human about this."),
	}, model.Qualification{}, 0)

	assert.True(t, res.IsHot, "explicit human request is hot regardless of score")
	assert.Equal(t, model.ReasonRequestedHuman, res.Reason)
	assert.Equal(t, model.UrgencyCritical, res.Urgency)
	assert.Contains(t, res.Signals, "requested_human")
}

func TestDetectEmptyConversationNotHot(t *testing.T) {
	res := Detect(nil, model.Qualification{}, 0)

	assert.False(t, res.IsHot)
	assert.Zero(t, res.Confidence)
	assert.Equal(t, model.UrgencyLow, res.Urgency)
	assert.Empty(t, res.Signals)
}

func TestDetectIgnoresAgentTurns(t *testing.T) {
	res := Detect([]model.ConversationTurn{
		agent("Would you like to talk to a human?"),
		agent("We're ready to buy your attention!"),
	}, model.Qualification{}, 0)

	assert.False(t, res.IsHot, "agent turns must not trigger signals")
	assert.Empty(t, res.Signals)
}

func TestDetectHighIntentStacksSignals(t *testing.T) {
	res := Detect([]model.ConversationTurn{
		user("We're ready to buy. Our budget is approved."),
		user("Can you get this going ASAP?"),
	}, model.Qualification{
		IsDecisionMaker: true,
		Budget:          "$5k/mo",
		Timeline:        "this week",
	}, 0)

	// high_intent_phrase, budget_mention, decision_maker,
	// budget_qualified, urgent_timeline.
	require.Len(t, res.Signals, 5)
	assert.True(t, res.IsHot)
	assert.Equal(t, model.ReasonReadyToBuy, res.Reason)
	assert.Equal(t, model.UrgencyHigh, res.Urgency)
	assert.InDelta(t, 0.5, res.Confidence, 0.001)
}

func TestDetectLeadScoreBoost(t *testing.T) {
	history := []model.ConversationTurn{
		user("What does it cost? We can spend real money on this."),
	}

	cold := Detect(history, model.Qualification{}, 0)
	warm := Detect(history, model.Qualification{}, 65)
	hot := Detect(history, model.Qualification{}, 85)

	assert.InDelta(t, 0.1, cold.Confidence, 0.001)
	assert.InDelta(t, 0.2, warm.Confidence, 0.001)
	assert.InDelta(t, 0.4, hot.Confidence, 0.001)
	assert.False(t, hot.IsHot, "one weak signal plus a good score is still below threshold")
}

func TestDetectConfidenceCapped(t *testing.T) {
	res := Detect([]model.ConversationTurn{
		user("Sign me up, transfer me, our budget is approved, need it immediately."),
	}, model.Qualification{IsDecisionMaker: true, Budget: "yes", Timeline: "asap"}, 95)

	assert.True(t, res.IsHot)
	assert.LessOrEqual(t, res.Confidence, 1.0)
	assert.Equal(t, model.UrgencyCritical, res.Urgency, "human request outranks everything")
}

func TestDetectCaseInsensitive(t *testing.T) {
	res := Detect([]model.ConversationTurn{
		user("SIGN ME UP today"),
	}, model.Qualification{}, 0)

	assert.Contains(t, res.Signals, "high_intent_phrase")
	assert.Contains(t, res.Signals, "urgent_timeline")
}
