// Package coach implements the conversation orchestrator: per-turn state
// updates, response-mode selection, prompt assembly, citation policy, and
// reply post-processing.
package coach

import (
	"github.com/ahals42/Reframing-Retirement-AI-Coach/internal/classify"
	"github.com/ahals42/Reframing-Retirement-AI-Coach/internal/models"
)

// UpdateState folds one turn's inference results into the conversation
// state and returns the new state. It never mutates its input.
//
// The layer rule is sticky: a committed layer is only replaced by a later
// inference that itself meets the confidence threshold; weaker turns leave it
// untouched. The timeframe question rule runs after the primary question
// selection and can override it: frequency without timeframe forces the
// "how long" question when no question is pending, and a later timeframe
// answer clears exactly that question.
func UpdateState(state models.ConversationState, inf models.LayerInference, barrier, activities, timeAvailable string) models.ConversationState {
	if inf.Layer != models.LayerNone && inf.Confidence >= classify.LayerConfidenceThreshold {
		state.ProcessLayer = inf.Layer
		state.LayerConfidence = inf.Confidence
		state.PendingQuestion = ""
	} else if state.ProcessLayer == models.LayerUnclassified {
		state.LayerConfidence = inf.Confidence
		state.PendingQuestion = classify.PickLayerQuestion(inf.Signals)
	}

	if inf.Signals.HasFrequency && !inf.Signals.HasTimeframe {
		if state.PendingQuestion == "" {
			state.PendingQuestion = classify.TimeframeQuestion
		}
	} else if inf.Signals.HasTimeframe && state.PendingQuestion == classify.TimeframeQuestion {
		state.PendingQuestion = ""
	}

	if barrier != "" {
		state.Barrier = barrier
	}
	if activities != "" {
		state.Activities = activities
	}
	if timeAvailable != "" {
		state.TimeAvailable = timeAvailable
	}
	return state
}
