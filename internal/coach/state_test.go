package coach

import (
	"testing"

	"github.com/ahals42/Reframing-Retirement-AI-Coach/internal/classify"
	"github.com/ahals42/Reframing-Retirement-AI-Coach/internal/models"
)

// applyTurn runs the inference pipeline over one user turn and folds it into
// state, the way PrepareTurn does.
func applyTurn(state models.ConversationState, text string) models.ConversationState {
	return UpdateState(state, classify.InferProcessLayer(text),
		classify.InferBarrier(text), classify.InferActivities(text), classify.InferTimeAvailable(text))
}

func TestUpdateStateCommitsConfidentLayer(t *testing.T) {
	state := applyTurn(models.NewConversationState(), "I walked 3 times this week for about 20 minutes.")
	if state.ProcessLayer != models.LayerRegulatory {
		t.Fatalf("layer = %q, want regulatory", state.ProcessLayer)
	}
	if state.LayerConfidence < classify.LayerConfidenceThreshold {
		t.Errorf("confidence = %.2f, want >= threshold", state.LayerConfidence)
	}
	// Frequency without timeframe forces the duration question even though
	// the layer committed.
	if state.PendingQuestion != classify.TimeframeQuestion {
		t.Errorf("pending question = %q, want timeframe question", state.PendingQuestion)
	}
}

func TestUpdateStateRecordsQuestionWhenUncertain(t *testing.T) {
	state := applyTurn(models.NewConversationState(), "I've just been super busy lately.")
	if state.ProcessLayer != models.LayerUnclassified {
		t.Fatalf("layer = %q, want unclassified", state.ProcessLayer)
	}
	if state.LayerConfidence >= classify.LayerConfidenceThreshold {
		t.Errorf("confidence = %.2f, want below threshold", state.LayerConfidence)
	}
	if state.PendingQuestion != classify.FrequencyQuestion {
		t.Errorf("pending question = %q, want frequency question", state.PendingQuestion)
	}
}

func TestUpdateStatePendingQuestionClearsAfterConfidentTurn(t *testing.T) {
	state := applyTurn(models.NewConversationState(), "I've just been super busy lately.")
	if state.PendingQuestion == "" {
		t.Fatal("expected a pending question after a vague turn")
	}
	state = applyTurn(state, "I've been running for years, part of my morning routine.")
	if state.ProcessLayer != models.LayerReflexive {
		t.Fatalf("layer = %q, want reflexive", state.ProcessLayer)
	}
	if state.PendingQuestion != "" {
		t.Errorf("pending question = %q, want cleared", state.PendingQuestion)
	}
}

func TestUpdateStateCommittedLayerIsSticky(t *testing.T) {
	state := applyTurn(models.NewConversationState(), "I walked 3 times this week.")
	if state.ProcessLayer != models.LayerRegulatory {
		t.Fatalf("layer = %q, want regulatory", state.ProcessLayer)
	}
	committed := state.LayerConfidence

	// A vague follow-up must not regress the committed layer or its
	// recorded confidence.
	state = applyTurn(state, "Not sure what to say about that.")
	if state.ProcessLayer != models.LayerRegulatory {
		t.Errorf("layer = %q, committed layer must not regress", state.ProcessLayer)
	}
	if state.LayerConfidence != committed {
		t.Errorf("confidence = %.2f, want unchanged %.2f", state.LayerConfidence, committed)
	}
}

func TestUpdateStateTimeframeQuestionClearsOnDuration(t *testing.T) {
	state := applyTurn(models.NewConversationState(), "I walk 3 times a week.")
	if state.PendingQuestion != classify.TimeframeQuestion {
		t.Fatalf("pending question = %q, want timeframe question", state.PendingQuestion)
	}
	state = applyTurn(state, "I've kept those walks going for months now.")
	if state.PendingQuestion != "" {
		t.Errorf("pending question = %q, want cleared after duration shared", state.PendingQuestion)
	}
}

func TestUpdateStateContextFieldsLastKnownValueWins(t *testing.T) {
	state := applyTurn(models.NewConversationState(), "I'm too busy for much, maybe 15 minutes for a walk")
	if state.Barrier != "time pressure" {
		t.Errorf("barrier = %q, want time pressure", state.Barrier)
	}
	if state.Activities != "walking" {
		t.Errorf("activities = %q, want walking", state.Activities)
	}
	if state.TimeAvailable != "15 minutes" {
		t.Errorf("time = %q, want 15 minutes", state.TimeAvailable)
	}

	// A turn that mentions nothing must not erase known context.
	state = applyTurn(state, "Alright.")
	if state.Barrier != "time pressure" || state.Activities != "walking" || state.TimeAvailable != "15 minutes" {
		t.Errorf("context fields regressed: %+v", state)
	}

	// A new barrier replaces the old one.
	state = applyTurn(state, "My knee has been sore.")
	if state.Barrier != "pain or discomfort" {
		t.Errorf("barrier = %q, want pain or discomfort", state.Barrier)
	}
}

func TestUpdateStateDoesNotMutateInput(t *testing.T) {
	initial := models.NewConversationState()
	_ = applyTurn(initial, "I walk 3 times a week.")
	if initial.ProcessLayer != models.LayerUnclassified || initial.PendingQuestion != "" {
		t.Errorf("input state mutated: %+v", initial)
	}
}
