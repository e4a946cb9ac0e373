package classify

import (
	"strings"

	"github.com/ahals42/Reframing-Retirement-AI-Coach/internal/models"
)

// LayerConfidenceThreshold is the minimum inference confidence required to
// commit a layer to conversation state. Weaker turns never regress an
// already-committed layer.
const LayerConfidenceThreshold = 0.70

// Clarifying questions surfaced when layer evidence is incomplete.
const (
	FrequencyQuestion = "In the last 7 days, about how many days did you do any purposeful movement, even a short walk counts?"
	RoutineQuestion   = "Do you already have something you do most weeks, or are you still figuring out what could work?"
	TimeframeQuestion = "Has this been going on for a while (weeks/months), or is it something you're just starting to experiment with?"
)

// ExtractSignals scans the user text for every lexical cue battery and
// returns the resulting signal set.
func ExtractSignals(text string) models.SignalSet {
	lowered := strings.ToLower(text)
	return models.SignalSet{
		HasFrequency:            containsPattern(lowered, frequencyPatterns),
		HasTimeframe:            containsPattern(lowered, timeframePatterns),
		HasRoutineLanguage:      containsKeyword(lowered, routineKeywords),
		HasPlanningLanguage:     containsKeyword(lowered, planningKeywords),
		HasNotStartedLanguage:   containsKeyword(lowered, notStartedKeywords),
		HasAffectiveLanguage:    containsKeyword(lowered, affectiveKeywords),
		HasOpportunityLanguage:  containsKeyword(lowered, opportunityKeywords),
		HasProgressiveStatement: progressivePattern.MatchString(lowered),
	}
}

// InferProcessLayer infers which behavior-change layer is most active in the
// user's text and scores the inference.
//
// The decision order is a strict priority cascade: once an earlier rule
// matches, later rules are not evaluated.
func InferProcessLayer(text string) models.LayerInference {
	signals := ExtractSignals(text)

	progressiveHabit := signals.HasProgressiveStatement && signals.HasTimeframe
	habitPair := (signals.HasRoutineLanguage || progressiveHabit) &&
		(signals.HasFrequency || signals.HasTimeframe)
	regularFrequencyOverTime := signals.HasFrequency && signals.HasTimeframe
	feelingsOrOpportunity := signals.HasAffectiveLanguage || signals.HasOpportunityLanguage

	layer := models.LayerNone
	switch {
	case habitPair || regularFrequencyOverTime:
		layer = models.LayerReflexive
	case feelingsOrOpportunity:
		layer = models.LayerOngoingReflective
	case signals.HasFrequency || signals.HasTimeframe:
		layer = models.LayerRegulatory
	case signals.HasPlanningLanguage || signals.HasNotStartedLanguage:
		layer = models.LayerInitiatingReflective
	}

	confidence := 0.0
	switch layer {
	case models.LayerReflexive:
		confidence = 0.55
		if signals.HasFrequency {
			confidence += 0.15
		}
		if signals.HasTimeframe {
			confidence += 0.15
		}
		if signals.HasRoutineLanguage {
			confidence += 0.10
		}
	case models.LayerRegulatory:
		confidence = 0.50
		if signals.HasFrequency {
			confidence += 0.25
		}
		if signals.HasTimeframe {
			confidence += 0.10
		}
		if signals.HasRoutineLanguage {
			confidence += 0.05
		}
	case models.LayerOngoingReflective:
		confidence = 0.45
		if signals.HasAffectiveLanguage {
			confidence += 0.25
		}
		if signals.HasOpportunityLanguage {
			confidence += 0.20
		}
		if signals.BehaviorEvidence() {
			confidence += 0.10
		}
	case models.LayerInitiatingReflective:
		confidence = 0.45
		if signals.HasPlanningLanguage {
			confidence += 0.25
		}
		if signals.HasNotStartedLanguage {
			confidence += 0.25
		}
		if !signals.BehaviorEvidence() {
			confidence += 0.10
		}
	}

	if confidence > 0.95 {
		confidence = 0.95
	}
	return models.LayerInference{Layer: layer, Confidence: confidence, Signals: signals}
}

// PickLayerQuestion returns the best clarifying question for the missing
// supportive cues, or empty when no question is needed.
func PickLayerQuestion(signals models.SignalSet) string {
	switch {
	case !signals.BehaviorEvidence():
		return FrequencyQuestion
	case signals.HasFrequency && !signals.HasRoutineLanguage:
		return RoutineQuestion
	case signals.HasFrequency && !signals.HasTimeframe:
		return TimeframeQuestion
	case signals.HasTimeframe && !signals.HasFrequency:
		return FrequencyQuestion
	}
	return ""
}
