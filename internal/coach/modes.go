package coach

import (
	"github.com/ahals42/Reframing-Retirement-AI-Coach/internal/detect"
	"github.com/ahals42/Reframing-Retirement-AI-Coach/internal/models"
)

// Detections bundles every intent detector's verdict for one turn.
type Detections struct {
	Disengaged    bool
	Disinterested bool
	Emotional     bool
	ModuleRequest bool
	LessonLookup  bool
	Educational   bool
	SourceRequest bool
	SourcesOnly   bool
}

// DetectAll runs every intent detector over the turn. The route decision is
// needed because an activity-seeking turn suppresses the educational
// detector.
func DetectAll(text string, decision models.RouteDecision) Detections {
	moduleRequest := detect.ModuleRequest(text)
	return Detections{
		Disengaged:    detect.Disengagement(text),
		Disinterested: detect.GeneralDisinterest(text),
		Emotional:     detect.EmotionRegulation(text),
		ModuleRequest: moduleRequest,
		LessonLookup:  detect.LessonLookup(text),
		Educational:   detect.Educational(text, moduleRequest, &decision),
		SourceRequest: detect.SourceRequest(text),
		SourcesOnly:   detect.SourcesOnly(text),
	}
}

// Canned reply-shaping instructions per response mode. These are opaque
// payload for the completion call, not control flow.
const (
	lowestIntentInstruction = "The user sounds disengaged or dismissive about physical activity. " +
		"Reply with warmth in at most two or three short sentences. Validate the feeling without arguing. " +
		"Do not ask any questions, do not suggest any activities or actions, and do not use lists."

	emotionEducationInstruction = "The user expressed distress or negative emotion tied to physical activity. " +
		"Reply in at most two or three short sentences that acknowledge the emotion and share one gentle, factual point. " +
		"Do not ask any questions, do not suggest any activities or actions, and do not use lists."

	educationalInstruction = "The user is asking an educational question about physical activity. " +
		"Answer plainly in at most three sentences using the retrieved module content when relevant. " +
		"Do not ask any questions, do not pivot into suggesting activities, and do not use lists."

	sourceRequestInstruction = "The user asked where this information comes from. " +
		"Answer briefly and conversationally; specific module references will be appended after your reply, so do not invent citations."
)

// modeRule pairs a predicate with the mode it selects and the instruction
// that mode carries. Rules are evaluated in order; the first match wins.
type modeRule struct {
	matches     func(Detections) bool
	mode        models.ResponseMode
	instruction string
}

// modeRules is the fixed precedence order for response-mode selection.
var modeRules = []modeRule{
	{func(d Detections) bool { return d.Disengaged || d.Disinterested }, models.ResponseModeLowestIntent, lowestIntentInstruction},
	{func(d Detections) bool { return d.Emotional }, models.ResponseModeEmotionEducation, emotionEducationInstruction},
	{func(d Detections) bool { return d.ModuleRequest || d.LessonLookup || d.Educational }, models.ResponseModeEducational, educationalInstruction},
	{func(d Detections) bool { return d.SourceRequest }, models.ResponseModeSourceRequest, sourceRequestInstruction},
}

// SelectMode picks the response mode for a turn and returns the instruction
// string the mode carries. Returns mode default with an empty instruction
// when nothing matched.
func SelectMode(d Detections) (models.ResponseMode, string) {
	for _, rule := range modeRules {
		if rule.matches(d) {
			return rule.mode, rule.instruction
		}
	}
	return models.ResponseModeDefault, ""
}

// referenceCount returns how many module references a response mode may cite.
func referenceCount(mode models.ResponseMode) int {
	switch mode {
	case models.ResponseModeLowestIntent, models.ResponseModeEmotionEducation:
		return 1
	case models.ResponseModeEducational, models.ResponseModeSourceRequest:
		return 2
	}
	return 0
}
