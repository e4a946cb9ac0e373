// Package detect implements the per-turn intent detectors: disengagement,
// general disinterest, emotional distress around activity, module/lesson
// references, educational questions, and source-only requests.
//
// Every detector is a pure boolean predicate over the user text; none of them
// fail or carry state between calls.
package detect

import (
	"regexp"
	"strings"

	"github.com/ahals42/Reframing-Retirement-AI-Coach/internal/models"
)

// sourcesOnlyMaxResidualWords bounds how many words may remain after source
// phrases are stripped for the turn to still count as a bare source request.
const sourcesOnlyMaxResidualWords = 5

var disengagementStrongPatterns = compileAll(
	`\bwhy bother\b`,
	`\bwhat'?s the point\b`,
	`\bwhat'?s the use\b`,
	`\bno point\b`,
	`\bpointless\b`,
	`\bnot worth (?:it|the effort)\b`,
	`\btoo late for me\b`,
)

var disengagementActivityPatterns = compileAll(
	`\b(?:can't|cannot) be bothered\b.*\b(?:exercise|physical activity|being active|move|movement)\b`,
	`\bno intention\b.*\b(?:exercise|physical activity|being active|move|movement)\b`,
	`\bnot interested\b.*\b(?:exercise|physical activity|being active|move|movement)\b`,
	`\b(?:don'?t|do not)\s+want\s+to\s+be\s+active\b`,
	`\b(?:don'?t|do not)\s+want\s+to\s+exercise\b`,
	`\b(?:don'?t|do not)\s+want\s+to\s+move\b`,
	`\bnever going to\b.*\b(?:exercise|physical activity|being active|move|movement|start)\b`,
	`\bwon't ever\b.*\b(?:exercise|physical activity|being active|move|movement|start)\b`,
	`\bnot going to\b.*\b(?:exercise|physical activity|being active|move|movement|start)\b`,
)

var generalDisinterestPatterns = compileAll(
	`\bi\s+don'?t\s+want\s+to\s+be\s+active\b`,
	`\bi\s+don'?t\s+want\s+to\s+exercise\b`,
	`\bi\s+don'?t\s+want\s+to\s+move\b`,
	`\bnot\s+interested\s+in\s+being\s+active\b`,
	`\bnot\s+interested\s+in\s+physical\s+activity\b`,
	`\bnot\s+interested\s+in\s+exercise\b`,
	`\bnever(?:ing)?\s+going\s+to\s+be\s+active\b`,
	`\bwon'?t\s+ever\s+be\s+active\b`,
	`\bwon'?t\s+ever\s+exercise\b`,
	`\b(?:no\s+point|pointless|waste\s+of\s+time|not\s+worth\s+it|won'?t\s+help|nothing\s+will\s+change)\b`,
	// "pointles" misspelling, kept deliberately.
	`\b(?:physical\s+active|physical\s+activity|being\s+active|exercise)\s+is\s+pointles\b`,
	`\bpointles\s+to\s+(?:exercise|be\s+active|try)\b`,
	`\b(?:physical\s+activity|being\s+active|exercise)\s+seems\s+worthless\b`,
	`\bi\s+just\s+don'?t\s+have\s+it\s+in\s+me\b`,
	`\bi'?m\s+done\s+trying\b`,
	`\bi\s+can'?t\s+be\s+bothered\b`,
	`\bi'?m\s+checked\s+out\b`,
	`\btoo\s+old\s+to\s+(?:exercise|start)\b`,
	`\bmy\s+body\s+can'?t\s+do\s+that\s+anymore\b`,
	`\bthat\s+ship\s+has\s+sailed\b`,
	`\bit'?s\s+too\s+late\s+for\s+me\b`,
	`\bit\s+won'?t\s+help\s+anyway\b`,
	`\bi'?ll\s+never\s+stick\s+with\s+it\b`,
	`\bi\s+always\s+quit\b`,
	`\bi\s+can'?t\s+keep\s+it\s+up\b`,
	`\b(?:worthless|useless)\s+(?:to|trying\s+to)?\s*(?:exercise|be\s+active)\b`,
	`\bexercise\s+is\s+(?:useless|worthless)\b`,
	`\b(?:waste|wasting)\s+of\s+time\b`,
	`\bnot\s+worth\s+the\s+effort\b`,
	`\bno\s+point\s+(?:in|to)\s+(?:exercise|being\s+active|trying)\b`,
	`\bwhat'?s\s+the\s+point\s+of\s+(?:exercise|being\s+active)\b`,
	`\bpointless\s+to\s+(?:exercise|try|be\s+active)\b`,
	`\bit\s+won'?t\s+make\s+a\s+difference\b`,
	`\bdoesn'?t\s+matter\s+if\s+i\s+exercise\b`,
)

var emotionStrongPatterns = compileAll(
	`\b(?:stress|stressed|stressful)\s+(?:about|around)\s+(?:exercise|activity|moving|movement|being active)\b`,
	`\b(?:anxious|anxiety)\s+(?:about|around)\s+(?:exercise|activity|moving|movement|being active)\b`,
	`\bdread(?:ing)?\s+(?:exercise|activity|moving|movement|being active)\b`,
	`\bfeel\s+(?:guilty|ashamed|embarrassed)\s+about\s+(?:exercise|activity|being active)\b`,
	`\bexercise\s+makes\s+me\s+(?:anxious|stressed|guilty|ashamed|embarrassed)\b`,
)

var emotionWeakPatterns = compileAll(
	`\b(?:stress|stressed|stressful)\b`,
	`\banxious\b`,
	`\banxiety\b`,
	`\bdread\b`,
	`\bguilty\b`,
	`\bshame\b`,
	`\bashamed\b`,
	`\bfrustrated\b`,
	`\bfrustration\b`,
	`\boverwhelmed\b`,
	`\bembarrassed\b`,
	`\bself-conscious\b`,
)

var educationalPatterns = compileAll(
	`\bwhy (?:is|does)\b.*\b(?:physical activity|exercise|movement|being active)\b`,
	`\bwhat is\b.*\b(?:physical activity|exercise|movement|being active)\b`,
	`\bbenefits?\b.*\b(?:physical activity|exercise|movement|being active)\b`,
	`\bhealth benefits?\b`,
	`\bhow does\b.*\b(?:physical activity|exercise|movement|being active)\b`,
	`\bexplain\b.*\b(?:physical activity|exercise|movement|being active)\b`,
	`\bhelp me understand\b.*\b(?:physical activity|exercise|movement|being active)\b`,
	`\bwhat happens if\b.*\b(?:not active|inactive|sedentary)\b`,
	`\bevidence\b.*\b(?:physical activity|exercise|movement|being active)\b`,
	`\bresearch\b.*\b(?:physical activity|exercise|movement|being active)\b`,
	`\btell me about\b.*\b(?:physical activity|exercise|movement|being active)\b`,
)

var moduleRequestPatterns = compileAll(
	`\bmodule\b`,
	`\blesson\s+\d+\b`,
	`\bslide\s+\d+\b`,
	`\bwhat does (?:the )?module say\b`,
	`\bwhat does (?:the )?lesson say\b`,
	`\bwhat does (?:the )?slide say\b`,
)

var lessonLookupPatterns = compileAll(
	`\bwhich lesson\b`,
	`\bwhat lesson\b`,
	`\bwhere in (?:the )?module\b`,
	`\bwhere in (?:the )?lesson\b`,
)

var sourceRequestPatterns = compileAll(
	`\bsource(?:s)?\b`,
	`\breference(?:s)?\b`,
	`\bcitation(?:s)?\b`,
	`where did that come from`,
	`show sources?`,
	`where can i read more`,
	`where can i find this`,
	`where in my app`,
	`show me where`,
)

var activityContextKeywords = []string{
	"exercise",
	"physical activity",
	"activity",
	"move",
	"movement",
	"be active",
	"being active",
	"walk",
	"walking",
	"workout",
	"working out",
	"fitness",
}

var nonAlnumPattern = regexp.MustCompile(`[^a-z0-9]+`)

func compileAll(exprs ...string) []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, 0, len(exprs))
	for _, expr := range exprs {
		patterns = append(patterns, regexp.MustCompile(expr))
	}
	return patterns
}

func matchesAny(text string, patterns []*regexp.Regexp) bool {
	for _, p := range patterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// Disengagement reports whether the user expresses "why bother" style
// disengagement, either standalone or tied to activity context.
func Disengagement(text string) bool {
	lowered := strings.ToLower(text)
	if matchesAny(lowered, disengagementStrongPatterns) {
		return true
	}
	return matchesAny(lowered, disengagementActivityPatterns)
}

// GeneralDisinterest reports whether the user expresses general disinterest
// in physical activity. Messages containing a question mark never count, to
// avoid misreading genuine questions as disinterest.
func GeneralDisinterest(text string) bool {
	lowered := strings.ToLower(text)
	if strings.Contains(lowered, "?") {
		return false
	}
	return matchesAny(lowered, generalDisinterestPatterns)
}

// EmotionRegulation reports whether the user expresses negative emotions tied
// to physical activity. Strong patterns match standalone; weak patterns only
// count when co-located with an activity-context keyword.
func EmotionRegulation(text string) bool {
	lowered := strings.ToLower(text)
	if matchesAny(lowered, emotionStrongPatterns) {
		return true
	}
	return matchesAny(lowered, emotionWeakPatterns) && containsAny(lowered, activityContextKeywords)
}

// ModuleRequest reports whether the user explicitly references module,
// lesson, or slide content.
func ModuleRequest(text string) bool {
	return matchesAny(strings.ToLower(text), moduleRequestPatterns)
}

// LessonLookup reports whether the user is asking which lesson covers a topic.
func LessonLookup(text string) bool {
	return matchesAny(strings.ToLower(text), lessonLookupPatterns)
}

// Educational reports whether the user is asking an educational question
// about physical activity. An explicit module request always counts; a turn
// the router already classified as activity-seeking never does.
func Educational(text string, explicitModuleRequest bool, decision *models.RouteDecision) bool {
	if explicitModuleRequest {
		return true
	}
	if decision != nil && decision.UseActivities {
		return false
	}
	return matchesAny(strings.ToLower(text), educationalPatterns)
}

// SourceRequest reports whether the text contains any source/citation phrase.
func SourceRequest(text string) bool {
	return matchesAny(strings.ToLower(text), sourceRequestPatterns)
}

// SourcesOnly reports whether the turn is nothing but a request for sources:
// it must match a source-request pattern, and stripping every matched source
// phrase plus punctuation must leave at most five words.
func SourcesOnly(text string) bool {
	lowered := strings.ToLower(text)
	if !matchesAny(lowered, sourceRequestPatterns) {
		return false
	}
	cleaned := lowered
	for _, p := range sourceRequestPatterns {
		cleaned = p.ReplaceAllString(cleaned, "")
	}
	cleaned = strings.TrimSpace(nonAlnumPattern.ReplaceAllString(cleaned, " "))
	if cleaned == "" {
		return true
	}
	return len(strings.Fields(cleaned)) <= sourcesOnlyMaxResidualWords
}
