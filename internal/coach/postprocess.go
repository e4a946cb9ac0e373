package coach

import (
	"regexp"
	"strings"

	"github.com/ahals42/Reframing-Retirement-AI-Coach/internal/models"
)

// actionSuggestionPatterns flag sentences that push the user toward an
// action. Those sentences are dropped from lowest-intent, emotion-education,
// and educational replies, which must inform without prescribing.
var actionSuggestionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\btry\b`),
	regexp.MustCompile(`\bstart (?:with|by)\b`),
	regexp.MustCompile(`\bconsider\b`),
	regexp.MustCompile(`\bexplore\b`),
	regexp.MustCompile(`\bhow about\b`),
	regexp.MustCompile(`\byou could\b`),
	regexp.MustCompile(`\byou might\b`),
	regexp.MustCompile(`\bwould you\b`),
	regexp.MustCompile(`\bif you(?:'re| are)?\s+open\b`),
	regexp.MustCompile(`\bif you want to\b`),
	regexp.MustCompile(`\bfind movement\b`),
	regexp.MustCompile(`\bif you ever\b`),
	regexp.MustCompile(`\bif you decide to\b`),
}

var (
	markdownEmphasis   = regexp.MustCompile(`[*_]{1,3}([^*_]+)[*_]{1,3}`)
	markdownHeading    = regexp.MustCompile(`(?m)^#{1,6}\s+`)
	markdownListMarker = regexp.MustCompile(`(?m)^\s*(?:[-*+]|\d+[.)])\s+`)
	sentencePattern    = regexp.MustCompile(`[^.!?]+[.!?]*`)
)

// misencodedEmDash is the UTF-8 bytes of an em dash re-read as Windows-1252,
// which some upstream content pipelines produce.
const misencodedEmDash = "â€”"

// NormalizeEncoding repairs known mis-encoded byte sequences in model output.
// Applied to every reply, streamed or not.
func NormalizeEncoding(text string) string {
	return strings.ReplaceAll(text, misencodedEmDash, "-")
}

// stripMarkdown removes emphasis markers, heading markers, and list bullets,
// leaving plain prose.
func stripMarkdown(text string) string {
	text = markdownEmphasis.ReplaceAllString(text, "$1")
	text = markdownHeading.ReplaceAllString(text, "")
	text = markdownListMarker.ReplaceAllString(text, "")
	return text
}

// splitSentences breaks prose into trimmed sentences.
func splitSentences(text string) []string {
	flat := strings.Join(strings.Fields(text), " ")
	var sentences []string
	for _, s := range sentencePattern.FindAllString(flat, -1) {
		s = strings.TrimSpace(s)
		if s != "" {
			sentences = append(sentences, s)
		}
	}
	return sentences
}

func isActionSuggestion(sentence string) bool {
	lowered := strings.ToLower(sentence)
	for _, p := range actionSuggestionPatterns {
		if p.MatchString(lowered) {
			return true
		}
	}
	return false
}

// Postprocess rewrites a generated reply according to the response mode's
// rules: markdown stripped, questions removed, action suggestions removed
// for the coaching-restraint modes, the sentence count capped, and the
// module-reference sentence appended verbatim. Default-mode replies pass
// through untouched apart from encoding normalization.
func Postprocess(text string, mode models.ResponseMode, moduleSentence string) string {
	if mode == models.ResponseModeDefault {
		return NormalizeEncoding(text)
	}

	dropActions := mode == models.ResponseModeLowestIntent ||
		mode == models.ResponseModeEmotionEducation ||
		mode == models.ResponseModeEducational

	var kept []string
	for _, sentence := range splitSentences(stripMarkdown(text)) {
		if strings.Contains(sentence, "?") {
			continue
		}
		if dropActions && isActionSuggestion(sentence) {
			continue
		}
		kept = append(kept, sentence)
	}

	limit := 3
	if moduleSentence != "" {
		limit = 2
	}
	if len(kept) > limit {
		kept = kept[:limit]
	}

	out := strings.Join(kept, " ")
	if moduleSentence != "" {
		if out != "" {
			out += " "
		}
		out += moduleSentence
	}
	return NormalizeEncoding(out)
}
