// Package classify implements the deterministic layer classifier for the
// coach: lexical signal extraction, behavior-stage inference with confidence
// scoring, clarifying-question selection, and the stateless context
// extractors for barrier, preferred activities, and available time.
//
// All pattern tables are compiled once at package init and never mutated;
// every function in this package is a pure function of its input text.
package classify

import (
	"regexp"
	"strings"
)

// Pattern batteries for signal extraction. Inputs are lower-cased before
// matching, so the patterns themselves are written in lower case.

var frequencyPatterns = compileAll(
	`\b\d+\s*(?:x|times?)\s*(?:each|per|a|this)?\s*(?:day|week|month)\b`,
	`\b\d+\s*(?:days?)\s*(?:each|per|a)\s+week\b`,
	`\b(?:daily|every day|each day|every morning|every evening)\b`,
	`\b(?:once|twice|thrice)\s*(?:each|per|a|this|these|last)?\s*(?:week|day)\b`,
	`\b(?:one|two|three|four|five|six|seven)\s+times?\s*(?:each|per|a|this|these|last)?\s*(?:week|day|month)\b`,
)

var timeframePatterns = compileAll(
	`\bfor\s+\d+\s+(?:weeks?|months?|years?)\b`,
	`\bfor\s+(?:weeks|months|years)\b`,
	`\bsince\s+\w+\b`,
	`\bover\s+the\s+last\s+\d+\s+(?:weeks?|months?|years?)\b`,
)

var progressivePattern = regexp.MustCompile(`\bbeen\s+\w+ing\b`)

var routineKeywords = []string{
	"part of my routine",
	"part of my day",
	"part of my morning",
	"part of my evening",
	"part of my life",
	"it's a habit",
	"its a habit",
	"habit now",
	"have a habit",
	"on autopilot",
	"automatic",
	"just what i do",
	"built into my day",
	"keep it going",
	"most days",
	"almost every day",
	"part of my week",
	"since i retired",
	"what i usually do",
	"second nature",
}

var planningKeywords = []string{
	"i'm going to",
	"i am going to",
	"going to start",
	"plan to",
	"planning to",
	"need a plan",
	"need to plan",
	"after dinner",
	"before breakfast",
	"schedule",
	"set a reminder",
	"reminder",
	"implementation",
	"i'm thinking about",
	"trying to get back into",
	"want to start again",
	"thinking of starting",
	"working up to",
	"ease into",
	"build up slowly",
	"after breakfast",
	"mid-morning",
}

var notStartedKeywords = []string{
	"haven't started",
	"have not started",
	"haven't really",
	"not really",
	"keep meaning to",
	"haven't gotten around",
	"never start",
	"never really",
	"i should",
	"should probably",
	"maybe i will",
	"not sure i can",
	"fell out of the habit",
	"got out of the routine",
	"haven't been consistent",
	"on and off",
	"hard to get going",
	"not sure where to start",
}

var affectiveKeywords = []string{
	"enjoy",
	"enjoyed",
	"like",
	"like it",
	"love",
	"love it",
	"fun",
	"feel good",
	"feel better",
	"feel calm",
	"calm",
	"energized",
	"energising",
	"energizing",
	"refreshing",
	"relaxing",
	"rewarding",
	"happy",
	"happiness",
	"stress relief",
	"stress reduction",
	"less stiff",
	"feel looser",
	"helps my joints",
	"helps my balance",
	"clears my head",
	"helps me sleep",
	"feel independent",
	"keeps me moving",
}

var opportunityKeywords = []string{
	"chance",
	"opportunity",
	"easy to get to",
	"access",
	"nearby",
	"close by",
	"paths",
	"trail",
	"safe place",
	"good weather",
	"daylight",
	"warm",
	"sunny",
	"not cold",
	"community centre",
	"rec centre",
	"indoor",
	"snow",
	"icy",
	"winter",
	"weather",
}

func compileAll(exprs ...string) []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, 0, len(exprs))
	for _, expr := range exprs {
		patterns = append(patterns, regexp.MustCompile(expr))
	}
	return patterns
}

// containsPattern reports whether any pattern in the battery matches text.
func containsPattern(text string, patterns []*regexp.Regexp) bool {
	for _, p := range patterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}

// containsKeyword reports whether text contains any keyword as a substring.
// Callers pass already lower-cased text.
func containsKeyword(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
