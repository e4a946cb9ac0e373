package classify

import (
	"regexp"
	"strings"
)

// keywordCategory pairs a label with the keywords that select it. Categories
// are tested in slice order; for barriers the first match wins.
type keywordCategory struct {
	label    string
	keywords []string
}

var barrierCategories = []keywordCategory{
	{"time pressure", []string{
		"busy", "no time", "schedule", "travel", "work", "appointments",
		"errands", "looking after", "caregiving", "day gets away",
	}},
	{"motivation dip", []string{
		"motivation", "don't feel", "lazy", "energy", "tired", "drained",
		"low energy", "worn out", "hard to get going", "no drive",
		"can't get motivated",
	}},
	{"weather", []string{
		"weather", "cold", "hot", "rain", "snow", "winter", "icy",
		"slippery", "too hot", "too cold",
	}},
	{"pain or discomfort", []string{
		"pain", "ache", "sore", "injury", "hurt", "stiff", "stiffness",
		"joint pain", "back pain", "knee pain",
	}},
	{"confidence", []string{
		"nervous", "intimidated", "embarrassed", "worried", "afraid",
		"fear of falling", "not confident",
	}},
}

var activityCategories = []keywordCategory{
	{"walking", []string{
		"walk", "walking", "hike", "go for a walk", "walking outside",
		"walking group", "group walk", "walking club",
	}},
	{"light strength", []string{
		"strength", "weights", "dumbbell", "resistance", "band",
		"strength training", "bodyweight", "light weights",
	}},
	{"mobility", []string{
		"stretch", "stretching", "mobility", "yoga", "range of motion",
		"flexibility", "tai chi", "taichi",
	}},
	{"cycling", []string{
		"bike", "cycling", "spin", "stationary bike", "exercise bike",
	}},
	{"swimming", []string{
		"swim", "swimming", "pool", "water", "aquafit", "water aerobics",
		"aqua fitness",
	}},
	{"golf", []string{"golf", "golfing", "driving range"}},
	{"pickleball", []string{"pickleball"}},
}

var minutesPattern = regexp.MustCompile(`(?:about|around)?\s*(\d{1,2})\s*(?:minutes?|mins?|min\.?|m)\b`)

// InferBarrier returns the user's primary barrier to activity, or empty when
// no barrier keyword matches. The first matching category wins.
func InferBarrier(text string) string {
	lowered := strings.ToLower(text)
	for _, cat := range barrierCategories {
		if containsKeyword(lowered, cat.keywords) {
			return cat.label
		}
	}
	return ""
}

// InferActivities returns a comma-joined list of every activity category the
// text mentions, in category order, or empty when none match.
func InferActivities(text string) string {
	lowered := strings.ToLower(text)
	var found []string
	for _, cat := range activityCategories {
		if containsKeyword(lowered, cat.keywords) {
			found = append(found, cat.label)
		}
	}
	return strings.Join(found, ", ")
}

// InferTimeAvailable extracts how much time the user has for activity, as a
// "<n> minutes" string, or empty when the text gives no time cue.
func InferTimeAvailable(text string) string {
	lowered := strings.ToLower(text)
	if m := minutesPattern.FindStringSubmatch(lowered); m != nil {
		return m[1] + " minutes"
	}
	if strings.Contains(lowered, "half hour") {
		return "30 minutes"
	}
	return ""
}
