// Package route decides which knowledge sources to query for a user turn.
// The router is purely lexical: keyword and pattern tables over the lowered
// input, no model calls and no state.
package route

import (
	"regexp"
	"strings"

	"github.com/ahals42/Reframing-Retirement-AI-Coach/internal/models"
)

var dayPattern = regexp.MustCompile(`(?i)\b(Monday|Tuesday|Wednesday|Thursday|Friday|Saturday|Sunday|Weekends?)\b`)

var activityKeywords = []string{
	"class",
	"classes",
	"activity",
	"activities",
	"things to do",
	"something to do",
	"local",
	"near me",
	"community",
	"program",
	"resource",
	"resources",
	"activity list",
	"group",
	"club",
	"schedule",
	"where can i go",
	"something nearby",
	"in my area",
	"pickleball",
	"yoga",
	"pilates",
	"walk with others",
	"walking group",
	"kayak",
	"swim",
	"pool",
}

// locationHints maps neighbourhood mentions to a normalized location label.
// Order matters: the first hint found in the text wins, so the more specific
// entries sit above the broader ones they contain.
var locationHints = []struct {
	hint       string
	normalized string
}{
	{"crystal", "fernwood"},
	{"crystal pool", "fernwood"},
	{"fairfield", "fairfield"},
	{"fernwood", "fernwood"},
	{"downtown", "downtown"},
	{"victoria", "victoria"},
	{"oaklands", "oaklands"},
	{"oak bay", "oak bay"},
	{"uplands", "oak bay"},
	{"james bay", "james bay"},
	{"victoria west", "victoria west"},
	{"ocean river", "downtown"},
	{"saanich", "saanich"},
	{"cedar hill", "cedar hill"},
	{"online", "online"},
	{"home", "online"},
}

var typeKeywords = []struct {
	activityType string
	keywords     []string
}{
	{"yoga", []string{"yoga"}},
	{"walking", []string{"walk", "walking", "hike"}},
	{"pickleball", []string{"pickleball"}},
	{"dance", []string{"dance", "zumba"}},
	{"strength", []string{"strength", "weights", "resistance", "band", "pilates"}},
	{"aquatic", []string{"aqua", "pool", "swim"}},
	{"kayaking", []string{"kayak"}},
}

// Router selects between the master curriculum and the local-activities index
// for each turn. The zero value is ready to use.
type Router struct{}

// Route classifies one user turn. The master index is always consulted; the
// activities index only when the turn asks for activities or mentions a
// recognizable filter (location, activity type). A turn that wants activities
// but names no known location gets NeedsLocationClarification set so the
// caller can ask instead of guessing.
func (Router) Route(userInput string) models.RouteDecision {
	lowered := strings.ToLower(userInput)

	useActivities := false
	for _, kw := range activityKeywords {
		if strings.Contains(lowered, kw) {
			useActivities = true
			break
		}
	}

	filters := &models.ActivityFilters{}
	recognizedLocation := false

	if strings.Contains(lowered, "free") {
		filters.CostLabel = "free"
	}

	if matches := dayPattern.FindAllStringSubmatch(userInput, -1); matches != nil {
		seen := make(map[string]bool)
		for _, m := range matches {
			day := capitalize(m[1])
			if !seen[day] {
				seen[day] = true
				filters.Days = append(filters.Days, day)
			}
		}
	}

	for _, lh := range locationHints {
		if strings.Contains(lowered, lh.hint) {
			filters.Location = lh.normalized
			useActivities = true
			recognizedLocation = true
			break
		}
	}

	for _, tk := range typeKeywords {
		for _, kw := range tk.keywords {
			if strings.Contains(lowered, kw) {
				filters.ActivityType = tk.activityType
				useActivities = true
				break
			}
		}
		if filters.ActivityType != "" {
			break
		}
	}

	if !filters.HasFilters() {
		filters = nil
	}

	return models.RouteDecision{
		UseMaster:                  true,
		UseActivities:              useActivities,
		ActivityFilters:            filters,
		NeedsLocationClarification: useActivities && !recognizedLocation,
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}
