// This file parses the local-activities dataset: numbered records with
// What/Where/When/Cost fields.
package ingest

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/ahals42/Reframing-Retirement-AI-Coach/internal/retrieval"
)

var (
	headerPattern  = regexp.MustCompile(`(\d+)\.\s*([^\n]+)`)
	activityDays   = regexp.MustCompile(`(?i)\b(Mondays?|Tuesdays?|Wednesdays?|Thursdays?|Fridays?|Saturdays?|Sundays?|Weekends?|Daily)\b`)
	costValueDigit = regexp.MustCompile(`(\d+(?:\.\d+)?)`)
)

// activityTypeKeywords maps an activity type label to the name/description
// keywords that select it. First match wins.
var activityTypeKeywords = []struct {
	label    string
	keywords []string
}{
	{"yoga", []string{"yoga"}},
	{"walking", []string{"walk", "walking"}},
	{"pickleball", []string{"pickleball"}},
	{"dance", []string{"dance", "zumba"}},
	{"strength", []string{"strength", "resistance", "weights", "pilates"}},
	{"aquatic", []string{"aqua", "swim", "water"}},
	{"kayaking", []string{"kayak"}},
	{"chair", []string{"chair"}},
	{"mind-body", []string{"tai chi", "soqi", "somatic", "mobility"}},
}

// ActivityChunkID returns the deterministic identifier for an activity chunk.
func ActivityChunkID(c retrieval.Chunk) string {
	return fmt.Sprintf("activity-%03d", c.ActivityID)
}

// ParseActivityFile parses the activities dataset into activity chunks.
func ParseActivityFile(path string) ([]retrieval.Chunk, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read activity dataset: %w", err)
	}
	return ParseActivities(string(data)), nil
}

// ParseActivities parses activities dataset text. Segments without a numbered
// header are skipped.
func ParseActivities(text string) []retrieval.Chunk {
	var chunks []retrieval.Chunk
	for _, segment := range splitChunks(text) {
		m := headerPattern.FindStringSubmatch(segment)
		if m == nil {
			continue
		}
		activityID, _ := strconv.Atoi(m[1])
		name := strings.TrimSpace(m[2])

		var lines []string
		for _, line := range strings.Split(segment, "\n") {
			if trimmed := strings.TrimSpace(line); trimmed != "" {
				lines = append(lines, trimmed)
			}
		}
		what := extractField(lines, "What")
		where := extractField(lines, "Where")
		when := extractField(lines, "When")
		cost := extractField(lines, "Cost")

		var parts []string
		for _, part := range []string{name, what, where, when, cost} {
			if part != "" {
				parts = append(parts, part)
			}
		}

		chunks = append(chunks, retrieval.Chunk{
			Source:       retrieval.SourceActivity,
			ActivityID:   activityID,
			ActivityName: name,
			Location:     where,
			Schedule:     when,
			CostRaw:      cost,
			CostLabel:    inferCostLabel(cost),
			CostValue:    extractCostValue(cost),
			ActivityType: inferActivityType(name, what),
			Aliases:      locationAliases(where),
			Days:         normalizeDays(when),
			Text:         strings.TrimSpace(strings.Join(parts, "\n")),
		})
	}
	return chunks
}

// extractField returns the value of a "Label: value" line, or empty.
func extractField(lines []string, label string) string {
	prefix := strings.ToLower(label) + ":"
	for _, line := range lines {
		if strings.HasPrefix(strings.ToLower(line), prefix) {
			_, value, _ := strings.Cut(line, ":")
			return strings.TrimSpace(value)
		}
	}
	return ""
}

func inferCostLabel(cost string) string {
	lowered := strings.ToLower(cost)
	if lowered == "" {
		return "unknown"
	}
	if strings.Contains(lowered, "free") || strings.Contains(lowered, "no cost") {
		return "free"
	}
	if strings.ContainsAny(cost, "0123456789$") {
		return "paid"
	}
	return "unknown"
}

func extractCostValue(cost string) *float64 {
	m := costValueDigit.FindStringSubmatch(strings.ReplaceAll(cost, ",", ""))
	if m == nil {
		return nil
	}
	value, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return nil
	}
	return &value
}

// normalizeDays extracts canonical day names from a schedule string,
// preserving first-mention order without duplicates.
func normalizeDays(when string) []string {
	var days []string
	seen := make(map[string]bool)
	for _, m := range activityDays.FindAllStringSubmatch(when, -1) {
		normalized := canonicalDay(strings.ToLower(m[1]))
		if !seen[normalized] {
			seen[normalized] = true
			days = append(days, normalized)
		}
	}
	return days
}

func canonicalDay(value string) string {
	switch {
	case strings.HasPrefix(value, "mon"):
		return "Monday"
	case strings.HasPrefix(value, "tue"):
		return "Tuesday"
	case strings.HasPrefix(value, "wed"):
		return "Wednesday"
	case strings.HasPrefix(value, "thu"):
		return "Thursday"
	case strings.HasPrefix(value, "fri"):
		return "Friday"
	case strings.HasPrefix(value, "sat"):
		return "Saturday"
	case strings.HasPrefix(value, "sun"):
		return "Sunday"
	case strings.HasPrefix(value, "weekend"):
		return "Weekend"
	}
	return "Daily"
}

func inferActivityType(name, description string) string {
	combined := strings.ToLower(name + " " + description)
	for _, tk := range activityTypeKeywords {
		for _, kw := range tk.keywords {
			if strings.Contains(combined, kw) {
				return tk.label
			}
		}
	}
	return "general"
}

// locationAliases maps venue names to the neighbourhood terms users say for
// them, matching the router's location vocabulary.
func locationAliases(location string) []string {
	lowered := strings.ToLower(location)
	var aliases []string
	if strings.Contains(lowered, "pear kes") || strings.Contains(lowered, "gr pearkes") || strings.Contains(lowered, "g.r. pearkes") {
		aliases = append(aliases, "saanich", "g. r. pearkes", "pearkes")
	}
	if strings.Contains(lowered, "silver threads") {
		aliases = append(aliases, "silver threads", "fernwood", "downtown", "fairfield")
	}
	if strings.Contains(lowered, "crystal pool") {
		aliases = append(aliases, "crystal pool", "fernwood", "downtown")
	}
	if strings.Contains(lowered, "cedar hill") {
		aliases = append(aliases, "cedar hill")
	}
	if strings.Contains(lowered, "online") {
		aliases = append(aliases, "online", "virtual", "home")
	}
	if strings.Contains(lowered, "oak bay") || strings.Contains(lowered, "uplands") {
		aliases = append(aliases, "oak bay", "uplands", "oak bay recreation centre")
	}
	return aliases
}
