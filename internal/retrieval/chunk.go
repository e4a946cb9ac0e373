// Package retrieval implements vector retrieval over the coaching curriculum
// and the local-activities catalog, context-block assembly for prompts, and
// reference selection for citations. Vectors live in sqlite-vec virtual
// tables next to their metadata rows.
package retrieval

import (
	"fmt"
	"strings"
)

// Document source types.
const (
	SourceMaster   = "master"
	SourceActivity = "activity"
)

// Chunk is one retrieved document fragment with its metadata. Master chunks
// carry lesson/slide fields; activity chunks carry the catalog fields. Score
// is the retrieval similarity in [0,1], nil when the backend provided none.
type Chunk struct {
	Source string
	Text   string
	Score  *float64

	// Master curriculum metadata.
	LessonNumber      int
	LessonTitle       string
	SlideNumber       int
	SlideTitle        string
	GlobalSlideNumber int
	DoNotReference    bool

	// Activity catalog metadata.
	ActivityID   int
	ActivityName string
	Location     string
	Schedule     string
	CostRaw      string
	CostLabel    string
	CostValue    *float64
	ActivityType string
	Aliases      []string
	Days         []string
}

// Label returns the short heading used above the chunk text in a prompt
// context block.
func (c Chunk) Label() string {
	if c.Source == SourceMaster {
		return strings.TrimSpace(fmt.Sprintf("Lesson %d Slide %d: %s", c.LessonNumber, c.SlideNumber, c.SlideTitle))
	}
	name := c.ActivityName
	if name == "" {
		name = "Activity"
	}
	return strings.TrimSpace(fmt.Sprintf("%s (%s)", name, c.Location))
}

// Reference returns the citation line for the chunk, or empty for source
// types that cannot be cited.
func (c Chunk) Reference() string {
	switch c.Source {
	case SourceMaster:
		lessonTitle := c.LessonTitle
		if lessonTitle == "" {
			lessonTitle = "Untitled lesson"
		}
		slideTitle := c.SlideTitle
		if slideTitle == "" {
			slideTitle = "Untitled slide"
		}
		return fmt.Sprintf("Lesson %d: %s -> Slide %d (%s)", c.LessonNumber, lessonTitle, c.SlideNumber, slideTitle)
	case SourceActivity:
		name := c.ActivityName
		if name == "" {
			name = "Activity"
		}
		location := c.Location
		if location == "" {
			location = "Location TBD"
		}
		schedule := c.Schedule
		if schedule == "" {
			schedule = "Schedule TBD"
		}
		cost := c.CostRaw
		if cost == "" {
			cost = "Cost unknown"
		}
		return fmt.Sprintf("Activity %d: %s — %s, %s, %s", c.ActivityID, name, location, schedule, cost)
	}
	return ""
}

// sortKey orders chunks for citation listing: master chunks first by lesson,
// slide, then global slide position; activity chunks after, by catalog id.
func (c Chunk) sortKey() [4]int {
	if c.Source == SourceMaster {
		return [4]int{0, c.LessonNumber, c.SlideNumber, c.GlobalSlideNumber}
	}
	if c.Source == SourceActivity {
		return [4]int{1, c.ActivityID, 0, 0}
	}
	return [4]int{2, 0, 0, 0}
}

func keyLess(a, b [4]int) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}
