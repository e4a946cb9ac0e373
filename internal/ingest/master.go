// Package ingest parses the curriculum and local-activities datasets and
// loads them into the vector index. Datasets are plain-text files with
// asterisk dividers between chunks.
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
	chunkDivider   = regexp.MustCompile(`\n\*{5,}\s*\n`)
	lessonPattern  = regexp.MustCompile(`(?i)LESSON\s+(\d+):\s*([^\n]+)`)
	slidePattern   = regexp.MustCompile(`(?i)L(\d+)-S(\d+)-G(\d+)`)
	titlePattern   = regexp.MustCompile(`(?im)^Title:\s*(.+)$`)
	contentPattern = regexp.MustCompile(`(?is)Content:\s*(.+)`)
	descPattern    = regexp.MustCompile(`(?i)Lesson Description:\s*(.+)`)

	lessonTitleSuffix = regexp.MustCompile(`\(\d+[^)]*\)$`)
	plusMarkers       = regexp.MustCompile(`\+\+\+\s*`)
	multiSpace        = regexp.MustCompile(`\s{2,}`)
)

// doNotReferenceMarker flags slides excluded from retrieval and citations.
const doNotReferenceMarker = "***DO NOT REFERENCE***"

// referenceTitleKeywords mark bibliography-style slides that must never be
// cited back to the user.
var referenceTitleKeywords = []string{"reference", "references", "bibliography", "citations"}

// MasterChunkID returns the deterministic identifier for a curriculum chunk.
func MasterChunkID(c retrieval.Chunk) string {
	return fmt.Sprintf("master-L%02d-S%02d-G%03d", c.LessonNumber, c.SlideNumber, c.GlobalSlideNumber)
}

// ParseMasterFile parses the master slides dataset into curriculum chunks.
func ParseMasterFile(path string) ([]retrieval.Chunk, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read master dataset: %w", err)
	}
	return ParseMaster(string(data)), nil
}

// ParseMaster parses master dataset text. Segments without an L#-S#-G#
// marker are skipped; lesson titles carry forward to later slides of the
// same lesson.
func ParseMaster(text string) []retrieval.Chunk {
	lessonTitles := make(map[int]string)

	var chunks []retrieval.Chunk
	for _, segment := range splitChunks(text) {
		if m := lessonPattern.FindStringSubmatch(segment); m != nil {
			num, _ := strconv.Atoi(m[1])
			lessonTitles[num] = cleanLessonTitle(m[2])
		}

		m := slidePattern.FindStringSubmatch(segment)
		if m == nil {
			continue
		}
		lessonNumber, _ := strconv.Atoi(m[1])
		slideNumber, _ := strconv.Atoi(m[2])
		globalSlideNumber, _ := strconv.Atoi(m[3])

		slideTitle := extractSlideTitle(segment)
		content := extractContent(segment)

		var parts []string
		for _, part := range []string{
			fmt.Sprintf("Lesson %d", lessonNumber),
			fmt.Sprintf("Slide %d", slideNumber),
			slideTitle,
			content,
		} {
			if part != "" {
				parts = append(parts, part)
			}
		}

		chunks = append(chunks, retrieval.Chunk{
			Source:            retrieval.SourceMaster,
			LessonNumber:      lessonNumber,
			LessonTitle:       lessonTitles[lessonNumber],
			SlideNumber:       slideNumber,
			SlideTitle:        slideTitle,
			GlobalSlideNumber: globalSlideNumber,
			DoNotReference:    isDoNotReference(segment, slideTitle),
			Text:              strings.TrimSpace(strings.Join(parts, "\n")),
		})
	}
	return chunks
}

func splitChunks(text string) []string {
	var out []string
	for _, piece := range chunkDivider.Split(text, -1) {
		if cleaned := strings.TrimSpace(piece); cleaned != "" {
			out = append(out, cleaned)
		}
	}
	return out
}

// cleanLessonTitle strips a trailing slide-count annotation like "(12 slides)".
func cleanLessonTitle(raw string) string {
	title := strings.TrimSpace(raw)
	return strings.TrimSpace(lessonTitleSuffix.ReplaceAllString(title, ""))
}

func extractSlideTitle(segment string) string {
	if m := titlePattern.FindStringSubmatch(segment); m != nil {
		return strings.TrimSpace(m[1])
	}
	// Lesson description slides carry no Title: line.
	if m := descPattern.FindStringSubmatch(segment); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

func extractContent(segment string) string {
	if m := contentPattern.FindStringSubmatch(segment); m != nil {
		return strings.TrimSpace(m[1])
	}
	cleaned := plusMarkers.ReplaceAllString(segment, "")
	cleaned = multiSpace.ReplaceAllString(cleaned, " ")
	return strings.TrimSpace(cleaned)
}

func isDoNotReference(segment, slideTitle string) bool {
	if strings.Contains(strings.ToUpper(segment), doNotReferenceMarker) {
		return true
	}
	lowered := strings.ToLower(slideTitle)
	for _, kw := range referenceTitleKeywords {
		if strings.Contains(lowered, kw) {
			return true
		}
	}
	return false
}
