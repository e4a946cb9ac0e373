package ingest

import (
	"strings"
	"testing"
)

const sampleMaster = `LESSON 1: Why Movement Matters (12 slides)
Lesson Description: Why staying active matters after retirement.

*****

L1-S1-G1
Title: Welcome
Content: Moving more after retirement protects balance, strength, and mood.

*****

L1-S2-G2
Title: References
Content: Smith et al. 2019.

*****

L1-S3-G3
Title: Internal Notes
***DO NOT REFERENCE***
Content: Facilitator notes for this lesson.

*****

LESSON 2: Building Habits (9 slides)
L2-S1-G13
Title: Habit Loops
+++
Habit loops form through cue, routine, and reward.
`

func TestParseMasterExtractsSlides(t *testing.T) {
	chunks := ParseMaster(sampleMaster)
	if len(chunks) != 4 {
		t.Fatalf("parsed %d chunks, want 4", len(chunks))
	}

	first := chunks[0]
	if first.LessonNumber != 1 || first.SlideNumber != 1 || first.GlobalSlideNumber != 1 {
		t.Errorf("first chunk numbering = L%d S%d G%d", first.LessonNumber, first.SlideNumber, first.GlobalSlideNumber)
	}
	if first.LessonTitle != "Why Movement Matters" {
		t.Errorf("lesson title = %q, want slide-count annotation stripped", first.LessonTitle)
	}
	if first.SlideTitle != "Welcome" {
		t.Errorf("slide title = %q", first.SlideTitle)
	}
	if first.DoNotReference {
		t.Error("first slide flagged do-not-reference")
	}
	if !strings.Contains(first.Text, "Lesson 1") || !strings.Contains(first.Text, "protects balance") {
		t.Errorf("text = %q", first.Text)
	}
}

func TestParseMasterDoNotReferenceDetection(t *testing.T) {
	chunks := ParseMaster(sampleMaster)

	// A References title excludes the slide from citations.
	if !chunks[1].DoNotReference {
		t.Error("references slide not flagged")
	}
	// The explicit marker does too.
	if !chunks[2].DoNotReference {
		t.Error("marker slide not flagged")
	}
}

func TestParseMasterLessonTitleInSlideSegment(t *testing.T) {
	chunks := ParseMaster(sampleMaster)
	last := chunks[3]
	if last.LessonNumber != 2 || last.GlobalSlideNumber != 13 {
		t.Fatalf("last chunk numbering = L%d G%d", last.LessonNumber, last.GlobalSlideNumber)
	}
	if last.LessonTitle != "Building Habits" {
		t.Errorf("lesson title = %q", last.LessonTitle)
	}
	// No Content: block, so the cleaned segment body is used.
	if !strings.Contains(last.Text, "Habit loops form") {
		t.Errorf("text = %q", last.Text)
	}
	if strings.Contains(last.Text, "+++") {
		t.Errorf("plus markers survived: %q", last.Text)
	}
}

func TestParseMasterSkipsMarkerlessSegments(t *testing.T) {
	chunks := ParseMaster("Just a preamble with no slide marker.\n\n*****\n\nAnother stray paragraph.")
	if len(chunks) != 0 {
		t.Errorf("parsed %d chunks from markerless text, want 0", len(chunks))
	}
}

func TestMasterChunkID(t *testing.T) {
	chunks := ParseMaster(sampleMaster)
	if got := MasterChunkID(chunks[0]); got != "master-L01-S01-G001" {
		t.Errorf("chunk id = %q", got)
	}
	if got := MasterChunkID(chunks[3]); got != "master-L02-S01-G013" {
		t.Errorf("chunk id = %q", got)
	}
}
