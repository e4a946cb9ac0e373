package retrieval

import "testing"

func scored(lesson int, score float64) Chunk {
	s := score
	return Chunk{Source: SourceMaster, LessonNumber: lesson, SlideNumber: 1, Score: &s}
}

func TestSelectRanksByScore(t *testing.T) {
	pool := []Chunk{scored(3, 0.70), scored(1, 0.90), scored(5, 0.80)}
	got := NewSelector(SelectorConfig{}).Select(pool, 2, false)
	if len(got) != 2 {
		t.Fatalf("got %d chunks, want 2", len(got))
	}
	if *got[0].Score != 0.90 || *got[1].Score != 0.80 {
		t.Errorf("selection not ranked by score: %v %v", *got[0].Score, *got[1].Score)
	}
}

func TestSelectPreservesOrderWithoutScores(t *testing.T) {
	pool := []Chunk{
		{Source: SourceMaster, LessonNumber: 4, SlideNumber: 1},
		{Source: SourceMaster, LessonNumber: 1, SlideNumber: 2},
		{Source: SourceMaster, LessonNumber: 2, SlideNumber: 3},
	}
	got := NewSelector(SelectorConfig{}).Select(pool, 3, false)
	for i := range pool {
		if got[i].LessonNumber != pool[i].LessonNumber {
			t.Fatalf("retrieval order not preserved: %+v", got)
		}
	}
}

func TestSelectPreservesOrderWithBadScores(t *testing.T) {
	pool := []Chunk{scored(4, 3.2), scored(1, 0.9)}
	got := NewSelector(SelectorConfig{}).Select(pool, 2, false)
	if got[0].LessonNumber != 4 {
		t.Errorf("out-of-range scores must not reorder the pool: %+v", got)
	}
}

func TestSelectFoundationalWithinMargin(t *testing.T) {
	// Foundational chunk within 0.08 of the top score displaces it.
	pool := []Chunk{scored(5, 0.90), scored(2, 0.83)}
	got := NewSelector(SelectorConfig{}).Select(pool, 1, true)
	if len(got) != 1 || got[0].LessonNumber != 2 {
		t.Errorf("expected foundational lesson 2, got %+v", got)
	}
}

func TestSelectFoundationalOutsideMargin(t *testing.T) {
	// A clearly better later lesson keeps its spot.
	pool := []Chunk{scored(5, 0.90), scored(2, 0.80)}
	got := NewSelector(SelectorConfig{}).Select(pool, 1, true)
	if len(got) != 1 || got[0].LessonNumber != 5 {
		t.Errorf("expected top-ranked lesson 5 kept, got %+v", got)
	}
}

func TestSelectFoundationalTopAlreadyEarly(t *testing.T) {
	pool := []Chunk{scored(1, 0.90), scored(5, 0.89)}
	got := NewSelector(SelectorConfig{}).Select(pool, 2, true)
	if got[0].LessonNumber != 1 || len(got) != 2 {
		t.Errorf("foundational top chunk should leave ranking untouched: %+v", got)
	}
}

func TestSelectFoundationalWithoutScores(t *testing.T) {
	pool := []Chunk{
		{Source: SourceMaster, LessonNumber: 6, SlideNumber: 1},
		{Source: SourceMaster, LessonNumber: 1, SlideNumber: 1},
	}
	got := NewSelector(SelectorConfig{}).Select(pool, 1, true)
	if len(got) != 1 || got[0].LessonNumber != 1 {
		t.Errorf("without scores the pool restricts to foundational chunks: %+v", got)
	}
}

func TestSelectBoundsPool(t *testing.T) {
	var pool []Chunk
	for i := 0; i < 8; i++ {
		pool = append(pool, scored(i+1, 0.5))
	}
	got := NewSelector(SelectorConfig{}).Select(pool, 8, false)
	if len(got) != defaultReferencePoolSize {
		t.Errorf("pool should be bounded to %d, got %d", defaultReferencePoolSize, len(got))
	}
}

func TestSelectEmptyPool(t *testing.T) {
	if got := NewSelector(SelectorConfig{}).Select(nil, 2, true); got != nil {
		t.Errorf("empty pool should select nothing, got %+v", got)
	}
}
