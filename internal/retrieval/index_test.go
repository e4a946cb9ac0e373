package retrieval

import (
	"context"
	"path/filepath"
	"testing"
)

type fixedEmbedder struct {
	vec []float32
}

func (f fixedEmbedder) Embed(context.Context, string) ([]float32, error) {
	return f.vec, nil
}

func TestSanityCheckReportsTopSlide(t *testing.T) {
	ix, err := OpenIndex(IndexConfig{
		DSN:          filepath.Join(t.TempDir(), "index.db"),
		EmbeddingDim: 3,
	}, fixedEmbedder{vec: []float32{1, 0, 0}})
	if err != nil {
		t.Fatalf("OpenIndex: %v", err)
	}
	defer ix.Close()

	label, err := ix.SanityCheck(context.Background())
	if err != nil {
		t.Fatalf("SanityCheck on empty index: %v", err)
	}
	if label != "" {
		t.Errorf("label = %q, want empty for an empty index", label)
	}

	chunk := Chunk{
		Source:            SourceMaster,
		LessonNumber:      1,
		LessonTitle:       "Why Movement Matters",
		SlideNumber:       2,
		SlideTitle:        "Benefits",
		GlobalSlideNumber: 2,
		Text:              "Movement keeps joints and mood in shape.",
	}
	if err := ix.UpsertMaster(context.Background(), chunk, []float32{1, 0, 0}); err != nil {
		t.Fatalf("UpsertMaster: %v", err)
	}

	label, err = ix.SanityCheck(context.Background())
	if err != nil {
		t.Fatalf("SanityCheck: %v", err)
	}
	if want := chunk.Label(); label != want {
		t.Errorf("label = %q, want %q", label, want)
	}
}
