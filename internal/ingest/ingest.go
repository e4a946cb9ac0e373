// This file runs the full ingestion pipeline: parse, embed, load.
package ingest

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ahals42/Reframing-Retirement-AI-Coach/internal/retrieval"
)

// Pipeline loads parsed dataset chunks into the vector index.
type Pipeline struct {
	index *retrieval.Index
	embed retrieval.Embedder
}

// NewPipeline creates an ingestion pipeline over the given index and embedder.
func NewPipeline(index *retrieval.Index, embed retrieval.Embedder) *Pipeline {
	return &Pipeline{index: index, embed: embed}
}

// Run parses both datasets, resets the index, and loads every chunk with its
// embedding. The index is left empty in the failure case only if the reset
// already happened; parse errors leave it untouched.
func (p *Pipeline) Run(ctx context.Context, masterPath, activityPath string) error {
	slog.Info("Parsing master dataset", "path", masterPath)
	masterChunks, err := ParseMasterFile(masterPath)
	if err != nil {
		return err
	}
	slog.Info("Parsing activity dataset", "path", activityPath)
	activityChunks, err := ParseActivityFile(activityPath)
	if err != nil {
		return err
	}

	if err := p.index.Reset(ctx); err != nil {
		return fmt.Errorf("failed to reset index before load: %w", err)
	}

	for _, chunk := range masterChunks {
		embedding, err := p.embed.Embed(ctx, chunk.Text)
		if err != nil {
			return fmt.Errorf("failed to embed %s: %w", MasterChunkID(chunk), err)
		}
		if err := p.index.UpsertMaster(ctx, chunk, embedding); err != nil {
			return fmt.Errorf("failed to load %s: %w", MasterChunkID(chunk), err)
		}
	}
	slog.Info("Loaded master chunks", "count", len(masterChunks))

	for _, chunk := range activityChunks {
		embedding, err := p.embed.Embed(ctx, chunk.Text)
		if err != nil {
			return fmt.Errorf("failed to embed %s: %w", ActivityChunkID(chunk), err)
		}
		if err := p.index.UpsertActivity(ctx, chunk, embedding); err != nil {
			return fmt.Errorf("failed to load %s: %w", ActivityChunkID(chunk), err)
		}
	}
	slog.Info("Loaded activity chunks", "count", len(activityChunks))

	return nil
}
