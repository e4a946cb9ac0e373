// Package main rebuilds the retrieval index from the curriculum and activity
// source documents. It parses both files, embeds every chunk, and replaces
// the index contents in one pass.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/ahals42/Reframing-Retirement-AI-Coach/internal/genai"
	"github.com/ahals42/Reframing-Retirement-AI-Coach/internal/ingest"
	"github.com/ahals42/Reframing-Retirement-AI-Coach/internal/retrieval"
	"github.com/joho/godotenv"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	}

	indexDSN := os.Getenv("INDEX_DSN")
	if indexDSN == "" {
		indexDSN = "index.db"
	}

	masterPath := flag.String("master", os.Getenv("MASTER_DOC_PATH"), "path to the curriculum master document (overrides $MASTER_DOC_PATH)")
	activityPath := flag.String("activities", os.Getenv("ACTIVITY_DOC_PATH"), "path to the local activities document (overrides $ACTIVITY_DOC_PATH)")
	dsn := flag.String("index-dsn", indexDSN, "retrieval index SQLite path (overrides $INDEX_DSN)")
	openaiKey := flag.String("openai-api-key", os.Getenv("OPENAI_API_KEY"), "OpenAI API key (overrides $OPENAI_API_KEY)")
	flag.Parse()

	if *masterPath == "" || *activityPath == "" {
		slog.Error("Both -master and -activities paths are required")
		flag.Usage()
		os.Exit(1)
	}

	var genaiOpts []genai.Option
	if *openaiKey != "" {
		genaiOpts = append(genaiOpts, genai.WithAPIKey(*openaiKey))
	}
	if model := os.Getenv("OPENAI_EMBEDDING_MODEL"); model != "" {
		genaiOpts = append(genaiOpts, genai.WithEmbeddingModel(model))
	}
	client, err := genai.NewClient(genaiOpts...)
	if err != nil {
		slog.Error("Failed to create OpenAI client", "error", err)
		os.Exit(1)
	}

	if err := os.MkdirAll(filepath.Dir(*dsn), 0755); err != nil {
		slog.Error("Failed to create index directory", "error", err)
		os.Exit(1)
	}

	index, err := retrieval.OpenIndex(retrieval.IndexConfig{DSN: *dsn}, client)
	if err != nil {
		slog.Error("Failed to open retrieval index", "error", err, "index_dsn", *dsn)
		os.Exit(1)
	}
	defer index.Close()

	pipeline := ingest.NewPipeline(index, client)
	if err := pipeline.Run(context.Background(), *masterPath, *activityPath); err != nil {
		slog.Error("Ingestion failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Ingestion complete", "index_dsn", *dsn)
}
