package retrieval

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/ahals42/Reframing-Retirement-AI-Coach/internal/models"
)

// Embedder produces an embedding vector for a piece of text. Implemented by
// the genai client; tests supply a deterministic fake.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// IndexConfig configures the vector index.
type IndexConfig struct {
	// DSN is the SQLite database file path.
	DSN string
	// EmbeddingDim is the vector dimensionality of the embedding model.
	EmbeddingDim int
	// MasterTopK is the default result count for curriculum retrieval.
	MasterTopK int
	// ActivityTopK is the default result count for activity retrieval.
	ActivityTopK int
}

// Default retrieval depths, matching the shipped configuration.
const (
	DefaultMasterTopK   = 5
	DefaultActivityTopK = 4
	DefaultEmbeddingDim = 3072
)

// dayWidenedMinimum is the floor on how many activity candidates are fetched
// before day filters are applied, so a narrow day filter still has enough
// rows to survive filtering.
const dayWidenedMinimum = 8

// Index stores curriculum and activity chunks with their embeddings in
// sqlite-vec virtual tables and answers similarity queries over them.
type Index struct {
	db    *sql.DB
	embed Embedder
	cfg   IndexConfig
}

// OpenIndex opens (creating if needed) the vector index at cfg.DSN.
func OpenIndex(cfg IndexConfig, embed Embedder) (*Index, error) {
	if cfg.DSN == "" {
		slog.Error("retrieval index DSN not set")
		return nil, fmt.Errorf("retrieval index DSN not set")
	}
	if cfg.EmbeddingDim <= 0 {
		cfg.EmbeddingDim = DefaultEmbeddingDim
	}
	if cfg.MasterTopK <= 0 {
		cfg.MasterTopK = DefaultMasterTopK
	}
	if cfg.ActivityTopK <= 0 {
		cfg.ActivityTopK = DefaultActivityTopK
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DSN), 0755); err != nil {
		slog.Error("failed to create index directory", "error", err, "dir", filepath.Dir(cfg.DSN))
		return nil, fmt.Errorf("failed to create index directory: %w", err)
	}

	db, err := sql.Open("sqlite3", cfg.DSN)
	if err != nil {
		slog.Error("failed to open index database", "error", err, "dsn", cfg.DSN)
		return nil, fmt.Errorf("failed to open index database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		slog.Error("index database ping failed", "error", err)
		return nil, fmt.Errorf("index database ping failed: %w", err)
	}

	if _, err := db.Exec(indexSchema(cfg.EmbeddingDim)); err != nil {
		db.Close()
		slog.Error("failed to run index migrations", "error", err)
		return nil, fmt.Errorf("failed to run index migrations: %w", err)
	}
	slog.Debug("retrieval index opened", "dsn", cfg.DSN, "dim", cfg.EmbeddingDim)

	return &Index{db: db, embed: embed, cfg: cfg}, nil
}

func indexSchema(dim int) string {
	return fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS master_chunks (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	lesson_number INTEGER NOT NULL,
	lesson_title TEXT NOT NULL,
	slide_number INTEGER NOT NULL,
	slide_title TEXT NOT NULL,
	global_slide_number INTEGER NOT NULL,
	do_not_reference INTEGER NOT NULL DEFAULT 0,
	text TEXT NOT NULL
);
CREATE VIRTUAL TABLE IF NOT EXISTS vec_master USING vec0(embedding float[%d]);
CREATE TABLE IF NOT EXISTS activity_chunks (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	activity_id INTEGER NOT NULL,
	activity_name TEXT NOT NULL,
	location TEXT NOT NULL DEFAULT '',
	schedule TEXT NOT NULL DEFAULT '',
	cost_raw TEXT NOT NULL DEFAULT '',
	cost_label TEXT NOT NULL DEFAULT '',
	cost_value REAL,
	activity_type TEXT NOT NULL DEFAULT '',
	aliases TEXT NOT NULL DEFAULT '[]',
	days TEXT NOT NULL DEFAULT '[]',
	text TEXT NOT NULL
);
CREATE VIRTUAL TABLE IF NOT EXISTS vec_activities USING vec0(embedding float[%d]);
`, dim, dim)
}

// Close releases the underlying database handle.
func (ix *Index) Close() error {
	return ix.db.Close()
}

// UpsertMaster inserts one curriculum chunk and its embedding.
func (ix *Index) UpsertMaster(ctx context.Context, c Chunk, embedding []float32) error {
	tx, err := ix.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin master upsert: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO master_chunks (lesson_number, lesson_title, slide_number, slide_title, global_slide_number, do_not_reference, text)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.LessonNumber, c.LessonTitle, c.SlideNumber, c.SlideTitle, c.GlobalSlideNumber, c.DoNotReference, c.Text)
	if err != nil {
		return fmt.Errorf("failed to insert master chunk: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read master chunk id: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO vec_master (rowid, embedding) VALUES (?, ?)`,
		id, encodeEmbedding(embedding)); err != nil {
		return fmt.Errorf("failed to insert master embedding: %w", err)
	}
	return tx.Commit()
}

// UpsertActivity inserts one activity chunk and its embedding.
func (ix *Index) UpsertActivity(ctx context.Context, c Chunk, embedding []float32) error {
	aliases, err := json.Marshal(c.Aliases)
	if err != nil {
		return fmt.Errorf("failed to encode aliases: %w", err)
	}
	days, err := json.Marshal(c.Days)
	if err != nil {
		return fmt.Errorf("failed to encode days: %w", err)
	}

	tx, err := ix.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin activity upsert: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO activity_chunks (activity_id, activity_name, location, schedule, cost_raw, cost_label, cost_value, activity_type, aliases, days, text)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ActivityID, c.ActivityName, c.Location, c.Schedule, c.CostRaw, c.CostLabel, c.CostValue, c.ActivityType, string(aliases), string(days), c.Text)
	if err != nil {
		return fmt.Errorf("failed to insert activity chunk: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read activity chunk id: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO vec_activities (rowid, embedding) VALUES (?, ?)`,
		id, encodeEmbedding(embedding)); err != nil {
		return fmt.Errorf("failed to insert activity embedding: %w", err)
	}
	return tx.Commit()
}

// Reset drops every stored chunk and embedding. Used by ingestion before a
// full re-load.
func (ix *Index) Reset(ctx context.Context) error {
	for _, stmt := range []string{
		`DELETE FROM vec_master`,
		`DELETE FROM master_chunks`,
		`DELETE FROM vec_activities`,
		`DELETE FROM activity_chunks`,
	} {
		if _, err := ix.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to reset index: %w", err)
		}
	}
	return nil
}

// RetrieveMaster returns the topK curriculum chunks most similar to query.
// Chunks flagged as internal-only are dropped after retrieval, so fewer than
// topK chunks may come back. topK <= 0 selects the configured default.
func (ix *Index) RetrieveMaster(ctx context.Context, query string, topK int) ([]Chunk, error) {
	if topK <= 0 {
		topK = ix.cfg.MasterTopK
	}
	queryVec, err := ix.embed.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed master query: %w", err)
	}

	rows, err := ix.db.QueryContext(ctx, `
		SELECT m.lesson_number, m.lesson_title, m.slide_number, m.slide_title, m.global_slide_number, m.do_not_reference, m.text,
		       vec_distance_cosine(v.embedding, ?) AS distance
		FROM vec_master v
		JOIN master_chunks m ON m.id = v.rowid
		ORDER BY distance ASC
		LIMIT ?`, encodeEmbedding(queryVec), topK)
	if err != nil {
		slog.Error("master retrieval query failed", "error", err)
		return nil, fmt.Errorf("master retrieval query failed: %w", err)
	}
	defer rows.Close()

	var chunks []Chunk
	for rows.Next() {
		var c Chunk
		var distance float64
		if err := rows.Scan(&c.LessonNumber, &c.LessonTitle, &c.SlideNumber, &c.SlideTitle,
			&c.GlobalSlideNumber, &c.DoNotReference, &c.Text, &distance); err != nil {
			return nil, fmt.Errorf("failed to scan master chunk: %w", err)
		}
		if c.DoNotReference {
			continue
		}
		c.Source = SourceMaster
		score := 1.0 - distance
		c.Score = &score
		chunks = append(chunks, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate master chunks: %w", err)
	}
	slog.Debug("master retrieval complete", "query_len", len(query), "count", len(chunks))
	return chunks, nil
}

// sanityQuery is the fixed probe query used to confirm retrieval answers at
// startup.
const sanityQuery = "What is physical activity?"

// SanityCheck runs one master-index query and returns the top slide's label.
// An empty label with a nil error means the index answered but holds no
// referenceable slides.
func (ix *Index) SanityCheck(ctx context.Context) (string, error) {
	chunks, err := ix.RetrieveMaster(ctx, sanityQuery, 1)
	if err != nil {
		return "", fmt.Errorf("sanity query failed: %w", err)
	}
	if len(chunks) == 0 {
		return "", nil
	}
	return chunks[0].Label(), nil
}

// RetrieveActivities returns the topK activity chunks most similar to query,
// after applying any structured filters. A day filter widens the candidate
// fetch so filtering does not starve the result set; the final list is still
// cut back to topK. topK <= 0 selects the configured default.
func (ix *Index) RetrieveActivities(ctx context.Context, query string, filters *models.ActivityFilters, topK int) ([]Chunk, error) {
	if topK <= 0 {
		topK = ix.cfg.ActivityTopK
	}
	fetch := topK
	if filters != nil && len(filters.Days) > 0 {
		fetch = 2 * topK
		if fetch < dayWidenedMinimum {
			fetch = dayWidenedMinimum
		}
	}

	queryVec, err := ix.embed.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed activity query: %w", err)
	}

	rows, err := ix.db.QueryContext(ctx, `
		SELECT a.activity_id, a.activity_name, a.location, a.schedule, a.cost_raw, a.cost_label, a.cost_value, a.activity_type, a.aliases, a.days, a.text,
		       vec_distance_cosine(v.embedding, ?) AS distance
		FROM vec_activities v
		JOIN activity_chunks a ON a.id = v.rowid
		ORDER BY distance ASC
		LIMIT ?`, encodeEmbedding(queryVec), fetch)
	if err != nil {
		slog.Error("activity retrieval query failed", "error", err)
		return nil, fmt.Errorf("activity retrieval query failed: %w", err)
	}
	defer rows.Close()

	var chunks []Chunk
	for rows.Next() {
		var c Chunk
		var aliasesJSON, daysJSON string
		var costValue sql.NullFloat64
		var distance float64
		if err := rows.Scan(&c.ActivityID, &c.ActivityName, &c.Location, &c.Schedule, &c.CostRaw,
			&c.CostLabel, &costValue, &c.ActivityType, &aliasesJSON, &daysJSON, &c.Text, &distance); err != nil {
			return nil, fmt.Errorf("failed to scan activity chunk: %w", err)
		}
		if costValue.Valid {
			c.CostValue = &costValue.Float64
		}
		if err := json.Unmarshal([]byte(aliasesJSON), &c.Aliases); err != nil {
			return nil, fmt.Errorf("failed to decode aliases: %w", err)
		}
		if err := json.Unmarshal([]byte(daysJSON), &c.Days); err != nil {
			return nil, fmt.Errorf("failed to decode days: %w", err)
		}
		c.Source = SourceActivity
		score := 1.0 - distance
		c.Score = &score
		chunks = append(chunks, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate activity chunks: %w", err)
	}

	if filters != nil {
		chunks = applyActivityFilters(chunks, filters)
	}
	if len(chunks) > topK {
		chunks = chunks[:topK]
	}
	slog.Debug("activity retrieval complete", "query_len", len(query), "count", len(chunks))
	return chunks, nil
}

// GatherContext runs retrieval for every source the route decision enabled.
func (ix *Index) GatherContext(ctx context.Context, query string, decision models.RouteDecision) (Result, error) {
	var result Result
	if decision.UseMaster {
		master, err := ix.RetrieveMaster(ctx, query, 0)
		if err != nil {
			return Result{}, err
		}
		result.MasterChunks = master
	}
	if decision.UseActivities {
		activities, err := ix.RetrieveActivities(ctx, query, decision.ActivityFilters, 0)
		if err != nil {
			return Result{}, err
		}
		result.ActivityChunks = activities
	}
	return result, nil
}

// applyActivityFilters keeps only the chunks matching every set filter field.
func applyActivityFilters(chunks []Chunk, filters *models.ActivityFilters) []Chunk {
	var out []Chunk
	for _, c := range chunks {
		if matchesFilters(c, filters) {
			out = append(out, c)
		}
	}
	return out
}

func matchesFilters(c Chunk, filters *models.ActivityFilters) bool {
	if filters.CostLabel != "" && c.CostLabel != filters.CostLabel {
		return false
	}
	if filters.ActivityType != "" && c.ActivityType != filters.ActivityType {
		return false
	}
	if filters.Location != "" {
		target := strings.ToLower(filters.Location)
		if !strings.Contains(strings.ToLower(c.Location), target) && !containsFold(c.Aliases, target) {
			return false
		}
	}
	if len(filters.Days) > 0 {
		matched := false
		for _, want := range filters.Days {
			if containsFold(c.Days, strings.ToLower(want)) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return true
}

// containsFold reports whether values contains target, ignoring case.
// target must already be lower-cased.
func containsFold(values []string, target string) bool {
	for _, v := range values {
		if strings.ToLower(v) == target {
			return true
		}
	}
	return false
}

// encodeEmbedding packs a float32 vector as the little-endian blob sqlite-vec
// expects.
func encodeEmbedding(v []float32) []byte {
	buf := &bytes.Buffer{}
	binary.Write(buf, binary.LittleEndian, v)
	return buf.Bytes()
}
