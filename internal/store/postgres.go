// This file implements the PostgreSQL-backed conversation snapshot store.
package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "embed"

	"github.com/ahals42/Reframing-Retirement-AI-Coach/internal/models"
	_ "github.com/lib/pq"
)

// Database connection pool configuration constants.
const (
	// DefaultMaxOpenConns is the default maximum number of open connections to the database.
	DefaultMaxOpenConns = 25
	// DefaultMaxIdleConns is the default maximum number of idle connections in the pool.
	DefaultMaxIdleConns = 25
	// DefaultConnMaxLifetime is the default maximum amount of time a connection may be reused.
	DefaultConnMaxLifetime = 5 * time.Minute
)

//go:embed migrations_postgres.sql
var postgresMigrations string

// PostgresStore persists conversation snapshots in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new Postgres store based on provided options.
func NewPostgresStore(opts ...Option) (*PostgresStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewPostgresStore invoked", "DSN_set", cfg.DSN != "")

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("PostgresStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		slog.Error("Failed to open Postgres connection", "error", err)
		return nil, err
	}

	db.SetMaxOpenConns(DefaultMaxOpenConns)
	db.SetMaxIdleConns(DefaultMaxIdleConns)
	db.SetConnMaxLifetime(DefaultConnMaxLifetime)

	if err := db.Ping(); err != nil {
		slog.Error("Postgres ping failed", "error", err)
		return nil, err
	}

	slog.Debug("Running Postgres migrations")
	if _, err := db.Exec(postgresMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// SaveConversationSnapshot stores or replaces the snapshot for a session.
func (s *PostgresStore) SaveConversationSnapshot(snapshot models.ConversationSnapshot) error {
	historyJSON, err := encodeHistory(snapshot.History)
	if err != nil {
		slog.Error("PostgresStore SaveConversationSnapshot encode failed", "error", err, "sessionID", snapshot.SessionID)
		return err
	}
	_, err = s.db.Exec(`
		INSERT INTO conversation_snapshots
			(session_id, process_layer, layer_confidence, pending_question, barrier, activities, time_available, history, message_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (session_id) DO UPDATE SET
			process_layer = EXCLUDED.process_layer,
			layer_confidence = EXCLUDED.layer_confidence,
			pending_question = EXCLUDED.pending_question,
			barrier = EXCLUDED.barrier,
			activities = EXCLUDED.activities,
			time_available = EXCLUDED.time_available,
			history = EXCLUDED.history,
			message_count = EXCLUDED.message_count,
			updated_at = EXCLUDED.updated_at`,
		snapshot.SessionID, string(snapshot.State.ProcessLayer), snapshot.State.LayerConfidence,
		nilIfEmpty(snapshot.State.PendingQuestion), snapshot.State.Barrier, snapshot.State.Activities,
		snapshot.State.TimeAvailable, nilIfEmpty(historyJSON), snapshot.MessageCount,
		snapshot.CreatedAt, snapshot.UpdatedAt)
	if err != nil {
		slog.Error("PostgresStore SaveConversationSnapshot failed", "error", err, "sessionID", snapshot.SessionID)
		return fmt.Errorf("failed to save snapshot for %s: %w", snapshot.SessionID, err)
	}
	slog.Debug("PostgresStore SaveConversationSnapshot succeeded", "sessionID", snapshot.SessionID, "messages", snapshot.MessageCount)
	return nil
}

// GetConversationSnapshot retrieves the snapshot for a session, or nil when
// none exists.
func (s *PostgresStore) GetConversationSnapshot(sessionID string) (*models.ConversationSnapshot, error) {
	row := s.db.QueryRow(`
		SELECT session_id, process_layer, layer_confidence, pending_question, barrier, activities, time_available, history, message_count, created_at, updated_at
		FROM conversation_snapshots WHERE session_id = $1`, sessionID)
	snapshot, err := scanSnapshot(row)
	if err == sql.ErrNoRows {
		slog.Debug("PostgresStore GetConversationSnapshot not found", "sessionID", sessionID)
		return nil, nil
	}
	if err != nil {
		slog.Error("PostgresStore GetConversationSnapshot failed", "error", err, "sessionID", sessionID)
		return nil, fmt.Errorf("failed to load snapshot for %s: %w", sessionID, err)
	}
	return snapshot, nil
}

// DeleteConversationSnapshot removes the snapshot for a session.
func (s *PostgresStore) DeleteConversationSnapshot(sessionID string) error {
	_, err := s.db.Exec(`DELETE FROM conversation_snapshots WHERE session_id = $1`, sessionID)
	if err != nil {
		slog.Error("PostgresStore DeleteConversationSnapshot failed", "error", err, "sessionID", sessionID)
		return fmt.Errorf("failed to delete snapshot for %s: %w", sessionID, err)
	}
	slog.Debug("PostgresStore DeleteConversationSnapshot succeeded", "sessionID", sessionID)
	return nil
}

// Close closes the Postgres database connection.
func (s *PostgresStore) Close() error {
	slog.Debug("Closing Postgres database connection")
	err := s.db.Close()
	if err != nil {
		slog.Error("Failed to close Postgres database", "error", err)
	}
	return err
}
