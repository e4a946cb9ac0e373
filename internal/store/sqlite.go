// This file implements the SQLite-backed conversation snapshot store.
package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "embed"

	"github.com/ahals42/Reframing-Retirement-AI-Coach/internal/models"
	_ "github.com/mattn/go-sqlite3"
)

// DefaultDirPermissions defines the default permissions for database directories.
const DefaultDirPermissions = 0755

//go:embed migrations_sqlite.sql
var sqliteMigrations string

// SQLiteStore persists conversation snapshots in a local SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store. The DSN is a file path; its
// directory is created if missing.
func NewSQLiteStore(opts ...Option) (*SQLiteStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewSQLiteStore invoked", "DSN_set", cfg.DSN != "")

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("SQLiteStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	dir := filepath.Dir(dsn)
	if err := os.MkdirAll(dir, DefaultDirPermissions); err != nil {
		slog.Error("Failed to create database directory", "error", err, "dir", dir)
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		slog.Error("Failed to open SQLite connection", "error", err)
		return nil, err
	}
	if err := db.Ping(); err != nil {
		slog.Error("SQLite ping failed", "error", err)
		return nil, err
	}

	slog.Debug("Running SQLite migrations")
	if _, err := db.Exec(sqliteMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// SaveConversationSnapshot stores or replaces the snapshot for a session.
func (s *SQLiteStore) SaveConversationSnapshot(snapshot models.ConversationSnapshot) error {
	historyJSON, err := encodeHistory(snapshot.History)
	if err != nil {
		slog.Error("SQLiteStore SaveConversationSnapshot encode failed", "error", err, "sessionID", snapshot.SessionID)
		return err
	}
	_, err = s.db.Exec(`
		INSERT OR REPLACE INTO conversation_snapshots
			(session_id, process_layer, layer_confidence, pending_question, barrier, activities, time_available, history, message_count, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		snapshot.SessionID, string(snapshot.State.ProcessLayer), snapshot.State.LayerConfidence,
		nilIfEmpty(snapshot.State.PendingQuestion), snapshot.State.Barrier, snapshot.State.Activities,
		snapshot.State.TimeAvailable, nilIfEmpty(historyJSON), snapshot.MessageCount,
		snapshot.CreatedAt, snapshot.UpdatedAt)
	if err != nil {
		slog.Error("SQLiteStore SaveConversationSnapshot failed", "error", err, "sessionID", snapshot.SessionID)
		return fmt.Errorf("failed to save snapshot for %s: %w", snapshot.SessionID, err)
	}
	slog.Debug("SQLiteStore SaveConversationSnapshot succeeded", "sessionID", snapshot.SessionID, "messages", snapshot.MessageCount)
	return nil
}

// GetConversationSnapshot retrieves the snapshot for a session, or nil when
// none exists.
func (s *SQLiteStore) GetConversationSnapshot(sessionID string) (*models.ConversationSnapshot, error) {
	row := s.db.QueryRow(`
		SELECT session_id, process_layer, layer_confidence, pending_question, barrier, activities, time_available, history, message_count, created_at, updated_at
		FROM conversation_snapshots WHERE session_id = ?`, sessionID)
	snapshot, err := scanSnapshot(row)
	if err == sql.ErrNoRows {
		slog.Debug("SQLiteStore GetConversationSnapshot not found", "sessionID", sessionID)
		return nil, nil
	}
	if err != nil {
		slog.Error("SQLiteStore GetConversationSnapshot failed", "error", err, "sessionID", sessionID)
		return nil, fmt.Errorf("failed to load snapshot for %s: %w", sessionID, err)
	}
	return snapshot, nil
}

// DeleteConversationSnapshot removes the snapshot for a session.
func (s *SQLiteStore) DeleteConversationSnapshot(sessionID string) error {
	_, err := s.db.Exec(`DELETE FROM conversation_snapshots WHERE session_id = ?`, sessionID)
	if err != nil {
		slog.Error("SQLiteStore DeleteConversationSnapshot failed", "error", err, "sessionID", sessionID)
		return fmt.Errorf("failed to delete snapshot for %s: %w", sessionID, err)
	}
	slog.Debug("SQLiteStore DeleteConversationSnapshot succeeded", "sessionID", sessionID)
	return nil
}

// Close closes the SQLite database connection.
func (s *SQLiteStore) Close() error {
	slog.Debug("Closing SQLite database connection")
	err := s.db.Close()
	if err != nil {
		slog.Error("Failed to close SQLite database", "error", err)
	}
	return err
}
