// Package store provides persistence for the coach: conversation snapshots
// (state plus transcript) in SQLite or Postgres, and the in-memory session
// registry that owns live agents.
package store

import (
	"log/slog"
	"strings"

	"github.com/ahals42/Reframing-Retirement-AI-Coach/internal/models"
)

// Store is the conversation persistence interface implemented by the SQLite
// and Postgres backends.
type Store interface {
	SaveConversationSnapshot(snapshot models.ConversationSnapshot) error
	GetConversationSnapshot(sessionID string) (*models.ConversationSnapshot, error)
	DeleteConversationSnapshot(sessionID string) error
	Close() error
}

// Opts holds configuration applied via Option values.
type Opts struct {
	DSN string
	// Driver is "sqlite3" or "postgres"; empty means detect from the DSN.
	Driver string
}

// Option configures a store backend.
type Option func(*Opts)

// WithSQLiteDSN configures a SQLite database file path.
func WithSQLiteDSN(dsn string) Option {
	return func(o *Opts) {
		o.DSN = dsn
		o.Driver = "sqlite3"
	}
}

// WithPostgresDSN configures a Postgres connection string.
func WithPostgresDSN(dsn string) Option {
	return func(o *Opts) {
		o.DSN = dsn
		o.Driver = "postgres"
	}
}

// DetectDSNType classifies a DSN as "postgres" or "sqlite". Postgres DSNs are
// URL-style (postgres:// or postgresql://) or key=value strings; anything
// else is treated as a SQLite file path.
func DetectDSNType(dsn string) string {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") ||
		strings.Contains(dsn, "host=") {
		return "postgres"
	}
	return "sqlite"
}

// NewFromDSN opens the backend matching the DSN type.
func NewFromDSN(dsn string) (Store, error) {
	if DetectDSNType(dsn) == "postgres" {
		slog.Debug("store.NewFromDSN: detected Postgres DSN")
		return NewPostgresStore(WithPostgresDSN(dsn))
	}
	slog.Debug("store.NewFromDSN: detected SQLite DSN", "path", dsn)
	return NewSQLiteStore(WithSQLiteDSN(dsn))
}
