// This file implements the in-memory session registry that owns live agents.
package store

import (
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ahals42/Reframing-Retirement-AI-Coach/internal/coach"
	"github.com/google/uuid"
)

// Session registry defaults.
const (
	// DefaultSessionTTL is how long an idle session survives before eviction.
	DefaultSessionTTL = 90 * time.Minute
	// DefaultMaxTotalSessions is the global live-session cap.
	DefaultMaxTotalSessions = 1000
	// DefaultMaxSessionsPerAPIKey is the live-session cap per API key.
	DefaultMaxSessionsPerAPIKey = 50
)

// Registry capacity errors, mapped to HTTP statuses at the API boundary.
var (
	ErrRegistryFull    = errors.New("server capacity exceeded: maximum active sessions reached")
	ErrAPIKeyQuota     = errors.New("maximum sessions per API key exceeded; delete unused sessions first")
	ErrSessionNotFound = errors.New("unknown session")
)

// SessionRecord is one live session: its agent and bookkeeping metadata.
type SessionRecord struct {
	Agent        *coach.Agent
	CreatedAt    time.Time
	LastActivity time.Time
	// APIKeyHash is a short prefix hash of the creating key, for quota
	// tracking only; never the full key.
	APIKeyHash   string
	MessageCount int
}

// RegistryConfig tunes a SessionRegistry; zero fields select defaults.
type RegistryConfig struct {
	TTL                  time.Duration
	MaxTotalSessions     int
	MaxSessionsPerAPIKey int
}

// RegistryStats reports session registry occupancy.
type RegistryStats struct {
	TotalSessions int `json:"total_sessions"`
	MaxSessions   int `json:"max_sessions"`
	MaxPerAPIKey  int `json:"max_per_api_key"`
}

// SessionRegistry holds live agents keyed by opaque session IDs. Expired
// sessions are swept on every create. Safe for concurrent use; the agents it
// hands out are not, so callers serialize per session.
type SessionRegistry struct {
	mu        sync.Mutex
	factory   func() *coach.Agent
	ttl       time.Duration
	maxTotal  int
	maxPerKey int
	sessions  map[string]*SessionRecord

	now func() time.Time
}

// NewSessionRegistry creates a registry producing agents from factory.
func NewSessionRegistry(factory func() *coach.Agent, cfg RegistryConfig) *SessionRegistry {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	maxTotal := cfg.MaxTotalSessions
	if maxTotal <= 0 {
		maxTotal = DefaultMaxTotalSessions
	}
	maxPerKey := cfg.MaxSessionsPerAPIKey
	if maxPerKey <= 0 {
		maxPerKey = DefaultMaxSessionsPerAPIKey
	}
	slog.Debug("NewSessionRegistry invoked", "ttl", ttl, "max_total", maxTotal, "max_per_key", maxPerKey)
	return &SessionRegistry{
		factory:   factory,
		ttl:       ttl,
		maxTotal:  maxTotal,
		maxPerKey: maxPerKey,
		sessions:  make(map[string]*SessionRecord),
		now:       time.Now,
	}
}

// Create registers a new session for the given key hash and returns its ID.
// Expired sessions are swept first; capacity errors are ErrRegistryFull and
// ErrAPIKeyQuota.
func (r *SessionRegistry) Create(apiKeyHash string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.cleanupLocked()

	if len(r.sessions) >= r.maxTotal {
		slog.Error("Session registry full", "total", len(r.sessions), "max", r.maxTotal)
		return "", fmt.Errorf("%w (%d active)", ErrRegistryFull, len(r.sessions))
	}

	if apiKeyHash != "" {
		count := 0
		for _, record := range r.sessions {
			if record.APIKeyHash == apiKeyHash {
				count++
			}
		}
		if count >= r.maxPerKey {
			slog.Warn("API key session quota exceeded", "api_key_hash", apiKeyHash, "count", count, "max", r.maxPerKey)
			return "", fmt.Errorf("%w (%d active)", ErrAPIKeyQuota, count)
		}
	}

	id := uuid.New()
	sessionID := hex.EncodeToString(id[:])
	now := r.now()
	r.sessions[sessionID] = &SessionRecord{
		Agent:        r.factory(),
		CreatedAt:    now,
		LastActivity: now,
		APIKeyHash:   apiKeyHash,
	}
	slog.Info("Session created", "sessionID", sessionID, "total", len(r.sessions))
	return sessionID, nil
}

// Get returns the record for a session, refreshing its activity timestamp and
// bumping its message count. Returns nil when the session does not exist or
// has expired.
func (r *SessionRegistry) Get(sessionID string) *SessionRecord {
	r.mu.Lock()
	defer r.mu.Unlock()

	record, ok := r.sessions[sessionID]
	if !ok {
		return nil
	}
	now := r.now()
	if now.Sub(record.LastActivity) > r.ttl {
		delete(r.sessions, sessionID)
		slog.Info("Session expired on access", "sessionID", sessionID)
		return nil
	}
	record.LastActivity = now
	record.MessageCount++
	return record
}

// Delete removes a session. Unknown IDs are a no-op.
func (r *SessionRegistry) Delete(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	record, ok := r.sessions[sessionID]
	if !ok {
		return
	}
	delete(r.sessions, sessionID)
	slog.Info("Session deleted", "sessionID", sessionID, "total", len(r.sessions), "messages", record.MessageCount)
}

// Stats reports current registry occupancy and limits.
func (r *SessionRegistry) Stats() RegistryStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return RegistryStats{
		TotalSessions: len(r.sessions),
		MaxSessions:   r.maxTotal,
		MaxPerAPIKey:  r.maxPerKey,
	}
}

// cleanupLocked sweeps expired sessions. Caller holds the mutex.
func (r *SessionRegistry) cleanupLocked() {
	cutoff := r.now().Add(-r.ttl)
	removed := 0
	for id, record := range r.sessions {
		if record.LastActivity.Before(cutoff) {
			delete(r.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		slog.Info("Cleaned up expired sessions", "count", removed, "remaining", len(r.sessions))
	}
}
