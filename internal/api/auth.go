// This file implements API-key authentication for the coach endpoints.
package api

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"log/slog"
	"net/http"
	"os"
	"strings"
)

// apiKeyHashLength is how many hex characters of the key digest are kept for
// quota tracking and logging. Never the key itself.
const apiKeyHashLength = 12

// APIKeyAuth validates requests against a configured set of API keys.
type APIKeyAuth struct {
	validKeys []string
}

// NewAPIKeyAuth creates an authenticator over the given keys. An empty set
// rejects every request.
func NewAPIKeyAuth(keys []string) *APIKeyAuth {
	if len(keys) == 0 {
		slog.Warn("No API keys configured; all authenticated endpoints will reject requests")
	}
	return &APIKeyAuth{validKeys: keys}
}

// NewAPIKeyAuthFromEnv loads keys from the comma-separated API_KEYS variable.
func NewAPIKeyAuthFromEnv() *APIKeyAuth {
	var keys []string
	for _, key := range strings.Split(os.Getenv("API_KEYS"), ",") {
		if key = strings.TrimSpace(key); key != "" {
			keys = append(keys, key)
		}
	}
	slog.Debug("Loaded API keys from environment", "count", len(keys))
	return NewAPIKeyAuth(keys)
}

// Validate reports whether the provided key matches a configured key, using
// constant-time comparison.
func (a *APIKeyAuth) Validate(provided string) bool {
	if provided == "" || len(a.validKeys) == 0 {
		return false
	}
	valid := false
	for _, key := range a.validKeys {
		if subtle.ConstantTimeCompare([]byte(provided), []byte(key)) == 1 {
			valid = true
		}
	}
	return valid
}

// keyFromRequest extracts the API key from the X-API-Key header, falling back
// to an Authorization Bearer token.
func keyFromRequest(r *http.Request) string {
	if key := r.Header.Get("X-API-Key"); key != "" {
		return key
	}
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}

// hashAPIKey derives the short tracking hash for a key.
func hashAPIKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])[:apiKeyHashLength]
}
