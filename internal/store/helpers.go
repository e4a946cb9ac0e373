package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/ahals42/Reframing-Retirement-AI-Coach/internal/models"
)

// nilIfEmpty returns nil if s is empty, otherwise returns s.
// Used for nullable database columns.
func nilIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// encodeHistory serializes a transcript for storage; empty transcripts encode
// to the empty string so the column stays NULL.
func encodeHistory(history []models.Message) (string, error) {
	if len(history) == 0 {
		return "", nil
	}
	data, err := json.Marshal(history)
	if err != nil {
		return "", fmt.Errorf("failed to encode history: %w", err)
	}
	return string(data), nil
}

// scanSnapshot scans a ConversationSnapshot from a single sql.Row.
func scanSnapshot(row *sql.Row) (*models.ConversationSnapshot, error) {
	var snapshot models.ConversationSnapshot
	var pendingQuestion, historyJSON sql.NullString
	err := row.Scan(
		&snapshot.SessionID, &snapshot.State.ProcessLayer, &snapshot.State.LayerConfidence,
		&pendingQuestion, &snapshot.State.Barrier, &snapshot.State.Activities,
		&snapshot.State.TimeAvailable, &historyJSON, &snapshot.MessageCount,
		&snapshot.CreatedAt, &snapshot.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	snapshot.State.PendingQuestion = pendingQuestion.String
	if historyJSON.Valid && historyJSON.String != "" {
		if err := json.Unmarshal([]byte(historyJSON.String), &snapshot.History); err != nil {
			return nil, fmt.Errorf("failed to decode history: %w", err)
		}
	}
	return &snapshot, nil
}
