// Package models defines API request/response structures for the coach HTTP surface.
package models

// SessionCreateResponse is returned by POST /sessions.
type SessionCreateResponse struct {
	SessionID string `json:"session_id"`
}

// DeleteSessionResponse is returned by DELETE /sessions/{id}.
type DeleteSessionResponse struct {
	Message string `json:"message"`
}

// MessageRequest is the body of POST /sessions/{id}/messages.
type MessageRequest struct {
	Text string `json:"text"`
}

// StreamEvent is one newline-delimited JSON event on the message stream.
// Type is "token", "error", or "done".
type StreamEvent struct {
	Type  string            `json:"type"`
	Text  string            `json:"text,omitempty"`
	Error string            `json:"error,omitempty"`
	State map[string]string `json:"state,omitempty"`
}

// APIResponse is a generic envelope for non-streaming endpoints.
type APIResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// Error builds an error envelope.
func Error(message string) APIResponse {
	return APIResponse{Status: "error", Message: message}
}

// OK builds a success envelope.
func OK(message string) APIResponse {
	return APIResponse{Status: "ok", Message: message}
}
