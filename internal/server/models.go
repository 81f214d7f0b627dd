package server

import (
	"github.com/mindwell-labs/mindwell/internal/solve"
	"github.com/mindwell-labs/mindwell/internal/store"
)

// HTTPError is the generic error envelope returned by the server.
type HTTPError struct {
	Error string `json:"error"`
}

// AuthSignupRequest represents the signup payload.
type AuthSignupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthLoginRequest represents the login payload.
type AuthLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse carries a bearer token.
type TokenResponse struct {
	Token string `json:"token"`
}

// CreateSessionRequest starts a new Solve conversation.
type CreateSessionRequest struct {
	Title string `json:"title"`
}

// PostMessageRequest is one user turn.
type PostMessageRequest struct {
	Content string `json:"content"`
}

// PostMessageResponse returns the assistant reply plus routing detail. The
// crisis resource map is present only on blocked turns.
type PostMessageResponse struct {
	Session      store.Session     `json:"session"`
	Reply        store.ChatMessage `json:"reply"`
	PrimaryAgent solve.AgentName   `json:"primary_agent"`
	Blocked      bool              `json:"blocked"`
	BlockReason  string            `json:"block_reason,omitempty"`
	Resources    map[string]string `json:"resources,omitempty"`
}

// ProfileResponse exposes the stored problem profile for a session.
type ProfileResponse struct {
	SessionID     string               `json:"session_id"`
	SchemaVersion string               `json:"schema_version"`
	Profile       *solve.ProblemProfile `json:"profile"`
}
