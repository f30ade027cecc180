package domain

import "time"

// Phase is the lifecycle state of the session state machine.
type Phase string

const (
	PhaseInitial        Phase = "initial"
	PhaseRestoring      Phase = "restoring"
	PhaseAnonymous      Phase = "anonymous"
	PhaseAuthenticating Phase = "authenticating"
	PhaseAuthenticated  Phase = "authenticated"
)

// SessionState is the read-only projection handed to consumers.
type SessionState struct {
	User      *Identity `json:"user"`
	Token     string    `json:"-"`
	IsLoading bool      `json:"isLoading"`
	LastError string    `json:"lastError,omitempty"`
	Phase     Phase     `json:"phase"`
}

// IsAuthenticated is true iff both the identity and the token are present.
func (s SessionState) IsAuthenticated() bool {
	return s.User != nil && s.Token != ""
}

// StoredSession is what the session store found in persistent storage.
// Corrupt is set when a value was present but could not be decoded.
type StoredSession struct {
	Identity   *Identity
	Token      string
	RememberMe bool
	Corrupt    bool
}

// Complete reports whether both halves of the identity/token pair are present.
func (s StoredSession) Complete() bool {
	return s.Identity != nil && s.Token != ""
}

// Empty reports whether nothing session-related was found.
func (s StoredSession) Empty() bool {
	return s.Identity == nil && s.Token == "" && !s.Corrupt
}

// SessionAction names the kind of cross-context session notification.
type SessionAction string

const (
	ActionLogin  SessionAction = "login"
	ActionLogout SessionAction = "logout"
)

// SessionMessage is published on the "auth" broadcast channel.
type SessionMessage struct {
	Action    SessionAction `json:"action"`
	User      *Identity     `json:"user,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
	Origin    string        `json:"origin"`
}

// StorageEvent reports that a persisted key changed (written or removed).
type StorageEvent struct {
	Key string `json:"key"`
}

// Result is the structured outcome of every session operation.
type Result struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// Succeeded builds a successful Result with an optional message.
func Succeeded(message string) Result {
	return Result{Success: true, Message: message}
}

// Failed builds a failed Result carrying a user-facing message.
func Failed(msg string) Result {
	return Result{Success: false, Error: msg}
}
