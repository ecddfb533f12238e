package domain

import "time"

// UserRegisteredEvent represents the payload for auth.user.registered messages.
type UserRegisteredEvent struct {
	EventID      string
	UserID       string
	Email        string
	RegisteredAt time.Time
	Metadata     map[string]any
}

// SessionStartedEvent represents the payload for auth.session.started messages.
type SessionStartedEvent struct {
	EventID    string
	SessionID  string
	UserID     string
	DeviceType string
	IPAddress  *string
	UserAgent  *string
	LoginAt    time.Time
	Metadata   map[string]any
}

// SessionRevokedEvent represents the payload for auth.session.revoked messages.
type SessionRevokedEvent struct {
	EventID   string
	SessionID string
	UserID    string
	RevokedAt time.Time
	RevokedBy string
	Reason    string
	Metadata  map[string]any
}

// SessionReuseDetectedEvent represents the payload for auth.session.reuse_detected
// messages, emitted when a rotated-away refresh token is replayed.
type SessionReuseDetectedEvent struct {
	EventID    string
	SessionID  string
	UserID     string
	DetectedAt time.Time
	IPAddress  *string
	Metadata   map[string]any
}
