package model

import "time"

// UserID uniquely identifies a user in the remote identity service
type UserID string

// SessionID uniquely identifies a tournament play session
type SessionID string

// DeviceID uniquely identifies a registered device
type DeviceID string

// AuthSession is the token pair held for the lifetime of an
// authenticated session. Persisted locally so the app survives restarts;
// destroyed on sign-out or saga rollback.
type AuthSession struct {
	UserID       UserID    `json:"user_id"`
	Email        string    `json:"email"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// DeviceRecord is one registered device for a user. Read-only from the
// saga's perspective; removal happens through external user action.
type DeviceRecord struct {
	ID           DeviceID  `json:"id"`
	UserID       UserID    `json:"user_id"`
	DisplayName  string    `json:"display_name"`
	LastActiveAt time.Time `json:"last_active_at"`
}

// Profile is the user's profile row, keyed by identity id
type Profile struct {
	UserID      UserID    `json:"user_id"`
	DisplayName string    `json:"display_name"`
	Email       string    `json:"email"`
	CreatedAt   time.Time `json:"created_at"`
}

// Settings is the user's default preferences row
type Settings struct {
	UserID             UserID `json:"user_id"`
	DefaultMatchFormat string `json:"default_match_format"`
	NotifyResults      bool   `json:"notify_results"`
	Theme              string `json:"theme"`
}

// DefaultSettings returns the preferences written during sign-up
func DefaultSettings(userID UserID) Settings {
	return Settings{
		UserID:             userID,
		DefaultMatchFormat: "best_of_3",
		NotifyResults:      true,
		Theme:              "system",
	}
}

// EventLogEntry is one append-only event-log row describing a mutation
// in human-readable form
type EventLogEntry struct {
	SessionID   SessionID     `json:"session_id"`
	Kind        OperationKind `json:"kind"`
	Description string        `json:"description"`
	At          time.Time     `json:"at"`
}

// PendingAuth holds credentials captured when sign-in is suspended by the
// device-count gate. In memory only, never persisted; at most one exists
// at a time, cleared on resume or dismissal.
type PendingAuth struct {
	Email    string
	Password string
}

// SignUpProgress is the transient UI-facing projection of the sign-up
// saga's current step. Not persisted.
type SignUpProgress string

const (
	ProgressNone              SignUpProgress = ""
	ProgressCreatingIdentity  SignUpProgress = "creating_identity"
	ProgressCreatingProfile   SignUpProgress = "creating_profile"
	ProgressCreatingSettings  SignUpProgress = "creating_settings"
	ProgressRegisteringDevice SignUpProgress = "registering_device"
	ProgressComplete          SignUpProgress = "complete"
)
