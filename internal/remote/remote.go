// Package remote defines the client-side contract with the remote data
// service. The service itself is an external collaborator: this package is
// consumed by the outbox and the account saga, and implemented by the HTTP
// client and the in-process fake.
//
// All implementations classify failures into the explicit ErrorKind
// taxonomy at the call boundary; callers never inspect message text.
package remote

import (
	"context"

	"github.com/rasisbuldan/court-game-app-mobile-sub001/internal/model"
)

// Identity is the authentication surface of the remote data service
type Identity interface {
	// SignUp creates a new identity and returns its session
	SignUp(ctx context.Context, email, password string) (*model.AuthSession, error)

	// SignIn authenticates existing credentials
	SignIn(ctx context.Context, email, password string) (*model.AuthSession, error)

	// SignOut invalidates the session remotely. Local session state is
	// the caller's responsibility.
	SignOut(ctx context.Context, accessToken string) error

	// SessionFromTokens establishes a session from an OAuth token pair
	// extracted from a browser return URL
	SessionFromTokens(ctx context.Context, accessToken, refreshToken string) (*model.AuthSession, error)

	// Health reports whether the service is reachable; used by the
	// connectivity probe
	Health(ctx context.Context) error
}

// Tables is the table-write surface of the remote data service
type Tables interface {
	InsertProfile(ctx context.Context, p model.Profile) error
	GetProfile(ctx context.Context, userID model.UserID) (*model.Profile, error)
	InsertSettings(ctx context.Context, s model.Settings) error

	UpsertDevice(ctx context.Context, d model.DeviceRecord) error
	ListDevices(ctx context.Context, userID model.UserID) ([]model.DeviceRecord, error)
	RemoveDevice(ctx context.Context, userID model.UserID, deviceID model.DeviceID) error

	UpdateScore(ctx context.Context, sessionID model.SessionID, p model.UpdateScorePayload) error
	SaveRoundData(ctx context.Context, sessionID model.SessionID, roundNumber int, data []byte) error
	UpdatePlayerStatus(ctx context.Context, sessionID model.SessionID, p model.UpdatePlayerStatusPayload) error
	ReassignPlayer(ctx context.Context, sessionID model.SessionID, p model.ReassignPlayerPayload) error

	AppendEventLog(ctx context.Context, entry model.EventLogEntry) error
}

// Service bundles the two surfaces a fully wired client needs
type Service interface {
	Identity
	Tables
}
