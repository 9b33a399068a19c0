package storage

import (
	"context"

	"github.com/rasisbuldan/court-game-app-mobile-sub001/internal/model"
)

// Storage is the durable local store the reliability layer writes through.
// Implementations must complete writes before returning: a crash right
// after SaveOperations returns must not lose the snapshot.
type Storage interface {
	// Queue snapshot: the full operation list is persisted as one unit
	// under a fixed key. The outbox service is the single writer.
	// LoadOperations reports unknown-kind entries via DroppedKinds
	// instead of failing the load.
	SaveOperations(ctx context.Context, ops []model.QueuedOperation) error
	LoadOperations(ctx context.Context) (model.OperationList, error)

	// Cached auth session
	SaveSession(ctx context.Context, session *model.AuthSession) error
	LoadSession(ctx context.Context) (*model.AuthSession, error)
	DeleteSession(ctx context.Context) error
}
