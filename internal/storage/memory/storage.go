package memory

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/rasisbuldan/court-game-app-mobile-sub001/internal/model"
	"github.com/rasisbuldan/court-game-app-mobile-sub001/internal/storage"
)

// Storage is an in-memory implementation of the storage interface.
// Values are kept as encoded bytes so reloads exercise the same decode
// path as the durable backends (a snapshot survives a simulated restart
// byte-for-byte).
type Storage struct {
	mu sync.RWMutex

	operations []byte
	session    []byte
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

func (s *Storage) SaveOperations(ctx context.Context, ops []model.QueuedOperation) error {
	data, err := model.EncodeOperations(ops)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.operations = data
	return nil
}

func (s *Storage) LoadOperations(ctx context.Context) (model.OperationList, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return model.DecodeOperations(s.operations)
}

// SetRawOperations overwrites the stored snapshot bytes directly. Tests
// use it to simulate snapshots written by other app versions.
func (s *Storage) SetRawOperations(data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.operations = data
}

func (s *Storage) SaveSession(ctx context.Context, session *model.AuthSession) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = data
	return nil
}

func (s *Storage) LoadSession(ctx context.Context) (*model.AuthSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.session == nil {
		return nil, model.ErrSessionNotFound
	}
	var session model.AuthSession
	if err := json.Unmarshal(s.session, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *Storage) DeleteSession(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = nil
	return nil
}
