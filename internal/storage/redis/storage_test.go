package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"github.com/rasisbuldan/court-game-app-mobile-sub001/internal/model"
)

type StorageSuite struct {
	suite.Suite
	mini    *miniredis.Miniredis
	storage *Storage
	ctx     context.Context
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.mini = miniredis.RunT(s.T())

	client := redis.NewClient(&redis.Options{
		Addr: s.mini.Addr(),
	})

	s.storage = NewWithClient(client, DefaultConfig())
	s.ctx = context.Background()
}

func (s *StorageSuite) TearDownTest() {
	if s.storage != nil {
		_ = s.storage.Close()
	}
	if s.mini != nil {
		s.mini.Close()
	}
}

// Queue snapshot tests

func (s *StorageSuite) TestSaveAndLoadOperations() {
	ops := []model.QueuedOperation{
		{
			ID:       "op_1",
			TargetID: "session-1",
			Payload: model.UpdateScorePayload{
				MatchID:    "match-1",
				Team1Score: 21,
				Team2Score: 15,
			},
			EnqueuedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		},
		{
			ID:       "op_2",
			TargetID: "session-1",
			Payload:  model.ReassignPlayerPayload{PlayerID: "p1", MatchID: "m2", Position: 1},
			Attempt:  2,
		},
	}

	s.Require().NoError(s.storage.SaveOperations(s.ctx, ops))

	list, err := s.storage.LoadOperations(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(list.Operations, 2)
	s.Equal(model.OperationID("op_1"), list.Operations[0].ID)
	s.Equal(model.OperationID("op_2"), list.Operations[1].ID)
	s.Equal(2, list.Operations[1].Attempt)
}

func (s *StorageSuite) TestLoadOperationsEmpty() {
	list, err := s.storage.LoadOperations(s.ctx)
	s.Require().NoError(err)
	s.Empty(list.Operations)
}

func (s *StorageSuite) TestOperationsSnapshotNeverExpires() {
	ops := []model.QueuedOperation{
		{ID: "op_1", TargetID: "session-1", Payload: model.UpdateScorePayload{MatchID: "m1"}},
	}
	s.Require().NoError(s.storage.SaveOperations(s.ctx, ops))

	// A long offline period must not evict buffered writes
	s.mini.FastForward(30 * 24 * time.Hour)

	list, err := s.storage.LoadOperations(s.ctx)
	s.Require().NoError(err)
	s.Len(list.Operations, 1)
}

// Session tests

func (s *StorageSuite) TestSaveAndLoadSession() {
	session := &model.AuthSession{
		UserID:       "user-1",
		Email:        "alice@example.com",
		AccessToken:  "access",
		RefreshToken: "refresh",
		ExpiresAt:    time.Date(2026, 3, 1, 13, 0, 0, 0, time.UTC),
	}

	s.Require().NoError(s.storage.SaveSession(s.ctx, session))

	loaded, err := s.storage.LoadSession(s.ctx)
	s.Require().NoError(err)
	s.Equal(session.UserID, loaded.UserID)
	s.Equal(session.RefreshToken, loaded.RefreshToken)
}

func (s *StorageSuite) TestLoadSessionNotFound() {
	_, err := s.storage.LoadSession(s.ctx)
	s.ErrorIs(err, model.ErrSessionNotFound)
}

func (s *StorageSuite) TestSessionTTL() {
	cfg := DefaultConfig()
	cfg.SessionTTL = time.Hour
	expiring := NewWithClient(redis.NewClient(&redis.Options{Addr: s.mini.Addr()}), cfg)
	defer expiring.Close()

	session := &model.AuthSession{UserID: "user-1", Email: "alice@example.com"}
	s.Require().NoError(expiring.SaveSession(s.ctx, session))

	s.mini.FastForward(2 * time.Hour)

	_, err := expiring.LoadSession(s.ctx)
	s.ErrorIs(err, model.ErrSessionNotFound)
}

func (s *StorageSuite) TestDeleteSession() {
	session := &model.AuthSession{UserID: "user-1", Email: "alice@example.com"}
	s.Require().NoError(s.storage.SaveSession(s.ctx, session))

	s.Require().NoError(s.storage.DeleteSession(s.ctx))

	_, err := s.storage.LoadSession(s.ctx)
	s.ErrorIs(err, model.ErrSessionNotFound)
}
