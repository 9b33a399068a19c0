package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/rasisbuldan/court-game-app-mobile-sub001/internal/model"
)

type StorageSuite struct {
	suite.Suite
	storage *Storage
	ctx     context.Context
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.storage = New()
	s.ctx = context.Background()
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
			Attempt:    1,
		},
		{
			ID:       "op_2",
			TargetID: "session-1",
			Payload:  model.UpdatePlayerStatusPayload{PlayerID: "p1", Status: "resting"},
		},
	}

	s.Require().NoError(s.storage.SaveOperations(s.ctx, ops))

	list, err := s.storage.LoadOperations(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(list.Operations, 2)
	s.Equal(model.OperationID("op_1"), list.Operations[0].ID)
	s.Equal(1, list.Operations[0].Attempt)
	s.Equal(model.OperationID("op_2"), list.Operations[1].ID)

	payload, ok := list.Operations[0].Payload.(model.UpdateScorePayload)
	s.Require().True(ok)
	s.Equal(21, payload.Team1Score)
}

func (s *StorageSuite) TestLoadOperationsEmpty() {
	list, err := s.storage.LoadOperations(s.ctx)
	s.Require().NoError(err)
	s.Empty(list.Operations)
}

func (s *StorageSuite) TestSaveOperationsOverwrites() {
	ops := []model.QueuedOperation{
		{ID: "op_1", TargetID: "session-1", Payload: model.UpdateScorePayload{MatchID: "m1"}},
	}
	s.Require().NoError(s.storage.SaveOperations(s.ctx, ops))
	s.Require().NoError(s.storage.SaveOperations(s.ctx, nil))

	list, err := s.storage.LoadOperations(s.ctx)
	s.Require().NoError(err)
	s.Empty(list.Operations)
}

func (s *StorageSuite) TestUnknownKindsDroppedOnLoad() {
	s.storage.SetRawOperations([]byte(`[
		{"id":"op_1","kind":"update_score","target_id":"session-1","payload":{"match_id":"m1"},"enqueued_at":"2026-03-01T12:00:00Z","attempt":0},
		{"id":"op_2","kind":"future_thing","target_id":"session-1","payload":{},"enqueued_at":"2026-03-01T12:00:00Z","attempt":0}
	]`))

	list, err := s.storage.LoadOperations(s.ctx)
	s.Require().NoError(err)
	s.Len(list.Operations, 1)
	s.Equal([]model.OperationKind{"future_thing"}, list.DroppedKinds)
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
	s.Equal(session.AccessToken, loaded.AccessToken)
}

func (s *StorageSuite) TestLoadSessionNotFound() {
	_, err := s.storage.LoadSession(s.ctx)
	s.ErrorIs(err, model.ErrSessionNotFound)
}

func (s *StorageSuite) TestDeleteSession() {
	session := &model.AuthSession{UserID: "user-1", Email: "alice@example.com"}
	s.Require().NoError(s.storage.SaveSession(s.ctx, session))

	s.Require().NoError(s.storage.DeleteSession(s.ctx))

	_, err := s.storage.LoadSession(s.ctx)
	s.ErrorIs(err, model.ErrSessionNotFound)
}
