package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type OperationSuite struct {
	suite.Suite
}

func TestOperationSuite(t *testing.T) {
	suite.Run(t, new(OperationSuite))
}

func (s *OperationSuite) TestRoundTripScore() {
	op := QueuedOperation{
		ID:       "op_1",
		TargetID: "session-1",
		Payload: UpdateScorePayload{
			MatchID:    "match-1",
			Team1Score: 21,
			Team2Score: 15,
		},
		EnqueuedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Attempt:    2,
	}

	data, err := json.Marshal(op)
	s.Require().NoError(err)

	var decoded QueuedOperation
	s.Require().NoError(json.Unmarshal(data, &decoded))
	s.Equal(op.ID, decoded.ID)
	s.Equal(op.TargetID, decoded.TargetID)
	s.Equal(op.Attempt, decoded.Attempt)
	s.Equal(OpUpdateScore, decoded.Kind())

	payload, ok := decoded.Payload.(UpdateScorePayload)
	s.Require().True(ok)
	s.Equal(21, payload.Team1Score)
	s.Equal(15, payload.Team2Score)
}

func (s *OperationSuite) TestRoundTripRound() {
	op := QueuedOperation{
		ID:       "op_2",
		TargetID: "session-1",
		Payload: GenerateRoundPayload{
			RoundNumber: 3,
			RoundData:   json.RawMessage(`{"matches":[]}`),
		},
	}

	data, err := json.Marshal(op)
	s.Require().NoError(err)

	var decoded QueuedOperation
	s.Require().NoError(json.Unmarshal(data, &decoded))
	s.Equal(OpGenerateRound, decoded.Kind())

	payload, ok := decoded.Payload.(GenerateRoundPayload)
	s.Require().True(ok)
	s.Equal(3, payload.RoundNumber)
	s.JSONEq(`{"matches":[]}`, string(payload.RoundData))
}

func (s *OperationSuite) TestUnknownKindRejected() {
	data := []byte(`{"id":"op_3","kind":"teleport_player","target_id":"session-1","payload":{}}`)

	var decoded QueuedOperation
	err := json.Unmarshal(data, &decoded)
	s.ErrorIs(err, ErrUnknownOperationKind)
}

func (s *OperationSuite) TestDecodeOperationsSkipsUnknownKinds() {
	ops := []QueuedOperation{
		{ID: "op_1", TargetID: "session-1", Payload: UpdateScorePayload{MatchID: "m1"}},
		{ID: "op_2", TargetID: "session-1", Payload: UpdatePlayerStatusPayload{PlayerID: "p1", Status: "resting"}},
	}
	data, err := EncodeOperations(ops)
	s.Require().NoError(err)

	// Splice an unrecognized kind into the snapshot, as a newer app
	// version would have written
	var raw []json.RawMessage
	s.Require().NoError(json.Unmarshal(data, &raw))
	raw = append(raw[:1], append([]json.RawMessage{
		json.RawMessage(`{"id":"op_x","kind":"future_thing","target_id":"session-1","payload":{}}`),
	}, raw[1:]...)...)
	spliced, err := json.Marshal(raw)
	s.Require().NoError(err)

	list, err := DecodeOperations(spliced)
	s.Require().NoError(err)
	s.Len(list.Operations, 2)
	s.Equal(OperationID("op_1"), list.Operations[0].ID)
	s.Equal(OperationID("op_2"), list.Operations[1].ID)
	s.Equal([]OperationKind{"future_thing"}, list.DroppedKinds)
}

func (s *OperationSuite) TestDecodeOperationsEmpty() {
	list, err := DecodeOperations(nil)
	s.Require().NoError(err)
	s.Empty(list.Operations)
	s.Empty(list.DroppedKinds)
}

func (s *OperationSuite) TestDescriptions() {
	s.Equal("Score updated to 21-15", UpdateScorePayload{Team1Score: 21, Team2Score: 15}.Description())
	s.Equal("Round 2 generated", GenerateRoundPayload{RoundNumber: 2}.Description())
	s.Equal("Round 2 regenerated", RegenerateRoundPayload{RoundNumber: 2}.Description())
	s.Equal("Player status changed to resting", UpdatePlayerStatusPayload{Status: "resting"}.Description())
	s.Equal("Player reassigned to match m2", ReassignPlayerPayload{MatchID: "m2"}.Description())
}
