package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// MaxRetries is the number of replay attempts an operation gets before it
// is dropped from the queue and counted as failed.
const MaxRetries = 3

// OperationID uniquely identifies a queued operation
type OperationID string

// OperationKind identifies the type of a queued mutation.
// This is a wire contract: kinds are persisted in the queue snapshot and
// dispatched to the matching remote table writes on replay.
type OperationKind string

const (
	OpUpdateScore        OperationKind = "update_score"
	OpGenerateRound      OperationKind = "generate_round"
	OpRegenerateRound    OperationKind = "regenerate_round"
	OpUpdatePlayerStatus OperationKind = "update_player_status"
	OpReassignPlayer     OperationKind = "reassign_player"
)

// OperationPayload is the closed set of payloads a queued operation can
// carry. One implementation per OperationKind; an unknown kind cannot be
// constructed in memory and is rejected when decoding a snapshot.
type OperationPayload interface {
	Kind() OperationKind
	// Description returns the human-readable summary written to the
	// session event log alongside the primary mutation.
	Description() string
}

// UpdateScorePayload records a score change for one match
type UpdateScorePayload struct {
	MatchID    string `json:"match_id"`
	Team1Score int    `json:"team1_score"`
	Team2Score int    `json:"team2_score"`
}

func (p UpdateScorePayload) Kind() OperationKind { return OpUpdateScore }

func (p UpdateScorePayload) Description() string {
	return fmt.Sprintf("Score updated to %d-%d", p.Team1Score, p.Team2Score)
}

// GenerateRoundPayload carries a newly generated round. The round data is
// produced by the pairing engine and shipped opaquely; the queue never
// inspects it.
type GenerateRoundPayload struct {
	RoundNumber int             `json:"round_number"`
	RoundData   json.RawMessage `json:"round_data"`
}

func (p GenerateRoundPayload) Kind() OperationKind { return OpGenerateRound }

func (p GenerateRoundPayload) Description() string {
	return fmt.Sprintf("Round %d generated", p.RoundNumber)
}

// RegenerateRoundPayload replaces an existing round's data
type RegenerateRoundPayload struct {
	RoundNumber int             `json:"round_number"`
	RoundData   json.RawMessage `json:"round_data"`
}

func (p RegenerateRoundPayload) Kind() OperationKind { return OpRegenerateRound }

func (p RegenerateRoundPayload) Description() string {
	return fmt.Sprintf("Round %d regenerated", p.RoundNumber)
}

// UpdatePlayerStatusPayload changes a player's availability in a session
type UpdatePlayerStatusPayload struct {
	PlayerID string `json:"player_id"`
	Status   string `json:"status"` // e.g. "active", "resting", "left"
}

func (p UpdatePlayerStatusPayload) Kind() OperationKind { return OpUpdatePlayerStatus }

func (p UpdatePlayerStatusPayload) Description() string {
	return fmt.Sprintf("Player status changed to %s", p.Status)
}

// ReassignPlayerPayload moves a player to a different match slot
type ReassignPlayerPayload struct {
	PlayerID string `json:"player_id"`
	MatchID  string `json:"match_id"`
	Position int    `json:"position"`
}

func (p ReassignPlayerPayload) Kind() OperationKind { return OpReassignPlayer }

func (p ReassignPlayerPayload) Description() string {
	return fmt.Sprintf("Player reassigned to match %s", p.MatchID)
}

// QueuedOperation is one durably buffered write awaiting replay.
// Invariant: Attempt never exceeds MaxRetries in a persisted snapshot;
// operations that exhaust their budget are removed, not stored.
type QueuedOperation struct {
	ID         OperationID
	TargetID   SessionID
	Payload    OperationPayload
	EnqueuedAt time.Time
	Attempt    int
}

// Kind returns the payload's operation kind
func (op QueuedOperation) Kind() OperationKind {
	return op.Payload.Kind()
}

// operationEnvelope is the persisted form of a QueuedOperation: a
// kind-discriminated JSON envelope, stored as one array under a single
// storage key. No schema versioning.
type operationEnvelope struct {
	ID         OperationID     `json:"id"`
	Kind       OperationKind   `json:"kind"`
	TargetID   SessionID       `json:"target_id"`
	Payload    json.RawMessage `json:"payload"`
	EnqueuedAt time.Time       `json:"enqueued_at"`
	Attempt    int             `json:"attempt"`
}

// MarshalJSON encodes the operation as a kind-discriminated envelope
func (op QueuedOperation) MarshalJSON() ([]byte, error) {
	payload, err := json.Marshal(op.Payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(operationEnvelope{
		ID:         op.ID,
		Kind:       op.Payload.Kind(),
		TargetID:   op.TargetID,
		Payload:    payload,
		EnqueuedAt: op.EnqueuedAt,
		Attempt:    op.Attempt,
	})
}

// UnmarshalJSON decodes a kind-discriminated envelope back into a typed
// payload. An unrecognized kind is a permanent decode failure
// (ErrUnknownOperationKind), never a retryable one.
func (op *QueuedOperation) UnmarshalJSON(data []byte) error {
	var env operationEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}

	var payload OperationPayload
	switch env.Kind {
	case OpUpdateScore:
		var p UpdateScorePayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return err
		}
		payload = p
	case OpGenerateRound:
		var p GenerateRoundPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return err
		}
		payload = p
	case OpRegenerateRound:
		var p RegenerateRoundPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return err
		}
		payload = p
	case OpUpdatePlayerStatus:
		var p UpdatePlayerStatusPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return err
		}
		payload = p
	case OpReassignPlayer:
		var p ReassignPlayerPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return err
		}
		payload = p
	default:
		return fmt.Errorf("%w: %q", ErrUnknownOperationKind, env.Kind)
	}

	op.ID = env.ID
	op.TargetID = env.TargetID
	op.Payload = payload
	op.EnqueuedAt = env.EnqueuedAt
	op.Attempt = env.Attempt
	return nil
}

// OperationList is a decoded queue snapshot. DroppedKinds records the
// kinds of any entries that were skipped because this build does not
// recognize them (a snapshot written by a newer app version).
type OperationList struct {
	Operations   []QueuedOperation
	DroppedKinds []OperationKind
}

// EncodeOperations serializes a snapshot as one JSON array
func EncodeOperations(ops []QueuedOperation) ([]byte, error) {
	return json.Marshal(ops)
}

// DecodeOperations decodes a persisted snapshot. Entries with an unknown
// kind are dropped rather than failing the whole load: they can never be
// applied, so letting them consume retry budget would only delay the
// entries that can.
func DecodeOperations(data []byte) (OperationList, error) {
	var list OperationList
	if len(data) == 0 {
		return list, nil
	}

	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return list, err
	}

	for _, raw := range raws {
		var op QueuedOperation
		err := json.Unmarshal(raw, &op)
		if errors.Is(err, ErrUnknownOperationKind) {
			var env operationEnvelope
			// Envelope decode succeeded once already; only the kind
			// dispatch failed.
			_ = json.Unmarshal(raw, &env)
			list.DroppedKinds = append(list.DroppedKinds, env.Kind)
			continue
		}
		if err != nil {
			return OperationList{}, err
		}
		list.Operations = append(list.Operations, op)
	}
	return list, nil
}
