// Package outbox implements the offline mutation queue: writes made while
// disconnected are durably buffered and replayed in order once
// connectivity returns.
package outbox

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rasisbuldan/court-game-app-mobile-sub001/internal/connectivity"
	"github.com/rasisbuldan/court-game-app-mobile-sub001/internal/dependencies/clock"
	"github.com/rasisbuldan/court-game-app-mobile-sub001/internal/dependencies/random"
	"github.com/rasisbuldan/court-game-app-mobile-sub001/internal/model"
	"github.com/rasisbuldan/court-game-app-mobile-sub001/internal/remote"
	"github.com/rasisbuldan/court-game-app-mobile-sub001/internal/storage"
)

const (
	// opIDLength is the random suffix length of an operation id
	opIDLength = 8
	// opIDAlphabet is the suffix alphabet
	opIDAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
)

// Config holds outbox settings
type Config struct {
	// MaxRetries is the replay attempt budget per operation
	MaxRetries int
	// StatusDecay is how long a Synced status is shown before
	// collapsing back to idle
	StatusDecay time.Duration
}

// DefaultConfig returns default outbox configuration
func DefaultConfig() Config {
	return Config{
		MaxRetries:  model.MaxRetries,
		StatusDecay: 3 * time.Second,
	}
}

// Result aggregates one drain pass. Failed counts operations permanently
// dropped after exhausting their retry budget.
type Result struct {
	Succeeded int
	Failed    int
}

// Service is the offline mutation queue. It owns the durable snapshot
// exclusively: nothing else writes the operations key.
type Service struct {
	storage storage.Storage
	tables  remote.Tables
	source  connectivity.Source
	clock   clock.Clock
	random  random.Random
	cfg     Config
	logger  *slog.Logger

	mu          sync.Mutex
	ops         []model.QueuedOperation
	initialized bool
	draining    bool

	queueSubs  map[int]chan struct{}
	statusSubs map[int]chan model.SyncStatus
	nextSubID  int

	decayCancel context.CancelFunc

	connCancel  func()
	watcherDone chan struct{}
}

// New creates the outbox service. Call Initialize before use and Cleanup
// on teardown.
func New(
	store storage.Storage,
	tables remote.Tables,
	source connectivity.Source,
	clk clock.Clock,
	rnd random.Random,
	cfg Config,
	logger *slog.Logger,
) *Service {
	if cfg.MaxRetries == 0 {
		cfg = DefaultConfig()
	}
	return &Service{
		storage:    store,
		tables:     tables,
		source:     source,
		clock:      clk,
		random:     rnd,
		cfg:        cfg,
		logger:     logger.With(slog.String("component", "outbox")),
		queueSubs:  make(map[int]chan struct{}),
		statusSubs: make(map[int]chan model.SyncStatus),
	}
}

// Initialize loads the persisted snapshot and subscribes to connectivity
// transitions for auto-drain. Idempotent; call once per process lifetime.
func (s *Service) Initialize(ctx context.Context) error {
	s.mu.Lock()
	if s.initialized {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	list, err := s.storage.LoadOperations(ctx)
	if err != nil {
		return fmt.Errorf("loading queue snapshot: %w", err)
	}
	for _, kind := range list.DroppedKinds {
		s.logger.Warn("dropped queued operation with unrecognized kind",
			slog.String("kind", string(kind)))
	}

	connCh, connCancel := s.source.Subscribe()

	s.mu.Lock()
	s.ops = list.Operations
	s.initialized = true
	s.connCancel = connCancel
	s.watcherDone = make(chan struct{})
	s.mu.Unlock()

	// Unknown-kind entries were dropped; rewrite the snapshot so they
	// do not resurface on the next load.
	if len(list.DroppedKinds) > 0 {
		if err := s.persist(ctx); err != nil {
			return err
		}
	}

	go s.watchConnectivity(connCh)

	s.logger.Info("outbox initialized", slog.Int("pending", len(list.Operations)))
	return nil
}

// Cleanup releases the connectivity subscription and stops the auto-drain
// watcher. Must be called on teardown to avoid a dangling observer.
func (s *Service) Cleanup() {
	s.mu.Lock()
	cancel := s.connCancel
	done := s.watcherDone
	s.connCancel = nil
	if s.decayCancel != nil {
		s.decayCancel()
		s.decayCancel = nil
	}
	s.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

// Enqueue appends an operation with a fresh id and zero attempts,
// persisting the full snapshot before returning. The write is durable by
// the time the caller regains control.
func (s *Service) Enqueue(ctx context.Context, targetID model.SessionID, payload model.OperationPayload) (model.OperationID, error) {
	now := s.clock.Now()
	op := model.QueuedOperation{
		ID:         s.newOperationID(now),
		TargetID:   targetID,
		Payload:    payload,
		EnqueuedAt: now,
		Attempt:    0,
	}

	s.mu.Lock()
	s.ops = append(s.ops, op)
	err := s.persistLocked(ctx)
	if err != nil {
		// Keep memory consistent with the durable snapshot
		s.ops = s.ops[:len(s.ops)-1]
		s.mu.Unlock()
		return "", err
	}
	s.mu.Unlock()

	s.logger.Info("operation enqueued",
		slog.String("op_id", string(op.ID)),
		slog.String("kind", string(payload.Kind())),
		slog.String("session_id", string(targetID)))
	s.notifyQueueChanged()
	return op.ID, nil
}

// Length returns the number of pending operations
func (s *Service) Length() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ops)
}

// Operations returns a copy of the pending operations in enqueue order
func (s *Service) Operations() []model.QueuedOperation {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.QueuedOperation, len(s.ops))
	copy(out, s.ops)
	return out
}

// Drain replays pending operations in enqueue order, one at a time.
// A drain already in progress, or an empty queue, makes this a no-op.
// Operations enqueued during the pass belong to a future drain: the pass
// works off the snapshot taken here.
func (s *Service) Drain(ctx context.Context) (Result, error) {
	s.mu.Lock()
	if s.draining || len(s.ops) == 0 {
		s.mu.Unlock()
		return Result{}, nil
	}
	s.draining = true
	snapshot := make([]model.OperationID, len(s.ops))
	for i, op := range s.ops {
		snapshot[i] = op.ID
	}
	if s.decayCancel != nil {
		s.decayCancel()
		s.decayCancel = nil
	}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.draining = false
		s.mu.Unlock()
	}()

	s.notifyStatus(model.Syncing)
	s.logger.Info("drain started", slog.Int("pending", len(snapshot)))

	var res Result
	hadError := false
	for _, id := range snapshot {
		op, ok := s.lookup(id)
		if !ok {
			continue
		}

		err := s.apply(ctx, op)
		if err == nil {
			res.Succeeded++
			if perr := s.removeAndPersist(ctx, id); perr != nil {
				s.logger.Error("persisting snapshot after success",
					slog.String("op_id", string(id)),
					slog.String("error", perr.Error()))
			}
			s.notifyQueueChanged()
			continue
		}

		hadError = true
		removed, perr := s.recordFailure(ctx, id)
		if perr != nil {
			s.logger.Error("persisting snapshot after failure",
				slog.String("op_id", string(id)),
				slog.String("error", perr.Error()))
		}
		if removed {
			// Retry budget exhausted: the mutation is lost and only
			// surfaced through the aggregate count.
			res.Failed++
			s.logger.Warn("operation dropped after exhausting retries",
				slog.String("op_id", string(id)),
				slog.String("kind", string(op.Kind())),
				slog.String("error", err.Error()))
			s.notifyQueueChanged()
		} else {
			s.logger.Info("operation replay failed, will retry",
				slog.String("op_id", string(id)),
				slog.Int("attempt", op.Attempt+1),
				slog.String("error", err.Error()))
		}
	}

	if hadError {
		s.notifyStatus(model.SyncFailed)
	} else {
		s.notifyStatus(model.Synced)
		s.scheduleStatusDecay()
	}

	s.logger.Info("drain finished",
		slog.Int("succeeded", res.Succeeded),
		slog.Int("failed", res.Failed))
	return res, nil
}

// SubscribeQueueChanged registers a listener notified on enqueue and
// removal. Subscribers re-query Length/Operations themselves.
func (s *Service) SubscribeQueueChanged() (<-chan struct{}, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSubID
	s.nextSubID++
	ch := make(chan struct{}, 4)
	s.queueSubs[id] = ch

	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, ok := s.queueSubs[id]; ok {
			delete(s.queueSubs, id)
			close(ch)
		}
	}
}

// SubscribeSyncStatus registers a listener for sync status transitions
func (s *Service) SubscribeSyncStatus() (<-chan model.SyncStatus, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSubID
	s.nextSubID++
	ch := make(chan model.SyncStatus, 8)
	s.statusSubs[id] = ch

	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, ok := s.statusSubs[id]; ok {
			delete(s.statusSubs, id)
			close(ch)
		}
	}
}

// watchConnectivity drains automatically on an offline→online transition
func (s *Service) watchConnectivity(ch <-chan bool) {
	defer close(s.watcherDone)
	for online := range ch {
		if !online {
			continue
		}
		if s.Length() == 0 {
			continue
		}
		if _, err := s.Drain(context.Background()); err != nil {
			s.logger.Error("auto-drain failed", slog.String("error", err.Error()))
		}
	}
}

// apply performs the operation's primary table write plus the event-log
// insert carrying its human-readable description
func (s *Service) apply(ctx context.Context, op model.QueuedOperation) error {
	var err error
	switch p := op.Payload.(type) {
	case model.UpdateScorePayload:
		err = s.tables.UpdateScore(ctx, op.TargetID, p)
	case model.GenerateRoundPayload:
		err = s.tables.SaveRoundData(ctx, op.TargetID, p.RoundNumber, p.RoundData)
	case model.RegenerateRoundPayload:
		err = s.tables.SaveRoundData(ctx, op.TargetID, p.RoundNumber, p.RoundData)
	case model.UpdatePlayerStatusPayload:
		err = s.tables.UpdatePlayerStatus(ctx, op.TargetID, p)
	case model.ReassignPlayerPayload:
		err = s.tables.ReassignPlayer(ctx, op.TargetID, p)
	default:
		// Unreachable: the payload set is closed and snapshot decoding
		// rejects unknown kinds.
		return fmt.Errorf("%w: %T", model.ErrUnknownOperationKind, op.Payload)
	}
	if err != nil {
		return err
	}

	err = s.tables.AppendEventLog(ctx, model.EventLogEntry{
		SessionID:   op.TargetID,
		Kind:        op.Kind(),
		Description: op.Payload.Description(),
		At:          s.clock.Now(),
	})
	if err != nil && !remote.IsConflict(err) {
		return err
	}
	return nil
}

func (s *Service) lookup(id model.OperationID) (model.QueuedOperation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, op := range s.ops {
		if op.ID == id {
			return op, true
		}
	}
	return model.QueuedOperation{}, false
}

func (s *Service) removeAndPersist(ctx context.Context, id model.OperationID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLocked(id)
	return s.persistLocked(ctx)
}

// recordFailure increments the operation's attempt counter, removing it
// when the budget is exhausted. Returns whether it was removed.
func (s *Service) recordFailure(ctx context.Context, id model.OperationID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := false
	for i := range s.ops {
		if s.ops[i].ID != id {
			continue
		}
		s.ops[i].Attempt++
		if s.ops[i].Attempt >= s.cfg.MaxRetries {
			s.removeLocked(id)
			removed = true
		}
		break
	}
	return removed, s.persistLocked(ctx)
}

func (s *Service) removeLocked(id model.OperationID) {
	for i := range s.ops {
		if s.ops[i].ID == id {
			s.ops = append(s.ops[:i], s.ops[i+1:]...)
			return
		}
	}
}

func (s *Service) persist(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persistLocked(ctx)
}

func (s *Service) persistLocked(ctx context.Context) error {
	ops := make([]model.QueuedOperation, len(s.ops))
	copy(ops, s.ops)
	return s.storage.SaveOperations(ctx, ops)
}

func (s *Service) newOperationID(now time.Time) model.OperationID {
	return model.OperationID(fmt.Sprintf("op_%d_%s",
		now.UnixMilli(), s.random.String(opIDLength, opIDAlphabet)))
}

func (s *Service) notifyQueueChanged() {
	s.mu.Lock()
	subs := make([]chan struct{}, 0, len(s.queueSubs))
	for _, ch := range s.queueSubs {
		subs = append(subs, ch)
	}
	s.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- struct{}{}:
		default:
			// Coalesce: the subscriber re-queries state anyway
		}
	}
}

func (s *Service) notifyStatus(status model.SyncStatus) {
	s.mu.Lock()
	subs := make([]chan model.SyncStatus, 0, len(s.statusSubs))
	for _, ch := range s.statusSubs {
		subs = append(subs, ch)
	}
	s.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- status:
		default:
			s.logger.Warn("sync status dropped - subscriber buffer full")
		}
	}
}

// scheduleStatusDecay collapses a Synced status back to idle after the
// configured delay, unless a new drain starts first
func (s *Service) scheduleStatusDecay() {
	ctx, cancel := context.WithCancel(context.Background())
	s.mu.Lock()
	if s.decayCancel != nil {
		s.decayCancel()
	}
	s.decayCancel = cancel
	s.mu.Unlock()

	go func() {
		s.clock.Sleep(ctx, s.cfg.StatusDecay)
		if ctx.Err() != nil {
			return
		}
		s.mu.Lock()
		if s.decayCancel != nil {
			s.decayCancel = nil
		}
		s.mu.Unlock()
		s.notifyStatus(model.SyncIdle)
	}()
}
