// Package account implements the provisioning saga: sign-up as a
// multi-step sequence of remote writes with retry, compensation on
// unrecoverable failure, and a device-count admission gate on sign-in.
package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rasisbuldan/court-game-app-mobile-sub001/internal/dependencies/clock"
	"github.com/rasisbuldan/court-game-app-mobile-sub001/internal/model"
	"github.com/rasisbuldan/court-game-app-mobile-sub001/internal/remote"
	"github.com/rasisbuldan/court-game-app-mobile-sub001/internal/retry"
	"github.com/rasisbuldan/court-game-app-mobile-sub001/internal/storage"
)

// Errors
var (
	// ErrAccountCreationFailed is the fatal sign-up outcome after the
	// critical profile step exhausts its retries and the saga rolls back
	ErrAccountCreationFailed = errors.New("account creation failed")

	// ErrAuthInProgress means another sign-in/sign-up is already running
	ErrAuthInProgress = errors.New("another authentication attempt is in progress")

	// ErrNoPendingAuth means there is no suspended sign-in to resume
	ErrNoPendingAuth = errors.New("no suspended sign-in to resume")

	// ErrNoOAuthTokens means the OAuth return URL carried no token pair
	ErrNoOAuthTokens = errors.New("no oauth tokens in return url")
)

// Config holds saga behavior settings
type Config struct {
	// DeviceLimit is the admission-control bound on active devices
	DeviceLimit int
	// Device identifies the device this client runs on; registered
	// (best-effort) after sign-up and admitted sign-in
	Device model.DeviceRecord
	// BaseDelay is the linear backoff unit (delay = attempt × BaseDelay)
	BaseDelay time.Duration
	// IdentityRetries is the extra attempt budget for identity
	// creation and credential authentication (network errors only)
	IdentityRetries int
	// ProfileRetries is the extra attempt budget for the critical
	// profile insert
	ProfileRetries int
	// BestEffortRetries is the extra attempt budget for the
	// non-critical settings and device steps
	BestEffortRetries int
	// ProgressDecay is how long the Complete marker is shown before
	// clearing
	ProgressDecay time.Duration
}

// DefaultConfig returns default saga configuration
func DefaultConfig() Config {
	return Config{
		DeviceLimit:       3,
		BaseDelay:         500 * time.Millisecond,
		IdentityRetries:   2,
		ProfileRetries:    3,
		BestEffortRetries: 2,
		ProgressDecay:     2 * time.Second,
	}
}

// SignInResult is the outcome of a sign-in or OAuth completion.
// Suspended means admission control captured the attempt; Devices then
// carries the active device list for the removal UI.
type SignInResult struct {
	Session   *model.AuthSession
	Suspended bool
	Devices   []model.DeviceRecord
}

// Service orchestrates account provisioning and session bootstrap
type Service struct {
	identity remote.Identity
	tables   remote.Tables
	storage  storage.Storage
	clock    clock.Clock
	cfg      Config
	logger   *slog.Logger

	mu       sync.Mutex
	inFlight bool
	pending  *model.PendingAuth
	progress model.SignUpProgress

	progressSubs map[int]chan model.SignUpProgress
	deviceSubs   map[int]chan model.DeviceLimitEvent
	nextSubID    int

	progressDecayCancel context.CancelFunc
}

// New creates the account service
func New(
	identity remote.Identity,
	tables remote.Tables,
	store storage.Storage,
	clk clock.Clock,
	cfg Config,
	logger *slog.Logger,
) *Service {
	if cfg.DeviceLimit == 0 {
		def := DefaultConfig()
		def.Device = cfg.Device
		cfg = def
	}
	return &Service{
		identity:     identity,
		tables:       tables,
		storage:      store,
		clock:        clk,
		cfg:          cfg,
		logger:       logger.With(slog.String("component", "account")),
		progressSubs: make(map[int]chan model.SignUpProgress),
		deviceSubs:   make(map[int]chan model.DeviceLimitEvent),
	}
}

// SignUp runs the provisioning saga: identity → profile (critical) →
// settings (best-effort) → device (best-effort). Exhausting the profile
// step's retries rolls back to a signed-out state and surfaces
// ErrAccountCreationFailed; the remote identity itself is not deleted.
func (s *Service) SignUp(ctx context.Context, email, password, displayName string) (*model.AuthSession, error) {
	if err := s.begin(); err != nil {
		return nil, err
	}
	defer s.end()

	// Step 1: create the identity. Only network-classified failures are
	// retried; anything else (taken email, weak password) is final.
	s.setProgress(model.ProgressCreatingIdentity)
	var session *model.AuthSession
	err := retry.Do(ctx, s.clock, s.identityPolicy(), remote.IsNetwork, func(ctx context.Context) error {
		var err error
		session, err = s.identity.SignUp(ctx, email, password)
		return err
	})
	if err != nil {
		s.setProgress(model.ProgressNone)
		return nil, fmt.Errorf("creating identity: %w", err)
	}

	if err := s.storage.SaveSession(ctx, session); err != nil {
		s.setProgress(model.ProgressNone)
		return nil, fmt.Errorf("persisting session: %w", err)
	}

	// Step 2 (critical): profile row keyed by the new identity.
	// A duplicate-key conflict means another process got there first,
	// which is success for our purposes.
	s.setProgress(model.ProgressCreatingProfile)
	profile := model.Profile{
		UserID:      session.UserID,
		DisplayName: displayName,
		Email:       email,
		CreatedAt:   s.clock.Now(),
	}
	err = retry.Do(ctx, s.clock, s.profilePolicy(), retry.Any, func(ctx context.Context) error {
		err := s.tables.InsertProfile(ctx, profile)
		if remote.IsConflict(err) {
			return nil
		}
		return err
	})
	if err != nil {
		s.rollbackSignUp(ctx, session)
		return nil, fmt.Errorf("%w: %v", ErrAccountCreationFailed, err)
	}

	// Step 3 (best-effort): default preferences. Exhaustion is logged
	// and skipped, never surfaced.
	s.setProgress(model.ProgressCreatingSettings)
	s.insertSettingsBestEffort(ctx, session.UserID)

	// Step 4 (best-effort): register this device
	s.setProgress(model.ProgressRegisteringDevice)
	s.registerDeviceBestEffort(ctx, session.UserID)

	// Step 5: done. The marker stays visible briefly for the UI, then
	// clears.
	s.setProgress(model.ProgressComplete)
	s.scheduleProgressDecay()

	s.logger.Info("sign-up complete", slog.String("user_id", string(session.UserID)))
	return session, nil
}

// SignIn authenticates credentials and runs the device admission gate.
// When the gate suspends the attempt, the credentials are parked as the
// single PendingAuth, the local session is cleared, and the result
// carries the device list; device registration is skipped.
func (s *Service) SignIn(ctx context.Context, email, password string) (*SignInResult, error) {
	if err := s.begin(); err != nil {
		return nil, err
	}
	defer s.end()

	return s.signInLocked(ctx, email, password)
}

// signInLocked runs sign-in with the in-flight guard already held
func (s *Service) signInLocked(ctx context.Context, email, password string) (*SignInResult, error) {
	var session *model.AuthSession
	err := retry.Do(ctx, s.clock, s.identityPolicy(), remote.IsNetwork, func(ctx context.Context) error {
		var err error
		session, err = s.identity.SignIn(ctx, email, password)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("authenticating: %w", err)
	}

	if err := s.storage.SaveSession(ctx, session); err != nil {
		return nil, fmt.Errorf("persisting session: %w", err)
	}

	suspended, devices, err := s.admit(ctx, session, &model.PendingAuth{Email: email, Password: password})
	if err != nil {
		return nil, err
	}
	if suspended {
		return &SignInResult{Suspended: true, Devices: devices}, nil
	}

	s.registerDeviceBestEffort(ctx, session.UserID)
	return &SignInResult{Session: session}, nil
}

// CompleteOAuth finishes a browser-based sign-in: tokens are extracted
// from the return URL (query string first, fragment only as fallback), a
// session is established, then the same admission and device steps as
// sign-in run, followed by an idempotent profile-existence check.
func (s *Service) CompleteOAuth(ctx context.Context, returnURL string) (*SignInResult, error) {
	if err := s.begin(); err != nil {
		return nil, err
	}
	defer s.end()

	access, refresh, err := ExtractOAuthTokens(returnURL)
	if err != nil {
		return nil, err
	}

	var session *model.AuthSession
	err = retry.Do(ctx, s.clock, s.identityPolicy(), remote.IsNetwork, func(ctx context.Context) error {
		var err error
		session, err = s.identity.SessionFromTokens(ctx, access, refresh)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("establishing session: %w", err)
	}

	if err := s.storage.SaveSession(ctx, session); err != nil {
		return nil, fmt.Errorf("persisting session: %w", err)
	}

	// No password to park: a suspended OAuth sign-in is retried by the
	// user re-running the browser flow.
	suspended, devices, err := s.admit(ctx, session, nil)
	if err != nil {
		return nil, err
	}
	if suspended {
		return &SignInResult{Suspended: true, Devices: devices}, nil
	}

	s.registerDeviceBestEffort(ctx, session.UserID)
	s.ensureProfileBestEffort(ctx, session)

	return &SignInResult{Session: session}, nil
}

// ResumePendingAuth replays a sign-in suspended by admission control,
// after the user has freed a device slot externally. The parked
// credentials are cleared before the replay; a second limit hit parks
// them again.
func (s *Service) ResumePendingAuth(ctx context.Context) (*SignInResult, error) {
	if err := s.begin(); err != nil {
		return nil, err
	}
	defer s.end()

	s.mu.Lock()
	pending := s.pending
	s.pending = nil
	s.mu.Unlock()

	if pending == nil {
		return nil, ErrNoPendingAuth
	}

	s.logger.Info("resuming suspended sign-in", slog.String("email", pending.Email))
	return s.signInLocked(ctx, pending.Email, pending.Password)
}

// DismissPendingAuth drops a suspended sign-in without replaying it
func (s *Service) DismissPendingAuth() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = nil
}

// HasPendingAuth reports whether a suspended sign-in is parked
func (s *Service) HasPendingAuth() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending != nil
}

// SignOut invalidates the session remotely (best-effort) and clears the
// local copy
func (s *Service) SignOut(ctx context.Context) error {
	session, err := s.storage.LoadSession(ctx)
	if err != nil && !errors.Is(err, model.ErrSessionNotFound) {
		return err
	}
	if session != nil {
		if err := s.identity.SignOut(ctx, session.AccessToken); err != nil {
			s.logger.Warn("remote sign-out failed", slog.String("error", err.Error()))
		}
	}
	s.setProgress(model.ProgressNone)
	return s.storage.DeleteSession(ctx)
}

// Session returns the locally persisted session, if any
func (s *Service) Session(ctx context.Context) (*model.AuthSession, error) {
	return s.storage.LoadSession(ctx)
}

// Progress returns the current sign-up progress marker
func (s *Service) Progress() model.SignUpProgress {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.progress
}

// SubscribeProgress registers a listener for sign-up progress transitions
func (s *Service) SubscribeProgress() (<-chan model.SignUpProgress, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSubID
	s.nextSubID++
	ch := make(chan model.SignUpProgress, 8)
	s.progressSubs[id] = ch

	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, ok := s.progressSubs[id]; ok {
			delete(s.progressSubs, id)
			close(ch)
		}
	}
}

// SubscribeDeviceLimit registers a listener for admission-control
// suspensions; events carry the active device list
func (s *Service) SubscribeDeviceLimit() (<-chan model.DeviceLimitEvent, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSubID
	s.nextSubID++
	ch := make(chan model.DeviceLimitEvent, 4)
	s.deviceSubs[id] = ch

	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, ok := s.deviceSubs[id]; ok {
			delete(s.deviceSubs, id)
			close(ch)
		}
	}
}

// admit runs the device-count gate. On suspension it parks pending (when
// given), clears the local session so no authenticated state survives,
// and emits the device-limit event.
func (s *Service) admit(ctx context.Context, session *model.AuthSession, pending *model.PendingAuth) (bool, []model.DeviceRecord, error) {
	devices, err := s.tables.ListDevices(ctx, session.UserID)
	if err != nil {
		return false, nil, fmt.Errorf("querying devices: %w", err)
	}

	// A device that is already registered re-admits itself; it holds a
	// slot rather than needing a new one.
	for _, d := range devices {
		if d.ID == s.cfg.Device.ID {
			return false, devices, nil
		}
	}

	if len(devices) < s.cfg.DeviceLimit {
		return false, devices, nil
	}

	s.mu.Lock()
	s.pending = pending
	s.mu.Unlock()

	if err := s.storage.DeleteSession(ctx); err != nil {
		return false, nil, fmt.Errorf("clearing session: %w", err)
	}

	s.logger.Info("sign-in suspended by device limit",
		slog.Int("devices", len(devices)),
		slog.Int("limit", s.cfg.DeviceLimit))
	s.notifyDeviceLimit(model.DeviceLimitEvent{Devices: devices, Limit: s.cfg.DeviceLimit})
	return true, devices, nil
}

// rollbackSignUp compensates a failed critical step: the local session is
// invalidated and the progress marker cleared. The remote identity is
// left in place.
func (s *Service) rollbackSignUp(ctx context.Context, session *model.AuthSession) {
	s.logger.Error("sign-up rollback: profile creation exhausted retries",
		slog.String("user_id", string(session.UserID)))
	if err := s.storage.DeleteSession(ctx); err != nil {
		s.logger.Error("rollback: clearing session", slog.String("error", err.Error()))
	}
	s.setProgress(model.ProgressNone)
}

func (s *Service) insertSettingsBestEffort(ctx context.Context, userID model.UserID) {
	err := retry.Do(ctx, s.clock, s.bestEffortPolicy(), retry.Any, func(ctx context.Context) error {
		err := s.tables.InsertSettings(ctx, model.DefaultSettings(userID))
		if remote.IsConflict(err) {
			return nil
		}
		return err
	})
	if err != nil {
		// Non-critical: the app falls back to defaults until the next
		// settings write
		s.logger.Warn("settings creation skipped", slog.String("error", err.Error()))
	}
}

func (s *Service) registerDeviceBestEffort(ctx context.Context, userID model.UserID) {
	device := s.cfg.Device
	device.UserID = userID
	device.LastActiveAt = s.clock.Now()

	err := retry.Do(ctx, s.clock, s.bestEffortPolicy(), retry.Any, func(ctx context.Context) error {
		err := s.tables.UpsertDevice(ctx, device)
		if remote.IsConflict(err) {
			return nil
		}
		return err
	})
	if err != nil {
		s.logger.Warn("device registration skipped", slog.String("error", err.Error()))
	}
}

// ensureProfileBestEffort is the OAuth variant of profile provisioning:
// read first, insert only when absent, tolerate a concurrent insert
func (s *Service) ensureProfileBestEffort(ctx context.Context, session *model.AuthSession) {
	_, err := s.tables.GetProfile(ctx, session.UserID)
	if err == nil {
		return
	}
	if !remote.IsNotFound(err) {
		s.logger.Warn("profile check skipped", slog.String("error", err.Error()))
		return
	}

	profile := model.Profile{
		UserID:      session.UserID,
		DisplayName: session.Email,
		Email:       session.Email,
		CreatedAt:   s.clock.Now(),
	}
	err = retry.Do(ctx, s.clock, s.bestEffortPolicy(), retry.Any, func(ctx context.Context) error {
		err := s.tables.InsertProfile(ctx, profile)
		if remote.IsConflict(err) {
			return nil
		}
		return err
	})
	if err != nil {
		s.logger.Warn("profile provisioning skipped", slog.String("error", err.Error()))
	}
}

// begin acquires the single-flight guard: concurrent sign-in/sign-up
// invocations fail fast instead of racing on PendingAuth and the
// progress marker
func (s *Service) begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight {
		return ErrAuthInProgress
	}
	s.inFlight = true
	return nil
}

func (s *Service) end() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight = false
}

func (s *Service) setProgress(p model.SignUpProgress) {
	s.mu.Lock()
	s.progress = p
	if s.progressDecayCancel != nil && p != model.ProgressNone {
		s.progressDecayCancel()
		s.progressDecayCancel = nil
	}
	subs := make([]chan model.SignUpProgress, 0, len(s.progressSubs))
	for _, ch := range s.progressSubs {
		subs = append(subs, ch)
	}
	s.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- p:
		default:
		}
	}
}

func (s *Service) notifyDeviceLimit(ev model.DeviceLimitEvent) {
	s.mu.Lock()
	subs := make([]chan model.DeviceLimitEvent, 0, len(s.deviceSubs))
	for _, ch := range s.deviceSubs {
		subs = append(subs, ch)
	}
	s.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- ev:
		default:
			s.logger.Warn("device-limit event dropped - subscriber buffer full")
		}
	}
}

// scheduleProgressDecay clears the Complete marker after a short delay so
// the UI can show the finished state
func (s *Service) scheduleProgressDecay() {
	ctx, cancel := context.WithCancel(context.Background())
	s.mu.Lock()
	if s.progressDecayCancel != nil {
		s.progressDecayCancel()
	}
	s.progressDecayCancel = cancel
	s.mu.Unlock()

	go func() {
		s.clock.Sleep(ctx, s.cfg.ProgressDecay)
		if ctx.Err() != nil {
			return
		}
		s.mu.Lock()
		s.progressDecayCancel = nil
		cleared := s.progress == model.ProgressComplete
		if cleared {
			s.progress = model.ProgressNone
		}
		subs := make([]chan model.SignUpProgress, 0, len(s.progressSubs))
		for _, ch := range s.progressSubs {
			subs = append(subs, ch)
		}
		s.mu.Unlock()

		if !cleared {
			return
		}
		for _, ch := range subs {
			select {
			case ch <- model.ProgressNone:
			default:
			}
		}
	}()
}

func (s *Service) identityPolicy() retry.Policy {
	return retry.Policy{
		MaxAttempts: 1 + s.cfg.IdentityRetries,
		BaseDelay:   s.cfg.BaseDelay,
		Strategy:    retry.BackoffLinear,
	}
}

func (s *Service) profilePolicy() retry.Policy {
	return retry.Policy{
		MaxAttempts: 1 + s.cfg.ProfileRetries,
		BaseDelay:   s.cfg.BaseDelay,
		Strategy:    retry.BackoffLinear,
	}
}

func (s *Service) bestEffortPolicy() retry.Policy {
	return retry.Policy{
		MaxAttempts: 1 + s.cfg.BestEffortRetries,
		BaseDelay:   s.cfg.BaseDelay,
		Strategy:    retry.BackoffLinear,
	}
}
