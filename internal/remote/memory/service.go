// Package memory is an in-process implementation of the remote data
// service contract. It backs the stub server, the CLI's local mode, and
// the service tests, which script failures through FailNext.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/rasisbuldan/court-game-app-mobile-sub001/internal/dependencies/clock"
	"github.com/rasisbuldan/court-game-app-mobile-sub001/internal/model"
	"github.com/rasisbuldan/court-game-app-mobile-sub001/internal/remote"
)

// Operation names used for call counting and failure injection
const (
	OpSignUp            = "identity.sign_up"
	OpSignIn            = "identity.sign_in"
	OpSignOut           = "identity.sign_out"
	OpSessionFromTokens = "identity.session_from_tokens"
	OpHealth            = "identity.health"

	OpInsertProfile      = "tables.insert_profile"
	OpGetProfile         = "tables.get_profile"
	OpInsertSettings     = "tables.insert_settings"
	OpUpsertDevice       = "tables.upsert_device"
	OpListDevices        = "tables.list_devices"
	OpRemoveDevice       = "tables.remove_device"
	OpUpdateScore        = "tables.update_score"
	OpSaveRoundData      = "tables.save_round_data"
	OpUpdatePlayerStatus = "tables.update_player_status"
	OpReassignPlayer     = "tables.reassign_player"
	OpAppendEventLog     = "tables.append_event_log"
)

const sessionDuration = time.Hour

type user struct {
	id           model.UserID
	email        string
	passwordHash string
}

type failureScript struct {
	remaining int
	kind      remote.ErrorKind
}

type sessionKey struct {
	sessionID model.SessionID
	entityID  string
}

// Service is the in-memory remote data service
type Service struct {
	clock clock.Clock

	mu            sync.Mutex
	usersByEmail  map[string]*user
	accessTokens  map[string]model.UserID
	refreshTokens map[string]model.UserID
	profiles      map[model.UserID]model.Profile
	settings      map[model.UserID]model.Settings
	devices       map[model.UserID]map[model.DeviceID]model.DeviceRecord
	scores        map[sessionKey]model.UpdateScorePayload
	rounds        map[sessionKey][]byte
	statuses      map[sessionKey]string
	assignments   map[sessionKey]model.ReassignPlayerPayload
	eventLog      []model.EventLogEntry

	healthy  bool
	failures map[string]*failureScript
	calls    map[string]int
}

// Ensure Service implements the full remote contract
var _ remote.Service = (*Service)(nil)

// New creates an empty in-memory remote service
func New(clk clock.Clock) *Service {
	return &Service{
		clock:         clk,
		usersByEmail:  make(map[string]*user),
		accessTokens:  make(map[string]model.UserID),
		refreshTokens: make(map[string]model.UserID),
		profiles:      make(map[model.UserID]model.Profile),
		settings:      make(map[model.UserID]model.Settings),
		devices:       make(map[model.UserID]map[model.DeviceID]model.DeviceRecord),
		scores:        make(map[sessionKey]model.UpdateScorePayload),
		rounds:        make(map[sessionKey][]byte),
		statuses:      make(map[sessionKey]string),
		assignments:   make(map[sessionKey]model.ReassignPlayerPayload),
		healthy:       true,
		failures:      make(map[string]*failureScript),
		calls:         make(map[string]int),
	}
}

// Test hooks

// FailNext makes the next n calls to op fail with the given kind
func (s *Service) FailNext(op string, n int, kind remote.ErrorKind) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[op] = &failureScript{remaining: n, kind: kind}
}

// Calls returns how many times op has been invoked (including injected
// failures)
func (s *Service) Calls(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

// SetHealthy controls the Health check outcome
func (s *Service) SetHealthy(healthy bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.healthy = healthy
}

// GrantOAuth registers an identity as if it had completed an external
// OAuth flow and returns the token pair the return URL would carry
func (s *Service) GrantOAuth(email string) (accessToken, refreshToken string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.usersByEmail[email]
	if !ok {
		u = &user{id: model.UserID(uuid.NewString()), email: email}
		s.usersByEmail[email] = u
	}
	accessToken = uuid.NewString()
	refreshToken = uuid.NewString()
	s.accessTokens[accessToken] = u.id
	s.refreshTokens[refreshToken] = u.id
	return accessToken, refreshToken
}

// EventLog returns a copy of the append-only event log
func (s *Service) EventLog() []model.EventLogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.EventLogEntry, len(s.eventLog))
	copy(out, s.eventLog)
	return out
}

// scripted bumps the call counter and returns an injected failure when
// one is scheduled. Callers must hold s.mu.
func (s *Service) scripted(op string) error {
	s.calls[op]++
	f, ok := s.failures[op]
	if !ok || f.remaining == 0 {
		return nil
	}
	f.remaining--
	return remote.NewError(f.kind, op, errors.New("injected failure"))
}

// Identity

func (s *Service) SignUp(ctx context.Context, email, password string) (*model.AuthSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.scripted(OpSignUp); err != nil {
		return nil, err
	}

	if _, exists := s.usersByEmail[email]; exists {
		return nil, remote.NewError(remote.KindValidation, OpSignUp,
			errors.New("email already registered"))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, remote.NewError(remote.KindUnknown, OpSignUp, err)
	}

	u := &user{
		id:           model.UserID(uuid.NewString()),
		email:        email,
		passwordHash: string(hash),
	}
	s.usersByEmail[email] = u
	return s.mintSessionLocked(u), nil
}

func (s *Service) SignIn(ctx context.Context, email, password string) (*model.AuthSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.scripted(OpSignIn); err != nil {
		return nil, err
	}

	u, ok := s.usersByEmail[email]
	if !ok {
		return nil, remote.NewError(remote.KindValidation, OpSignIn,
			errors.New("invalid credentials"))
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.passwordHash), []byte(password)); err != nil {
		return nil, remote.NewError(remote.KindValidation, OpSignIn,
			errors.New("invalid credentials"))
	}
	return s.mintSessionLocked(u), nil
}

func (s *Service) SignOut(ctx context.Context, accessToken string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.scripted(OpSignOut); err != nil {
		return err
	}
	delete(s.accessTokens, accessToken)
	return nil
}

func (s *Service) SessionFromTokens(ctx context.Context, accessToken, refreshToken string) (*model.AuthSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.scripted(OpSessionFromTokens); err != nil {
		return nil, err
	}

	userID, ok := s.accessTokens[accessToken]
	if !ok {
		userID, ok = s.refreshTokens[refreshToken]
	}
	if !ok {
		return nil, remote.NewError(remote.KindValidation, OpSessionFromTokens,
			errors.New("unrecognized tokens"))
	}

	for _, u := range s.usersByEmail {
		if u.id == userID {
			return s.mintSessionLocked(u), nil
		}
	}
	return nil, remote.NewError(remote.KindValidation, OpSessionFromTokens,
		errors.New("identity no longer exists"))
}

func (s *Service) Health(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.scripted(OpHealth); err != nil {
		return err
	}
	if !s.healthy {
		return remote.NewError(remote.KindNetwork, OpHealth, errors.New("service unavailable"))
	}
	return nil
}

func (s *Service) mintSessionLocked(u *user) *model.AuthSession {
	access := uuid.NewString()
	refresh := uuid.NewString()
	s.accessTokens[access] = u.id
	s.refreshTokens[refresh] = u.id
	return &model.AuthSession{
		UserID:       u.id,
		Email:        u.email,
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    s.clock.Now().Add(sessionDuration),
	}
}

// Tables

func (s *Service) InsertProfile(ctx context.Context, p model.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.scripted(OpInsertProfile); err != nil {
		return err
	}
	if _, exists := s.profiles[p.UserID]; exists {
		return remote.NewError(remote.KindConflict, OpInsertProfile,
			fmt.Errorf("profile exists for user %s", p.UserID))
	}
	s.profiles[p.UserID] = p
	return nil
}

func (s *Service) GetProfile(ctx context.Context, userID model.UserID) (*model.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.scripted(OpGetProfile); err != nil {
		return nil, err
	}
	p, ok := s.profiles[userID]
	if !ok {
		return nil, remote.NewError(remote.KindNotFound, OpGetProfile, model.ErrProfileNotFound)
	}
	return &p, nil
}

func (s *Service) InsertSettings(ctx context.Context, st model.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.scripted(OpInsertSettings); err != nil {
		return err
	}
	if _, exists := s.settings[st.UserID]; exists {
		return remote.NewError(remote.KindConflict, OpInsertSettings,
			fmt.Errorf("settings exist for user %s", st.UserID))
	}
	s.settings[st.UserID] = st
	return nil
}

func (s *Service) UpsertDevice(ctx context.Context, d model.DeviceRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.scripted(OpUpsertDevice); err != nil {
		return err
	}
	if s.devices[d.UserID] == nil {
		s.devices[d.UserID] = make(map[model.DeviceID]model.DeviceRecord)
	}
	s.devices[d.UserID][d.ID] = d
	return nil
}

func (s *Service) ListDevices(ctx context.Context, userID model.UserID) ([]model.DeviceRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.scripted(OpListDevices); err != nil {
		return nil, err
	}
	out := make([]model.DeviceRecord, 0, len(s.devices[userID]))
	for _, d := range s.devices[userID] {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Service) RemoveDevice(ctx context.Context, userID model.UserID, deviceID model.DeviceID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.scripted(OpRemoveDevice); err != nil {
		return err
	}
	if _, ok := s.devices[userID][deviceID]; !ok {
		return remote.NewError(remote.KindNotFound, OpRemoveDevice, model.ErrDeviceNotFound)
	}
	delete(s.devices[userID], deviceID)
	return nil
}

func (s *Service) UpdateScore(ctx context.Context, sessionID model.SessionID, p model.UpdateScorePayload) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.scripted(OpUpdateScore); err != nil {
		return err
	}
	s.scores[sessionKey{sessionID, p.MatchID}] = p
	return nil
}

func (s *Service) SaveRoundData(ctx context.Context, sessionID model.SessionID, roundNumber int, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.scripted(OpSaveRoundData); err != nil {
		return err
	}
	s.rounds[sessionKey{sessionID, fmt.Sprintf("round_%d", roundNumber)}] = data
	return nil
}

func (s *Service) UpdatePlayerStatus(ctx context.Context, sessionID model.SessionID, p model.UpdatePlayerStatusPayload) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.scripted(OpUpdatePlayerStatus); err != nil {
		return err
	}
	s.statuses[sessionKey{sessionID, p.PlayerID}] = p.Status
	return nil
}

func (s *Service) ReassignPlayer(ctx context.Context, sessionID model.SessionID, p model.ReassignPlayerPayload) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.scripted(OpReassignPlayer); err != nil {
		return err
	}
	s.assignments[sessionKey{sessionID, p.PlayerID}] = p
	return nil
}

func (s *Service) AppendEventLog(ctx context.Context, entry model.EventLogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.scripted(OpAppendEventLog); err != nil {
		return err
	}
	s.eventLog = append(s.eventLog, entry)
	return nil
}
