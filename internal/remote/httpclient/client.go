// Package httpclient implements the remote data service contract over
// its JSON HTTP API. Failures are classified into the remote error
// taxonomy at this boundary: callers branch on error kinds, never on
// message text.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rasisbuldan/court-game-app-mobile-sub001/internal/model"
	"github.com/rasisbuldan/court-game-app-mobile-sub001/internal/remote"
)

// Client talks to the remote data service over HTTP
type Client struct {
	baseURL    string
	apiKey     string
	token      string
	httpClient *http.Client
}

// Ensure Client implements the full remote contract
var _ remote.Service = (*Client)(nil)

// New creates a client for the given base URL
func New(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// SetToken sets the bearer token attached to authenticated requests
func (c *Client) SetToken(token string) {
	c.token = token
}

// errorEnvelope is the service's JSON error body
type errorEnvelope struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// do performs one JSON request/response round trip, classifying failures
func (c *Client) do(ctx context.Context, op, method, path string, body, result any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return remote.NewError(remote.KindUnknown, op, err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return remote.NewError(remote.KindUnknown, op, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-Api-Key", c.apiKey)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Transport-level failure: the quintessential retryable error
		return remote.NewError(remote.KindNetwork, op, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return remote.NewError(remote.KindNetwork, op, err)
	}

	if resp.StatusCode >= 400 {
		return remote.NewError(classifyStatus(resp.StatusCode), op, statusError(resp.StatusCode, respBody))
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return remote.NewError(remote.KindUnknown, op, fmt.Errorf("decoding response: %w", err))
		}
	}
	return nil
}

// classifyStatus maps an HTTP status to an error kind
func classifyStatus(status int) remote.ErrorKind {
	switch {
	case status == http.StatusConflict:
		return remote.KindConflict
	case status == http.StatusNotFound:
		return remote.KindNotFound
	case status == http.StatusBadRequest,
		status == http.StatusUnauthorized,
		status == http.StatusForbidden,
		status == http.StatusUnprocessableEntity:
		return remote.KindValidation
	case status == http.StatusTooManyRequests, status >= 500:
		// Server trouble is transient from the client's perspective
		return remote.KindNetwork
	default:
		return remote.KindUnknown
	}
}

func statusError(status int, body []byte) error {
	var env errorEnvelope
	if err := json.Unmarshal(body, &env); err == nil && env.Error.Message != "" {
		return fmt.Errorf("%s (%s)", env.Error.Message, env.Error.Code)
	}
	return fmt.Errorf("HTTP %d: %s", status, strings.TrimSpace(string(body)))
}

// Identity

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenPairRequest struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

func (c *Client) SignUp(ctx context.Context, email, password string) (*model.AuthSession, error) {
	var session model.AuthSession
	err := c.do(ctx, "identity.sign_up", http.MethodPost, "/auth/v1/signup",
		credentialsRequest{Email: email, Password: password}, &session)
	if err != nil {
		return nil, err
	}
	c.token = session.AccessToken
	return &session, nil
}

func (c *Client) SignIn(ctx context.Context, email, password string) (*model.AuthSession, error) {
	var session model.AuthSession
	err := c.do(ctx, "identity.sign_in", http.MethodPost, "/auth/v1/token",
		credentialsRequest{Email: email, Password: password}, &session)
	if err != nil {
		return nil, err
	}
	c.token = session.AccessToken
	return &session, nil
}

func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	prev := c.token
	c.token = accessToken
	err := c.do(ctx, "identity.sign_out", http.MethodPost, "/auth/v1/logout", nil, nil)
	if err != nil {
		c.token = prev
		return err
	}
	c.token = ""
	return nil
}

func (c *Client) SessionFromTokens(ctx context.Context, accessToken, refreshToken string) (*model.AuthSession, error) {
	var session model.AuthSession
	err := c.do(ctx, "identity.session_from_tokens", http.MethodPost, "/auth/v1/session",
		tokenPairRequest{AccessToken: accessToken, RefreshToken: refreshToken}, &session)
	if err != nil {
		return nil, err
	}
	c.token = session.AccessToken
	return &session, nil
}

func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, "identity.health", http.MethodGet, "/health", nil, nil)
}

// Tables

func (c *Client) InsertProfile(ctx context.Context, p model.Profile) error {
	return c.do(ctx, "tables.insert_profile", http.MethodPost, "/rest/v1/profiles", p, nil)
}

func (c *Client) GetProfile(ctx context.Context, userID model.UserID) (*model.Profile, error) {
	var p model.Profile
	err := c.do(ctx, "tables.get_profile", http.MethodGet,
		fmt.Sprintf("/rest/v1/profiles/%s", userID), nil, &p)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) InsertSettings(ctx context.Context, s model.Settings) error {
	return c.do(ctx, "tables.insert_settings", http.MethodPost, "/rest/v1/settings", s, nil)
}

func (c *Client) UpsertDevice(ctx context.Context, d model.DeviceRecord) error {
	return c.do(ctx, "tables.upsert_device", http.MethodPut,
		fmt.Sprintf("/rest/v1/devices/%s", d.ID), d, nil)
}

func (c *Client) ListDevices(ctx context.Context, userID model.UserID) ([]model.DeviceRecord, error) {
	var devices []model.DeviceRecord
	err := c.do(ctx, "tables.list_devices", http.MethodGet,
		fmt.Sprintf("/rest/v1/devices?user_id=%s", userID), nil, &devices)
	if err != nil {
		return nil, err
	}
	return devices, nil
}

func (c *Client) RemoveDevice(ctx context.Context, userID model.UserID, deviceID model.DeviceID) error {
	return c.do(ctx, "tables.remove_device", http.MethodDelete,
		fmt.Sprintf("/rest/v1/devices/%s?user_id=%s", deviceID, userID), nil, nil)
}

type roundDataRequest struct {
	RoundData json.RawMessage `json:"round_data"`
}

func (c *Client) UpdateScore(ctx context.Context, sessionID model.SessionID, p model.UpdateScorePayload) error {
	return c.do(ctx, "tables.update_score", http.MethodPatch,
		fmt.Sprintf("/rest/v1/sessions/%s/matches/%s/score", sessionID, p.MatchID), p, nil)
}

func (c *Client) SaveRoundData(ctx context.Context, sessionID model.SessionID, roundNumber int, data []byte) error {
	return c.do(ctx, "tables.save_round_data", http.MethodPut,
		fmt.Sprintf("/rest/v1/sessions/%s/rounds/%d", sessionID, roundNumber),
		roundDataRequest{RoundData: data}, nil)
}

func (c *Client) UpdatePlayerStatus(ctx context.Context, sessionID model.SessionID, p model.UpdatePlayerStatusPayload) error {
	return c.do(ctx, "tables.update_player_status", http.MethodPatch,
		fmt.Sprintf("/rest/v1/sessions/%s/players/%s/status", sessionID, p.PlayerID), p, nil)
}

func (c *Client) ReassignPlayer(ctx context.Context, sessionID model.SessionID, p model.ReassignPlayerPayload) error {
	return c.do(ctx, "tables.reassign_player", http.MethodPatch,
		fmt.Sprintf("/rest/v1/sessions/%s/players/%s/assignment", sessionID, p.PlayerID), p, nil)
}

func (c *Client) AppendEventLog(ctx context.Context, entry model.EventLogEntry) error {
	return c.do(ctx, "tables.append_event_log", http.MethodPost, "/rest/v1/event_log", entry, nil)
}
