package httpclient

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/rasisbuldan/court-game-app-mobile-sub001/internal/dependencies/clock"
	"github.com/rasisbuldan/court-game-app-mobile-sub001/internal/model"
	"github.com/rasisbuldan/court-game-app-mobile-sub001/internal/remote"
	remotememory "github.com/rasisbuldan/court-game-app-mobile-sub001/internal/remote/memory"
	"github.com/rasisbuldan/court-game-app-mobile-sub001/internal/stubserver"
	"github.com/rasisbuldan/court-game-app-mobile-sub001/internal/testutil"
)

// ClientSuite exercises the HTTP client against the stub server, which is
// the same surface the production service exposes
type ClientSuite struct {
	suite.Suite
	ctx    context.Context
	remote *remotememory.Service
	server *httptest.Server
	client *Client
}

func TestClientSuite(t *testing.T) {
	suite.Run(t, new(ClientSuite))
}

func (s *ClientSuite) SetupTest() {
	s.ctx = context.Background()
	s.remote = remotememory.New(clock.New())
	s.server = httptest.NewServer(stubserver.NewRouter(s.remote, testutil.NopLogger()))
	s.client = New(s.server.URL, "test-api-key")
}

func (s *ClientSuite) TearDownTest() {
	s.server.Close()
}

func (s *ClientSuite) TestSignUpAndSignIn() {
	session, err := s.client.SignUp(s.ctx, "alice@example.com", "hunter22")
	s.Require().NoError(err)
	s.Equal("alice@example.com", session.Email)
	s.NotEmpty(session.AccessToken)

	session, err = s.client.SignIn(s.ctx, "alice@example.com", "hunter22")
	s.Require().NoError(err)
	s.Equal("alice@example.com", session.Email)
}

func (s *ClientSuite) TestSignInBadCredentialsIsValidation() {
	_, err := s.client.SignIn(s.ctx, "nobody@example.com", "wrong")
	s.Require().Error(err)
	s.Equal(remote.KindValidation, remote.KindOf(err))
}

func (s *ClientSuite) TestProfileConflictMapsFrom409() {
	session, err := s.client.SignUp(s.ctx, "alice@example.com", "hunter22")
	s.Require().NoError(err)

	profile := model.Profile{UserID: session.UserID, DisplayName: "Alice", Email: session.Email}
	s.Require().NoError(s.client.InsertProfile(s.ctx, profile))

	err = s.client.InsertProfile(s.ctx, profile)
	s.Require().Error(err)
	s.Equal(remote.KindConflict, remote.KindOf(err))
	s.True(remote.IsConflict(err))
}

func (s *ClientSuite) TestGetProfileNotFoundMapsFrom404() {
	_, err := s.client.GetProfile(s.ctx, "no-such-user")
	s.Require().Error(err)
	s.Equal(remote.KindNotFound, remote.KindOf(err))
	s.True(remote.IsNotFound(err))
}

func (s *ClientSuite) TestTransportErrorIsNetwork() {
	s.server.Close()

	_, err := s.client.SignIn(s.ctx, "alice@example.com", "hunter22")
	s.Require().Error(err)
	s.Equal(remote.KindNetwork, remote.KindOf(err))
	s.True(remote.IsNetwork(err))
}

func (s *ClientSuite) TestServerErrorIsNetwork() {
	s.remote.SetHealthy(false)

	err := s.client.Health(s.ctx)
	s.Require().Error(err)
	s.Equal(remote.KindNetwork, remote.KindOf(err))
}

func (s *ClientSuite) TestDeviceLifecycle() {
	session, err := s.client.SignUp(s.ctx, "alice@example.com", "hunter22")
	s.Require().NoError(err)

	device := model.DeviceRecord{
		ID:           "device-1",
		UserID:       session.UserID,
		DisplayName:  "Phone",
		LastActiveAt: time.Now().UTC(),
	}
	s.Require().NoError(s.client.UpsertDevice(s.ctx, device))

	devices, err := s.client.ListDevices(s.ctx, session.UserID)
	s.Require().NoError(err)
	s.Require().Len(devices, 1)
	s.Equal(model.DeviceID("device-1"), devices[0].ID)

	s.Require().NoError(s.client.RemoveDevice(s.ctx, session.UserID, "device-1"))

	devices, err = s.client.ListDevices(s.ctx, session.UserID)
	s.Require().NoError(err)
	s.Empty(devices)
}

func (s *ClientSuite) TestTableWritesAndEventLog() {
	s.Require().NoError(s.client.UpdateScore(s.ctx, "session-1", model.UpdateScorePayload{
		MatchID:    "match-1",
		Team1Score: 21,
		Team2Score: 15,
	}))
	s.Require().NoError(s.client.SaveRoundData(s.ctx, "session-1", 2, []byte(`{"matches":[]}`)))
	s.Require().NoError(s.client.UpdatePlayerStatus(s.ctx, "session-1", model.UpdatePlayerStatusPayload{
		PlayerID: "p1",
		Status:   "resting",
	}))
	s.Require().NoError(s.client.ReassignPlayer(s.ctx, "session-1", model.ReassignPlayerPayload{
		PlayerID: "p1",
		MatchID:  "match-2",
		Position: 1,
	}))
	s.Require().NoError(s.client.AppendEventLog(s.ctx, model.EventLogEntry{
		SessionID:   "session-1",
		Kind:        model.OpUpdateScore,
		Description: "Score updated to 21-15",
		At:          time.Now().UTC(),
	}))

	log := s.remote.EventLog()
	s.Require().Len(log, 1)
	s.Equal("Score updated to 21-15", log[0].Description)
}

func (s *ClientSuite) TestSessionFromTokens() {
	access, refresh := s.remote.GrantOAuth("bob@example.com")

	session, err := s.client.SessionFromTokens(s.ctx, access, refresh)
	s.Require().NoError(err)
	s.Equal("bob@example.com", session.Email)
}

func (s *ClientSuite) TestSignOut() {
	session, err := s.client.SignUp(s.ctx, "alice@example.com", "hunter22")
	s.Require().NoError(err)

	s.Require().NoError(s.client.SignOut(s.ctx, session.AccessToken))
}
