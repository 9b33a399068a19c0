package factory

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/rasisbuldan/court-game-app-mobile-sub001/internal/model"
	remotememory "github.com/rasisbuldan/court-game-app-mobile-sub001/internal/remote/memory"
	"github.com/rasisbuldan/court-game-app-mobile-sub001/internal/testutil"
)

// IntegrationSuite drives the wired application end to end: account
// provisioning, offline queueing, and replay on reconnect
type IntegrationSuite struct {
	suite.Suite
	ctx context.Context
	app *TestApp
}

func TestIntegrationSuite(t *testing.T) {
	suite.Run(t, new(IntegrationSuite))
}

func (s *IntegrationSuite) SetupTest() {
	s.ctx = context.Background()
	s.app = NewTestApp()
	s.Require().NoError(s.app.Outbox.Initialize(s.ctx))
}

func (s *IntegrationSuite) TearDownTest() {
	s.app.Outbox.Cleanup()
}

func (s *IntegrationSuite) TestOfflineSessionLifecycle() {
	// Provision an account while online
	session, err := s.app.Account.SignUp(s.ctx, "organizer@example.com", "hunter22", "Organizer")
	s.Require().NoError(err)
	s.Require().NotNil(session)

	// Connection drops mid-tournament; score updates keep flowing into
	// the queue
	s.app.Connectivity.SetOnline(false)
	for i := 0; i < 3; i++ {
		s.app.MockRandom.QueueString(fmt.Sprintf("%08d", i))
		_, err := s.app.Outbox.Enqueue(s.ctx, "session-1", model.UpdateScorePayload{
			MatchID:    fmt.Sprintf("match-%d", i),
			Team1Score: 21,
			Team2Score: i,
		})
		s.Require().NoError(err)
	}
	s.Equal(3, s.app.Outbox.Length())
	s.Equal(0, s.app.RemoteMemory.Calls(remotememory.OpUpdateScore))

	// The queue is durable: a fresh load from storage sees all three
	list, err := s.app.Storage.LoadOperations(s.ctx)
	s.Require().NoError(err)
	s.Len(list.Operations, 3)

	// Reconnect: the outbox drains on its own
	s.app.Connectivity.SetOnline(true)
	s.Eventually(func() bool {
		return s.app.Outbox.Length() == 0
	}, time.Second, 5*time.Millisecond)

	s.Equal(3, s.app.RemoteMemory.Calls(remotememory.OpUpdateScore))
	s.Len(s.app.RemoteMemory.EventLog(), 3)
}

func (s *IntegrationSuite) TestDeviceLimitJourney() {
	session, err := s.app.Account.SignUp(s.ctx, "organizer@example.com", "hunter22", "Organizer")
	s.Require().NoError(err)
	s.Require().NoError(s.app.Account.SignOut(s.ctx))

	// Three other devices claim the slots, pushing ours out
	s.Require().NoError(s.app.RemoteMemory.RemoveDevice(s.ctx, session.UserID, "device-test"))
	for i := 0; i < 3; i++ {
		s.Require().NoError(s.app.RemoteMemory.UpsertDevice(s.ctx, model.DeviceRecord{
			ID:          model.DeviceID(fmt.Sprintf("tablet-%d", i)),
			UserID:      session.UserID,
			DisplayName: "Court Tablet",
		}))
	}

	result, err := s.app.Account.SignIn(s.ctx, "organizer@example.com", "hunter22")
	s.Require().NoError(err)
	s.Require().True(result.Suspended)
	s.Len(result.Devices, 3)

	// Free a slot and resume the parked sign-in
	s.Require().NoError(s.app.RemoteMemory.RemoveDevice(s.ctx, session.UserID, "tablet-0"))
	resumed, err := s.app.Account.ResumePendingAuth(s.ctx)
	s.Require().NoError(err)
	s.False(resumed.Suspended)
	s.Require().NotNil(resumed.Session)

	// Our device took the freed slot
	devices, err := s.app.RemoteMemory.ListDevices(s.ctx, session.UserID)
	s.Require().NoError(err)
	s.Len(devices, 3)
}

func (s *IntegrationSuite) TestQueueSurvivesAppRestart() {
	s.app.Connectivity.SetOnline(false)
	s.app.MockRandom.QueueString("aaaaaaaa")
	_, err := s.app.Outbox.Enqueue(s.ctx, "session-1", model.GenerateRoundPayload{
		RoundNumber: 2,
		RoundData:   []byte(`{"matches":["m1"]}`),
	})
	s.Require().NoError(err)
	s.app.Outbox.Cleanup()

	// A new app over the same storage picks the queue up where it left
	// off
	restarted := newWithDependencies(s.app.Storage, s.app.RemoteMemory, s.app.RemoteMemory,
		s.app.MockClock, s.app.MockRandom, Config{}, testutil.NopLogger())
	s.Require().NoError(restarted.Outbox.Initialize(s.ctx))
	defer restarted.Outbox.Cleanup()

	s.Equal(1, restarted.Outbox.Length())

	result, err := restarted.Outbox.Drain(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, result.Succeeded)
	s.Equal(1, s.app.RemoteMemory.Calls(remotememory.OpSaveRoundData))
}
