package connectivity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/rasisbuldan/court-game-app-mobile-sub001/internal/dependencies/clock"
	remotememory "github.com/rasisbuldan/court-game-app-mobile-sub001/internal/remote/memory"
	"github.com/rasisbuldan/court-game-app-mobile-sub001/internal/testutil"
)

type MonitorSuite struct {
	suite.Suite
	monitor *Monitor
}

func TestMonitorSuite(t *testing.T) {
	suite.Run(t, new(MonitorSuite))
}

func (s *MonitorSuite) SetupTest() {
	s.monitor = NewMonitor(false, testutil.NopLogger())
}

func (s *MonitorSuite) TestInitialState() {
	s.False(s.monitor.Online())
	s.True(NewMonitor(true, testutil.NopLogger()).Online())
}

func (s *MonitorSuite) TestTransitionNotifiesSubscribers() {
	ch, cancel := s.monitor.Subscribe()
	defer cancel()

	s.monitor.SetOnline(true)
	s.True(s.monitor.Online())

	select {
	case online := <-ch:
		s.True(online)
	case <-time.After(time.Second):
		s.Fail("expected transition notification")
	}
}

func (s *MonitorSuite) TestSameStateIsNoOp() {
	ch, cancel := s.monitor.Subscribe()
	defer cancel()

	s.monitor.SetOnline(false)

	select {
	case <-ch:
		s.Fail("no notification expected for a repeated state")
	default:
	}
}

func (s *MonitorSuite) TestCancelledSubscriptionStopsDelivery() {
	ch, cancel := s.monitor.Subscribe()
	cancel()

	// Channel is closed on cancel; no panic on further transitions
	s.monitor.SetOnline(true)
	_, open := <-ch
	s.False(open)
}

func (s *MonitorSuite) TestSlowSubscriberDoesNotBlockWriter() {
	_, cancel := s.monitor.Subscribe()
	defer cancel()

	// More transitions than the subscriber buffer holds; SetOnline must
	// never stall
	for i := 0; i < 20; i++ {
		s.monitor.SetOnline(i%2 == 0)
	}
}

type ProbeSuite struct {
	suite.Suite
	remote  *remotememory.Service
	monitor *Monitor
	probe   *Probe
}

func TestProbeSuite(t *testing.T) {
	suite.Run(t, new(ProbeSuite))
}

func (s *ProbeSuite) SetupTest() {
	clk := clock.New()
	s.remote = remotememory.New(clk)
	s.monitor = NewMonitor(false, testutil.NopLogger())
	s.probe = NewProbe(s.monitor, s.remote, clk, ProbeConfig{
		Interval: 5 * time.Millisecond,
		Timeout:  time.Second,
	}, testutil.NopLogger())
}

func (s *ProbeSuite) TestProbeTracksHealth() {
	s.probe.Start()
	defer s.probe.Stop()

	s.Eventually(s.monitor.Online, time.Second, 5*time.Millisecond)

	s.remote.SetHealthy(false)
	s.Eventually(func() bool { return !s.monitor.Online() }, time.Second, 5*time.Millisecond)

	s.remote.SetHealthy(true)
	s.Eventually(s.monitor.Online, time.Second, 5*time.Millisecond)
}
