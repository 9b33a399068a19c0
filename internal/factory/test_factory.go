package factory

import (
	"time"

	"github.com/rasisbuldan/court-game-app-mobile-sub001/internal/dependencies/mocks"
	"github.com/rasisbuldan/court-game-app-mobile-sub001/internal/model"
	remotememory "github.com/rasisbuldan/court-game-app-mobile-sub001/internal/remote/memory"
	"github.com/rasisbuldan/court-game-app-mobile-sub001/internal/services/account"
	storagememory "github.com/rasisbuldan/court-game-app-mobile-sub001/internal/storage/memory"
	"github.com/rasisbuldan/court-game-app-mobile-sub001/internal/testutil"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom
}

// NewTestApp creates an App with the in-memory remote and mocked
// dependencies. The RemoteMemory field carries the failure-injection and
// call-count hooks.
func NewTestApp() *TestApp {
	store := storagememory.New()
	mockClock := mocks.NewMockClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()
	memSvc := remotememory.New(mockClock)

	accountCfg := account.DefaultConfig()
	accountCfg.Device = model.DeviceRecord{ID: "device-test", DisplayName: "Test Device"}

	cfg := Config{AccountConfig: accountCfg}
	app := newWithDependencies(store, memSvc, memSvc, mockClock, mockRandom, cfg, testutil.NopLogger())

	return &TestApp{
		App:        app,
		MockClock:  mockClock,
		MockRandom: mockRandom,
	}
}
