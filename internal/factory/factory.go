package factory

import (
	"errors"
	"io"
	"log/slog"

	"github.com/rasisbuldan/court-game-app-mobile-sub001/internal/connectivity"
	"github.com/rasisbuldan/court-game-app-mobile-sub001/internal/dependencies/clock"
	"github.com/rasisbuldan/court-game-app-mobile-sub001/internal/dependencies/random"
	"github.com/rasisbuldan/court-game-app-mobile-sub001/internal/remote"
	"github.com/rasisbuldan/court-game-app-mobile-sub001/internal/remote/httpclient"
	remotememory "github.com/rasisbuldan/court-game-app-mobile-sub001/internal/remote/memory"
	"github.com/rasisbuldan/court-game-app-mobile-sub001/internal/services/account"
	"github.com/rasisbuldan/court-game-app-mobile-sub001/internal/services/outbox"
	"github.com/rasisbuldan/court-game-app-mobile-sub001/internal/storage"
	storagememory "github.com/rasisbuldan/court-game-app-mobile-sub001/internal/storage/memory"
	storageredis "github.com/rasisbuldan/court-game-app-mobile-sub001/internal/storage/redis"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
)

// Remote mode constants
const (
	RemoteModeHTTP   = "http"
	RemoteModeMemory = "memory"
)

// App contains all wired application components
type App struct {
	// Local persistence
	Storage storage.Storage

	// Remote data service client
	Remote remote.Service
	// RemoteMemory is set only in memory remote mode; test hooks and
	// the stub server hang off it
	RemoteMemory *remotememory.Service

	// External dependencies
	Clock        clock.Clock
	Random       random.Random
	Connectivity *connectivity.Monitor
	// Probe drives Connectivity from remote health checks. Not started;
	// callers that want active probing call Probe.Start themselves.
	Probe *connectivity.Probe

	// Services
	Outbox  *outbox.Service
	Account *account.Service
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional; no-op if nil)
	Logger *slog.Logger
	// StorageType selects the local store backend ("memory" or "redis");
	// defaults to "memory"
	StorageType string
	// RedisConfig holds Redis settings (required when StorageType is
	// "redis")
	RedisConfig *storageredis.Config
	// RemoteMode selects the remote client ("http" or "memory");
	// defaults to "http"
	RemoteMode string
	// ServerURL is the remote service base URL (required for http mode)
	ServerURL string
	// APIKey is the remote service API key (http mode)
	APIKey string
	// OutboxConfig holds queue settings (zero value → defaults)
	OutboxConfig outbox.Config
	// AccountConfig holds saga settings (zero value → defaults)
	AccountConfig account.Config
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	// Local storage
	var store storage.Storage
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}
	switch storageType {
	case StorageTypeMemory:
		store = storagememory.New()
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := storageredis.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		store = redisStore
	default:
		return nil, errors.New("invalid StorageType: must be 'memory' or 'redis'")
	}

	clk := clock.New()
	rnd := random.New()

	// Remote client
	var svc remote.Service
	var memSvc *remotememory.Service
	remoteMode := cfg.RemoteMode
	if remoteMode == "" {
		remoteMode = RemoteModeHTTP
	}
	switch remoteMode {
	case RemoteModeHTTP:
		if cfg.ServerURL == "" {
			return nil, errors.New("ServerURL required when RemoteMode is http")
		}
		svc = httpclient.New(cfg.ServerURL, cfg.APIKey)
	case RemoteModeMemory:
		memSvc = remotememory.New(clk)
		svc = memSvc
	default:
		return nil, errors.New("invalid RemoteMode: must be 'http' or 'memory'")
	}

	return newWithDependencies(store, svc, memSvc, clk, rnd, cfg, logger), nil
}

// newWithDependencies wires an App from explicit dependencies (useful for
// testing)
func newWithDependencies(
	store storage.Storage,
	svc remote.Service,
	memSvc *remotememory.Service,
	clk clock.Clock,
	rnd random.Random,
	cfg Config,
	logger *slog.Logger,
) *App {
	monitor := connectivity.NewMonitor(true, logger)
	probe := connectivity.NewProbe(monitor, svc, clk, connectivity.DefaultProbeConfig(), logger)

	outboxService := outbox.New(store, svc, monitor, clk, rnd, cfg.OutboxConfig, logger)
	accountService := account.New(svc, svc, store, clk, cfg.AccountConfig, logger)

	return &App{
		Storage:      store,
		Remote:       svc,
		RemoteMemory: memSvc,
		Clock:        clk,
		Random:       rnd,
		Connectivity: monitor,
		Probe:        probe,
		Outbox:       outboxService,
		Account:      accountService,
	}
}
