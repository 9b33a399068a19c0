package connectivity

import (
	"context"
	"log/slog"
	"time"

	"github.com/rasisbuldan/court-game-app-mobile-sub001/internal/dependencies/clock"
	"github.com/rasisbuldan/court-game-app-mobile-sub001/internal/remote"
)

// ProbeConfig holds probe timing settings
type ProbeConfig struct {
	// Interval between health checks
	Interval time.Duration
	// Timeout for a single health check
	Timeout time.Duration
}

// DefaultProbeConfig returns sensible probe defaults
func DefaultProbeConfig() ProbeConfig {
	return ProbeConfig{
		Interval: 15 * time.Second,
		Timeout:  5 * time.Second,
	}
}

// Probe drives a Monitor from periodic health checks against the remote
// service. On mobile the platform reachability callback plays this role;
// the probe covers the CLI and server-side uses.
type Probe struct {
	monitor  *Monitor
	identity remote.Identity
	clock    clock.Clock
	cfg      ProbeConfig
	logger   *slog.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

// NewProbe creates a probe writing into monitor
func NewProbe(monitor *Monitor, identity remote.Identity, clk clock.Clock, cfg ProbeConfig, logger *slog.Logger) *Probe {
	if cfg.Interval == 0 {
		cfg = DefaultProbeConfig()
	}
	return &Probe{
		monitor:  monitor,
		identity: identity,
		clock:    clk,
		cfg:      cfg,
		logger:   logger.With(slog.String("component", "connectivity_probe")),
	}
}

// Start begins probing in a background goroutine
func (p *Probe) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.done = make(chan struct{})

	go func() {
		defer close(p.done)
		for {
			p.check(ctx)
			p.clock.Sleep(ctx, p.cfg.Interval)
			select {
			case <-ctx.Done():
				return
			default:
			}
		}
	}()
}

// Stop halts probing and waits for the loop to exit
func (p *Probe) Stop() {
	if p.cancel == nil {
		return
	}
	p.cancel()
	<-p.done
}

func (p *Probe) check(ctx context.Context) {
	checkCtx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	err := p.identity.Health(checkCtx)
	online := err == nil
	if !online {
		p.logger.Debug("health check failed", slog.String("error", err.Error()))
	}
	p.monitor.SetOnline(online)
}
