package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rasisbuldan/court-game-app-mobile-sub001/internal/dependencies/clock"
	remotememory "github.com/rasisbuldan/court-game-app-mobile-sub001/internal/remote/memory"
	"github.com/rasisbuldan/court-game-app-mobile-sub001/internal/stubserver"
)

func newStubCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "stub",
		Short: "Run a local in-memory stand-in for the remote data service",
		Long: `stub serves the remote service API from process memory: identity,
profiles, settings, devices, and the tournament table writes. Useful for
exercising the client without a real backend.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			level := slog.LevelInfo
			if cfg.Verbose {
				level = slog.LevelDebug
			}
			logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
			svc := remotememory.New(clock.New())
			router := stubserver.NewRouter(svc, logger)

			serverCfg := stubserver.DefaultServerConfig()
			serverCfg.Port = port
			server := stubserver.NewServer(router, serverCfg, logger)

			errCh := make(chan error, 1)
			go func() {
				errCh <- server.Start()
			}()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

			select {
			case err := <-errCh:
				return err
			case <-sigCh:
				return server.Shutdown(context.Background())
			}
		},
	}

	cmd.Flags().IntVar(&port, "port", 8080, "Port to listen on")

	return cmd
}
