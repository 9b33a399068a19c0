package cli

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/rasisbuldan/court-game-app-mobile-sub001/internal/factory"
	"github.com/rasisbuldan/court-game-app-mobile-sub001/internal/model"
	"github.com/rasisbuldan/court-game-app-mobile-sub001/internal/services/account"
	storageredis "github.com/rasisbuldan/court-game-app-mobile-sub001/internal/storage/redis"
)

var (
	cfg *Config
	app *factory.App
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	loaded, err := LoadConfig()
	if err != nil {
		loaded = &Config{}
	}
	cfg = loaded

	rootCmd := &cobra.Command{
		Use:   "courtsync",
		Short: "CLI for the courtsync reliability layer",
		Long: `courtsync drives the tournament client's reliability layer from the
command line: account sign-up/sign-in with device admission, the offline
mutation queue, and a local stub of the remote data service.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// The stub command runs its own wiring
			if cmd.Name() == "stub" {
				return nil
			}
			return buildApp()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if app != nil {
				app.Probe.Stop()
				app.Outbox.Cleanup()
			}
		},
		SilenceUsage: true,
	}

	// Global flags (env: COURTSYNC_*)
	rootCmd.PersistentFlags().StringVar(&cfg.ServerURL, "server", cfg.ServerURL, "Remote service URL (env: COURTSYNC_SERVER)")
	rootCmd.PersistentFlags().StringVar(&cfg.APIKey, "api-key", cfg.APIKey, "Remote service API key (env: COURTSYNC_API_KEY)")
	rootCmd.PersistentFlags().StringVar(&cfg.StorageType, "storage", cfg.StorageType, "Local storage backend: memory, redis (env: COURTSYNC_STORAGE)")
	rootCmd.PersistentFlags().StringVar(&cfg.RedisURL, "redis-url", cfg.RedisURL, "Redis URL for local storage (env: COURTSYNC_REDIS_URL)")
	rootCmd.PersistentFlags().BoolVarP(&cfg.Verbose, "verbose", "v", cfg.Verbose, "Verbose logging")

	rootCmd.AddCommand(newSignUpCmd())
	rootCmd.AddCommand(newSignInCmd())
	rootCmd.AddCommand(newSignOutCmd())
	rootCmd.AddCommand(newResumeCmd())
	rootCmd.AddCommand(newDevicesCmd())
	rootCmd.AddCommand(newQueueCmd())
	rootCmd.AddCommand(newStubCmd())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func buildApp() error {
	deviceID, err := cfg.DeviceID()
	if err != nil {
		return err
	}

	accountCfg := account.DefaultConfig()
	accountCfg.Device = model.DeviceRecord{
		ID:          model.DeviceID(deviceID),
		DisplayName: cfg.DeviceName,
	}

	factoryCfg := factory.Config{
		Logger:        newLogger(),
		StorageType:   cfg.StorageType,
		RemoteMode:    factory.RemoteModeHTTP,
		ServerURL:     cfg.ServerURL,
		APIKey:        cfg.APIKey,
		AccountConfig: accountCfg,
	}
	if cfg.StorageType == factory.StorageTypeRedis {
		redisCfg := storageredis.DefaultConfig()
		if cfg.RedisURL != "" {
			redisCfg.URL = cfg.RedisURL
		}
		factoryCfg.RedisConfig = &redisCfg
	}

	app, err = factory.New(factoryCfg)
	if err != nil {
		return err
	}
	if err := app.Outbox.Initialize(context.Background()); err != nil {
		return err
	}
	app.Probe.Start()
	return nil
}

func newLogger() *slog.Logger {
	level := slog.LevelWarn
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
