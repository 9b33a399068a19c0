package cli

import (
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"github.com/google/uuid"
)

// Config holds CLI configuration, populated from the environment and
// overridable by flags
type Config struct {
	ServerURL   string `env:"COURTSYNC_SERVER" envDefault:"http://localhost:8080"`
	APIKey      string `env:"COURTSYNC_API_KEY"`
	StorageType string `env:"COURTSYNC_STORAGE" envDefault:"memory"`
	RedisURL    string `env:"COURTSYNC_REDIS_URL"`
	DeviceName  string `env:"COURTSYNC_DEVICE_NAME" envDefault:"courtsync-cli"`
	DeviceFile  string `env:"COURTSYNC_DEVICE_FILE"`
	Verbose     bool   `env:"COURTSYNC_VERBOSE"`
}

// LoadConfig parses configuration from the environment
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	if cfg.DeviceFile == "" {
		cfg.DeviceFile = defaultDeviceFile()
	}
	return cfg, nil
}

// DeviceID returns the stable device identifier for this machine,
// creating and persisting one on first use
func (c *Config) DeviceID() (string, error) {
	data, err := os.ReadFile(c.DeviceFile)
	if err == nil && len(data) > 0 {
		return string(data), nil
	}
	if err != nil && !os.IsNotExist(err) {
		return "", err
	}

	id := uuid.NewString()
	dir := filepath.Dir(c.DeviceFile)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", err
	}
	if err := os.WriteFile(c.DeviceFile, []byte(id), 0600); err != nil {
		return "", err
	}
	return id, nil
}

func defaultDeviceFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".courtsync/device"
	}
	return filepath.Join(home, ".courtsync", "device")
}
