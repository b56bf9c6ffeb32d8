package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config is everything the gateway reads at startup.
type Config struct {
	Port     string
	LogLevel string
	DBPath   string

	APIBaseURL string
	APITimeout time.Duration

	DeviceInterval    time.Duration
	TelemetryInterval time.Duration
}

// Defaults chosen to match the backend client the UI replaces:
// device detail refetches every 5s, telemetry history every 10s.
const (
	defaultPort              = "8090"
	defaultDBPath            = "console.db"
	defaultAPITimeout        = 15 * time.Second
	defaultDeviceInterval    = 5 * time.Second
	defaultTelemetryInterval = 10 * time.Second
)

// Load reads configs/config.yml and applies the INCUBATOR_API_URL override.
func Load() (Config, error) {
	viper.AddConfigPath("configs")
	viper.SetConfigName("config")
	if err := viper.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	viper.SetDefault("port", defaultPort)
	viper.SetDefault("log.level", "info")
	viper.SetDefault("db.path", defaultDBPath)
	viper.SetDefault("api.timeout", defaultAPITimeout)
	viper.SetDefault("poll.device_interval", defaultDeviceInterval)
	viper.SetDefault("poll.telemetry_interval", defaultTelemetryInterval)

	// Single environment override for the backend location.
	_ = viper.BindEnv("api.base_url", "INCUBATOR_API_URL")

	cfg := Config{
		Port:              viper.GetString("port"),
		LogLevel:          viper.GetString("log.level"),
		DBPath:            viper.GetString("db.path"),
		APIBaseURL:        viper.GetString("api.base_url"),
		APITimeout:        viper.GetDuration("api.timeout"),
		DeviceInterval:    viper.GetDuration("poll.device_interval"),
		TelemetryInterval: viper.GetDuration("poll.telemetry_interval"),
	}
	if cfg.APIBaseURL == "" {
		return Config{}, fmt.Errorf("api.base_url is not set (config or INCUBATOR_API_URL)")
	}
	return cfg, nil
}
