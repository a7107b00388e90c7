package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/yndnr/mobsession-go/internal/core/service"
	"github.com/yndnr/mobsession-go/internal/storage"
	"github.com/yndnr/mobsession-go/internal/transport"
)

// Default configuration values.
const (
	DefaultStorageEngine    = storage.EngineBadger
	DefaultBadgerGCInterval = 10 * time.Minute

	DefaultGatewayTimeout = 15 * time.Second

	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"

	DefaultMetricsAddr = "127.0.0.1:9464"

	DefaultKeepaliveInterval = 15 * time.Minute
	DefaultShutdownTimeout   = 10 * time.Second
)

// DefaultDataDir returns ~/.mobsession/data, or ./data when the home
// directory is unknown.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "data"
	}
	return filepath.Join(home, ".mobsession", "data")
}

// DefaultConfigPath returns ~/.mobsession/config.yaml.
func DefaultConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".mobsession", "config.yaml")
}

// Default returns the default configuration.
func Default() *Config {
	api := transport.DefaultConfig()
	return &Config{
		API: APISection{
			BaseURL:   api.BaseURL,
			Timeout:   api.Timeout,
			RateLimit: api.RateLimit,
			RateBurst: api.RateBurst,
		},
		Storage: StorageSection{
			Engine:           DefaultStorageEngine,
			DataDir:          DefaultDataDir(),
			BadgerGCInterval: DefaultBadgerGCInterval,
		},
		Challenge: ChallengeSection{
			Enabled:      true,
			PhoneDelay:   service.DefaultPhoneDelay,
			PhoneGateway: GatewayConfig{Timeout: DefaultGatewayTimeout},
			MailGateway:  GatewayConfig{Timeout: DefaultGatewayTimeout},
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
		Metrics: MetricsSection{
			Addr: DefaultMetricsAddr,
		},
		Keepalive: KeepaliveSection{
			Interval:        DefaultKeepaliveInterval,
			ShutdownTimeout: DefaultShutdownTimeout,
		},
	}
}
