package config

import (
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/yndnr/mobsession-go/internal/core/domain"
	"github.com/yndnr/mobsession-go/internal/storage"
)

// Verify validates the configuration. All problems are reported together.
func Verify(cfg *Config) error {
	return errors.Join(
		verifyProxy(&cfg.Proxy),
		verifyAPI(&cfg.API),
		verifyStorage(&cfg.Storage),
		verifyChallenge(&cfg.Challenge),
		verifyLog(&cfg.Log),
		verifyMetrics(&cfg.Metrics),
		verifyKeepalive(&cfg.Keepalive),
	)
}

// VerifyAccount checks that the credentials needed for login are present.
func VerifyAccount(cfg *Config) error {
	var errs []error
	if strings.TrimSpace(cfg.Account.Username) == "" {
		errs = append(errs, errors.New("account.username is required"))
	}
	if cfg.Account.Password == "" {
		errs = append(errs, errors.New("account.password is required"))
	}
	return errors.Join(errs...)
}

func verifyProxy(cfg *ProxySection) error {
	if err := domain.ValidateProxyURL(cfg.URL); err != nil {
		return fmt.Errorf("proxy.url: %w", err)
	}
	return nil
}

func verifyAPI(cfg *APISection) error {
	var errs []error
	if cfg.Timeout < 0 {
		errs = append(errs, errors.New("api.timeout must not be negative"))
	}
	if cfg.RateLimit < 0 {
		errs = append(errs, errors.New("api.rate_limit must not be negative"))
	}
	if cfg.RateBurst < 0 {
		errs = append(errs, errors.New("api.rate_burst must not be negative"))
	}
	return errors.Join(errs...)
}

func verifyStorage(cfg *StorageSection) error {
	switch cfg.Engine {
	case storage.EngineMemory:
		return nil
	case storage.EngineBadger, storage.EngineBolt, storage.EngineFile:
	default:
		return fmt.Errorf("storage.engine %q is not one of badger, bbolt, file, memory", cfg.Engine)
	}
	if cfg.DataDir == "" {
		return errors.New("storage.data_dir is required")
	}
	if cfg.Passphrase != "" && cfg.Engine != storage.EngineFile {
		return errors.New("storage.passphrase is only supported by the file engine")
	}
	return nil
}

func verifyChallenge(cfg *ChallengeSection) error {
	if cfg.PhoneDelay < 0 {
		return errors.New("challenge.phone_delay must not be negative")
	}
	return nil
}

func verifyLog(cfg *LogSection) error {
	var errs []error
	switch strings.ToLower(cfg.Level) {
	case "debug", "info", "warn", "warning", "error", "":
	default:
		errs = append(errs, fmt.Errorf("log.level %q is not one of debug, info, warn, error", cfg.Level))
	}
	switch strings.ToLower(cfg.Format) {
	case "json", "text", "":
	default:
		errs = append(errs, fmt.Errorf("log.format %q is not one of json, text", cfg.Format))
	}
	return errors.Join(errs...)
}

func verifyMetrics(cfg *MetricsSection) error {
	if !cfg.Enabled {
		return nil
	}
	if _, _, err := net.SplitHostPort(cfg.Addr); err != nil {
		return fmt.Errorf("metrics.addr: %w", err)
	}
	return nil
}

func verifyKeepalive(cfg *KeepaliveSection) error {
	if cfg.Interval <= 0 {
		return errors.New("keepalive.interval must be positive")
	}
	return nil
}
