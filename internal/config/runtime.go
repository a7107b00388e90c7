package config

import (
	"fmt"

	"github.com/yndnr/mobsession-go/internal/core/domain"
	"github.com/yndnr/mobsession-go/internal/inbox"
	"github.com/yndnr/mobsession-go/internal/infra/tlsroots"
	"github.com/yndnr/mobsession-go/internal/storage"
	"github.com/yndnr/mobsession-go/internal/telemetry/logger"
	"github.com/yndnr/mobsession-go/internal/transport"
)

// KVConfig returns the storage engine settings.
func (c *Config) KVConfig() storage.KVConfig {
	kv := storage.DefaultKVConfig(c.Storage.DataDir)
	kv.Engine = c.Storage.Engine
	if c.Storage.Passphrase != "" {
		kv.Passphrase = []byte(c.Storage.Passphrase)
	}
	if c.Storage.BadgerGCInterval > 0 {
		kv.Badger.GCInterval = c.Storage.BadgerGCInterval
	}
	return kv
}

// ClientConfig returns the platform client settings. The proxy is applied
// by the session, not here.
func (c *Config) ClientConfig() (transport.Config, error) {
	tc := transport.Config{
		BaseURL:          c.API.BaseURL,
		Timeout:          c.API.Timeout,
		RateLimit:        c.API.RateLimit,
		RateBurst:        c.API.RateBurst,
		SignatureKey:     c.API.SignatureKey,
		SignatureVersion: c.API.SignatureVersion,
	}
	if c.API.TLSCAFile != "" {
		pool := tlsroots.NewPool()
		if err := pool.AddCertFile(c.API.TLSCAFile); err != nil {
			return transport.Config{}, fmt.Errorf("api.tls_ca_file: %w", err)
		}
		tc.TLS = pool.TLSConfig()
	}
	return tc, nil
}

// LoggerConfig returns the logger settings.
func (c *Config) LoggerConfig() logger.Config {
	lc := logger.DefaultConfig()
	if c.Log.Level != "" {
		lc.Level = c.Log.Level
	}
	if c.Log.Format != "" {
		lc.Format = c.Log.Format
	}
	return lc
}

// NewDevice derives the device profile from device.seed, or from the
// account username when no seed is set.
func (c *Config) NewDevice() (*domain.Device, error) {
	seed := c.Device.Seed
	if seed == "" {
		seed = c.Account.Username
	}
	return domain.NewDevice(seed)
}

// PhoneGatewayConfig returns the SMS gateway settings, or false when none is configured.
func (c *ChallengeSection) PhoneGatewayConfig() (inbox.Config, bool) {
	return gatewayConfig(c.PhoneGateway)
}

// MailGatewayConfig returns the mail gateway settings, or false when none is configured.
func (c *ChallengeSection) MailGatewayConfig() (inbox.Config, bool) {
	return gatewayConfig(c.MailGateway)
}

func gatewayConfig(g GatewayConfig) (inbox.Config, bool) {
	if g.URL == "" {
		return inbox.Config{}, false
	}
	return inbox.Config{BaseURL: g.URL, Token: g.Token, Timeout: g.Timeout}, true
}
