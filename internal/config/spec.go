package config

import "time"

// Config is the root configuration of mobsession-cli.
type Config struct {
	Account   AccountSection   `koanf:"account" yaml:"account"`
	Device    DeviceSection    `koanf:"device" yaml:"device"`
	Proxy     ProxySection     `koanf:"proxy" yaml:"proxy"`
	API       APISection       `koanf:"api" yaml:"api"`
	Storage   StorageSection   `koanf:"storage" yaml:"storage"`
	Challenge ChallengeSection `koanf:"challenge" yaml:"challenge"`
	Log       LogSection       `koanf:"log" yaml:"log"`
	Metrics   MetricsSection   `koanf:"metrics" yaml:"metrics"`
	Keepalive KeepaliveSection `koanf:"keepalive" yaml:"keepalive"`
}

// AccountSection holds the credentials of the account to operate.
type AccountSection struct {
	Username string `koanf:"username" yaml:"username"`
	Password string `koanf:"password" yaml:"password"`

	// Email and EmailPassword open the mailbox used for email challenges.
	Email         string `koanf:"email" yaml:"email"`
	EmailPassword string `koanf:"email_password" yaml:"email_password"`
}

// DeviceSection selects the device profile.
type DeviceSection struct {
	// Seed derives the device profile. Defaults to the account username,
	// so that the same account always presents the same device.
	Seed string `koanf:"seed" yaml:"seed"`
}

// ProxySection configures the outbound proxy.
type ProxySection struct {
	// URL is an http, https or socks5 proxy URL; empty means direct.
	URL string `koanf:"url" yaml:"url"`
}

// APISection configures the platform client.
type APISection struct {
	BaseURL          string        `koanf:"base_url" yaml:"base_url"`
	Timeout          time.Duration `koanf:"timeout" yaml:"timeout"`
	RateLimit        float64       `koanf:"rate_limit" yaml:"rate_limit"`
	RateBurst        int           `koanf:"rate_burst" yaml:"rate_burst"`
	SignatureKey     string        `koanf:"signature_key" yaml:"signature_key"`
	SignatureVersion string        `koanf:"signature_version" yaml:"signature_version"`

	// TLSCAFile adds PEM roots, e.g. for an intercepting proxy.
	TLSCAFile string `koanf:"tls_ca_file" yaml:"tls_ca_file"`
}

// StorageSection configures cookie persistence.
type StorageSection struct {
	// Engine is one of badger, bbolt, file, memory.
	Engine  string `koanf:"engine" yaml:"engine"`
	DataDir string `koanf:"data_dir" yaml:"data_dir"`

	// Passphrase seals the file engine's document.
	Passphrase string `koanf:"passphrase" yaml:"passphrase"`

	BadgerGCInterval time.Duration `koanf:"badger_gc_interval" yaml:"badger_gc_interval"`
}

// ChallengeSection configures checkpoint resolution.
type ChallengeSection struct {
	// Enabled lets login fall through to automatic challenge resolution.
	Enabled    bool          `koanf:"enabled" yaml:"enabled"`
	PhoneDelay time.Duration `koanf:"phone_delay" yaml:"phone_delay"`

	PhoneGateway GatewayConfig `koanf:"phone_gateway" yaml:"phone_gateway"`
	MailGateway  GatewayConfig `koanf:"mail_gateway" yaml:"mail_gateway"`
}

// GatewayConfig locates a verification side-channel gateway.
type GatewayConfig struct {
	URL     string        `koanf:"url" yaml:"url"`
	Token   string        `koanf:"token" yaml:"token"`
	Timeout time.Duration `koanf:"timeout" yaml:"timeout"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level" yaml:"level"`
	Format string `koanf:"format" yaml:"format"`
}

// MetricsSection configures the Prometheus endpoint served by keepalive.
type MetricsSection struct {
	Enabled bool   `koanf:"enabled" yaml:"enabled"`
	Addr    string `koanf:"addr" yaml:"addr"`
}

// KeepaliveSection configures the keepalive loop.
type KeepaliveSection struct {
	Interval        time.Duration `koanf:"interval" yaml:"interval"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" yaml:"shutdown_timeout"`
}
