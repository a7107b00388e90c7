package confloader

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"sync"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// DefaultEnvPrefix is the default environment variable prefix.
const DefaultEnvPrefix = "MOBSESSION_"

// envNestingSeparator separates nesting levels in environment variable
// names; a single underscore stays part of the key.
const envNestingSeparator = "__"

// Loader loads configuration from multiple sources.
type Loader struct {
	mu           sync.Mutex
	k            *koanf.Koanf
	envPrefix    string
	filePath     string
	fileOptional bool
	overrides    map[string]any
	loaded       bool
}

// Option is a function that configures the Loader.
type Option func(*Loader)

// WithEnvPrefix sets the environment variable prefix.
func WithEnvPrefix(prefix string) Option {
	return func(l *Loader) {
		l.envPrefix = prefix
	}
}

// WithConfigFile sets the configuration file path. The file must exist.
func WithConfigFile(path string) Option {
	return func(l *Loader) {
		l.filePath = path
		l.fileOptional = false
	}
}

// WithOptionalConfigFile sets a configuration file that is skipped when
// it does not exist.
func WithOptionalConfigFile(path string) Option {
	return func(l *Loader) {
		l.filePath = path
		l.fileOptional = true
	}
}

// WithOverrides sets values applied after every other source.
// Keys are dotted paths, e.g. "proxy.url".
func WithOverrides(values map[string]any) Option {
	return func(l *Loader) {
		l.overrides = values
	}
}

// NewLoader creates a new configuration loader.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{
		k:         koanf.New("."),
		envPrefix: DefaultEnvPrefix,
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// FilePath returns the configured file path, or "".
func (l *Loader) FilePath() string {
	return l.filePath
}

// Load loads configuration from all sources and unmarshals into target.
// Fields of target not named by any source keep their value, so target
// is usually pre-filled with defaults.
func (l *Loader) Load(target any) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.load(target)
}

// Reload discards previously loaded values and loads all sources again.
func (l *Loader) Reload(target any) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.k = koanf.New(".")
	l.loaded = false
	return l.load(target)
}

func (l *Loader) load(target any) error {
	// 1. File
	if l.filePath != "" {
		err := l.LoadFile(l.filePath)
		if err != nil && !(l.fileOptional && errors.Is(err, fs.ErrNotExist)) {
			return fmt.Errorf("load config file: %w", err)
		}
	}

	// 2. Environment
	if err := l.LoadEnv(); err != nil {
		return fmt.Errorf("load env: %w", err)
	}

	// 3. Overrides
	if len(l.overrides) > 0 {
		if err := l.LoadMap(l.overrides); err != nil {
			return fmt.Errorf("load overrides: %w", err)
		}
	}

	if err := l.Unmarshal(target); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}

	l.loaded = true
	return nil
}

// LoadFile loads configuration from a YAML file.
func (l *Loader) LoadFile(path string) error {
	if path == "" {
		return nil
	}

	if err := l.k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return fmt.Errorf("load file %s: %w", path, err)
	}

	return nil
}

// LoadEnv loads configuration from environment variables.
// MOBSESSION_API__BASE_URL sets api.base_url.
func (l *Loader) LoadEnv() error {
	transform := func(s string) string {
		s = strings.TrimPrefix(s, l.envPrefix)
		s = strings.ToLower(s)
		return strings.ReplaceAll(s, envNestingSeparator, ".")
	}

	if err := l.k.Load(env.Provider(l.envPrefix, ".", transform), nil); err != nil {
		return fmt.Errorf("load env: %w", err)
	}

	return nil
}

// LoadMap loads configuration from a map of dotted keys.
func (l *Loader) LoadMap(data map[string]any) error {
	if err := l.k.Load(mapProvider(data), nil); err != nil {
		return fmt.Errorf("load map: %w", err)
	}
	return nil
}

// Unmarshal unmarshals the loaded configuration into the target struct
// using koanf tags.
func (l *Loader) Unmarshal(target any) error {
	return l.k.Unmarshal("", target)
}

// Get returns a value from the configuration by key.
func (l *Loader) Get(key string) any {
	return l.k.Get(key)
}

// GetString returns a string value from the configuration.
func (l *Loader) GetString(key string) string {
	return l.k.String(key)
}

// GetBool returns a bool value from the configuration.
func (l *Loader) GetBool(key string) bool {
	return l.k.Bool(key)
}

// IsLoaded returns true if configuration has been loaded.
func (l *Loader) IsLoaded() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loaded
}

// Keys returns all configuration keys.
func (l *Loader) Keys() []string {
	return l.k.Keys()
}
