package confloader

import (
	"errors"

	"github.com/knadh/koanf/maps"
)

// ErrReadBytesNotSupported is returned when ReadBytes is called on a map provider.
var ErrReadBytesNotSupported = errors.New("confloader: map provider has no byte form")

// mapProvider loads configuration from a map whose keys may be dotted
// paths ("proxy.url"). Empty values are skipped so that unset flags do
// not clear values from other sources.
type mapProvider map[string]any

// ReadBytes is not supported; koanf calls Read instead.
func (m mapProvider) ReadBytes() ([]byte, error) {
	return nil, ErrReadBytesNotSupported
}

// Read returns the configuration as a nested map.
func (m mapProvider) Read() (map[string]any, error) {
	flat := make(map[string]any, len(m))
	for k, v := range m {
		if s, ok := v.(string); ok && s == "" {
			continue
		}
		flat[k] = v
	}
	return maps.Unflatten(flat, "."), nil
}
