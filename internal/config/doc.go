// Package config defines the mobsession configuration.
//
//   - spec.go: Config struct definition
//   - default.go: default values
//   - verify.go: validation (engine names, durations, proxy URL)
//   - sanitize.go: masks secrets before the config is printed or logged
//   - runtime.go: converts sections into storage, transport and logger settings
//
// Configuration is loaded via internal/infra/confloader from a YAML file and
// MOBSESSION_* environment variables.
package config
