// Package output renders mobsession-cli results.
//
//   - formatter.go: Formatter interface, format parsing
//   - table.go: aligned tables, reflected from structs and slices
//   - json.go, yaml.go: machine-readable output
//   - spinner.go, progress.go: feedback on stderr for long operations
package output
