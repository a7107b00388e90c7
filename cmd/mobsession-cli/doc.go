// Package main provides the entry point for mobsession-cli.
//
// The CLI establishes and maintains mobile API sessions:
//
//   - Login with cookie reuse and checkpoint resolution
//   - Session inspection (whoami, accounts, media)
//   - Keepalive with configuration hot reload and metrics
//   - Configuration inspection and validation
//
// Usage:
//
//	mobsession-cli [global flags] command [flags]
//	mobsession-cli -u alice login -p secret
//	mobsession-cli -o json media -n 50
//	mobsession-cli keepalive --interval 10m
package main
