// Package command defines the mobsession-cli commands with urfave/cli/v2:
//
//   - root.go: application, global flags, configuration loading
//   - env.go: wiring of storage, sessions and verification side-channels
//   - login.go: login, whoami, logout, accounts
//   - media.go: paging through a user's media feed
//   - keepalive.go: long-running session upkeep with metrics and reload
//   - config.go, version.go: configuration and build information
package command
