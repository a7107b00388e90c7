// Package logger provides structured logging for mobsession.
//
//   - logger.go: slog-based Logger, configuration and the process default
//   - context.go: context propagation of the logger, trace and request ids
//   - redact.go: masking of credentials, cookies and verification codes
//
// Library code logs through L(ctx) so callers decide where output goes.
package logger
