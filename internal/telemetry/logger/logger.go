package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
)

// Logger is the logging surface used by sessions, flows and the CLI.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	With(args ...any) Logger
	WithContext(ctx context.Context) Logger
}

// Config holds logger configuration.
type Config struct {
	// Level is the minimum level: debug, info, warn or error.
	Level string
	// Format is json or text ("console" is an alias for text).
	Format string
	// Output defaults to os.Stderr.
	Output io.Writer
}

// DefaultConfig logs text at info level to stderr.
func DefaultConfig() Config {
	return Config{Level: "info", Format: "text", Output: os.Stderr}
}

// level is shared by every logger built with New; SetLevel adjusts all of
// them, including those already held by running sessions.
var level = new(slog.LevelVar)

// New builds a logger whose output passes through credential redaction.
func New(cfg Config) (Logger, error) {
	level.Set(parseLevel(cfg.Level))
	return wrap(slog.New(newHandler(cfg))), nil
}

func newHandler(cfg Config) slog.Handler {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	opts := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			return redactSensitive(a)
		},
	}
	if f := strings.ToLower(cfg.Format); f == "text" || f == "console" {
		return slog.NewTextHandler(out, opts)
	}
	return slog.NewJSONHandler(out, opts)
}

// ForSession returns l with the account username and device id attached
// to every line.
func ForSession(l Logger, username, deviceID string) Logger {
	return l.With(sessionArgs(username, deviceID)...)
}

func sessionArgs(username, deviceID string) []any {
	return []any{"username", username, "device_id", deviceID}
}

// Nop returns a logger that discards everything.
func Nop() Logger {
	return wrap(slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1})))
}

// Slog exposes l as a *slog.Logger for libraries that take one, such as
// the storage engines. Foreign loggers fall back to slog.Default().
func Slog(l Logger) *slog.Logger {
	if sl, ok := l.(*slogLogger); ok {
		return sl.logger
	}
	return slog.Default()
}

// SetLevel changes the level of every logger built with New.
func SetLevel(lvl string) {
	level.Set(parseLevel(lvl))
}

type slogLogger struct {
	logger *slog.Logger
	ctx    context.Context
}

func wrap(l *slog.Logger) *slogLogger {
	return &slogLogger{logger: l, ctx: context.Background()}
}

func (l *slogLogger) Debug(msg string, args ...any) { l.log(slog.LevelDebug, msg, args) }
func (l *slogLogger) Info(msg string, args ...any)  { l.log(slog.LevelInfo, msg, args) }
func (l *slogLogger) Warn(msg string, args ...any)  { l.log(slog.LevelWarn, msg, args) }
func (l *slogLogger) Error(msg string, args ...any) { l.log(slog.LevelError, msg, args) }

func (l *slogLogger) log(lvl slog.Level, msg string, args []any) {
	l.logger.Log(l.ctx, lvl, msg, args...)
}

func (l *slogLogger) With(args ...any) Logger {
	return &slogLogger{logger: l.logger.With(args...), ctx: l.ctx}
}

func (l *slogLogger) WithContext(ctx context.Context) Logger {
	return &slogLogger{logger: l.logger, ctx: ctx}
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

var defaultLogger atomic.Pointer[slogLogger]

func init() {
	defaultLogger.Store(wrap(slog.New(newHandler(DefaultConfig()))))
}

// SetDefault makes l the fallback returned by FromContext. Loggers not
// built by this package are ignored.
func SetDefault(l Logger) {
	if sl, ok := l.(*slogLogger); ok {
		defaultLogger.Store(sl)
	}
}

// Default returns the process-wide fallback logger.
func Default() Logger {
	return defaultLogger.Load()
}
