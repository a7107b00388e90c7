package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func newJSON(t *testing.T, level string) (Logger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	l, err := New(Config{Level: level, Format: "json", Output: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return l, &buf
}

func decode(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse JSON log %q: %v", buf.String(), err)
	}
	return entry
}

func TestNew_Formats(t *testing.T) {
	tests := []struct {
		format string
		prefix string
	}{
		{"json", "{"},
		{"text", "time="},
		{"console", "time="},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			var buf bytes.Buffer
			l, err := New(Config{Level: "info", Format: tt.format, Output: &buf})
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			l.Info("hello")
			if !strings.HasPrefix(buf.String(), tt.prefix) {
				t.Errorf("output = %q, want prefix %q", buf.String(), tt.prefix)
			}
		})
	}
}

func TestLogger_Levels(t *testing.T) {
	l, buf := newJSON(t, "debug")

	tests := []struct {
		level   string
		logFunc func(string, ...any)
	}{
		{"DEBUG", l.Debug},
		{"INFO", l.Info},
		{"WARN", l.Warn},
		{"ERROR", l.Error},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			buf.Reset()
			tt.logFunc("step done", "step", "qe_sync")

			entry := decode(t, buf)
			if entry["level"] != tt.level {
				t.Errorf("level = %v, want %s", entry["level"], tt.level)
			}
			if entry["step"] != "qe_sync" {
				t.Errorf("step = %v, want qe_sync", entry["step"])
			}
		})
	}
}

func TestLogger_LevelFilteringAndSetLevel(t *testing.T) {
	l, buf := newJSON(t, "warn")

	l.Debug("debug message")
	l.Info("info message")
	if buf.Len() > 0 {
		t.Error("debug/info should be filtered at warn")
	}

	SetLevel("debug")
	defer SetLevel("info")

	l.Debug("debug after change")
	if buf.Len() == 0 {
		t.Error("debug should be logged after SetLevel(debug)")
	}

	SetLevel("error")
	buf.Reset()
	l.Warn("warn after error level")
	if buf.Len() > 0 {
		t.Error("warn should be filtered after SetLevel(error)")
	}
}

func TestLogger_WithAndContext(t *testing.T) {
	l, buf := newJSON(t, "info")

	l.With("username", "alice").WithContext(context.Background()).Info("login ok")
	entry := decode(t, buf)
	if entry["username"] != "alice" {
		t.Errorf("username = %v, want alice", entry["username"])
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]string{
		"debug":   "DEBUG",
		"INFO":    "INFO",
		"warning": "WARN",
		"error":   "ERROR",
		"bogus":   "INFO",
		"":        "INFO",
	}
	for in, want := range tests {
		if got := parseLevel(in).String(); got != want {
			t.Errorf("parseLevel(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestNopAndSlog(t *testing.T) {
	n := Nop()
	n.Error("dropped")

	l, buf := newJSON(t, "info")
	Slog(l).Info("via slog", "password", "hunter22")
	entry := decode(t, buf)
	if entry["password"] != redactedValue {
		t.Errorf("slog view should share redaction, got %v", entry["password"])
	}

	if Slog(fakeLogger{}) == nil {
		t.Error("Slog() of a foreign logger should fall back to slog.Default()")
	}
}

func TestDefault(t *testing.T) {
	orig := Default()
	defer SetDefault(orig)

	l, buf := newJSON(t, "info")
	SetDefault(l)
	Default().Info("through default")
	if buf.Len() == 0 {
		t.Error("Default() should return the logger set by SetDefault")
	}

	SetDefault(fakeLogger{})
	if Default() != l {
		t.Error("SetDefault with a foreign Logger should be ignored")
	}
}

type fakeLogger struct{}

func (fakeLogger) Debug(string, ...any)                 {}
func (fakeLogger) Info(string, ...any)                  {}
func (fakeLogger) Warn(string, ...any)                  {}
func (fakeLogger) Error(string, ...any)                 {}
func (f fakeLogger) With(...any) Logger                 { return f }
func (f fakeLogger) WithContext(context.Context) Logger { return f }

func TestForSession(t *testing.T) {
	l, buf := newJSON(t, "info")

	ForSession(l, "alice", "android-0123456789abcdef").Info("session restored", "password", "hunter22")
	entry := decode(t, buf)
	if entry["username"] != "alice" {
		t.Errorf("username = %v, want alice", entry["username"])
	}
	if entry["device_id"] != "android-0123456789abcdef" {
		t.Errorf("device_id = %v, want android-0123456789abcdef", entry["device_id"])
	}
	if entry["password"] != redactedValue {
		t.Errorf("password = %v, want redacted", entry["password"])
	}
}
