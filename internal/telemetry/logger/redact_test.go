package logger

import (
	"log/slog"
	"testing"
)

func TestRedactSensitive_Keys(t *testing.T) {
	tests := []struct {
		key   string
		value any
		want  any
	}{
		{"password", "hunter22", redactedValue},
		{"email_password", "p", redactedValue},
		{"csrftoken", "abc", redactedValue},
		{"rank_token", "1_2", redactedValue},
		{"sessionid", "IGSC123", redactedValue},
		{"set_cookie", "a=b", redactedValue},
		{"security_code", "123456", redactedValue},
		{"code", "123456", redactedValue},
		{"phone", "+15551234567", "+1********67"},
		{"email", "alice@example.test", "al*ce@example.test"},
		{"status_code", float64(200), float64(200)},
		{"username", "alice", "alice"},
		{"password", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			l, buf := newJSON(t, "info")
			l.Info("event", tt.key, tt.value)

			entry := decode(t, buf)
			if entry[tt.key] != tt.want {
				t.Errorf("%s = %v, want %v", tt.key, entry[tt.key], tt.want)
			}
		})
	}
}

func TestRedactSensitive_Group(t *testing.T) {
	a := slog.Group("login", slog.String("username", "alice"), slog.String("password", "hunter22"))
	got := redactSensitive(a).Value.Group()

	if got[0].Value.String() != "alice" {
		t.Errorf("username = %q, want alice", got[0].Value.String())
	}
	if got[1].Value.String() != redactedValue {
		t.Errorf("password = %q, want redacted", got[1].Value.String())
	}
}

func TestMaskIdentifier(t *testing.T) {
	tests := map[string]string{
		"":              "",
		"1234":          "****",
		"+15551234567":  "+1********67",
		"bob@mail.test": "***@mail.test",
	}
	for in, want := range tests {
		if got := MaskIdentifier(in); got != want {
			t.Errorf("MaskIdentifier(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestIsSensitiveKey(t *testing.T) {
	for _, k := range []string{"Password", "SIGNED_BODY", "verification_code", "passphrase"} {
		if !IsSensitiveKey(k) {
			t.Errorf("IsSensitiveKey(%q) = false", k)
		}
	}
	for _, k := range []string{"username", "trace_id", "resource", "error_code"} {
		if IsSensitiveKey(k) {
			t.Errorf("IsSensitiveKey(%q) = true", k)
		}
	}
}
