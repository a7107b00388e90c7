package transport

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestSigner_Defaults(t *testing.T) {
	s := NewSigner("", "")
	if string(s.key) != DefaultSignatureKey {
		t.Errorf("key = %q, want default", s.key)
	}
	if s.version != DefaultSignatureVersion {
		t.Errorf("version = %q, want %q", s.version, DefaultSignatureVersion)
	}
}

func TestSigner_Sign(t *testing.T) {
	s := NewSigner("secret", "5")
	body := []byte(`{"username":"alice"}`)

	form := s.Sign(body)
	if got := form.Get("ig_sig_key_version"); got != "5" {
		t.Errorf("ig_sig_key_version = %q, want 5", got)
	}

	signed := form.Get("signed_body")
	sig, payload, ok := strings.Cut(signed, ".")
	if !ok {
		t.Fatalf("signed_body %q has no separator", signed)
	}
	if len(sig) != 64 {
		t.Errorf("signature length = %d, want 64", len(sig))
	}
	if payload != string(body) {
		t.Errorf("payload = %q, want %q", payload, body)
	}
	if sig != s.Signature(body) {
		t.Error("signature does not match Signature()")
	}
}

func TestSigner_Verify(t *testing.T) {
	s := NewSigner("secret", "")
	body, _ := json.Marshal(map[string]any{"a": 1})
	signed := s.Sign(body).Get("signed_body")

	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"valid", signed, true},
		{"tampered body", signed + " ", false},
		{"too short", "abc", false},
		{"no separator", strings.Repeat("a", 70), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := s.Verify(tt.input)
			if ok != tt.want {
				t.Errorf("Verify() = %v, want %v", ok, tt.want)
			}
		})
	}

	if _, ok := NewSigner("other", "").Verify(signed); ok {
		t.Error("Verify() with another key should fail")
	}
}
