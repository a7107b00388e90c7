package logger

import (
	"log/slog"
	"strings"
)

// Key fragments whose values are always fully redacted.
var sensitiveKeyPatterns = []string{
	"password",
	"passphrase",
	"secret",
	"token",
	"cookie",
	"sessionid",
	"signature",
	"signed_body",
	"credential",
}

// Exact keys holding one-time verification codes.
var sensitiveExactKeys = map[string]bool{
	"code":              true,
	"security_code":     true,
	"verification_code": true,
}

// Keys whose values are partially masked.
var maskedKeys = map[string]bool{
	"phone":        true,
	"phone_number": true,
	"email":        true,
}

const redactedValue = "***REDACTED***"

// redactSensitive rewrites an attribute so credentials never reach the log.
func redactSensitive(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		newAttrs := make([]slog.Attr, len(attrs))
		for i, attr := range attrs {
			newAttrs[i] = redactSensitive(attr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(newAttrs...)}
	}

	keyLower := strings.ToLower(a.Key)
	if maskedKeys[keyLower] {
		return slog.String(a.Key, MaskIdentifier(a.Value.String()))
	}
	if IsSensitiveKey(keyLower) && a.Value.String() != "" {
		return slog.String(a.Key, redactedValue)
	}
	return a
}

// MaskIdentifier keeps the first two and last two characters of a phone
// number or email local part.
func MaskIdentifier(v string) string {
	if at := strings.IndexByte(v, '@'); at > 0 {
		return MaskIdentifier(v[:at]) + v[at:]
	}
	if len(v) <= 4 {
		return strings.Repeat("*", len(v))
	}
	return v[:2] + strings.Repeat("*", len(v)-4) + v[len(v)-2:]
}

// IsSensitiveKey checks if a key name suggests sensitive content.
func IsSensitiveKey(key string) bool {
	keyLower := strings.ToLower(key)
	if sensitiveExactKeys[keyLower] {
		return true
	}
	for _, pattern := range sensitiveKeyPatterns {
		if strings.Contains(keyLower, pattern) {
			return true
		}
	}
	return false
}
