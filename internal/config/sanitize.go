package config

import (
	"net/url"
	"strings"
)

// Sanitize returns a copy of the config with secrets masked.
//
// This is used for printing or logging the configuration.
func Sanitize(cfg *Config) *Config {
	sanitized := *cfg

	sanitized.Account.Password = maskSecret(sanitized.Account.Password)
	sanitized.Account.EmailPassword = maskSecret(sanitized.Account.EmailPassword)
	sanitized.API.SignatureKey = maskSecret(sanitized.API.SignatureKey)
	sanitized.Storage.Passphrase = maskSecret(sanitized.Storage.Passphrase)
	sanitized.Challenge.PhoneGateway.Token = maskSecret(sanitized.Challenge.PhoneGateway.Token)
	sanitized.Challenge.MailGateway.Token = maskSecret(sanitized.Challenge.MailGateway.Token)
	sanitized.Proxy.URL = maskProxyPassword(sanitized.Proxy.URL)

	return &sanitized
}

// maskSecret masks a secret value for safe logging. Empty stays empty.
func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 4 {
		return "****"
	}
	return s[:2] + strings.Repeat("*", len(s)-4) + s[len(s)-2:]
}

// maskProxyPassword hides the password of a proxy URL's userinfo.
func maskProxyPassword(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	if _, ok := u.User.Password(); !ok {
		return raw
	}
	u.User = url.UserPassword(u.User.Username(), "xxxxx")
	return u.String()
}
