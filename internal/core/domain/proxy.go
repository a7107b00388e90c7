package domain

import (
	"net/url"
	"strings"
)

var proxySchemes = map[string]bool{
	"http":    true,
	"https":   true,
	"socks5":  true,
	"socks5h": true,
}

// ValidateProxyURL checks that raw is an absolute proxy URL with a
// supported scheme and a host. The empty string is valid and means
// "no proxy".
func ValidateProxyURL(raw string) error {
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ErrInvalidProxyURL.WithDetails(raw).WithCause(err)
	}
	if !proxySchemes[strings.ToLower(u.Scheme)] {
		return ErrInvalidProxyURL.WithDetails("unsupported scheme: " + u.Scheme)
	}
	if u.Hostname() == "" {
		return ErrInvalidProxyURL.WithDetails("missing host: " + raw)
	}
	if port := u.Port(); port == "" && strings.HasSuffix(u.Host, ":") {
		return ErrInvalidProxyURL.WithDetails("empty port: " + raw)
	}
	return nil
}
