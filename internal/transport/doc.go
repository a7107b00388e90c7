// Package transport performs single exchanges with the platform's private
// API: resource resolution, payload signing, rate limiting, cookie
// handling through the session's jar, and mapping of failure payloads to
// domain error kinds.
package transport
