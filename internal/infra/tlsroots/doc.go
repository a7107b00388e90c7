// Package tlsroots builds the TLS client configuration used to reach the
// platform API.
//
// Intercepting proxies (debugging, corporate egress) present their own CA;
// ClientConfig trusts it in addition to the system roots.
package tlsroots
