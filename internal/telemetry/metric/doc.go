// Package metric provides Prometheus metrics for mobsession.
//
// A Registry owns a private prometheus.Registry so that embedding
// applications keep control of their global registry. Every observer
// method is safe on a nil *Registry, which disables metrics.
package metric
