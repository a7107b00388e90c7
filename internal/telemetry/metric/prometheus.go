package metric

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yndnr/mobsession-go/internal/core/domain"
)

const namespace = "mobsession"

// OutcomeOK labels a successful operation.
const OutcomeOK = "ok"

// Registry holds all application metrics.
type Registry struct {
	reg *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	loginsTotal     *prometheus.CounterVec
	challengesTotal *prometheus.CounterVec
	reuseTotal      *prometheus.CounterVec
}

// NewRegistry creates a registry with the mobsession metrics and the
// standard Go runtime and process collectors.
func NewRegistry() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Platform API requests by resource and outcome.",
		}, []string{"resource", "outcome"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Platform API request latency.",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}, []string{"resource"}),
		loginsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logins_total",
			Help:      "Login attempts by outcome.",
		}, []string{"outcome"}),
		challengesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "challenges_total",
			Help:      "Challenge resolutions by type and outcome.",
		}, []string{"type", "outcome"}),
		reuseTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_reuse_total",
			Help:      "Session establishment attempts from stored cookies by result.",
		}, []string{"result"}),
	}

	r.reg.MustRegister(
		r.requestsTotal,
		r.requestDuration,
		r.loginsTotal,
		r.challengesTotal,
		r.reuseTotal,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// Prometheus returns the underlying registry, for registering additional
// collectors such as storage gauges.
func (r *Registry) Prometheus() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.reg
}

// Handler returns an HTTP handler for the /metrics endpoint.
func (r *Registry) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{Registry: r.reg})
}

// ObserveRequest records one platform API exchange.
func (r *Registry) ObserveRequest(resource string, err error, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.requestsTotal.WithLabelValues(resource, Outcome(err)).Inc()
	r.requestDuration.WithLabelValues(resource).Observe(elapsed.Seconds())
}

// ObserveLogin records one login attempt.
func (r *Registry) ObserveLogin(err error) {
	if r == nil {
		return
	}
	r.loginsTotal.WithLabelValues(Outcome(err)).Inc()
}

// ObserveChallenge records one challenge resolution.
func (r *Registry) ObserveChallenge(challengeType string, err error) {
	if r == nil {
		return
	}
	r.challengesTotal.WithLabelValues(challengeType, Outcome(err)).Inc()
}

// ObserveReuse records whether stored cookies were usable.
func (r *Registry) ObserveReuse(err error) {
	if r == nil {
		return
	}
	result := "reused"
	if err != nil {
		result = Outcome(err)
	}
	r.reuseTotal.WithLabelValues(result).Inc()
}

// Outcome maps an error to a bounded label value: "ok", the domain error
// code, or "error".
func Outcome(err error) string {
	if err == nil {
		return OutcomeOK
	}
	if code := domain.GetErrorCode(err); code != "" {
		return code
	}
	return "error"
}
