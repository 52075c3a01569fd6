// Package metrics exposes Prometheus collectors for the signup flow.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome label values for request and verification counters.
const (
	OutcomeOK        = "ok"
	OutcomeInvalid   = "invalid"
	OutcomeThrottled = "throttled"
	OutcomeExpired   = "expired"
	OutcomeBadToken  = "bad_token"
	OutcomeError     = "error"
)

// Metrics bundles all collectors on a private registry so tests can run
// in parallel without global state.
type Metrics struct {
	registry *prometheus.Registry

	SignupRequests *prometheus.CounterVec
	Verifications  *prometheus.CounterVec
	MailSends      *prometheus.CounterVec
}

// New creates the collectors. subscribers is sampled on every scrape.
func New(subscribers func() float64) *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	m := &Metrics{
		registry: reg,
		SignupRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "signup_requests_total",
			Help: "Signup requests by outcome.",
		}, []string{"outcome"}),
		Verifications: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "signup_verifications_total",
			Help: "Verification link clicks by outcome.",
		}, []string{"outcome"}),
		MailSends: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "mail_sends_total",
			Help: "Mail transport responses by status class (2xx, 4xx, 5xx, error).",
		}, []string{"status_class"}),
	}
	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "subscribers",
		Help: "Current number of subscribers in the directory.",
	}, subscribers)
	return m
}

// StatusClass maps an HTTP status code to a counter label. Zero (no
// response at all) maps to "error".
func StatusClass(status int) string {
	switch {
	case status >= 200 && status < 300:
		return "2xx"
	case status >= 400 && status < 500:
		return "4xx"
	case status >= 500 && status < 600:
		return "5xx"
	case status == 0:
		return "error"
	default:
		return "other"
	}
}

// Handler serves the /metrics scrape endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
