package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Metrics groups the counters the registration flow records
type Metrics struct {
	registry *prometheus.Registry

	Registrations    *prometheus.CounterVec
	Confirmations    *prometheus.CounterVec
	OTPIssued        *prometheus.CounterVec
	OTPVerifications *prometheus.CounterVec
	EmailsSent       *prometheus.CounterVec
	RosterRows       *prometheus.CounterVec
}

// New creates the collectors on a private registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clubhub",
			Name:      "registrations_total",
			Help:      "Registration submissions by path and outcome.",
		}, []string{"path", "outcome"}),
		Confirmations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clubhub",
			Name:      "registrations_confirmed_total",
			Help:      "Registrations moved to confirmed, by verification channel.",
		}, []string{"channel"}),
		OTPIssued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clubhub",
			Name:      "otp_issued_total",
			Help:      "OTP issuance attempts by delivery outcome.",
		}, []string{"outcome"}),
		OTPVerifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clubhub",
			Name:      "otp_verifications_total",
			Help:      "OTP verification attempts by outcome.",
		}, []string{"outcome"}),
		EmailsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clubhub",
			Name:      "emails_sent_total",
			Help:      "Outgoing emails by provider and outcome.",
		}, []string{"provider", "outcome"}),
		RosterRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clubhub",
			Name:      "roster_rows_total",
			Help:      "Student roster rows processed by import outcome.",
		}, []string{"outcome"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.Registrations,
		m.Confirmations,
		m.OTPIssued,
		m.OTPVerifications,
		m.EmailsSent,
		m.RosterRows,
	)
	return m
}

// Registry exposes the underlying registry, mainly for tests
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Outcome maps an error to a success/failure label
func Outcome(err error) string {
	if err != nil {
		return OutcomeFailure
	}
	return OutcomeSuccess
}
