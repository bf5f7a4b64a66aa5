// Package metrics holds the Prometheus collectors recorded by the client.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	// API request duration with method, endpoint and status labels.
	RequestDuration *prometheus.HistogramVec
	// Responses rejected with 401, by endpoint.
	Unauthorized *prometheus.CounterVec
	// Login attempts by outcome.
	LoginAttempts *prometheus.CounterVec
	// Session state transitions by resulting state.
	SessionTransitions *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "authclient_request_duration_seconds",
			Help:    "Duration of API requests in seconds.",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
			[]string{"method", "endpoint", "status"},
		),
		Unauthorized: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "authclient_unauthorized_total",
			Help: "Number of API responses rejected as unauthorized.",
		},
			[]string{"endpoint"},
		),
		LoginAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "authclient_login_attempts_total",
			Help: "Total number of login attempts.",
		},
			[]string{"status"},
		),
		SessionTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "authclient_session_transitions_total",
			Help: "Session state transitions by resulting state.",
		},
			[]string{"state"},
		),
	}
	reg.MustRegister(m.RequestDuration)
	reg.MustRegister(m.Unauthorized)
	reg.MustRegister(m.LoginAttempts)
	reg.MustRegister(m.SessionTransitions)
	return m
}

// ObserveRequest records one API exchange. A zero status means no response
// was received.
func (m *Metrics) ObserveRequest(method, endpoint string, status int, elapsed time.Duration) {
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	m.RequestDuration.WithLabelValues(method, endpoint, label).Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveLogin(err error) {
	status := "ok"
	if err != nil {
		status = "failed"
	}
	m.LoginAttempts.WithLabelValues(status).Inc()
}

func (m *Metrics) ObserveTransition(state string) {
	m.SessionTransitions.WithLabelValues(state).Inc()
}
