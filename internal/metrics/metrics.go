package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the counters exposed on /metrics. Label cardinality is kept
// deliberately low: outcomes and statuses only, never emails or account ids.
type Metrics struct {
	LoginAttempts    *prometheus.CounterVec
	RateLimitDenials prometheus.Counter
	Transfers        *prometheus.CounterVec
	TokenRotations   prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		LoginAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "banking",
			Subsystem: "auth",
			Name:      "login_attempts_total",
			Help:      "Login attempts by outcome.",
		}, []string{"outcome"}),
		RateLimitDenials: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "banking",
			Subsystem: "auth",
			Name:      "rate_limit_denials_total",
			Help:      "Logins denied by the rate limiter.",
		}),
		Transfers: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "banking",
			Subsystem: "transfer",
			Name:      "transfers_total",
			Help:      "Transfer operations by terminal status.",
		}, []string{"status"}),
		TokenRotations: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "banking",
			Subsystem: "auth",
			Name:      "token_rotations_total",
			Help:      "Successful refresh token rotations.",
		}),
	}
}
