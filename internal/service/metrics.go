package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the identity services.
// Pass to the service constructors.
type Metrics struct {
	LoginsTotal      *prometheus.CounterVec
	RoleChangesTotal *prometheus.CounterVec
	FlagTogglesTotal *prometheus.CounterVec
	ResetStepsTotal  *prometheus.CounterVec
	CodesIssuedTotal prometheus.Counter
}

// NewMetrics creates and registers all metrics with the given registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		LoginsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "marketauth",
				Name:      "logins_total",
				Help:      "Total login attempts by outcome",
			},
			[]string{"result"}, // result=success/invalid_credentials/not_verified/forbidden/error
		),
		RoleChangesTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "marketauth",
				Name:      "role_changes_total",
				Help:      "Total successful role transitions by new role",
			},
			[]string{"new_role"},
		),
		FlagTogglesTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "marketauth",
				Name:      "flag_toggles_total",
				Help:      "Total successful flag toggles by flag",
			},
			[]string{"flag"},
		),
		ResetStepsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "marketauth",
				Name:      "reset_steps_total",
				Help:      "Total password reset protocol steps by phase and outcome",
			},
			[]string{"phase", "result"}, // phase=request/verify/reset, result=ok/denied
		),
		CodesIssuedTotal: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Namespace: "marketauth",
				Name:      "verification_codes_issued_total",
				Help:      "Total verification codes issued",
			},
		),
	}
}
