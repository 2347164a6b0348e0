// Package metrics exposes license server counters to Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the license server collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	validations *prometheus.CounterVec
	adminOps    *prometheus.CounterVec
	mirrorFails prometheus.Counter
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		validations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "license",
			Name:      "validations_total",
			Help:      "Validate calls by outcome.",
		}, []string{"valid", "message"}),
		adminOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "license",
			Name:      "admin_operations_total",
			Help:      "Admin operations by action and result.",
		}, []string{"action", "result"}),
		mirrorFails: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "license",
			Name:      "mirror_failures_total",
			Help:      "Failed spreadsheet mirror writes.",
		}),
	}
	reg.MustRegister(m.validations, m.adminOps, m.mirrorFails)
	return m
}

func (m *Metrics) ObserveValidation(valid bool, message string) {
	if m == nil {
		return
	}
	v := "false"
	if valid {
		v = "true"
	}
	m.validations.WithLabelValues(v, message).Inc()
}

func (m *Metrics) ObserveAdminOp(action, result string) {
	if m == nil {
		return
	}
	m.adminOps.WithLabelValues(action, result).Inc()
}

func (m *Metrics) ObserveMirrorFailure() {
	if m == nil {
		return
	}
	m.mirrorFails.Inc()
}
