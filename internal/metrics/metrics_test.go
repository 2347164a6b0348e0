package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveValidation(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveValidation(true, "license active")
	m.ObserveValidation(true, "license active")
	m.ObserveValidation(false, "license revoked")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.validations.WithLabelValues("true", "license active")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.validations.WithLabelValues("false", "license revoked")))
}

func TestObserveAdminOpAndMirror(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveAdminOp("issue", "ok")
	m.ObserveAdminOp("issue", "forbidden")
	m.ObserveMirrorFailure()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.adminOps.WithLabelValues("issue", "forbidden")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.mirrorFails))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveValidation(false, "license not found")
		m.ObserveAdminOp("revoke", "ok")
		m.ObserveMirrorFailure()
	})
}
