package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"daycheck/internal/model"
)

func TestMetricsRecord(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := MustNew(reg)

	m.ObserveToggle(model.RecurringID(1), true)
	m.ObserveToggle(model.RecurringID(1), true)
	m.ObserveToggle(model.OneOffID(2), false)
	m.ObserveMaterialized()
	m.ObserveSkipped()
	m.ObserveListing("date", time.Now())

	assert.Equal(t, 2.0, testutil.ToFloat64(m.toggles.WithLabelValues("recurring", "true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.toggles.WithLabelValues("one-off", "false")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.materialized))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.skipped))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.Len(t, families, 4)
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveToggle(model.OneOffID(1), true)
		m.ObserveMaterialized()
		m.ObserveSkipped()
		m.ObserveListing("range", time.Now())
	})
}

func TestMustNewPanicsOnDuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	MustNew(reg)
	assert.Panics(t, func() { MustNew(reg) })
}
