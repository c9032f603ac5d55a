package metrics

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Observe(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveRecord("interpret", time.Now(), nil)
	m.ObserveRecord("interpret", time.Now(), errors.New("boom"))
	m.ObserveRecord("compile", time.Now(), nil)
	m.ObserveBatch()

	assert.InDelta(t, 2, testutil.ToFloat64(m.records.WithLabelValues("interpret")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.records.WithLabelValues("compile")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.failures.WithLabelValues("interpret")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.batches), 0)

	err := testutil.GatherAndCompare(reg, strings.NewReader(`
# HELP schemamap_record_errors_total Number of records whose transformation failed.
# TYPE schemamap_record_errors_total counter
schemamap_record_errors_total{backend="interpret"} 1
`), "schemamap_record_errors_total")
	require.NoError(t, err)
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.ObserveRecord("interpret", time.Now(), nil)
		m.ObserveBatch()
	})
}

func TestHandler(t *testing.T) {
	reg := NewRegistry()
	New(reg).ObserveBatch()

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), "schemamap_batches_total 1")
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
