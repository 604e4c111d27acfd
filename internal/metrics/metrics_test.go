package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"tradewise/internal/model"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(job string, stats model.RunStats) model.RunRecord {
	start := time.Date(2024, 3, 1, 19, 0, 0, 0, time.UTC)
	return model.RunRecord{ID: "01", Job: job, StartedAt: start, FinishedAt: start.Add(42 * time.Second), Stats: stats}
}

func TestObserveRun_Signals(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.ObserveRun(run(model.JobBreakout, model.RunStats{Processed: 10, Created: 7, Errors: 2}), nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RunsTotal.WithLabelValues(model.JobBreakout, "ok")))
	assert.Equal(t, 8.0, testutil.ToFloat64(m.SymbolsTotal.WithLabelValues(model.JobBreakout, "ok")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.SymbolsTotal.WithLabelValues(model.JobBreakout, "error")))
	assert.Equal(t, 7.0, testutil.ToFloat64(m.SignalsCreated.WithLabelValues(model.JobBreakout)))
	assert.Equal(t, float64(run("", model.RunStats{}).FinishedAt.Unix()),
		testutil.ToFloat64(m.LastSuccess.WithLabelValues(model.JobBreakout)))
}

func TestObserveRun_LTHAndFailure(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.ObserveRun(run(model.JobLTH, model.RunStats{Processed: 4, Created: 1, Updated: 2, Unchanged: 1}), errors.New("store down"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RunsTotal.WithLabelValues(model.JobLTH, "failed")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.LTHOutcomes.WithLabelValues("updated")))
	assert.Equal(t, 0, testutil.CollectAndCount(m.LastSuccess))
	assert.Equal(t, 0, testutil.CollectAndCount(m.SignalsCreated))
}

func TestObserveRun_ErrorsWithoutSymbols(t *testing.T) {
	m := New(prometheus.NewRegistry())
	require.NotPanics(t, func() {
		m.ObserveRun(run(model.JobLTH, model.RunStats{Errors: 1}), nil)
	})
	assert.Equal(t, 0.0, testutil.ToFloat64(m.SymbolsTotal.WithLabelValues(model.JobLTH, "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SymbolsTotal.WithLabelValues(model.JobLTH, "error")))
}

func TestObserveRun_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() { m.ObserveRun(run(model.JobLTH, model.RunStats{}), nil) })
}

func TestServer_ExposesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.ObserveRun(run(model.JobMovingAverage, model.RunStats{Processed: 1, Created: 3}), nil)

	srv := NewServer(":0", reg)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `tradewise_signals_created_total{job="moving_average"} 3`))

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, "ok", rec.Body.String())
}
