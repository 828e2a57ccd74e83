package prom

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}

func gaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, g.Write(&m))
	return m.GetGauge().GetValue()
}

func TestCollector_Record(t *testing.T) {
	c := NewCollector()

	c.RecordLoad("finalfusion", time.Second, nil)
	c.RecordLoad("finalfusion", time.Second, errors.New("truncated"))
	c.RecordQuery("similar", true, time.Millisecond)
	c.RecordQuery("analogy", false, time.Millisecond)
	c.RecordEvaluation(8, 6, 2, 3*time.Second)
	c.RecordQuantization("opq", 0.95, 0.2, time.Minute)

	assert.Equal(t, 1.0, counterValue(t, c.loads.WithLabelValues("finalfusion", "success")))
	assert.Equal(t, 1.0, counterValue(t, c.loads.WithLabelValues("finalfusion", "error")))
	assert.Equal(t, 1.0, counterValue(t, c.queries.WithLabelValues("analogy", "false")))
	assert.Equal(t, 6.0, counterValue(t, c.evalInstances.WithLabelValues("correct")))
	assert.Equal(t, 2.0, counterValue(t, c.evalInstances.WithLabelValues("incorrect")))
	assert.Equal(t, 2.0, counterValue(t, c.evalInstances.WithLabelValues("skipped")))
	assert.Equal(t, 0.75, gaugeValue(t, c.evalAccuracy))
	assert.Equal(t, 0.95, gaugeValue(t, c.quantCosine.WithLabelValues("opq")))

	families, err := c.Registry().Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestCollector_EvaluationWithoutInstances(t *testing.T) {
	c := NewCollector()
	c.RecordEvaluation(0, 0, 5, time.Second)
	assert.Equal(t, 0.0, gaugeValue(t, c.evalAccuracy))
}

func TestCollector_Handler(t *testing.T) {
	c := NewCollector()
	c.RecordQuery("similar", true, time.Millisecond)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `wordvec_queries_total{found="true",kind="similar"} 1`)
}

func TestCollector_Push(t *testing.T) {
	var (
		mu   sync.Mutex
		path string
		body string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		mu.Lock()
		path, body = r.URL.Path, string(b)
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewCollector()
	c.RecordQuantization("pq", 0.9, 0.3, time.Second)
	require.NoError(t, c.Push(context.Background(), srv.URL, "quantize"))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "/metrics/job/quantize", path)
	assert.True(t, strings.Contains(body, "wordvec_quantization_mean_cosine"))
}

func TestCollector_PushError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := NewCollector().Push(context.Background(), srv.URL, "eval")
	assert.Error(t, err)
}
