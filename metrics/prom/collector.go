package prom

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/hupe1980/wordvec"
)

const namespace = "wordvec"

// Collector implements wordvec.MetricsCollector on its own registry.
type Collector struct {
	registry *prometheus.Registry

	loads         *prometheus.CounterVec
	loadLatency   *prometheus.HistogramVec
	queries       *prometheus.CounterVec
	queryLatency  *prometheus.HistogramVec
	evalInstances *prometheus.CounterVec
	evalAccuracy  prometheus.Gauge
	evalDuration  prometheus.Gauge
	quantizations *prometheus.CounterVec
	quantCosine   *prometheus.GaugeVec
	quantEuclid   *prometheus.GaugeVec
	quantDuration *prometheus.GaugeVec
}

var _ wordvec.MetricsCollector = (*Collector)(nil)

func status(ok bool) string {
	if ok {
		return "success"
	}
	return "error"
}

// NewCollector creates a Collector and registers its metrics on a fresh
// registry.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		loads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "loads_total",
			Help:      "Embedding files read, by format and status",
		}, []string{"format", "status"}),
		loadLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "load_duration_seconds",
			Help:      "Time to read an embedding file",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
		}, []string{"format"}),
		queries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queries_total",
			Help:      "Similarity and analogy queries, by kind and whether they resolved",
		}, []string{"kind", "found"}),
		queryLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "query_duration_seconds",
			Help:      "Latency of similarity and analogy queries",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),
		evalInstances: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evaluation_instances_total",
			Help:      "Analogy instances evaluated, by outcome",
		}, []string{"outcome"}),
		evalAccuracy: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "evaluation_accuracy_ratio",
			Help:      "Accuracy of the last evaluation",
		}),
		evalDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "evaluation_duration_seconds",
			Help:      "Duration of the last evaluation",
		}),
		quantizations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quantizations_total",
			Help:      "Quantization runs, by quantizer",
		}, []string{"quantizer"}),
		quantCosine: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "quantization_mean_cosine",
			Help:      "Mean cosine similarity between original and reconstructed rows",
		}, []string{"quantizer"}),
		quantEuclid: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "quantization_mean_euclidean",
			Help:      "Mean Euclidean distance between original and reconstructed rows",
		}, []string{"quantizer"}),
		quantDuration: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "quantization_duration_seconds",
			Help:      "Duration of the last quantization run",
		}, []string{"quantizer"}),
	}

	c.registry.MustRegister(
		c.loads,
		c.loadLatency,
		c.queries,
		c.queryLatency,
		c.evalInstances,
		c.evalAccuracy,
		c.evalDuration,
		c.quantizations,
		c.quantCosine,
		c.quantEuclid,
		c.quantDuration,
	)
	return c
}

// Registry returns the registry holding the collector's metrics.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// Handler serves the metrics in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// RecordLoad implements wordvec.MetricsCollector.
func (c *Collector) RecordLoad(format string, d time.Duration, err error) {
	c.loads.WithLabelValues(format, status(err == nil)).Inc()
	if err == nil {
		c.loadLatency.WithLabelValues(format).Observe(d.Seconds())
	}
}

// RecordQuery implements wordvec.MetricsCollector.
func (c *Collector) RecordQuery(kind string, found bool, d time.Duration) {
	c.queries.WithLabelValues(kind, fmt.Sprint(found)).Inc()
	c.queryLatency.WithLabelValues(kind).Observe(d.Seconds())
}

// RecordEvaluation implements wordvec.MetricsCollector.
func (c *Collector) RecordEvaluation(instances, correct, skipped int, d time.Duration) {
	c.evalInstances.WithLabelValues("correct").Add(float64(correct))
	c.evalInstances.WithLabelValues("incorrect").Add(float64(instances - correct))
	c.evalInstances.WithLabelValues("skipped").Add(float64(skipped))
	accuracy := 0.0
	if instances > 0 {
		accuracy = float64(correct) / float64(instances)
	}
	c.evalAccuracy.Set(accuracy)
	c.evalDuration.Set(d.Seconds())
}

// RecordQuantization implements wordvec.MetricsCollector.
func (c *Collector) RecordQuantization(kind string, meanCosine, meanEuclidean float64, d time.Duration) {
	c.quantizations.WithLabelValues(kind).Inc()
	c.quantCosine.WithLabelValues(kind).Set(meanCosine)
	c.quantEuclid.WithLabelValues(kind).Set(meanEuclidean)
	c.quantDuration.WithLabelValues(kind).Set(d.Seconds())
}

// Push sends all metrics to the Pushgateway at url under the given job,
// replacing earlier pushes of the same job.
func (c *Collector) Push(ctx context.Context, url, job string) error {
	if err := push.New(url, job).Gatherer(c.registry).PushContext(ctx); err != nil {
		return fmt.Errorf("prom: push to %s: %w", url, err)
	}
	return nil
}
