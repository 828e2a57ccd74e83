package wordvec

import (
	"math"
	"sync/atomic"
	"time"
)

// MetricsCollector receives operational metrics.
// Implement this interface to integrate with monitoring systems; the
// metrics/prom package provides a Prometheus implementation.
type MetricsCollector interface {
	// RecordLoad is called after an embedding file was read.
	// err is nil if successful.
	RecordLoad(format string, duration time.Duration, err error)

	// RecordQuery is called after each similarity or analogy query.
	// kind is "similar" or "analogy", found reports whether the query
	// could be answered.
	RecordQuery(kind string, found bool, duration time.Duration)

	// RecordEvaluation is called after an accuracy evaluation with its
	// totals.
	RecordEvaluation(instances, correct, skipped int, duration time.Duration)

	// RecordQuantization is called after a quantization run with the
	// reconstruction loss.
	RecordQuantization(kind string, meanCosine, meanEuclidean float64, duration time.Duration)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordLoad(string, time.Duration, error)                    {}
func (NoopMetricsCollector) RecordQuery(string, bool, time.Duration)                    {}
func (NoopMetricsCollector) RecordEvaluation(int, int, int, time.Duration)              {}
func (NoopMetricsCollector) RecordQuantization(string, float64, float64, time.Duration) {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and tests without external dependencies.
type BasicMetricsCollector struct {
	LoadCount          atomic.Int64
	LoadErrors         atomic.Int64
	LoadTotalNanos     atomic.Int64
	QueryCount         atomic.Int64
	QueryMisses        atomic.Int64
	QueryTotalNanos    atomic.Int64
	EvaluationCount    atomic.Int64
	EvaluatedInstances atomic.Int64
	EvaluatedCorrect   atomic.Int64
	EvaluatedSkipped   atomic.Int64
	QuantizationCount  atomic.Int64
	lastCosineBits     atomic.Uint64
	lastEuclideanBits  atomic.Uint64
}

// RecordLoad implements MetricsCollector.
func (b *BasicMetricsCollector) RecordLoad(_ string, duration time.Duration, err error) {
	b.LoadCount.Add(1)
	b.LoadTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.LoadErrors.Add(1)
	}
}

// RecordQuery implements MetricsCollector.
func (b *BasicMetricsCollector) RecordQuery(_ string, found bool, duration time.Duration) {
	b.QueryCount.Add(1)
	b.QueryTotalNanos.Add(duration.Nanoseconds())
	if !found {
		b.QueryMisses.Add(1)
	}
}

// RecordEvaluation implements MetricsCollector.
func (b *BasicMetricsCollector) RecordEvaluation(instances, correct, skipped int, _ time.Duration) {
	b.EvaluationCount.Add(1)
	b.EvaluatedInstances.Add(int64(instances))
	b.EvaluatedCorrect.Add(int64(correct))
	b.EvaluatedSkipped.Add(int64(skipped))
}

// RecordQuantization implements MetricsCollector.
func (b *BasicMetricsCollector) RecordQuantization(_ string, meanCosine, meanEuclidean float64, _ time.Duration) {
	b.QuantizationCount.Add(1)
	b.lastCosineBits.Store(math.Float64bits(meanCosine))
	b.lastEuclideanBits.Store(math.Float64bits(meanEuclidean))
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		LoadCount:          b.LoadCount.Load(),
		LoadErrors:         b.LoadErrors.Load(),
		LoadAvgNanos:       avg(b.LoadTotalNanos.Load(), b.LoadCount.Load()),
		QueryCount:         b.QueryCount.Load(),
		QueryMisses:        b.QueryMisses.Load(),
		QueryAvgNanos:      avg(b.QueryTotalNanos.Load(), b.QueryCount.Load()),
		EvaluationCount:    b.EvaluationCount.Load(),
		EvaluatedInstances: b.EvaluatedInstances.Load(),
		EvaluatedCorrect:   b.EvaluatedCorrect.Load(),
		EvaluatedSkipped:   b.EvaluatedSkipped.Load(),
		QuantizationCount:  b.QuantizationCount.Load(),
		LastMeanCosine:     math.Float64frombits(b.lastCosineBits.Load()),
		LastMeanEuclidean:  math.Float64frombits(b.lastEuclideanBits.Load()),
	}
}

func avg(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	LoadCount          int64
	LoadErrors         int64
	LoadAvgNanos       int64
	QueryCount         int64
	QueryMisses        int64
	QueryAvgNanos      int64
	EvaluationCount    int64
	EvaluatedInstances int64
	EvaluatedCorrect   int64
	EvaluatedSkipped   int64
	QuantizationCount  int64
	LastMeanCosine     float64
	LastMeanEuclidean  float64
}
