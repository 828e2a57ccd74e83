package eval

import (
	"io"
	"log/slog"
	"runtime"
	"time"
)

// MetricsRecorder receives evaluation totals. wordvec.MetricsCollector
// implements it.
type MetricsRecorder interface {
	RecordEvaluation(instances, correct, skipped int, duration time.Duration)
}

// ProgressFunc is called as chunks of instances complete. It may be called
// from several goroutines at once.
type ProgressFunc func(done, total int)

// DefaultThreads returns half the logical CPUs, at least 1.
func DefaultThreads() int {
	return max(runtime.NumCPU()/2, 1)
}

type options struct {
	threads  int
	logger   *slog.Logger
	progress ProgressFunc
	metrics  MetricsRecorder
}

// Option configures an Evaluator.
type Option func(*options)

// WithThreads bounds the number of concurrently scoring goroutines.
// Values below 1 select DefaultThreads.
func WithThreads(n int) Option {
	return func(o *options) {
		o.threads = n
	}
}

// WithLogger sets the logger. Nil discards log output.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithProgress registers a progress callback.
func WithProgress(fn ProgressFunc) Option {
	return func(o *options) {
		o.progress = fn
	}
}

// WithMetrics reports evaluation totals to m.
func WithMetrics(m MetricsRecorder) Option {
	return func(o *options) {
		o.metrics = m
	}
}

func applyOptions(opts []Option) options {
	var o options
	for _, fn := range opts {
		fn(&o)
	}
	if o.threads < 1 {
		o.threads = DefaultThreads()
	}
	if o.logger == nil {
		o.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return o
}
