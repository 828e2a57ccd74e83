package similarity

import (
	"io"
	"log/slog"
)

// DefaultBatchSize is the number of rows scored per matrix-vector product.
const DefaultBatchSize = 4096

type options struct {
	batchSize int
	logger    *slog.Logger
}

// Option configures a Ranker.
type Option func(*options)

// WithBatchSize sets how many rows are scored per matrix-vector product.
// Values below 1 fall back to DefaultBatchSize.
func WithBatchSize(n int) Option {
	return func(o *options) {
		o.batchSize = n
	}
}

// WithLogger sets the logger. Nil discards log output.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

func applyOptions(opts []Option) options {
	o := options{batchSize: DefaultBatchSize}
	for _, fn := range opts {
		fn(&o)
	}
	if o.batchSize < 1 {
		o.batchSize = DefaultBatchSize
	}
	if o.logger == nil {
		o.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return o
}
