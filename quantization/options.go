package quantization

import (
	"io"
	"log/slog"
)

type options struct {
	logger *slog.Logger
}

// Option configures QuantizeAndMeasure.
type Option func(*options)

// WithLogger sets the logger. Nil discards log output.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

func applyOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return o
}
