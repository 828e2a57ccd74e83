package wordvec

import (
	"log/slog"

	"github.com/hupe1980/wordvec/blobstore"
	"github.com/hupe1980/wordvec/blobstore/minio"
	"github.com/hupe1980/wordvec/blobstore/s3"
)

type options struct {
	metricsCollector MetricsCollector
	logger           *Logger
	lossy            bool
	expectedDims     int
	store            blobstore.BlobStore
	s3Config         s3.ClientConfig
	minioConfig      minio.ClientConfig
}

// Option configures Load and Save.
type Option func(*options)

// WithMetricsCollector configures a metrics collector. Pass nil to disable
// metrics collection.
//
//	metrics := &wordvec.BasicMetricsCollector{}
//	emb, _ := wordvec.Load(ctx, "wiki.fifu", codec.FormatFinalfusion, wordvec.WithMetricsCollector(metrics))
//	fmt.Println(metrics.GetStats().LoadAvgNanos)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging. Pass nil to disable logging.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithLossy replaces invalid UTF-8 in words with U+FFFD instead of failing.
func WithLossy(lossy bool) Option {
	return func(o *options) {
		o.lossy = lossy
	}
}

// WithExpectedDims makes Load fail with *ErrDimensionMismatch unless the
// embeddings have exactly dims dimensions.
func WithExpectedDims(dims int) Option {
	return func(o *options) {
		o.expectedDims = dims
	}
}

// WithBlobStore serves every location from store; the URI is used as the
// blob name as is.
func WithBlobStore(store blobstore.BlobStore) Option {
	return func(o *options) {
		o.store = store
	}
}

// WithS3Config sets the region and endpoint used for s3:// locations.
func WithS3Config(cfg s3.ClientConfig) Option {
	return func(o *options) {
		o.s3Config = cfg
	}
}

// WithMinioConfig sets the connection used for minio:// locations.
func WithMinioConfig(cfg minio.ClientConfig) Option {
	return func(o *options) {
		o.minioConfig = cfg
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.metricsCollector == nil {
		o.metricsCollector = NoopMetricsCollector{}
	}
	if o.logger == nil {
		o.logger = NoopLogger()
	}
	return o
}
