package wordvec

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with wordvec-specific helpers.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses a text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that writes JSON records to stderr.
func NewJSONLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NewTextLogger creates a Logger that writes human-readable records to stderr.
func NewTextLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return NewLogger(slog.DiscardHandler)
}

// Slog returns the underlying *slog.Logger, for packages that take one.
func (l *Logger) Slog() *slog.Logger {
	if l == nil {
		return NoopLogger().Logger
	}
	return l.Logger
}

// LogLoad logs reading an embedding file.
func (l *Logger) LogLoad(ctx context.Context, uri, format string, words, dims int, d time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "load failed",
			"uri", uri,
			"format", format,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "embeddings loaded",
		"uri", uri,
		"format", format,
		"words", words,
		"dims", dims,
		"duration", d,
	)
}

// LogSave logs writing an embedding file.
func (l *Logger) LogSave(ctx context.Context, uri, format string, d time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "save failed",
			"uri", uri,
			"format", format,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "embeddings saved",
		"uri", uri,
		"format", format,
		"duration", d,
	)
}

// LogQuery logs a similarity or analogy query.
func (l *Logger) LogQuery(ctx context.Context, kind string, k, results int, err error) {
	if err != nil {
		l.DebugContext(ctx, "query failed",
			"kind", kind,
			"k", k,
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "query completed",
		"kind", kind,
		"k", k,
		"results", results,
	)
}

// LogEvaluation logs the totals of an accuracy evaluation.
func (l *Logger) LogEvaluation(ctx context.Context, instances, correct, skipped int, d time.Duration) {
	if instances == 0 {
		l.WarnContext(ctx, "evaluation completed without instances",
			"skipped", skipped,
		)
		return
	}
	l.InfoContext(ctx, "evaluation completed",
		"instances", instances,
		"correct", correct,
		"skipped", skipped,
		"duration", d,
	)
}

// LogQuantize logs the outcome of a quantization run.
func (l *Logger) LogQuantize(ctx context.Context, kind string, meanCosine, meanEuclidean float64, d time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "quantization failed",
			"quantizer", kind,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "quantization completed",
		"quantizer", kind,
		"mean_cosine", meanCosine,
		"mean_euclidean", meanEuclidean,
		"duration", d,
	)
}
