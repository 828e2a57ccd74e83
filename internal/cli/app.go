package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hupe1980/wordvec"
	"github.com/hupe1980/wordvec/blobstore/minio"
	"github.com/hupe1980/wordvec/blobstore/s3"
	"github.com/hupe1980/wordvec/codec"
	"github.com/hupe1980/wordvec/embedding"
	"github.com/hupe1980/wordvec/eval"
	"github.com/hupe1980/wordvec/metrics/prom"
)

// app is the state shared by all subcommands of one invocation.
type app struct {
	cfg       Config
	logLevel  string
	logFormat string
	push      string

	logger  *wordvec.Logger
	metrics *prom.Collector
}

func (a *app) setup(cmd *cobra.Command) error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(a.logLevel)); err != nil {
		return fmt.Errorf("invalid log level %q", a.logLevel)
	}

	opts := &slog.HandlerOptions{Level: level}
	switch strings.ToLower(a.logFormat) {
	case "text":
		a.logger = wordvec.NewLogger(slog.NewTextHandler(cmd.ErrOrStderr(), opts))
	case "json":
		a.logger = wordvec.NewLogger(slog.NewJSONHandler(cmd.ErrOrStderr(), opts))
	default:
		return fmt.Errorf("invalid log format %q, expected text or json", a.logFormat)
	}

	a.metrics = prom.NewCollector()
	return nil
}

// pushMetrics sends the collected metrics to the Pushgateway, if one is
// configured. Failures are logged and never fail the command.
func (a *app) pushMetrics(cmd *cobra.Command) {
	if a.push == "" || a.metrics == nil {
		return
	}
	if err := a.metrics.Push(cmd.Context(), a.push, "wordvec_"+strings.ReplaceAll(cmd.Name(), "-", "_")); err != nil {
		a.logger.Warn("pushing metrics failed", "error", err)
	}
}

func (a *app) options(extra ...wordvec.Option) []wordvec.Option {
	opts := []wordvec.Option{
		wordvec.WithLogger(a.logger),
		wordvec.WithMetricsCollector(a.metrics),
		wordvec.WithS3Config(s3.ClientConfig{
			Region:   a.cfg.S3Region,
			Endpoint: a.cfg.S3Endpoint,
		}),
		wordvec.WithMinioConfig(minio.ClientConfig{
			Endpoint:  a.cfg.MinioEndpoint,
			AccessKey: a.cfg.MinioAccessKey,
			SecretKey: a.cfg.MinioSecretKey,
			Secure:    a.cfg.MinioSecure,
		}),
	}
	return append(opts, extra...)
}

func (a *app) load(ctx context.Context, uri, format string, extra ...wordvec.Option) (*embedding.Embeddings, error) {
	f, err := codec.ParseFormat(format)
	if err != nil {
		return nil, err
	}
	emb, err := wordvec.Load(ctx, uri, f, a.options(extra...)...)
	if err != nil {
		return nil, fmt.Errorf("cannot read embeddings: %w", err)
	}
	return emb, nil
}

func (a *app) save(ctx context.Context, uri string, emb *embedding.Embeddings, format string, unnormalize bool) error {
	f, err := codec.ParseFormat(format)
	if err != nil {
		return err
	}
	if err := wordvec.Save(ctx, uri, emb, f, unnormalize, a.options()...); err != nil {
		return fmt.Errorf("cannot write embeddings: %w", err)
	}
	return nil
}

func (a *app) threads(flag int) int {
	if flag > 0 {
		return flag
	}
	if a.cfg.Threads > 0 {
		return a.cfg.Threads
	}
	return eval.DefaultThreads()
}

// openInput opens path for reading, or stdin when no path is given.
func openInput(cmd *cobra.Command, args []string, i int) (io.ReadCloser, error) {
	if len(args) <= i || args[i] == "-" {
		return io.NopCloser(cmd.InOrStdin()), nil
	}
	f, err := os.Open(args[i])
	if err != nil {
		return nil, fmt.Errorf("cannot open input: %w", err)
	}
	return f, nil
}

// forEachLine calls fn for every non-empty, trimmed line of r.
func forEachLine(r io.Reader, fn func(line string)) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fn(line)
	}
	return scanner.Err()
}
