package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// NewRootCommand builds the wordvec command tree. cfg supplies flag
// defaults read from the environment.
func NewRootCommand(cfg Config) *cobra.Command {
	a := &app{cfg: cfg}

	root := &cobra.Command{
		Use:           "wordvec",
		Short:         "Query, evaluate and convert word embeddings",
		Long:          `wordvec works with finalfusion, word2vec, text and fastText embeddings stored locally, in S3 or in MinIO.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			a.pushMetrics(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.logLevel, "log-level", cfg.LogLevel, "log level: debug, info, warn or error")
	pf.StringVar(&a.logFormat, "log-format", cfg.LogFormat, "log format: text or json")
	pf.StringVar(&a.push, "push-gateway", cfg.PushGateway, "Prometheus Pushgateway URL to push metrics to")

	root.AddCommand(
		newAnalogyCommand(a),
		newSimilarCommand(a),
		newComputeAccuracyCommand(a),
		newQuantizeCommand(a),
		newReconstructCommand(a),
		newConvertCommand(a),
		newSelectCommand(a),
		newMetadataCommand(a),
		newBucketToExplicitCommand(a),
	)
	return root
}

// Execute runs the CLI with args and returns the process exit status.
// Errors are printed to stderr as a single "Error: ..." line.
func Execute(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cfg, err := LoadConfig()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return run(ctx, cfg, args, stdin, stdout, stderr)
}

func run(ctx context.Context, cfg Config, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	root := NewRootCommand(cfg)
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
