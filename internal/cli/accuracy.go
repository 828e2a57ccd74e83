package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hupe1980/wordvec/eval"
)

func newComputeAccuracyCommand(a *app) *cobra.Command {
	var (
		format  string
		threads int
	)

	cmd := &cobra.Command{
		Use:   "compute-accuracy EMBEDDINGS [ANALOGIES]",
		Short: "Compute prediction accuracy on a set of analogies",
		Long: `Evaluates analogy questions from ANALOGIES (or stdin). Lines starting
with ": " open a section; every other line holds four words "a b c d".`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			emb, err := a.load(cmd.Context(), args[0], format)
			if err != nil {
				return err
			}
			defer emb.Close()

			in, err := openInput(cmd, args, 1)
			if err != nil {
				return err
			}
			defer in.Close()

			instances, err := eval.ReadInstances(in)
			if err != nil {
				return fmt.Errorf("cannot read analogies: %w", err)
			}

			evaluator, err := eval.NewEvaluator(emb,
				eval.WithThreads(a.threads(threads)),
				eval.WithLogger(a.logger.Slog()),
				eval.WithMetrics(a.metrics),
			)
			if err != nil {
				return err
			}

			start := time.Now()
			report, err := evaluator.Evaluate(cmd.Context(), instances)
			if err != nil {
				return err
			}
			a.logger.LogEvaluation(cmd.Context(), report.Total.Instances, report.Total.Correct, report.Total.Skipped, time.Since(start))

			return report.Write(cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "finalfusion", "embedding format")
	cmd.Flags().IntVar(&threads, "threads", 0, "number of threads (default: logical CPUs / 2)")
	return cmd
}
