package cli

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/hupe1980/wordvec/similarity"
)

type queryFlags struct {
	format     string
	k          int
	similarity string
}

func (f *queryFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.format, "format", "f", "finalfusion", "embedding format: fasttext, finalfusion, finalfusion_mmap, word2vec, text or textdims")
	cmd.Flags().IntVarP(&f.k, "neighbors", "k", 10, "return K nearest neighbors")
	cmd.Flags().StringVarP(&f.similarity, "similarity", "s", "cosine", "similarity measure: cosine or angular")
}

func (f *queryFlags) validate() (similarity.Measure, error) {
	if f.k <= 0 {
		return 0, fmt.Errorf("%w: %d", similarity.ErrInvalidK, f.k)
	}
	return similarity.ParseMeasure(f.similarity)
}

func newSimilarCommand(a *app) *cobra.Command {
	var flags queryFlags

	cmd := &cobra.Command{
		Use:   "similar EMBEDDINGS [INPUT]",
		Short: "Find words that are similar to a given word",
		Long:  "Reads one query word per line from INPUT (or stdin) and prints its nearest neighbors as word<TAB>similarity.",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			measure, err := flags.validate()
			if err != nil {
				return err
			}

			emb, err := a.load(cmd.Context(), args[0], flags.format)
			if err != nil {
				return err
			}
			defer emb.Close()

			ranker, err := similarity.NewRanker(emb, similarity.WithLogger(a.logger.Slog()))
			if err != nil {
				return err
			}

			in, err := openInput(cmd, args, 1)
			if err != nil {
				return err
			}
			defer in.Close()

			out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()
			return forEachLine(in, func(word string) {
				start := time.Now()
				results, err := ranker.WordSimilarity(word, flags.k)
				a.metrics.RecordQuery("similar", err == nil, time.Since(start))
				a.logger.LogQuery(cmd.Context(), "similar", flags.k, len(results), err)
				if err != nil {
					fmt.Fprintf(errOut, "Could not compute embedding for: %s\n", word)
					return
				}
				for _, r := range results {
					fmt.Fprintf(out, "%s\t%v\n", r.Word, r.Score(measure))
				}
			})
		},
	}
	flags.register(cmd)
	return cmd
}

func newAnalogyCommand(a *app) *cobra.Command {
	var (
		flags   queryFlags
		include []string
	)

	cmd := &cobra.Command{
		Use:   "analogy EMBEDDINGS [INPUT]",
		Short: "Find words that fit an analogy",
		Long: `Reads one analogy "a b c" per line from INPUT (or stdin) and prints the
words d such that a is to b as c is to d, as word<TAB>similarity.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			measure, err := flags.validate()
			if err != nil {
				return err
			}
			exclude, err := similarity.ParseInclude(include)
			if err != nil {
				return err
			}

			emb, err := a.load(cmd.Context(), args[0], flags.format)
			if err != nil {
				return err
			}
			defer emb.Close()

			ranker, err := similarity.NewRanker(emb, similarity.WithLogger(a.logger.Slog()))
			if err != nil {
				return err
			}

			in, err := openInput(cmd, args, 1)
			if err != nil {
				return err
			}
			defer in.Close()

			out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()
			return forEachLine(in, func(line string) {
				tokens := strings.Fields(line)
				if len(tokens) != 3 {
					fmt.Fprintf(errOut, "Query does not consist of three tokens: %s\n", line)
					return
				}
				query := [3]string{tokens[0], tokens[1], tokens[2]}

				start := time.Now()
				results, err := ranker.AnalogyMasked(query, exclude, flags.k)
				a.metrics.RecordQuery("analogy", err == nil, time.Since(start))
				a.logger.LogQuery(cmd.Context(), "analogy", flags.k, len(results), err)

				var lookup *similarity.LookupError
				if errors.As(err, &lookup) {
					fmt.Fprintf(errOut, "Could not compute embedding(s) for: %s\n", strings.Join(lookup.Missing(query), ", "))
					return
				}
				if err != nil {
					fmt.Fprintf(errOut, "Cannot answer %q: %v\n", line, err)
					return
				}
				for _, r := range results {
					fmt.Fprintf(out, "%s\t%v\n", r.Word, r.Score(measure))
				}
			})
		},
	}
	flags.register(cmd)
	cmd.Flags().StringSliceVar(&include, "include", nil, "query parts that may be returned as answers: a, b and/or c")
	return cmd
}
