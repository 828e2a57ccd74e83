package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hupe1980/wordvec/embedding"
)

func newSelectCommand(a *app) *cobra.Command {
	var (
		from, to string
		opts     embedding.SelectOptions
	)

	cmd := &cobra.Command{
		Use:   "select INPUT OUTPUT [WORDS]",
		Short: "Select a subset of embeddings",
		Long:  "Copies the embeddings of the words listed in WORDS (or stdin), one per line, to OUTPUT.",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := openInput(cmd, args, 2)
			if err != nil {
				return err
			}
			defer in.Close()

			var words []string
			if err := forEachLine(in, func(w string) { words = append(words, w) }); err != nil {
				return fmt.Errorf("cannot read selection: %w", err)
			}

			emb, err := a.load(cmd.Context(), args[0], from)
			if err != nil {
				return err
			}
			defer emb.Close()

			opts.Logger = a.logger.Slog()
			selected, dropped, err := embedding.Select(emb, words, opts)
			if err != nil {
				return err
			}
			if len(dropped) > 0 {
				a.logger.Info("dropped unknown words", "count", len(dropped))
			}
			return a.save(cmd.Context(), args[1], selected, to, true)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&from, "format", "f", "finalfusion", "input format")
	f.StringVarP(&to, "to", "t", "finalfusion", "output format: finalfusion, text, textdims or word2vec")
	f.BoolVarP(&opts.IgnoreUnknown, "ignore-unknown", "i", false, "skip words without an embedding")
	f.BoolVar(&opts.ReportDropped, "report-dropped", false, "log every skipped word")
	return cmd
}
