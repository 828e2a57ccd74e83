package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hupe1980/wordvec/quantization"
)

func newQuantizeCommand(a *app) *cobra.Command {
	var (
		format    string
		quantizer string
		cfg       = quantization.DefaultConfig()
	)

	cmd := &cobra.Command{
		Use:   "quantize INPUT OUTPUT",
		Short: "Quantize embeddings",
		Long: `Trains a product quantizer on the embedding matrix and writes the
quantized embeddings in finalfusion format. The average cosine similarity and
Euclidean distance between original and reconstructed rows go to stderr.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := quantization.ParseKind(quantizer)
			if err != nil {
				return err
			}
			cfg.Kind = kind
			cfg.Threads = a.threads(cfg.Threads)
			if cfg.Bits < 1 || cfg.Bits > 8 {
				return fmt.Errorf("the number of quantizer bits should be in [1, 8], was: %d", cfg.Bits)
			}

			emb, err := a.load(cmd.Context(), args[0], format)
			if err != nil {
				return err
			}
			defer emb.Close()

			start := time.Now()
			quantized, loss, err := quantization.QuantizeAndMeasure(cmd.Context(), emb, cfg,
				quantization.WithLogger(a.logger.Slog()))
			a.logger.LogQuantize(cmd.Context(), kind.String(), loss.MeanCosine, loss.MeanEuclidean, time.Since(start), err)
			if err != nil {
				return err
			}
			a.metrics.RecordQuantization(kind.String(), loss.MeanCosine, loss.MeanEuclidean, time.Since(start))

			if err := a.save(cmd.Context(), args[1], quantized, "finalfusion", false); err != nil {
				return err
			}

			errOut := cmd.ErrOrStderr()
			fmt.Fprintf(errOut, "Average cosine similarity: %v\n", float32(loss.MeanCosine))
			fmt.Fprintf(errOut, "Average euclidean distance: %v\n", float32(loss.MeanEuclidean))
			return nil
		},
	}

	f := cmd.Flags()
	f.IntVarP(&cfg.Attempts, "attempts", "a", cfg.Attempts, "number of quantization attempts per subquantizer")
	f.IntVarP(&cfg.Bits, "bits", "b", cfg.Bits, "number of quantizer bits (max. 8)")
	f.StringVarP(&format, "from", "f", "word2vec", "input format: fasttext, finalfusion, text, textdims or word2vec")
	f.IntVarP(&cfg.Iterations, "iter", "i", cfg.Iterations, "number of k-means iterations")
	f.StringVarP(&quantizer, "quantizer", "q", "pq", "quantizer: pq, opq or gaussian_opq")
	f.IntVarP(&cfg.Subquantizers, "subquantizers", "s", 0, "number of subquantizers (default: dims / 2)")
	f.IntVarP(&cfg.Threads, "threads", "t", 0, "number of threads (default: logical CPUs / 2)")
	f.Uint64Var(&cfg.Seed, "seed", 0, "random seed for reproducible training")
	return cmd
}
