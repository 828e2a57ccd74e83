package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hupe1980/wordvec"
	"github.com/hupe1980/wordvec/embedding"
	"github.com/hupe1980/wordvec/quantization"
)

func newConvertCommand(a *app) *cobra.Command {
	var (
		from, to     string
		metadataFile string
		lossy        bool
		unnormalize  bool
	)

	cmd := &cobra.Command{
		Use:   "convert INPUT OUTPUT",
		Short: "Convert between embedding formats",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var meta embedding.Metadata
			if metadataFile != "" {
				data, err := os.ReadFile(metadataFile)
				if err != nil {
					return fmt.Errorf("cannot open metadata file: %w", err)
				}
				if meta, err = embedding.ParseMetadata(data); err != nil {
					return fmt.Errorf("cannot parse metadata TOML from %s: %w", metadataFile, err)
				}
			}

			emb, err := a.load(cmd.Context(), args[0], from, wordvec.WithLossy(lossy))
			if err != nil {
				return err
			}
			defer emb.Close()

			if meta != nil {
				emb = emb.WithMetadata(meta)
			}
			return a.save(cmd.Context(), args[1], emb, to, unnormalize)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&from, "from", "f", "word2vec", "input format: fasttext, finalfusion, text, textdims or word2vec")
	f.StringVarP(&to, "to", "t", "finalfusion", "output format: finalfusion, text, textdims or word2vec")
	f.StringVarP(&metadataFile, "metadata", "m", "", "TOML metadata to add to the embeddings")
	f.BoolVar(&lossy, "lossy", false, "replace invalid UTF-8 in words instead of failing")
	f.BoolVarP(&unnormalize, "unnormalize", "u", false, "write unnormalized embeddings")
	return cmd
}

func newReconstructCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "reconstruct INPUT OUTPUT",
		Short: "Reconstruct quantized embeddings",
		Long:  "Decodes the quantized storage of a finalfusion file and writes a dense finalfusion file.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			emb, err := a.load(cmd.Context(), args[0], "finalfusion")
			if err != nil {
				return err
			}
			defer emb.Close()

			dense, err := quantization.Reconstruct(emb)
			if err != nil {
				return err
			}
			return a.save(cmd.Context(), args[1], dense, "finalfusion", false)
		},
	}
}

func newBucketToExplicitCommand(a *app) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "bucket-to-explicit INPUT OUTPUT",
		Short: "Convert hashed subword embeddings to explicit n-gram embeddings",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "finalfusion" && format != "fasttext" {
				return fmt.Errorf("only finalfusion and fasttext files can be converted, got %q", format)
			}

			emb, err := a.load(cmd.Context(), args[0], format)
			if err != nil {
				return err
			}
			defer emb.Close()

			explicit, err := embedding.ToExplicit(emb)
			if err != nil {
				return err
			}
			return a.save(cmd.Context(), args[1], explicit, "finalfusion", false)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "finalfusion", "input format: finalfusion or fasttext")
	return cmd
}
