package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hupe1980/wordvec"
)

func newMetadataCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "metadata INPUT [OUTPUT]",
		Short: "Extract metadata from finalfusion embeddings",
		Long:  "Prints the TOML metadata of a finalfusion file to OUTPUT (or stdout). Nothing is written when the file has no metadata.",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			meta, err := wordvec.LoadMetadata(cmd.Context(), args[0], a.options()...)
			if err != nil {
				return fmt.Errorf("cannot read metadata from %s: %w", args[0], err)
			}
			if meta == nil {
				return nil
			}

			data, err := meta.MarshalTOML()
			if err != nil {
				return fmt.Errorf("cannot serialize metadata to TOML: %w", err)
			}

			if len(args) < 2 {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			return os.WriteFile(args[1], data, 0o644)
		},
	}
}
