package cli

import (
	"github.com/spf13/cobra"
	"github.com/warp/stock-engine/export"
)

// NewTotalCommand creates the total command.
func NewTotalCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "total",
		Short: "Print the stock summary and running sales total",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, closeStore, err := newEngine(cmd.Context(), rootOpts)
			defer closeStore()
			if err != nil {
				return err
			}

			snap, err := eng.Snapshot(cmd.Context())
			if err != nil {
				return WrapExitError(ExitFailure, "failed to read stores", err)
			}
			sum := export.Summarize(snap)
			return writeOutput(cmd.OutOrStdout(), rootOpts.Format, sum, sum.String())
		},
	}
}
