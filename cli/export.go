package cli

import (
	"time"

	"github.com/spf13/cobra"
	"github.com/warp/stock-engine/export"
)

// ExportOptions holds flags for the export command.
type ExportOptions struct {
	*RootOptions
	Out string
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a workbook of every store",
		Long: `Write stock-YYYY-MM-DD.xlsx with one sheet per store and the running total.

Example:
  stockd export --out ./exports`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, closeStore, err := newEngine(cmd.Context(), opts.RootOptions)
			defer closeStore()
			if err != nil {
				return err
			}

			dir := opts.Out
			if dir == "" {
				dir = opts.Config.Scheduler.ExportDir
			}
			loc, _ := opts.Config.Location()
			path, err := export.ToDir(cmd.Context(), eng, dir, time.Now().In(loc))
			if err != nil {
				return WrapExitError(ExitFailure, "export failed", err)
			}
			return writeOutput(cmd.OutOrStdout(), opts.Format, map[string]string{"path": path}, path)
		},
	}

	cmd.Flags().StringVarP(&opts.Out, "out", "o", "", "output directory (overrides scheduler.export_dir)")

	return cmd
}
