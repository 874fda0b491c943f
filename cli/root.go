/*
Package cli wires configuration, logging, the record store and the engine
into the stockd commands.

COMMANDS:
  serve    HTTP API with scheduled exports and summaries
  export   Write a workbook of every store once
  total    Print the stock summary and running sales total
*/
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/warp/stock-engine/config"
	"github.com/warp/stock-engine/logger"
	"go.uber.org/zap"
)

// RootOptions holds global flags and what PersistentPreRunE builds from them.
type RootOptions struct {
	ConfigPath string
	Driver     string
	Dir        string
	Format     string // "json" | "text"

	Config config.Config
	Logger *zap.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "stockd",
		Short: "stockd - phone stock lifecycle engine",
		Long:  "Tracks phones through stock, repair and sale, keeping aggregate stock, the unit register and the sales total consistent.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return opts.load(cmd)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "config file (yaml, toml or json)")
	cmd.PersistentFlags().StringVar(&opts.Driver, "driver", "", "override store.driver (memory|csv|sqlite|sheets)")
	cmd.PersistentFlags().StringVar(&opts.Dir, "dir", "", "override store.dir for the csv driver")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	// Add subcommands
	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewTotalCommand(opts))

	return cmd
}

func (o *RootOptions) load(cmd *cobra.Command) error {
	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}
	if cmd.Flags().Changed("driver") {
		cfg.Store.Driver = o.Driver
	}
	if cmd.Flags().Changed("dir") {
		cfg.Store.Dir = o.Dir
	}
	if err := cfg.Validate(); err != nil {
		return WrapExitError(ExitCommandError, "invalid config", err)
	}
	o.Config = cfg

	if o.Logger == nil {
		l, err := logger.New(cfg.App.Env)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to build logger", err)
		}
		o.Logger = l
	}
	return nil
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
