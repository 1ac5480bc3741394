package cmd

import (
	"context"
	"os"
	"path/filepath"

	"github.com/MakeNowJust/heredoc"
	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"github.com/fleetops/ultragrid/internal/config"
	"github.com/fleetops/ultragrid/internal/log"
	"github.com/fleetops/ultragrid/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "ultragrid",
	Short: "Terminal viewer for large tabular datasets",
	Long: heredoc.Doc(`
		Ultragrid renders large CSV, JSON, and SQLite datasets in the
		terminal using a virtualized grid: only the visible rows are
		materialized, so million-row files scroll smoothly.
	`),
	Example: heredoc.Doc(`
		# View a CSV file
		ultragrid view data.csv

		# View query results from a SQLite database
		ultragrid view metrics.db --query "SELECT * FROM samples"

		# Pre-filter and keep reloading on changes
		ultragrid view data.csv --filter status=active --follow
	`),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return cmd.Help()
		}
		return viewCmd.RunE(cmd, args)
	},
	Args: cobra.MaximumNArgs(1),
}

// loadConfig reads the layered config and wires logging from it.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(cwd)
	if err != nil {
		return nil, err
	}
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		cfg.Options.Debug = true
	}
	logfile := cfg.Options.LogFile
	if logfile == "" {
		logfile = filepath.Join(filepath.Dir(config.GlobalConfig()), "ultragrid.log")
	}
	if err := log.Setup(logfile, cfg.Options.Debug); err != nil {
		return nil, err
	}
	return cfg, nil
}

func init() {
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
}

func Execute() {
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(version.Version),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		os.Exit(1)
	}
}
