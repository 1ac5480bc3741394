package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/MakeNowJust/heredoc"
	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/spf13/cobra"

	"github.com/fleetops/ultragrid/internal/config"
	"github.com/fleetops/ultragrid/internal/grid"
	"github.com/fleetops/ultragrid/internal/source"
	"github.com/fleetops/ultragrid/internal/tui"
)

var viewCmd = &cobra.Command{
	Use:   "view <file>",
	Short: "View a dataset in the grid",
	Long: heredoc.Doc(`
		Load a dataset and render it in the virtualized grid. The file
		type is detected from its extension; SQLite databases need a
		--query to select the rows to display.
	`),
	Example: heredoc.Doc(`
		# View a CSV file with a pre-applied filter
		ultragrid view data.csv --filter region=eu --filter active=true

		# View a nested array inside a JSON document
		ultragrid view report.json --json-path data.rows

		# Watch a file and reload when it changes
		ultragrid view data.csv --follow
	`),
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runView(cmd, args[0])
	},
}

func init() {
	rootCmd.AddCommand(viewCmd)

	viewCmd.Flags().StringP("query", "q", "", "SQL query to run against a SQLite database")
	viewCmd.Flags().StringArrayP("filter", "f", nil, "Pre-applied filter, field=value (repeatable)")
	viewCmd.Flags().String("json-path", "", "Path of the array to load from a JSON document")
	viewCmd.Flags().Bool("follow", false, "Reload the dataset when the file changes")
}

func runView(cmd *cobra.Command, path string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	query, _ := cmd.Flags().GetString("query")
	jsonPath, _ := cmd.Flags().GetString("json-path")
	filterArgs, _ := cmd.Flags().GetStringArray("filter")
	follow, _ := cmd.Flags().GetBool("follow")

	src, err := buildSource(path, query, jsonPath)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	records, err := src.Load(ctx)
	if err != nil {
		return err
	}
	slog.Info("dataset loaded", "path", path, "records", len(records))

	model, err := tui.New(filepath.Base(path), gridConfig(cfg))
	if err != nil {
		return err
	}
	model.SetFilters(tui.ParseFilterQuery(strings.Join(filterArgs, " ")))
	model.SetRecords(records)

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())

	model.Scheduler().SetNotify(func() {
		go p.Send(tui.FlushMsg{})
	})
	model.ReloadCmd = func() tea.Msg {
		if inv, ok := src.(interface{ Invalidate() }); ok {
			inv.Invalidate()
		}
		records, err := src.Load(ctx)
		if err != nil {
			slog.Error("reload failed", "path", path, "error", err)
			return nil
		}
		return tui.DataMsg{Records: records}
	}

	if follow {
		watchCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		go func() {
			err := source.Watch(watchCtx, path, src, func(records []grid.Record) {
				p.Send(tui.DataMsg{Records: records})
			})
			if err != nil && watchCtx.Err() == nil {
				slog.Error("watch stopped", "path", path, "error", err)
			}
		}()
	}

	_, err = p.Run()
	return err
}

func buildSource(path, query, jsonPath string) (source.Source, error) {
	if query != "" {
		return source.NewSQLiteSource(path, query), nil
	}
	src, err := source.ForPath(path)
	if err != nil {
		return nil, err
	}
	if jsonPath != "" {
		js, ok := src.(*source.JSONSource)
		if !ok {
			return nil, fmt.Errorf("--json-path only applies to JSON files")
		}
		js.Query = jsonPath
	}
	return src, nil
}

func gridConfig(cfg *config.Config) grid.Config {
	return grid.Config{
		VisibleRows:     cfg.Grid.VisibleRows,
		BufferRows:      cfg.Grid.BufferRows,
		RowHeight:       cfg.Grid.RowHeight,
		MaxPoolSize:     cfg.Grid.MaxPoolSize,
		CacheSize:       cfg.Grid.CacheSize,
		ScrollThrottle:  cfg.ScrollThrottle(),
		ResizeThrottle:  cfg.ResizeThrottle(),
		RenderBatchSize: cfg.Grid.RenderBatchSize,
	}
}
