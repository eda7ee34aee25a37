package app

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/focusmind/focustrack/internal/config"
	"github.com/focusmind/focustrack/internal/report"
	"github.com/focusmind/focustrack/internal/store"
)

var reportOut string

var reportCmd = &cobra.Command{
	Use:   "report [session-id]",
	Short: "Render an HTML focus chart for a session",
	Long: `Render the score timeline of a stored session as a self-contained HTML
chart with intervention band markers. With no argument the most recent
session is used.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runReport,
}

func init() {
	reportCmd.Flags().StringVar(&reportOut, "out", "", "Write HTML to a file instead of stdout")
	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	db, err := store.Open(config.DBPath())
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() { _ = db.Close() }()

	var row *store.SessionRow
	if len(args) == 1 {
		row, err = db.GetSession(args[0])
	} else {
		row, err = db.LatestSession()
	}
	if err != nil {
		return err
	}
	if row == nil {
		return fmt.Errorf("no matching session found")
	}

	series, err := db.GetSeries(row.ID)
	if err != nil {
		return fmt.Errorf("loading series: %w", err)
	}
	events, err := db.GetEvents(row.ID)
	if err != nil {
		return fmt.Errorf("loading events: %w", err)
	}

	out := os.Stdout
	if reportOut != "" {
		f, err := os.Create(reportOut)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer func() { _ = f.Close() }()
		out = f
	}

	if err := report.Render(out, *row, series, events, cfg.Bands); err != nil {
		return fmt.Errorf("rendering report: %w", err)
	}
	if reportOut != "" {
		fmt.Fprintf(os.Stderr, "Report written to %s\n", reportOut)
	}
	return nil
}
