package app

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/focusmind/focustrack/internal/config"
	"github.com/focusmind/focustrack/internal/output"
	"github.com/focusmind/focustrack/internal/store"
)

var sessionsLimit int

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List and inspect stored sessions",
	RunE:  runSessionsList,
}

var sessionsShowCmd = &cobra.Command{
	Use:   "show <session-id>",
	Short: "Show one session's statistics and interventions",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionsShow,
}

func init() {
	sessionsCmd.Flags().IntVar(&sessionsLimit, "limit", 20, "Maximum number of sessions to list")
	sessionsCmd.AddCommand(sessionsShowCmd)
	rootCmd.AddCommand(sessionsCmd)
}

func runSessionsList(cmd *cobra.Command, args []string) error {
	applyOutputFlags()

	db, err := store.Open(config.DBPath())
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() { _ = db.Close() }()

	rows, err := db.ListSessions(sessionsLimit)
	if err != nil {
		return fmt.Errorf("listing sessions: %w", err)
	}

	if flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}

	if len(rows) == 0 {
		fmt.Println("No sessions recorded yet. Run 'focustrack track' to start one.")
		return nil
	}

	fmt.Println(output.Section("Sessions"))
	fmt.Println()
	tbl := output.NewTable("ID", "Started", "Duration", "Samples", "Mean", "Min", "Max")
	for _, r := range rows {
		tbl.AddRow(
			shortID(r.ID),
			r.StartedAt.Local().Format("2006-01-02 15:04"),
			fmtDuration(r.Duration),
			fmt.Sprintf("%d", r.SampleCount),
			fmt.Sprintf("%.1f", r.Mean),
			fmt.Sprintf("%.1f", r.Min),
			fmt.Sprintf("%.1f", r.Max),
		)
	}
	tbl.Print()
	return nil
}

func runSessionsShow(cmd *cobra.Command, args []string) error {
	applyOutputFlags()

	db, err := store.Open(config.DBPath())
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() { _ = db.Close() }()

	row, err := db.GetSession(args[0])
	if err != nil {
		return err
	}
	if row == nil {
		return fmt.Errorf("no session matches %q", args[0])
	}

	events, err := db.GetEvents(row.ID)
	if err != nil {
		return fmt.Errorf("loading events: %w", err)
	}

	if flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{
			"session": row,
			"events":  events,
		})
	}

	fmt.Println(output.Section("Session " + shortID(row.ID)))
	fmt.Println()
	tbl := output.NewTable("Metric", "Value")
	tbl.AddRow("Started", row.StartedAt.Local().Format("2006-01-02 15:04:05"))
	tbl.AddRow("Ended", row.EndedAt.Local().Format("2006-01-02 15:04:05"))
	tbl.AddRow("Duration", fmtDuration(row.Duration))
	tbl.AddRow("Samples", fmt.Sprintf("%d", row.SampleCount))
	tbl.AddScoreRow("Mean", row.Mean)
	tbl.AddScoreRow("Median", row.Median)
	tbl.AddRow("Std Dev", fmt.Sprintf("%.1f", row.StdDev))
	tbl.AddScoreRow("Max", row.Max)
	tbl.AddScoreRow("Min", row.Min)
	tbl.AddScoreRow("First", row.First)
	tbl.AddScoreRow("Last", row.Last)
	tbl.AddRow("Largest Drop", fmt.Sprintf("%.1f", row.LargestDrop))
	tbl.AddRow("Largest Gain", fmt.Sprintf("%.1f", row.LargestGain))
	tbl.Print()

	if len(events) > 0 {
		fmt.Println(output.Section("Interventions"))
		fmt.Println()
		evTbl := output.NewTable("Time", "Band", "Score")
		for _, ev := range events {
			evTbl.AddRow(
				ev.Timestamp.Local().Format("15:04:05"),
				fmt.Sprintf("below %.0f", ev.Band),
				fmt.Sprintf("%.1f", ev.Score),
			)
		}
		evTbl.Print()
	}
	return nil
}

// shortID truncates a session UUID for table display.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// fmtDuration renders seconds as a compact duration.
func fmtDuration(secs float64) string {
	return time.Duration(secs * float64(time.Second)).Round(time.Second).String()
}
