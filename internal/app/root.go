// Package app contains the Cobra command tree for focustrack.
package app

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/focusmind/focustrack/internal/output"
)

var appVersion = "dev"

// SetVersion sets the application version (called from main with ldflags value).
func SetVersion(v string) {
	appVersion = v
	rootCmd.Version = v
}

var (
	flagNoColor bool
	flagJSON    bool
	flagVerbose bool
	flagConfig  string
)

var rootCmd = &cobra.Command{
	Use:   "focustrack",
	Short: "Attention tracking and focus scoring for deep work sessions",
	Long: `focustrack turns a stream of facial-landmark frames into a live 0-100
focus score. It smooths per-signal noise, fuses presence, gaze, eye
openness, head pose, and blink rate into a single score, and nudges you
when focus drops through an intervention band.

Run 'focustrack' with no arguments to see this summary.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("focustrack", appVersion)
		fmt.Println()
		fmt.Println("Use a subcommand:")
		fmt.Println("  track      Score frames from stdin or a file with a live display")
		fmt.Println("  serve      Run the HTTP scoring API for a capture frontend")
		fmt.Println("  calibrate  Build a neutral-pose calibration profile")
		fmt.Println("  sessions   List and inspect stored sessions")
		fmt.Println("  report     Render an HTML focus chart for a session")
		return nil
	},
}

// Execute is the entry point called from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// applyOutputFlags resolves global display flags before a command runs.
func applyOutputFlags() {
	if flagNoColor || !isatty.IsTerminal(os.Stdout.Fd()) {
		output.SetNoColor(true)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file path (default: ~/.config/focustrack/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "Output as JSON")
	rootCmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "Enable verbose logging")
}
