package app

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/focusmind/focustrack/internal/calibration"
	"github.com/focusmind/focustrack/internal/config"
	"github.com/focusmind/focustrack/internal/output"
	"github.com/focusmind/focustrack/internal/tracker"
)

var calibrateInput string

var calibrateCmd = &cobra.Command{
	Use:   "calibrate",
	Short: "Build a neutral-pose calibration profile",
	Long: `Read neutral-pose landmark frames, measure gaze, eye openness, and head
pose from each, and derive per-user baselines from the medians. The profile
is validated for plausibility and written atomically; scoring picks it up on
the next run.

Sit upright, look at the center of the screen, and record a few seconds of
frames before feeding them in.

Examples:
  capture-frontend --seconds 5 | focustrack calibrate
  focustrack calibrate --input neutral.ndjson`,
	RunE: runCalibrate,
}

func init() {
	calibrateCmd.Flags().StringVar(&calibrateInput, "input", "", "Read frames from a file instead of stdin")
	rootCmd.AddCommand(calibrateCmd)
}

func runCalibrate(cmd *cobra.Command, args []string) error {
	applyOutputFlags()
	log := newLogger()

	cfg, err := config.Load(flagConfig)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	in := os.Stdin
	if calibrateInput != "" {
		f, err := os.Open(calibrateInput)
		if err != nil {
			return fmt.Errorf("opening input: %w", err)
		}
		defer func() { _ = f.Close() }()
		in = f
	}

	// Measurements are taken against the default profile; calibration derives
	// baselines from raw geometry, so the active profile does not matter.
	extractor := tracker.NewExtractor(calibration.DefaultProfile(), tracker.Limits{
		GazeOffset:    cfg.GazeLimit,
		HeadDeviation: cfg.HeadLimitDegrees,
	})

	var samples []calibration.Measurement
	skipped := 0

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var frame tracker.FrameSample
		if err := json.Unmarshal(line, &frame); err != nil {
			log.Warn().Err(err).Msg("skipping malformed frame")
			continue
		}
		m, ok := extractor.Measure(frame)
		if !ok {
			skipped++
			continue
		}
		samples = append(samples, m)
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	log.Debug().Int("usable", len(samples)).Int("skipped", skipped).Msg("frames measured")

	profile, err := calibration.Compute(samples, time.Now())
	if err != nil {
		return fmt.Errorf("computing profile: %w", err)
	}

	if err := calibration.Save(cfg.ProfilePath, profile); err != nil {
		return fmt.Errorf("saving profile: %w", err)
	}

	if flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(profile)
	}

	fmt.Println(output.Section("Calibration Profile"))
	fmt.Println()
	tbl := output.NewTable("Baseline", "Value")
	tbl.AddRow("Neutral gaze X", fmt.Sprintf("%.3f", profile.NeutralGazeX))
	tbl.AddRow("Neutral gaze Y", fmt.Sprintf("%.3f", profile.NeutralGazeY))
	tbl.AddRow("Gaze scale", fmt.Sprintf("%.3f", profile.GazeScale))
	tbl.AddRow("Neutral openness", fmt.Sprintf("%.3f", profile.NeutralOpenness))
	tbl.AddRow("Neutral yaw", fmt.Sprintf("%.1f°", profile.NeutralYaw))
	tbl.AddRow("Neutral pitch", fmt.Sprintf("%.1f°", profile.NeutralPitch))
	tbl.Print()
	fmt.Printf("\n Saved to %s (%d samples)\n", cfg.ProfilePath, len(samples))
	return nil
}
