package app

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/focusmind/focustrack/internal/calibration"
	"github.com/focusmind/focustrack/internal/config"
	"github.com/focusmind/focustrack/internal/dispatch"
	"github.com/focusmind/focustrack/internal/output"
	"github.com/focusmind/focustrack/internal/session"
	"github.com/focusmind/focustrack/internal/store"
	"github.com/focusmind/focustrack/internal/tracker"
)

var (
	trackInput  string
	trackScores bool
	trackQuiet  bool
)

var trackCmd = &cobra.Command{
	Use:   "track",
	Short: "Score frames from stdin or a file with a live display",
	Long: `Read newline-delimited JSON frames, run them through the scoring
pipeline, and show a live focus bar. When the input ends or the process is
interrupted, the session is closed, persisted, and summarized.

Each input line is a landmark frame. With --scores, each line is instead a
pre-fused score object: {"timestamp": "...", "score": 87.5}.

Examples:
  capture-frontend | focustrack track        # live scoring from a capture tool
  focustrack track --input frames.ndjson     # replay a recorded frame log
  focustrack track --scores < scores.ndjson  # feed externally fused scores`,
	RunE: runTrack,
}

func init() {
	trackCmd.Flags().StringVar(&trackInput, "input", "", "Read frames from a file instead of stdin")
	trackCmd.Flags().BoolVar(&trackScores, "scores", false, "Treat input lines as pre-fused scores, not frames")
	trackCmd.Flags().BoolVar(&trackQuiet, "quiet", false, "Suppress the live display, only emit interventions")
	rootCmd.AddCommand(trackCmd)
}

// scoreLine is the --scores input format.
type scoreLine struct {
	Timestamp time.Time `json:"timestamp"`
	Score     float64   `json:"score"`
}

func runTrack(cmd *cobra.Command, args []string) error {
	applyOutputFlags()
	log := newLogger()

	cfg, err := config.Load(flagConfig)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	profile, err := calibration.Load(cfg.ProfilePath)
	if err != nil {
		return fmt.Errorf("loading calibration profile: %w", err)
	}

	db, err := store.Open(config.DBPath())
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() { _ = db.Close() }()

	in := os.Stdin
	if trackInput != "" {
		f, err := os.Open(trackInput)
		if err != nil {
			return fmt.Errorf("opening input: %w", err)
		}
		defer func() { _ = f.Close() }()
		in = f
	}

	pipe := tracker.NewPipeline(cfg.Pipeline(), profile)
	dispatcher := dispatch.NewDispatcher(cfg.NudgeURL, log)

	ctx, cancel := signal.NotifyContext(context.Background(), shutdownSignals...)
	defer cancel()

	var g errgroup.Group
	g.Go(func() error {
		err := dispatcher.Run(ctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	live := !trackQuiet && isatty.IsTerminal(os.Stdout.Fd())
	if !trackQuiet {
		fmt.Printf("focustrack session %s\n", pipe.SessionID())
	}

	readErr := consumeFrames(ctx, in, pipe, dispatcher, live, log)

	sum, events := persistSession(db, pipe, log)

	cancel()
	if err := g.Wait(); err != nil {
		return err
	}
	if readErr != nil {
		return readErr
	}

	if live {
		fmt.Println()
	}
	printSummary(sum, len(events))
	return nil
}

// consumeFrames reads input lines until EOF or cancellation, feeding each
// into the pipeline and dispatching any interventions.
func consumeFrames(ctx context.Context, in io.Reader, pipe *tracker.Pipeline, d *dispatch.Dispatcher, live bool, log zerolog.Logger) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var result tracker.Result
		var err error
		if trackScores {
			var sl scoreLine
			if jerr := json.Unmarshal(line, &sl); jerr != nil {
				log.Warn().Err(jerr).Msg("skipping malformed score line")
				continue
			}
			if sl.Timestamp.IsZero() {
				sl.Timestamp = time.Now()
			}
			result, err = pipe.SubmitScore(sl.Timestamp, sl.Score)
		} else {
			var frame tracker.FrameSample
			if jerr := json.Unmarshal(line, &frame); jerr != nil {
				log.Warn().Err(jerr).Msg("skipping malformed frame")
				continue
			}
			if frame.Timestamp.IsZero() {
				frame.Timestamp = time.Now()
			}
			result, err = pipe.ProcessFrame(frame)
		}

		if err != nil {
			if errors.Is(err, tracker.ErrScoreOutOfRange) {
				log.Warn().Msg("skipping out-of-range score")
				continue
			}
			return err
		}

		if result.Event != nil {
			d.Dispatch(dispatch.Intervention{
				SessionID: result.SessionID,
				Event:     *result.Event,
			})
		}

		if live {
			fmt.Printf("\r%s  ", output.ScoreBar(result.Score, 30))
		}
	}
	return scanner.Err()
}

// printSummary renders the closed session summary table.
func printSummary(sum session.Summary, eventCount int) {
	fmt.Println(output.Section("Session Summary"))
	fmt.Println()

	if !sum.HasData {
		fmt.Println(" No samples recorded.")
		return
	}

	tbl := output.NewTable("Metric", "Value")
	tbl.AddRow("Session", sum.SessionID)
	tbl.AddRow("Duration", fmt.Sprintf("%.0fs", sum.Duration))
	tbl.AddRow("Samples", fmt.Sprintf("%d", sum.SampleCount))
	tbl.AddScoreRow("Mean", sum.Mean)
	tbl.AddScoreRow("Median", sum.Median)
	tbl.AddRow("Std Dev", fmt.Sprintf("%.1f", sum.StdDev))
	tbl.AddScoreRow("Max", sum.Max)
	tbl.AddScoreRow("Min", sum.Min)
	tbl.AddScoreRow("First", sum.First)
	tbl.AddScoreRow("Last", sum.Last)
	tbl.AddRow("Largest Drop", fmt.Sprintf("%.1f", sum.LargestDrop))
	tbl.AddRow("Largest Gain", fmt.Sprintf("%.1f", sum.LargestGain))
	tbl.AddRow("Interventions", fmt.Sprintf("%d", eventCount))
	tbl.Print()
}
