package app

import (
	"context"
	"errors"
	"fmt"
	"os/signal"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/focusmind/focustrack/internal/calibration"
	"github.com/focusmind/focustrack/internal/config"
	"github.com/focusmind/focustrack/internal/dispatch"
	"github.com/focusmind/focustrack/internal/server"
	"github.com/focusmind/focustrack/internal/store"
	"github.com/focusmind/focustrack/internal/tracker"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP scoring API for a capture frontend",
	Long: `Start the local HTTP API. A capture frontend POSTs landmark frames to
/api/frame (or pre-fused scores to /api/score) and the server maintains the
live score, fires interventions, and persists closed sessions.

The server binds to loopback by default; frames never leave the machine.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	applyOutputFlags()
	log := newLogger()

	cfg, err := config.Load(flagConfig)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if serveAddr != "" {
		cfg.ListenAddr = serveAddr
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

	pipe := tracker.NewPipeline(cfg.Pipeline(), profile)
	dispatcher := dispatch.NewDispatcher(cfg.NudgeURL, log)
	srv := server.New(cfg, pipe, db, dispatcher, log)

	ctx, cancel := signal.NotifyContext(context.Background(), shutdownSignals...)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := dispatcher.Run(gctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		err := srv.ListenAndServe(gctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	// Persist whatever session was in flight before surfacing any server
	// error, so a crash mid-session still keeps its samples.
	waitErr := g.Wait()

	sum, _ := persistSession(db, pipe, log)
	if sum.HasData {
		log.Info().Str("session_id", sum.SessionID).Int("samples", sum.SampleCount).Msg("session saved")
	}

	return waitErr
}
