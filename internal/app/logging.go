package app

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// newLogger builds the process logger. Console output goes to stderr so it
// never interleaves with the live score display on stdout.
func newLogger() zerolog.Logger {
	level := zerolog.InfoLevel
	if flagVerbose {
		level = zerolog.DebugLevel
	}

	writer := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.Kitchen,
		NoColor:    flagNoColor,
	}

	return zerolog.New(writer).Level(level).With().Timestamp().Logger()
}
