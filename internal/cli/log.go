package cli

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// newLogger builds the process-wide console logger. JSON output is
// reserved for a future --log-json flag; console formatting is the
// right default for a command run interactively against a terminal.
func newLogger(verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	return zerolog.New(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	}).With().Timestamp().Logger()
}
