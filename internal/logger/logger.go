package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New builds the service logger: human readable console output in
// development, JSON lines everywhere else.
func New(environment string, level ...string) zerolog.Logger {
	return NewWithWriter(os.Stdout, environment, level...)
}

func NewWithWriter(w io.Writer, environment string, level ...string) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339

	out := w
	if environment == "development" {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}
	}

	lvl := zerolog.InfoLevel
	if len(level) > 0 && level[0] != "" {
		if parsed, err := zerolog.ParseLevel(level[0]); err == nil {
			lvl = parsed
		}
	}

	return zerolog.New(out).
		Level(lvl).
		With().
		Timestamp().
		Str("service", "podryad").
		Logger()
}
