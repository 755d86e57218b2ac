package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Logger is the process-wide logger. Packages should derive from it with
// WithComponent instead of using it directly.
var Logger zerolog.Logger

func init() {
	// Logs go to stderr; stdout carries command output.
	Logger = newLogger(os.Stderr)
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.Logger = Logger
}

// ParseLevel maps a config/flag string to a zerolog level, defaulting to info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "off":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// Init reconfigures the global logger.
func Init(level string, pretty bool) {
	zerolog.SetGlobalLevel(ParseLevel(level))

	var out io.Writer = os.Stderr
	if pretty {
		out = zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339,
		}
	}

	Logger = newLogger(out)
	log.Logger = Logger
}

// SetOutput redirects the global logger, mainly for tests.
func SetOutput(w io.Writer) {
	Logger = newLogger(w)
	log.Logger = Logger
}

func newLogger(w io.Writer) zerolog.Logger {
	return zerolog.New(w).
		With().
		Timestamp().
		Caller().
		Logger()
}

// WithComponent returns a logger with a component field set
func WithComponent(component string) *zerolog.Logger {
	l := Logger.With().Str("component", component).Logger()
	return &l
}

// WithDisplay returns a component logger that also carries a display id.
func WithDisplay(component, displayID string) *zerolog.Logger {
	l := Logger.With().
		Str("component", component).
		Str("display", displayID).
		Logger()
	return &l
}
