package logging

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger is the global logger instance.
var Logger zerolog.Logger

func init() {
	// A usable default so packages can log before Init runs (tests, tools).
	Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
}

// Init configures the global logger from the environment. LOG_LEVEL selects
// the level (debug, info, warn, error; default info) and LOG_JSON switches
// off the human-readable console writer.
func Init() {
	level, err := zerolog.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if os.Getenv("LOG_JSON") == "true" {
		Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
		return
	}
	Logger = zerolog.New(zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}).With().Timestamp().Logger()
}

// WithComponent creates a child logger with a component field.
func WithComponent(component string) zerolog.Logger {
	return Logger.With().Str("component", component).Logger()
}
