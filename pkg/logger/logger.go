package logger

import (
	"os"

	"github.com/rs/zerolog"
)

// Log is the package-level logger instance. It starts disabled so that
// any code path running before InitLogger is called stays silent rather
// than writing to an unconfigured writer.
var Log zerolog.Logger = zerolog.New(nil).Level(zerolog.Disabled)

// InitLogger initializes the global logger from the resolved level/format
// configuration. Should be called once, from main().
func InitLogger(level string, jsonFormat bool) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMicro

	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	if jsonFormat {
		Log = zerolog.New(os.Stdout).With().Timestamp().Caller().Logger()
		return
	}

	outputWriter := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: "15:04:05.000000",
	}
	Log = zerolog.New(outputWriter).With().Timestamp().Caller().Logger()
}

// Get returns the global logger instance, for code that takes a *zerolog.Logger
// rather than importing this package directly.
func Get() *zerolog.Logger {
	return &Log
}
