package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Init builds a console logger tagged with app, installs it as the global
// logger and returns it.
func Init(app, level string) zerolog.Logger {
	return initWith(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}, app, level)
}

// InitCLI is Init for command-line tools whose stdout carries data.
func InitCLI(app, level string) zerolog.Logger {
	return initWith(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}, app, level)
}

// ConfigureTests silences the global logger below warn so test output stays
// readable.
func ConfigureTests() zerolog.Logger {
	return initWith(zerolog.ConsoleWriter{Out: io.Discard}, "test", "warn")
}

func initWith(out io.Writer, app, level string) zerolog.Logger {
	lvl, ok := ParseLevel(level)
	if !ok {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	logger := zerolog.New(out).With().Timestamp().Str("app", app).Logger()
	log.Logger = logger
	return logger
}

// ParseLevel maps a config string to a zerolog level.
func ParseLevel(raw string) (zerolog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "trace":
		return zerolog.TraceLevel, true
	case "debug":
		return zerolog.DebugLevel, true
	case "info":
		return zerolog.InfoLevel, true
	case "warn", "warning":
		return zerolog.WarnLevel, true
	case "error":
		return zerolog.ErrorLevel, true
	case "off", "disabled":
		return zerolog.Disabled, true
	default:
		return zerolog.InfoLevel, false
	}
}
