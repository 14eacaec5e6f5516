package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LevelEnvVar overrides the configured level when set.
const LevelEnvVar = "PITCH_LOG_LEVEL"

// Init initializes the global logger. level is one of debug, info, warn,
// error (default: info); PITCH_LOG_LEVEL takes precedence when set.
// console selects the human-readable writer used by the CLI; Lambda
// handlers pass false and keep zerolog's JSON lines for CloudWatch.
func Init(level string, console bool) {
	if env := os.Getenv(LevelEnvVar); env != "" {
		level = env
	}
	zerolog.SetGlobalLevel(ParseLevel(level))

	var out io.Writer = os.Stderr
	if console {
		out = zerolog.ConsoleWriter{Out: os.Stderr}
	}
	log.Logger = zerolog.New(out).With().Timestamp().Logger()
}

// ParseLevel maps a level name to a zerolog level, defaulting to info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
