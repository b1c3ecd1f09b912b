// Package logging provides leveled logging for the program.
//
// All output goes to stderr: stdout is reserved for the plugin
// response envelope.
package logging

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	// Level is the debug verbosity (0-5). Messages logged with
	// D(n, ...) print only when n <= Level.
	Level int

	logger zerolog.Logger
	mu     sync.Mutex
)

func init() {
	logger = newLogger()
}

func newLogger() zerolog.Logger {
	w := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.StampMilli,
	}
	return zerolog.New(w).With().Timestamp().Logger()
}

// Setup sets the debug verbosity level.
func Setup(level int) {
	mu.Lock()
	defer mu.Unlock()
	Level = level
	if level > 0 {
		logger = newLogger().Level(zerolog.DebugLevel)
	} else {
		logger = newLogger().Level(zerolog.InfoLevel)
	}
}

// D logs a debug message at the given verbosity level.
func D(l int, format string, args ...any) {
	if l > Level {
		return
	}
	logger.Debug().Msg(sprintf(format, args...))
}

// I logs an informational message.
func I(format string, args ...any) {
	logger.Info().Msg(sprintf(format, args...))
}

// S logs a success message.
func S(format string, args ...any) {
	logger.Info().Str("result", "success").Msg(sprintf(format, args...))
}

// W logs a warning message.
func W(format string, args ...any) {
	logger.Warn().Msg(sprintf(format, args...))
}

// E logs an error message.
func E(format string, args ...any) {
	logger.Error().Msg(sprintf(format, args...))
}

func sprintf(format string, args ...any) string {
	if len(args) == 0 {
		return format
	}
	return fmt.Sprintf(format, args...)
}
