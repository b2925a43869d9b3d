// Package debug provides debug logging utilities.
package debug

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
)

var (
	enabled = os.Getenv("SUPALLAMA_DEBUG") == "1"
	logger  = newLogger(os.Stderr, enabled)
)

func newLogger(w io.Writer, debug bool) *log.Logger {
	l := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.000",
		Prefix:          "supallama",
	})
	if debug {
		l.SetLevel(log.DebugLevel)
	} else {
		l.SetLevel(log.WarnLevel)
	}
	return l
}

// Logf writes a debug message to stderr if SUPALLAMA_DEBUG=1
func Logf(format string, args ...any) {
	logger.Debugf(format, args...)
}

// Log writes a structured debug entry with alternating key/value pairs.
func Log(msg string, keyvals ...any) {
	logger.Debug(msg, keyvals...)
}

// Warn writes a warning; warnings are shown regardless of SUPALLAMA_DEBUG.
func Warn(msg string, keyvals ...any) {
	logger.Warn(msg, keyvals...)
}

// Enabled returns true if debug logging is enabled
func Enabled() bool {
	return enabled
}

// SetOutput redirects log output, returning a function that restores the
// previous logger. Intended for tests.
func SetOutput(w io.Writer, debug bool) (restore func()) {
	prev, prevEnabled := logger, enabled
	logger, enabled = newLogger(w, debug), debug
	return func() {
		logger, enabled = prev, prevEnabled
	}
}
