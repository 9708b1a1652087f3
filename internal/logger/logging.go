// Package logger builds the prefixed charm loggers used across dotlabel.
//
// All loggers write to stderr. stdout is reserved for the IPC stream.
package logger

import (
	"os"

	"github.com/charmbracelet/log"
)

// New returns a timestamped logger for long running parts like the server.
func New(prefix string) *log.Logger {
	return newLogger(prefix, true)
}

// Default skips timestamps, for interactive output.
func Default(prefix string) *log.Logger {
	return newLogger(prefix, false)
}

// newLogger picks up the global level, so call it after flags are parsed.
func newLogger(prefix string, timestamps bool) *log.Logger {
	return log.NewWithOptions(os.Stderr, log.Options{
		Prefix:          prefix,
		ReportTimestamp: timestamps,
		Formatter:       log.TextFormatter,
		Level:           log.GetLevel(),
	})
}
