package main

import (
	"os"

	"github.com/charmbracelet/log"
)

// newLogger builds the process-wide structured logger, mirroring the tag-per-
// subsystem style of the original server's log_msg(tag, fmt, ...) calls.
func newLogger(verbose bool) *log.Logger {
	l := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.000",
	})
	if verbose {
		l.SetLevel(log.DebugLevel)
	} else {
		l.SetLevel(log.InfoLevel)
	}
	return l
}

// tag returns a child logger scoped to one subsystem, analogous to the
// original's string tag argument but structured instead of printf'd.
func tag(l *log.Logger, component string) *log.Logger {
	return l.With("component", component)
}
