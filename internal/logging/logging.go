// Package logging builds the structured loggers shared by the servers.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
)

// New returns a logger writing to w at level. A nil writer means stderr.
func New(w io.Writer, level log.Level) *log.Logger {
	if w == nil {
		w = os.Stderr
	}
	return log.NewWithOptions(w, log.Options{
		Level:           level,
		ReportTimestamp: true,
		TimeFormat:      time.DateTime,
		Prefix:          "kram",
	})
}

// Component returns a child logger tagged with the component name.
func Component(parent *log.Logger, name string) *log.Logger {
	return parent.With("component", name)
}
