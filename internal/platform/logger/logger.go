package logger

import (
	"log"
	"log/slog"
	"os"
)

// New returns a basic stdout logger for background workers.
func New() *log.Logger {
	return log.New(os.Stdout, "", log.LstdFlags)
}

// NewStructured returns the structured logger the HTTP layer uses.
func NewStructured() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}
