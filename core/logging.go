package core

import (
	"os"

	"github.com/charmbracelet/log"
)

// NewLogger builds the process logger. Output goes to stderr: stdout
// belongs to the MCP stdio transport.
func NewLogger(level string) *log.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
	})
	parsed, err := log.ParseLevel(level)
	if err != nil {
		parsed = log.InfoLevel
	}
	logger.SetLevel(parsed)
	return logger
}
