package cli

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
)

const logTimeFormat = "15:04:05.00"

// newLogger builds the CLI logger. Diagnostics share w with the console, so
// redirecting stdout leaves only layout data behind.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      logTimeFormat,
		Level:           level,
	})
}

// timed starts a stopwatch for one pipeline stage. The returned func logs
// msg at info level with the elapsed time and any extra key/value pairs.
func timed(logger *log.Logger, msg string) func(keyvals ...any) {
	start := time.Now()
	return func(keyvals ...any) {
		kv := append([]any{"took", time.Since(start).Round(time.Millisecond)}, keyvals...)
		logger.Info(msg, kv...)
	}
}
