// Package logger provides levelled logging for tutorbot.
// Info, warnings and errors are always written; debug messages only
// appear when verbose mode is enabled via the --verbose flag.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	charmlog "github.com/charmbracelet/log"
)

var (
	mu      sync.RWMutex
	verbose bool
	json    bool
	output  io.Writer = os.Stderr
	base              = build()
)

// build creates the underlying logger from the current settings.
// Callers must hold mu for writing, except at package init.
func build() *charmlog.Logger {
	l := charmlog.NewWithOptions(output, charmlog.Options{
		ReportTimestamp: true,
		TimeFormat:      time.DateTime,
		Level:           charmlog.InfoLevel,
	})
	if verbose {
		l.SetLevel(charmlog.DebugLevel)
	}
	if json {
		l.SetFormatter(charmlog.JSONFormatter)
	}
	return l
}

// SetVerbose enables or disables debug logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
	base = build()
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetJSON switches between human-readable text and JSON lines.
func SetJSON(enabled bool) {
	mu.Lock()
	defer mu.Unlock()
	json = enabled
	base = build()
}

// SetOutput sets the output writer for logs.
// Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
	base = build()
}

func current() *charmlog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return base
}

// Debug prints a message if verbose mode is enabled.
func Debug(format string, args ...any) {
	current().Debug(fmt.Sprintf(format, args...))
}

// Section prints a section header if verbose mode is enabled.
func Section(name string) {
	current().Debug(fmt.Sprintf("=== %s ===", name))
}

// Info prints an informational message.
func Info(format string, args ...any) {
	current().Info(fmt.Sprintf(format, args...))
}

// Warn prints a warning message.
func Warn(format string, args ...any) {
	current().Warn(fmt.Sprintf(format, args...))
}

// Error prints an error message.
func Error(format string, args ...any) {
	current().Error(fmt.Sprintf(format, args...))
}

// With returns a structured logger carrying the given key/value pairs,
// for call sites that log many fields about the same entity.
func With(keyvals ...any) *charmlog.Logger {
	return current().With(keyvals...)
}
