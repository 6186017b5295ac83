// Package debug provides debug logging for statement execution using log/slog
package debug

import (
	"log/slog"
	"os"
	"sync"

	"github.com/google/uuid"
)

// Event describes one executed statement.
type Event struct {
	ID       string
	Dialect  string
	SQL      string
	Bindings []string
}

var (
	// logger is the global debug logger instance
	logger *slog.Logger
	// enabled indicates if debug logging is enabled
	enabled bool
	// onQuery is an optional sink invoked with every query event
	onQuery func(Event)
	// mu protects the logger and enabled flag
	mu sync.RWMutex
)

func init() {
	Init(false)
}

// Init initializes the debug logger
// If enable is true, debug logs will be written to os.Stderr
// If enable is false, debug logs will be silently discarded
func Init(enable bool) {
	mu.Lock()
	defer mu.Unlock()

	enabled = enable

	level := slog.LevelDebug
	if !enable {
		level = slog.LevelError + 1
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	logger = slog.New(handler)
}

// Enabled returns whether debug logging is enabled
func Enabled() bool {
	mu.RLock()
	defer mu.RUnlock()
	return enabled
}

// OnQuery installs a sink that receives every query event regardless of
// the enabled flag. Pass nil to remove it.
func OnQuery(fn func(Event)) {
	mu.Lock()
	onQuery = fn
	mu.Unlock()
}

// Query publishes an executed statement with its binding names. Each event
// gets its own id so interleaved statements from concurrent requests can be
// told apart in the stream.
func Query(dialect, stmt string, bindings []string) {
	mu.RLock()
	l := logger
	on := enabled
	sink := onQuery
	mu.RUnlock()
	if !on && sink == nil {
		return
	}
	ev := Event{ID: uuid.NewString(), Dialect: dialect, SQL: stmt, Bindings: bindings}
	if sink != nil {
		sink(ev)
	}
	if on {
		l.Debug("query",
			slog.String("id", ev.ID),
			slog.String("dialect", ev.Dialect),
			slog.String("sql", ev.SQL),
			slog.Any("bindings", ev.Bindings),
		)
	}
}

// Debug logs a debug message
func Debug(msg string, args ...any) {
	mu.RLock()
	l := logger
	mu.RUnlock()
	l.Debug(msg, args...)
}

// Info logs an info message
func Info(msg string, args ...any) {
	mu.RLock()
	l := logger
	mu.RUnlock()
	l.Info(msg, args...)
}

// Warn logs a warning message
func Warn(msg string, args ...any) {
	mu.RLock()
	l := logger
	mu.RUnlock()
	l.Warn(msg, args...)
}

// Error logs an error message
func Error(msg string, args ...any) {
	mu.RLock()
	l := logger
	mu.RUnlock()
	l.Error(msg, args...)
}

// With returns a logger with the given attributes
func With(args ...any) *slog.Logger {
	mu.RLock()
	l := logger
	mu.RUnlock()
	return l.With(args...)
}

// Logger returns the underlying slog.Logger instance
func Logger() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}
