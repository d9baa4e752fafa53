package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"
)

// LogLevel defines the severity of the log entry.
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String makes LogLevel satisfy the fmt.Stringer interface.
func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

func (l LogLevel) SlogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelInfo:
		return slog.LevelInfo
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo // Default to INFO for unknown
	}
}

// ParseLevel converts a textual level ("debug", "info", "warn", "error") into a LogLevel.
func ParseLevel(s string) (LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// LogEntry is a structured log entry as seen by an entry hook.
type LogEntry struct {
	Timestamp time.Time
	Level     LogLevel
	Subsystem string
	Message   string
	Err       error
}

var (
	mu            sync.RWMutex
	defaultLogger *slog.Logger
	entryHook     func(LogEntry)
	silent        bool
)

func initCommon(level LogLevel, output io.Writer) {
	opts := &slog.HandlerOptions{
		Level: level.SlogLevel(),
	}

	mu.Lock()
	defaultLogger = slog.New(slog.NewTextHandler(output, opts))
	mu.Unlock()

	slog.SetDefault(defaultLogger)
}

// InitForCLI initializes the logging system for CLI mode.
func InitForCLI(filterLevel LogLevel, output io.Writer) {
	mu.Lock()
	silent = false
	mu.Unlock()
	initCommon(filterLevel, output)
}

// InitForMCP initializes logging for MCP server mode. Stdout carries the
// protocol stream, so log lines go to stderr and only warnings and above
// are emitted.
func InitForMCP() {
	mu.Lock()
	silent = true
	mu.Unlock()
	initCommon(LevelWarn, os.Stderr)
}

// SetEntryHook registers a callback invoked for every emitted entry.
// Passing nil removes the hook.
func SetEntryHook(hook func(LogEntry)) {
	mu.Lock()
	defer mu.Unlock()
	entryHook = hook
}

// IsSilent reports whether logging was initialized for MCP server mode.
func IsSilent() bool {
	mu.RLock()
	defer mu.RUnlock()
	return silent
}

func logInternal(level LogLevel, subsystem string, err error, messageFmt string, args ...interface{}) {
	mu.RLock()
	logger := defaultLogger
	hook := entryHook
	mu.RUnlock()

	if logger == nil || !logger.Enabled(context.Background(), level.SlogLevel()) {
		return
	}

	msg := messageFmt
	if len(args) > 0 {
		msg = fmt.Sprintf(messageFmt, args...)
	}

	if hook != nil {
		hook(LogEntry{
			Timestamp: time.Now(),
			Level:     level,
			Subsystem: subsystem,
			Message:   msg,
			Err:       err,
		})
	}

	var slogAttrs []slog.Attr
	slogAttrs = append(slogAttrs, slog.String("subsystem", subsystem))
	if err != nil {
		slogAttrs = append(slogAttrs, slog.String("error", err.Error()))
	}

	logger.LogAttrs(context.Background(), level.SlogLevel(), msg, slogAttrs...)
}

// Debug logs a debug message.
func Debug(subsystem string, messageFmt string, args ...interface{}) {
	logInternal(LevelDebug, subsystem, nil, messageFmt, args...)
}

// Info logs an informational message.
func Info(subsystem string, messageFmt string, args ...interface{}) {
	logInternal(LevelInfo, subsystem, nil, messageFmt, args...)
}

// Warn logs a warning message.
func Warn(subsystem string, messageFmt string, args ...interface{}) {
	logInternal(LevelWarn, subsystem, nil, messageFmt, args...)
}

// Error logs an error message.
func Error(subsystem string, err error, messageFmt string, args ...interface{}) {
	logInternal(LevelError, subsystem, err, messageFmt, args...)
}

// IsDebugEnabled reports whether debug entries would currently be emitted.
func IsDebugEnabled() bool {
	mu.RLock()
	defer mu.RUnlock()
	return defaultLogger != nil && defaultLogger.Enabled(context.Background(), slog.LevelDebug)
}
