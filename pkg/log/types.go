package log

// Logger is the structured logging interface used across the gateway.
// Implementations must be safe for concurrent use.
type Logger interface {
	// Debug logs detailed information useful during development.
	// keysAndValues are treated as key-value pairs (e.g., "stream", id).
	Debug(msg string, keysAndValues ...any)
	// Info logs routine events and state changes.
	Info(msg string, keysAndValues ...any)
	// Warn logs unexpected situations that are not errors.
	Warn(msg string, keysAndValues ...any)
	// Error logs failures that need attention.
	Error(msg string, keysAndValues ...any)
	// Fatal logs an unrecoverable failure and terminates the program.
	Fatal(msg string, keysAndValues ...any)
	// WithKV returns a logger with an extra key-value pair attached to all
	// future log entries. Use it to add persistent context such as a
	// connection ID.
	WithKV(key string, value any) Logger
	// WithName returns a logger named after a component or subsystem.
	WithName(name string) Logger
	// Name returns the logger's name.
	Name() string
	// AddCallerSkip returns a logger that skips extra stack frames when
	// reporting the log call site. Use when wrapping the logger in helpers;
	// returns itself if unsupported.
	AddCallerSkip(skip int) Logger
}

// Level represents the severity of a log message.
type Level string

const (
	// LevelDebug is the most verbose level.
	LevelDebug Level = "debug"
	// LevelInfo is used for informational messages.
	LevelInfo Level = "info"
	// LevelWarn is used for warnings that indicate potential issues.
	LevelWarn Level = "warn"
	// LevelError is used when something went wrong.
	LevelError Level = "error"
	// LevelFatal is used for errors that cause the program to exit.
	LevelFatal Level = "fatal"
)
