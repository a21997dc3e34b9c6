// Package ports defines the interfaces the decoding core depends on.
package ports

// LogLevel represents the severity level of a log message.
type LogLevel int

const (
	// LevelDebug is for per-surface and per-picture details.
	LevelDebug LogLevel = iota
	// LevelInfo is for negotiation and stream-level events.
	LevelInfo
	// LevelWarn is for recoverable problems.
	LevelWarn
	// LevelError is for failures that stop decoding.
	LevelError
	// LevelQuiet suppresses all log output.
	LevelQuiet
)

var logLevelNames = []string{"debug", "info", "warn", "error", "quiet"}

// String returns the string representation of the log level.
func (l LogLevel) String() string {
	if l < LevelDebug || l > LevelQuiet {
		return "unknown"
	}
	return logLevelNames[l]
}

// ParseLogLevel parses a level name, falling back to LevelInfo.
func ParseLogLevel(s string) LogLevel {
	for i, name := range logLevelNames {
		if name == s {
			return LogLevel(i)
		}
	}
	return LevelInfo
}

// Logger abstracts logging. Messages are lexicon keys that may be translated.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})

	// WithComponent returns a Logger that prefixes messages with the component name.
	WithComponent(component string) Logger
}
