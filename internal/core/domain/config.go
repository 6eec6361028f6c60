package domain

import (
	"strings"
	"time"
)

// LogLevel represents the severity of a log message, mirroring the standard slog levels.
type LogLevel int

const (
	// LogLevelDebug represents debug-level verbosity.
	LogLevelDebug LogLevel = -4
	// LogLevelInfo represents informational verbosity.
	LogLevelInfo LogLevel = 0
	// LogLevelWarn represents warning verbosity.
	LogLevelWarn LogLevel = 4
	// LogLevelError represents error verbosity.
	LogLevelError LogLevel = 8
)

// String returns the string representation of the LogLevel.
func (l LogLevel) String() string {
	switch l {
	case LogLevelDebug:
		return "DEBUG"
	case LogLevelInfo:
		return "INFO"
	case LogLevelWarn:
		return "WARN"
	case LogLevelError:
		return "ERROR"
	default:
		return "INFO"
	}
}

// ParseLogLevel converts a case-insensitive level name to a LogLevel.
func ParseLogLevel(s string) (LogLevel, bool) {
	switch strings.ToLower(s) {
	case "debug":
		return LogLevelDebug, true
	case "info", "":
		return LogLevelInfo, true
	case "warn", "warning":
		return LogLevelWarn, true
	case "error":
		return LogLevelError, true
	default:
		return LogLevelInfo, false
	}
}

// LogFormat selects how log records are rendered.
type LogFormat string

const (
	// LogFormatAuto picks pretty output on a terminal and JSON otherwise.
	LogFormatAuto LogFormat = "auto"
	// LogFormatPretty renders colored human-readable lines.
	LogFormatPretty LogFormat = "pretty"
	// LogFormatJSON renders one JSON object per record.
	LogFormatJSON LogFormat = "json"
)

// ParseLogFormat converts a case-insensitive format name to a LogFormat.
// An empty name selects LogFormatAuto.
func ParseLogFormat(s string) (LogFormat, bool) {
	switch format := LogFormat(strings.ToLower(s)); format {
	case LogFormatAuto, LogFormatPretty, LogFormatJSON:
		return format, true
	case "":
		return LogFormatAuto, true
	default:
		return LogFormatAuto, false
	}
}

// DefaultWebSocketPath is the HTTP path the websocket transport upgrades on.
const DefaultWebSocketPath = "/watch"

// DefaultShutdownTimeout bounds how long the websocket server drains connections.
const DefaultShutdownTimeout = 5 * time.Second

// Config is the runtime configuration of the watch service.
type Config struct {
	Log       LogConfig
	Transport TransportConfig
	Sessions  SessionsConfig
	Tracing   TracingConfig
}

// LogConfig controls the diagnostic logger.
type LogConfig struct {
	Level  LogLevel
	Format LogFormat
}

// TransportConfig selects the command transport.
type TransportConfig struct {
	// Listen is the websocket listen address. Empty selects stdio.
	Listen string
	// Path is the HTTP path upgraded to a websocket.
	Path string
}

// SessionsConfig bounds the registrar.
type SessionsConfig struct {
	// Max caps concurrently registered sessions per connection. Zero is unlimited.
	Max int
}

// TracingConfig toggles OpenTelemetry spans.
type TracingConfig struct {
	Enabled bool
}

// DefaultConfig returns the configuration used when no file or flag overrides it.
func DefaultConfig() Config {
	return Config{
		Log: LogConfig{
			Level:  LogLevelInfo,
			Format: LogFormatAuto,
		},
		Transport: TransportConfig{
			Path: DefaultWebSocketPath,
		},
	}
}
