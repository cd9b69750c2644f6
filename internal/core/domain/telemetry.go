package domain

import "strings"

// FrameStatus is the outcome of one frame of one mesh binding.
type FrameStatus string

const (
	// FrameDrawn means buffers were refreshed and handed to the draw stage.
	FrameDrawn FrameStatus = "drawn"
	// FrameCached means the draw stage received buffers that needed no work.
	FrameCached FrameStatus = "cached"
	// FrameStale means a refine failed and the previous buffers were drawn.
	FrameStale FrameStatus = "stale"
	// FrameSkipped means nothing was drawn this frame.
	FrameSkipped FrameStatus = "skipped"
)

// Drew reports whether the draw stage received buffers.
func (s FrameStatus) Drew() bool {
	return s == FrameDrawn || s == FrameCached || s == FrameStale
}

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

// ParseLogLevel converts a configuration string to a LogLevel, defaulting to info.
func ParseLogLevel(s string) LogLevel {
	switch strings.ToLower(s) {
	case "debug":
		return LogLevelDebug
	case "warn", "warning":
		return LogLevelWarn
	case "error":
		return LogLevelError
	default:
		return LogLevelInfo
	}
}
