package config

// Display defaults
const (
	DefaultWidth = 8
	MinWidth     = 1
	MaxWidth     = 16
)

// Color modes
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// Log levels accepted in settings files
const (
	LogLevelTrace = "trace"
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
)

// DefaultTraceRows caps the -trace table so a runaway hand-written program
// does not flood the terminal.
const DefaultTraceRows = 1000
