package logger

// Log levels used across the application.
const (
	DebugLevel = "debug"
	InfoLevel  = "info"
	WarnLevel  = "warn"
	ErrorLevel = "error"
)

// New returns a console logger writing to stdout at the provided level.
// Unknown level strings fall back to debug.
func New(level string) *Logger {
	return newZapLogger(level)
}
