package logger

// Logger exposes logging methods for common severity levels.
type Logger interface {
	Debugf(format string, args ...any)
	// Debugw logs a message with structured fields.
	Debugw(msg string, fields map[string]any)
	Infof(format string, args ...any)
	// Infow logs a message with structured fields.
	Infow(msg string, fields map[string]any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// StructuredLogger can log structured information. It is implemented by
// ZerologLogger and other adapters.
type StructuredLogger interface {
	Debugw(msg string, fields map[string]any)
	Infow(msg string, fields map[string]any)
}

// NopLogger implements Logger with no-op methods.
type NopLogger struct{}

func (NopLogger) Debugf(string, ...any)         {}
func (NopLogger) Debugw(string, map[string]any) {}
func (NopLogger) Infof(string, ...any)          {}
func (NopLogger) Infow(string, map[string]any)  {}
func (NopLogger) Warnf(string, ...any)          {}
func (NopLogger) Errorf(string, ...any)         {}
