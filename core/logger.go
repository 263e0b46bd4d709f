package core

// Logger is the logging surface core code uses. *logger.Log satisfies it on
// the host; firmware builds pass NopLogger or a serial-backed writer.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...interface{}) {}
func (nopLogger) Infof(string, ...interface{})  {}
func (nopLogger) Warnf(string, ...interface{})  {}

// NopLogger returns a Logger that discards everything
func NopLogger() Logger {
	return nopLogger{}
}

func orNop(l Logger) Logger {
	if l == nil {
		return nopLogger{}
	}
	return l
}
