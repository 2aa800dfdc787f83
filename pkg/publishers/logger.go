package publishers

// Logger is the structured-object logging surface sinks report through.
// It is declared here rather than imported so the package stays usable
// outside the archiver binary.
type Logger interface {
	InfoObj(msg, key string, obj interface{})
	DebugObj(msg, key string, obj interface{})
	WarnObj(msg, key string, obj interface{})
	ErrorObj(msg, key string, obj interface{})
}

type noopLogger struct{}

func (noopLogger) InfoObj(string, string, interface{})  {}
func (noopLogger) DebugObj(string, string, interface{}) {}
func (noopLogger) WarnObj(string, string, interface{})  {}
func (noopLogger) ErrorObj(string, string, interface{}) {}

// ensureLogger substitutes the noop logger for nil.
func ensureLogger(log Logger) Logger {
	if log == nil {
		return noopLogger{}
	}
	return log
}
