package ratbaglog

import (
	"os"
	"sync"

	"github.com/rs/zerolog"
)

// Component identifies a subsystem for log filtering.
type Component string

// Module components.
const (
	ComponentTransport Component = "transport"
	ComponentHIDPP1    Component = "hidpp1"
	ComponentHIDPP2    Component = "hidpp2"
	ComponentDevice    Component = "device"
	ComponentDriver    Component = "driver"
	ComponentCommit    Component = "commit"
)

var (
	mu     sync.RWMutex
	logger zerolog.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		With().Timestamp().Logger().Level(zerolog.WarnLevel)
)

// SetLogger replaces the default logger with a caller-supplied one. Use
// this to redirect the sink (to a daemon's own multiplexer, to a file, to
// /dev/null in tests) without changing any call site in the core.
func SetLogger(l zerolog.Logger) {
	mu.Lock()
	defer mu.Unlock()
	logger = l
}

// Logger returns the current logger.
func Logger() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// SetLevel adjusts the minimum level of the current logger.
func SetLevel(level zerolog.Level) {
	mu.Lock()
	defer mu.Unlock()
	logger = logger.Level(level)
}

func event(component Component, e *zerolog.Event, msg string, kv ...any) {
	e = e.Str("component", string(component))
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		e = e.Interface(key, kv[i+1])
	}
	e.Msg(msg)
}

// Debug logs a debug-level message tagged with component.
func Debug(component Component, msg string, kv ...any) {
	mu.RLock()
	l := logger
	mu.RUnlock()
	event(component, l.Debug(), msg, kv...)
}

// Info logs an info-level message tagged with component.
func Info(component Component, msg string, kv ...any) {
	mu.RLock()
	l := logger
	mu.RUnlock()
	event(component, l.Info(), msg, kv...)
}

// Warn logs a warning-level message tagged with component.
func Warn(component Component, msg string, kv ...any) {
	mu.RLock()
	l := logger
	mu.RUnlock()
	event(component, l.Warn(), msg, kv...)
}

// Error logs an error-level message tagged with component.
func Error(component Component, msg string, kv ...any) {
	mu.RLock()
	l := logger
	mu.RUnlock()
	event(component, l.Error(), msg, kv...)
}
