// Package logging provides a thin, structured wrapper over btclog.Logger
// shared by every logging subsystem package (actor, store, chain, router,
// registry, permission, execctl, actorruntime, theater). Each subsystem
// keeps its own package-scoped
// `log` variable and `UseLogger` setter, following the convention already
// used by internal/baselib/actor; this package just supplies the common
// "S"-suffixed structured helpers so call sites don't hand-format key/value
// pairs themselves.
package logging

import (
	"context"
	"fmt"
	"strings"

	"github.com/btcsuite/btclog"
)

// Logger adds context-aware, structured logging methods on top of a plain
// btclog.Logger. The context argument is accepted for call-site symmetry
// with the rest of the codebase (request-scoped tracing hooks can be added
// here later) but is not required to carry anything today.
type Logger struct {
	btclog.Logger
}

// New wraps an existing btclog.Logger with the structured helpers.
func New(l btclog.Logger) *Logger {
	return &Logger{Logger: l}
}

// Disabled returns a Logger that discards everything, used as the default
// before a subsystem's UseLogger is called.
func Disabled() *Logger {
	return &Logger{Logger: noopLogger{}}
}

// kvString renders alternating key/value pairs as "k1=v1 k2=v2 ...".
func kvString(kvs []any) string {
	if len(kvs) == 0 {
		return ""
	}

	var sb strings.Builder
	for i := 0; i+1 < len(kvs); i += 2 {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%v=%v", kvs[i], kvs[i+1])
	}

	return sb.String()
}

// TraceS logs a trace-level message with structured key/value context.
func (l *Logger) TraceS(_ context.Context, msg string, kvs ...any) {
	if kv := kvString(kvs); kv != "" {
		l.Tracef("%s [%s]", msg, kv)
		return
	}
	l.Trace(msg)
}

// DebugS logs a debug-level message with structured key/value context.
func (l *Logger) DebugS(_ context.Context, msg string, kvs ...any) {
	if kv := kvString(kvs); kv != "" {
		l.Debugf("%s [%s]", msg, kv)
		return
	}
	l.Debug(msg)
}

// InfoS logs an info-level message with structured key/value context.
func (l *Logger) InfoS(_ context.Context, msg string, kvs ...any) {
	if kv := kvString(kvs); kv != "" {
		l.Infof("%s [%s]", msg, kv)
		return
	}
	l.Info(msg)
}

// WarnS logs a warn-level message, an associated error, and structured
// key/value context.
func (l *Logger) WarnS(_ context.Context, msg string, err error, kvs ...any) {
	if kv := kvString(kvs); kv != "" {
		l.Warnf("%s: %v [%s]", msg, err, kv)
		return
	}
	l.Warnf("%s: %v", msg, err)
}

// ErrorS logs an error-level message, an associated error, and structured
// key/value context.
func (l *Logger) ErrorS(_ context.Context, msg string, err error, kvs ...any) {
	if kv := kvString(kvs); kv != "" {
		l.Errorf("%s: %v [%s]", msg, err, kv)
		return
	}
	l.Errorf("%s: %v", msg, err)
}

// noopLogger implements btclog.Logger by discarding everything. It backs
// Disabled() so subsystems are safe to use before UseLogger is called.
type noopLogger struct{}

func (noopLogger) Tracef(string, ...any)    {}
func (noopLogger) Debugf(string, ...any)    {}
func (noopLogger) Infof(string, ...any)     {}
func (noopLogger) Warnf(string, ...any)     {}
func (noopLogger) Errorf(string, ...any)    {}
func (noopLogger) Criticalf(string, ...any) {}
func (noopLogger) Trace(...any)             {}
func (noopLogger) Debug(...any)             {}
func (noopLogger) Info(...any)              {}
func (noopLogger) Warn(...any)              {}
func (noopLogger) Error(...any)             {}
func (noopLogger) Critical(...any)          {}
func (noopLogger) Level() btclog.Level      { return btclog.LevelOff }
func (noopLogger) SetLevel(btclog.Level)    {}
