// Package logging is the diagnostics capability used by hub services.
//
// Two implementations exist: a zap-backed factory writing rotated JSON files, and a no-op
// factory for deployments without diagnostics. Select is the only place that chooses
// between them; dependents only ever see Factory.
package logging

import "fmt"

// Level orders log events by severity.
type Level int8

const (
	LevelVerbose Level = iota
	LevelInfo
	LevelWarning
	LevelError
	LevelCritical
)

func (l Level) String() string {
	switch l {
	case LevelVerbose:
		return "verbose"
	case LevelInfo:
		return "info"
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	case LevelCritical:
		return "critical"
	}
	return fmt.Sprintf("level(%d)", int8(l))
}

// Formatter renders state and err into a message.
type Formatter func(state any, err error) string

// Logger writes a single event and reports whether it was accepted.
type Logger interface {
	Write(level Level, eventID int, state any, err error, format Formatter) bool
}

// Factory creates named loggers.
type Factory interface {
	Create(name string) Logger
}

// Log writes msg with the default formatter.
func Log(l Logger, level Level, eventID int, msg string, err error) bool {
	return l.Write(level, eventID, msg, err, DefaultFormatter)
}

// DefaultFormatter prints state, followed by err when present.
func DefaultFormatter(state any, err error) string {
	msg := ""
	if state != nil {
		msg = fmt.Sprint(state)
	}
	if err == nil {
		return msg
	}
	if msg == "" {
		return err.Error()
	}
	return msg + ": " + err.Error()
}
