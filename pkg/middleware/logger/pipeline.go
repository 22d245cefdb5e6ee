// Package logger records hub traffic: a pipeline module for invocations and connection
// events, and an access log for the diagnostics HTTP surface.
package logger

import (
	"context"
	"fmt"

	"github.com/joeydtaylor/steeze-hub/pkg/hubs"
	"github.com/joeydtaylor/steeze-hub/pkg/logging"
)

// Event ids written by InvocationLogger.
const (
	EventInvoke = iota + 100
	EventResult
	EventSend
	EventConnect
	EventReconnect
	EventDisconnect
	EventError
)

// InvocationLogger writes every pipeline event through a logging.Factory logger. It never
// changes the outcome.
type InvocationLogger struct {
	hubs.BaseModule
	log logging.Logger
}

var _ hubs.Module = (*InvocationLogger)(nil)

func NewInvocationLogger(f logging.Factory) *InvocationLogger {
	return &InvocationLogger{log: f.Create("hubs.pipeline")}
}

func (l *InvocationLogger) Name() string { return "logger" }

func (l *InvocationLogger) BeforeIncoming(_ context.Context, inv *hubs.Invocation) (hubs.Outcome, bool) {
	l.write(logging.LevelVerbose, EventInvoke, fmt.Sprintf("invoking %s on %s with %d args", inv.Method, connID(inv.Connection), len(inv.Args)), nil)
	return hubs.Outcome{}, true
}

func (l *InvocationLogger) AfterIncoming(_ context.Context, inv *hubs.Invocation, result any) (any, error) {
	l.write(logging.LevelVerbose, EventResult, fmt.Sprintf("%s on %s completed", inv.Method, connID(inv.Connection)), nil)
	return result, nil
}

func (l *InvocationLogger) BeforeOutgoing(_ context.Context, msg *hubs.OutgoingMessage) bool {
	l.write(logging.LevelVerbose, EventSend, fmt.Sprintf("sending %s.%s to %s", msg.Hub, msg.Method, msg.Signal), nil)
	return true
}

func (l *InvocationLogger) AfterConnect(_ context.Context, conn *hubs.Connection) {
	l.write(logging.LevelInfo, EventConnect, fmt.Sprintf("%s connected to %s", conn.ID, conn.Hub), nil)
}

func (l *InvocationLogger) AfterReconnect(_ context.Context, conn *hubs.Connection) {
	l.write(logging.LevelInfo, EventReconnect, fmt.Sprintf("%s reconnected to %s", conn.ID, conn.Hub), nil)
}

func (l *InvocationLogger) AfterDisconnect(_ context.Context, conn *hubs.Connection, stopCalled bool) {
	how := "timed out"
	if stopCalled {
		how = "closed"
	}
	l.write(logging.LevelInfo, EventDisconnect, fmt.Sprintf("%s %s on %s", conn.ID, how, conn.Hub), nil)
}

func (l *InvocationLogger) OnError(_ context.Context, ec hubs.ErrorContext, err error) error {
	target := ec.Kind.String()
	switch {
	case ec.Invocation != nil:
		target = ec.Invocation.Method.String()
	case ec.Connection != nil:
		target += " " + ec.Connection.ID
	case ec.Message != nil:
		target += " " + ec.Message.Signal
	}
	l.write(logging.LevelError, EventError, target+" failed", err)
	return err
}

func (l *InvocationLogger) write(level logging.Level, id int, msg string, err error) {
	logging.Log(l.log, level, id, msg, err)
}

func connID(c *hubs.Connection) string {
	if c == nil {
		return "<none>"
	}
	return c.ID
}
