// Package hubs defines the invocation pipeline every hub call and connection event passes
// through before reaching application code.
//
// Modules are kept in an explicit ordered list. Requests walk the list forward; results,
// errors and completed lifecycle events walk it backward. The first module added therefore
// sees every request first and every result last.
package hubs

import (
	"fmt"
	"sync"
)

// MethodDescriptor names an invocable hub method.
type MethodDescriptor struct {
	Hub  string
	Name string
}

func (m MethodDescriptor) String() string { return m.Hub + "." + m.Name }

// Connection is one client connection to a hub. Items holds per-connection module state.
type Connection struct {
	ID      string
	Hub     string
	Headers map[string]string
	Items   sync.Map
}

// Invocation is a single inbound call. Modules may rewrite Args before forwarding and keep
// per-call state in Items.
type Invocation struct {
	Connection *Connection
	Method     MethodDescriptor
	Args       []any
	CallID     string
	Items      sync.Map
}

// OutgoingMessage is a server-to-client call addressed to Signal (a connection or group).
type OutgoingMessage struct {
	Signal string
	Hub    string
	Method string
	Args   []any
}

// Outcome is the value or error an invocation produced.
type Outcome struct {
	Result any
	Err    error
}

// EventKind identifies which invoker entry point produced an event.
type EventKind uint8

const (
	EventIncoming EventKind = iota + 1
	EventOutgoing
	EventConnect
	EventReconnect
	EventDisconnect
)

func (k EventKind) String() string {
	switch k {
	case EventIncoming:
		return "incoming"
	case EventOutgoing:
		return "outgoing"
	case EventConnect:
		return "connect"
	case EventReconnect:
		return "reconnect"
	case EventDisconnect:
		return "disconnect"
	}
	return fmt.Sprintf("event(%d)", uint8(k))
}

// ErrorContext tells an error hook where the error came from. Only the field matching
// Kind is set.
type ErrorContext struct {
	Kind       EventKind
	Invocation *Invocation
	Connection *Connection
	Message    *OutgoingMessage
}
