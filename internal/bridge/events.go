// Package bridge runs the broker side of the bridge: it turns broker
// callbacks into events and dispatches inbound messages through the
// decode, enrich, publish and persist pipeline.
package bridge

import "log/slog"

// Event is anything the dispatch loop reacts to.
type Event interface {
	event()
}

// Connecting is emitted when a (re)connection attempt starts.
type Connecting struct{}

// Connected is emitted every time the broker accepts the connection.
type Connected struct{}

// ConnectionLost is emitted when an established connection drops.
type ConnectionLost struct {
	Err error
}

// MessageReceived carries one inbound broker message.
type MessageReceived struct {
	Topic   string
	Payload []byte
}

// LogLine is a diagnostic line of the broker client library.
type LogLine struct {
	Level   slog.Level
	Message string
}

func (Connecting) event()      {}
func (Connected) event()       {}
func (ConnectionLost) event()  {}
func (MessageReceived) event() {}
func (LogLine) event()         {}

// State is the connection state of the runtime.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	}
	return "disconnected"
}
