package board

import "sync"

// Event names published by the service.
const (
	EventOpened   = "canvas.opened"
	EventUpdated  = "canvas.updated"
	EventGesture  = "canvas.gesture"
	EventExported = "canvas.exported"
	EventClosed   = "canvas.closed"
)

// Emitter pushes session events to connected clients. The SSE broker
// implements it; services receive the interface so tests can record calls.
type Emitter interface {
	Emit(event string, data any)
}

// NopEmitter discards every event. It is used when no client transport is
// attached, as in MCP stdio mode.
type NopEmitter struct{}

// Emit implements Emitter.
func (NopEmitter) Emit(string, any) {}

// MockEmitter records every emission for assertions in tests.
type MockEmitter struct {
	mu     sync.Mutex
	Events []EmittedEvent
}

// EmittedEvent is one recorded emission.
type EmittedEvent struct {
	Event string
	Data  any
}

// Emit implements Emitter.
func (m *MockEmitter) Emit(event string, data any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, EmittedEvent{Event: event, Data: data})
}

// Count returns how many times event was emitted.
func (m *MockEmitter) Count(event string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, e := range m.Events {
		if e.Event == event {
			n++
		}
	}
	return n
}

// Last returns the most recent emission, if any.
func (m *MockEmitter) Last() (EmittedEvent, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Events) == 0 {
		return EmittedEvent{}, false
	}
	return m.Events[len(m.Events)-1], true
}
