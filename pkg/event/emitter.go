package event

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// InProcessEmitter dispatches events synchronously to subscribers in
// subscription order. There is no outbox or broker behind it: the engine
// is a single-client library and its only consumer is the in-process UI.
type InProcessEmitter struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]func(Event)
}

func NewInProcessEmitter() *InProcessEmitter {
	return &InProcessEmitter{subs: make(map[int]func(Event))}
}

func (e *InProcessEmitter) Emit(eventType EventType, payload map[string]interface{}) {
	evt := Event{
		ID:        uuid.New(),
		Type:      eventType,
		Payload:   payload,
		CreatedAt: time.Now(),
	}

	e.mu.Lock()
	fns := make([]func(Event), 0, len(e.subs))
	for _, fn := range e.subs {
		fns = append(fns, fn)
	}
	e.mu.Unlock()

	// Dispatch outside the lock so a subscriber may subscribe/unsubscribe.
	for _, fn := range fns {
		fn(evt)
	}
}

func (e *InProcessEmitter) Subscribe(fn func(Event)) func() {
	e.mu.Lock()
	defer e.mu.Unlock()

	id := e.nextID
	e.nextID++
	e.subs[id] = fn

	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		delete(e.subs, id)
	}
}

// NopEmitter drops every event.
type NopEmitter struct{}

func (NopEmitter) Emit(EventType, map[string]interface{}) {}

func (NopEmitter) Subscribe(func(Event)) func() { return func() {} }
