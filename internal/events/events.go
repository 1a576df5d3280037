// Package events delivers change notifications to in-process subscribers.
package events

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"muabook/internal/logger"
)

// Name identifies a kind of change.
type Name string

const (
	ClientUpdated  Name = "clientUpdated"
	ProjectUpdated Name = "projectUpdated"
	InvoiceCreated Name = "invoiceCreated"
	InvoiceUpdated Name = "invoiceUpdated"
	DataChanged    Name = "dataChanged"

	// All subscribes a handler to every event.
	All Name = "*"
)

// Event is one change notification. EntityID is zero for DataChanged.
type Event struct {
	ID       uuid.UUID `json:"id"`
	Name     Name      `json:"name"`
	EntityID int64     `json:"entityId"`
	Pass     string    `json:"pass"`
	RunID    string    `json:"runId,omitempty"`
	At       time.Time `json:"at"`
}

// Handler receives events on its own goroutine.
type Handler func(Event)

// Bus fans events out to subscribers asynchronously.
type Bus struct {
	mu       sync.RWMutex
	handlers map[Name][]Handler
	wg       sync.WaitGroup
	log      zerolog.Logger
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[Name][]Handler),
		log:      logger.WithComponent("events"),
	}
}

// Subscribe registers h for events called name, or for every event with All.
func (b *Bus) Subscribe(name Name, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[name] = append(b.handlers[name], h)
}

// Publish assigns the event an id and timestamp when missing and dispatches
// it. It never waits for handlers.
func (b *Bus) Publish(e Event) {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.At.IsZero() {
		e.At = time.Now()
	}

	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.handlers[e.Name])+len(b.handlers[All]))
	handlers = append(handlers, b.handlers[e.Name]...)
	handlers = append(handlers, b.handlers[All]...)
	b.mu.RUnlock()

	for _, h := range handlers {
		b.wg.Add(1)
		go b.dispatch(h, e)
	}
}

func (b *Bus) dispatch(h Handler, e Event) {
	defer b.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			b.log.Error().
				Interface("panic", r).
				Str("event", string(e.Name)).
				Str("event_id", e.ID.String()).
				Msg("Event handler panicked")
		}
	}()
	h(e)
}

// Wait blocks until every dispatched handler has returned.
func (b *Bus) Wait() {
	b.wg.Wait()
}
