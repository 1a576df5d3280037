package events

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_DeliversToNamedAndWildcardHandlers(t *testing.T) {
	bus := NewBus()

	var mu sync.Mutex
	var named, all []Event
	bus.Subscribe(ClientUpdated, func(e Event) {
		mu.Lock()
		defer mu.Unlock()
		named = append(named, e)
	})
	bus.Subscribe(All, func(e Event) {
		mu.Lock()
		defer mu.Unlock()
		all = append(all, e)
	})

	bus.Publish(Event{Name: ClientUpdated, EntityID: 7, Pass: "autofix"})
	bus.Publish(Event{Name: DataChanged, Pass: "autofix"})
	bus.Wait()

	require.Len(t, named, 1)
	assert.Equal(t, int64(7), named[0].EntityID)
	assert.NotEqual(t, uuid.Nil, named[0].ID)
	assert.False(t, named[0].At.IsZero())
	assert.Len(t, all, 2)
}

func TestBus_KeepsProvidedID(t *testing.T) {
	bus := NewBus()
	id := uuid.New()

	got := make(chan Event, 1)
	bus.Subscribe(InvoiceCreated, func(e Event) { got <- e })
	bus.Publish(Event{ID: id, Name: InvoiceCreated, EntityID: 3})
	bus.Wait()

	assert.Equal(t, id, (<-got).ID)
}

func TestBus_RecoversHandlerPanic(t *testing.T) {
	bus := NewBus()

	delivered := make(chan struct{}, 1)
	bus.Subscribe(ProjectUpdated, func(Event) { panic("boom") })
	bus.Subscribe(ProjectUpdated, func(Event) { delivered <- struct{}{} })

	assert.NotPanics(t, func() {
		bus.Publish(Event{Name: ProjectUpdated, EntityID: 1})
		bus.Wait()
	})
	assert.Len(t, delivered, 1)
}

func TestBus_NoSubscribers(t *testing.T) {
	bus := NewBus()
	bus.Publish(Event{Name: InvoiceUpdated})
	bus.Wait()
}
