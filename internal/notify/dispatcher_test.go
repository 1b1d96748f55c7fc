package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/ticket-sync/internal/domain"
)

func TestBusDeliversToAllHandlers(t *testing.T) {
	bus := NewInMemoryBus()

	var first, second []Event
	bus.Subscribe(EventTicketCreated, func(ctx context.Context, event Event) error {
		first = append(first, event)
		return nil
	})
	bus.Subscribe(EventTicketCreated, func(ctx context.Context, event Event) error {
		second = append(second, event)
		return nil
	})

	err := bus.Publish(context.Background(), Event{Type: EventTicketCreated, TicketID: "t1"})
	require.NoError(t, err)
	assert.Len(t, first, 1)
	assert.Len(t, second, 1)
}

func TestBusHandlerErrorDoesNotStopDelivery(t *testing.T) {
	bus := NewInMemoryBus()
	handlerErr := errors.New("email provider down")

	delivered := false
	bus.Subscribe(EventTicketResolved, func(ctx context.Context, event Event) error {
		return handlerErr
	})
	bus.Subscribe(EventTicketResolved, func(ctx context.Context, event Event) error {
		delivered = true
		return nil
	})

	err := bus.Publish(context.Background(), Event{Type: EventTicketResolved})
	assert.ErrorIs(t, err, handlerErr)
	assert.True(t, delivered)
}

func TestBusIgnoresUnrelatedEventTypes(t *testing.T) {
	bus := NewInMemoryBus()

	calls := 0
	bus.Subscribe(EventTicketAssigned, func(ctx context.Context, event Event) error {
		calls++
		return nil
	})

	require.NoError(t, bus.Publish(context.Background(), Event{Type: EventTicketCreated}))
	assert.Zero(t, calls)
}

func TestDispatcherMapsTransitionsToEvents(t *testing.T) {
	bus := NewInMemoryBus()
	var events []Event
	record := func(ctx context.Context, event Event) error {
		events = append(events, event)
		return nil
	}
	bus.Subscribe(EventTicketCreated, record)
	bus.Subscribe(EventTicketResolved, record)
	bus.Subscribe(EventTicketAssigned, record)

	dispatcher := NewDispatcher(bus)
	resolvedAt := time.Date(2026, 3, 5, 10, 0, 0, 0, time.UTC)
	ticket := domain.Ticket{
		ID:         "t1",
		Title:      "Generator fault",
		Priority:   domain.TicketPriorityCritical,
		CreatedBy:  "eng-1",
		ResolvedAt: &resolvedAt,
	}

	require.NoError(t, dispatcher.NotifyCreated(context.Background(), ticket))
	require.NoError(t, dispatcher.NotifyResolved(context.Background(), ticket, "eng-2"))
	require.NoError(t, dispatcher.NotifyAssigned(context.Background(), ticket, "eng-3", "sup-1"))

	require.Len(t, events, 3)

	created := events[0]
	assert.Equal(t, EventTicketCreated, created.Type)
	assert.Equal(t, "t1", created.TicketID)
	assert.Equal(t, "eng-1", created.ActorID)
	assert.NotEmpty(t, created.ID)
	createdPayload, ok := created.Payload.(TicketCreatedPayload)
	require.True(t, ok)
	assert.Equal(t, domain.TicketPriorityCritical, createdPayload.Priority)

	resolved := events[1]
	assert.Equal(t, EventTicketResolved, resolved.Type)
	assert.Equal(t, "eng-2", resolved.ActorID)
	resolvedPayload, ok := resolved.Payload.(TicketResolvedPayload)
	require.True(t, ok)
	require.NotNil(t, resolvedPayload.ResolvedAt)
	assert.Equal(t, resolvedAt, *resolvedPayload.ResolvedAt)

	assigned := events[2]
	assert.Equal(t, EventTicketAssigned, assigned.Type)
	assert.Equal(t, "sup-1", assigned.ActorID)
	assignedPayload, ok := assigned.Payload.(TicketAssignedPayload)
	require.True(t, ok)
	assert.Equal(t, "eng-3", assignedPayload.AssigneeID)
}
