package notify

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/ticket-sync/internal/domain"
)

// Dispatcher is the thin contract the store fires on specific transitions.
// Every call is best-effort: a failure here must never roll back or fail the
// mutation it is attached to.
type Dispatcher interface {
	NotifyCreated(ctx context.Context, ticket domain.Ticket) error
	NotifyResolved(ctx context.Context, ticket domain.Ticket, actorID string) error
	NotifyAssigned(ctx context.Context, ticket domain.Ticket, assigneeID, actorID string) error
}

// eventDispatcher implements Dispatcher by publishing typed events to a bus.
type eventDispatcher struct {
	bus Bus
}

// NewDispatcher constructs a bus-backed dispatcher.
func NewDispatcher(bus Bus) Dispatcher {
	return &eventDispatcher{bus: bus}
}

func (d *eventDispatcher) NotifyCreated(ctx context.Context, ticket domain.Ticket) error {
	return d.bus.Publish(ctx, Event{
		ID:        uuid.NewString(),
		Type:      EventTicketCreated,
		TicketID:  ticket.ID,
		ActorID:   ticket.CreatedBy,
		Timestamp: time.Now(),
		Payload: TicketCreatedPayload{
			Title:     ticket.Title,
			Priority:  ticket.Priority,
			Location:  ticket.Location,
			CreatedBy: ticket.CreatedBy,
		},
	})
}

func (d *eventDispatcher) NotifyResolved(ctx context.Context, ticket domain.Ticket, actorID string) error {
	return d.bus.Publish(ctx, Event{
		ID:        uuid.NewString(),
		Type:      EventTicketResolved,
		TicketID:  ticket.ID,
		ActorID:   actorID,
		Timestamp: time.Now(),
		Payload: TicketResolvedPayload{
			Title:      ticket.Title,
			ResolvedAt: ticket.ResolvedAt,
		},
	})
}

func (d *eventDispatcher) NotifyAssigned(ctx context.Context, ticket domain.Ticket, assigneeID, actorID string) error {
	return d.bus.Publish(ctx, Event{
		ID:        uuid.NewString(),
		Type:      EventTicketAssigned,
		TicketID:  ticket.ID,
		ActorID:   actorID,
		Timestamp: time.Now(),
		Payload: TicketAssignedPayload{
			Title:      ticket.Title,
			AssigneeID: assigneeID,
		},
	})
}
