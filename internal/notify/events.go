package notify

import (
	"time"

	"github.com/spec-kit/ticket-sync/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated  EventType = "ticket_created"
	EventTicketResolved EventType = "ticket_resolved"
	EventTicketAssigned EventType = "ticket_assigned"
)

// Event represents a notification-worthy transition emitted by the store.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id"`
	ActorID   string      `json:"actor_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	Title     string                `json:"title"`
	Priority  domain.TicketPriority `json:"priority"`
	Location  string                `json:"location,omitempty"`
	CreatedBy string                `json:"created_by"`
}

// TicketResolvedPayload payload.
type TicketResolvedPayload struct {
	Title      string     `json:"title"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
}

// TicketAssignedPayload payload.
type TicketAssignedPayload struct {
	Title      string `json:"title"`
	AssigneeID string `json:"assignee_id"`
}
