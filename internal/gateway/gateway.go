package gateway

import (
	"context"

	"github.com/spec-kit/ticket-sync/internal/domain"
)

// RawTicket is the wire representation of a ticket. All timestamp fields are
// ISO-8601 encoded strings; empty string means unset.
type RawTicket struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Location    string  `json:"location"`
	Priority    string  `json:"priority"`
	Status      string  `json:"status"`
	CreatedBy   string  `json:"created_by"`
	AssignedTo  *string `json:"assigned_to,omitempty"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
	AssignedAt  string  `json:"assigned_at,omitempty"`
	ResolvedAt  string  `json:"resolved_at,omitempty"`
	VerifiedAt  string  `json:"verified_at,omitempty"`
	VerifiedBy  *string `json:"verified_by,omitempty"`
	DueDate     string  `json:"due_date,omitempty"`

	AssignedToProfile *RawProfile `json:"assigned_to_profile,omitempty"`
	CreatedByProfile  *RawProfile `json:"created_by_profile,omitempty"`
}

// RawProfile is the wire representation of a user profile projection.
type RawProfile struct {
	ID         string `json:"id"`
	FullName   string `json:"full_name"`
	Email      string `json:"email"`
	Role       string `json:"role"`
	Department string `json:"department"`
	IsActive   bool   `json:"is_active"`
	CreatedAt  string `json:"created_at"`
}

// RawActivity is the wire representation of a ticket activity entry.
type RawActivity struct {
	ID        string `json:"id"`
	TicketID  string `json:"ticket_id"`
	ActorID   string `json:"actor_id"`
	Kind      string `json:"kind"`
	Message   string `json:"message"`
	CreatedAt string `json:"created_at"`
}

// RawMedia is the wire representation of a ticket media reference.
type RawMedia struct {
	ID          string `json:"id"`
	TicketID    string `json:"ticket_id"`
	UploadedBy  string `json:"uploaded_by"`
	URL         string `json:"url"`
	ContentType string `json:"content_type"`
	CreatedAt   string `json:"created_at"`
}

// TicketFields carries the writable subset of ticket attributes for create
// and update calls. Nil pointers mean "leave unchanged"; Clear flags request
// explicit removal of the optional value.
type TicketFields struct {
	Title           *string
	Description     *string
	Location        *string
	Priority        *string
	Status          *string
	AssignedTo      *string
	ClearAssign     bool
	AssignedAt      *string
	ClearAssignedAt bool
	ResolvedAt      *string
	VerifiedAt      *string
	VerifiedBy      *string
	DueDate         *string
	ClearDue        bool
}

// Change is a remote change notification. The store never inspects the
// payload; any change triggers a full reload.
type Change struct {
	TicketID string
	Kind     string
}

// Subscription is a live-change stream handle.
type Subscription interface {
	// Unsubscribe tears down the stream. No callbacks are delivered after
	// it returns.
	Unsubscribe() error
}

// Gateway is the data-access contract the store requires from its remote
// collaborator.
type Gateway interface {
	FetchTickets(ctx context.Context, userID string, role domain.Role) ([]RawTicket, error)
	CreateTicket(ctx context.Context, userID string, fields TicketFields) (RawTicket, error)
	UpdateTicket(ctx context.Context, id string, fields TicketFields) (RawTicket, error)
	DeleteTicket(ctx context.Context, id string) error
	SubscribeToChanges(ctx context.Context, userID string, onChange func(Change)) (Subscription, error)
	GetActivities(ctx context.Context, id string) ([]RawActivity, error)
	GetMedia(ctx context.Context, id string) ([]RawMedia, error)
	AddComment(ctx context.Context, userID, id, text string) error
	AddNote(ctx context.Context, userID, id, text string) error
}
