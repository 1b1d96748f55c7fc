package dto

import (
	"time"

	"github.com/spec-kit/ticket-sync/internal/domain"
	"github.com/spec-kit/ticket-sync/internal/view"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Title       string                `json:"title"`
	Description string                `json:"description"`
	Location    string                `json:"location"`
	Priority    domain.TicketPriority `json:"priority"`
	DueDate     *time.Time            `json:"due_date"`
}

// UpdateTicketRequest payload. Omitted fields stay unchanged; the Clear
// flags request removal of optional values.
type UpdateTicketRequest struct {
	Title           *string                `json:"title"`
	Description     *string                `json:"description"`
	Location        *string                `json:"location"`
	Priority        *domain.TicketPriority `json:"priority"`
	Status          *domain.TicketStatus   `json:"status"`
	AssignedTo      *string                `json:"assigned_to"`
	ClearAssignedTo bool                   `json:"clear_assigned_to"`
	DueDate         *time.Time             `json:"due_date"`
	ClearDueDate    bool                   `json:"clear_due_date"`
}

// AssignTicketRequest payload. A null assignee clears the assignment.
type AssignTicketRequest struct {
	AssigneeID *string `json:"assignee_id"`
}

// EntryRequest payload for comments and notes.
type EntryRequest struct {
	Text string `json:"text"`
}

// TicketResponse is the full ticket projection.
type TicketResponse struct {
	ID          string                `json:"id"`
	Title       string                `json:"title"`
	Description string                `json:"description"`
	Location    string                `json:"location"`
	Priority    domain.TicketPriority `json:"priority"`
	Status      domain.TicketStatus   `json:"status"`
	CreatedBy   string                `json:"created_by"`
	AssignedTo  *string               `json:"assigned_to"`
	CreatedAt   time.Time             `json:"created_at"`
	UpdatedAt   time.Time             `json:"updated_at"`
	AssignedAt  *time.Time            `json:"assigned_at,omitempty"`
	ResolvedAt  *time.Time            `json:"resolved_at,omitempty"`
	VerifiedAt  *time.Time            `json:"verified_at,omitempty"`
	VerifiedBy  *string               `json:"verified_by,omitempty"`
	DueDate     *time.Time            `json:"due_date,omitempty"`

	AssignedToName string `json:"assigned_to_name,omitempty"`
	CreatedByName  string `json:"created_by_name,omitempty"`
}

// ActivityResponse is an activity trail entry.
type ActivityResponse struct {
	ID        string    `json:"id"`
	ActorID   string    `json:"actor_id"`
	Kind      string    `json:"kind"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// MediaResponse is a media reference.
type MediaResponse struct {
	ID          string    `json:"id"`
	UploadedBy  string    `json:"uploaded_by"`
	URL         string    `json:"url"`
	ContentType string    `json:"content_type"`
	CreatedAt   time.Time `json:"created_at"`
}

// CountsResponse mirrors view.Counts.
type CountsResponse = view.Counts

// FromTicket maps a domain ticket to its response form.
func FromTicket(t domain.Ticket) TicketResponse {
	resp := TicketResponse{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Location:    t.Location,
		Priority:    t.Priority,
		Status:      t.Status,
		CreatedBy:   t.CreatedBy,
		AssignedTo:  t.AssignedTo,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
		AssignedAt:  t.AssignedAt,
		ResolvedAt:  t.ResolvedAt,
		VerifiedAt:  t.VerifiedAt,
		VerifiedBy:  t.VerifiedBy,
		DueDate:     t.DueDate,
	}
	if t.AssignedToProfile != nil {
		resp.AssignedToName = t.AssignedToProfile.FullName
	}
	if t.CreatedByProfile != nil {
		resp.CreatedByName = t.CreatedByProfile.FullName
	}
	return resp
}

// FromTickets maps a ticket slice.
func FromTickets(tickets []domain.Ticket) []TicketResponse {
	items := make([]TicketResponse, 0, len(tickets))
	for _, t := range tickets {
		items = append(items, FromTicket(t))
	}
	return items
}

// FromActivity maps a domain activity.
func FromActivity(a domain.Activity) ActivityResponse {
	return ActivityResponse{
		ID:        a.ID,
		ActorID:   a.ActorID,
		Kind:      a.Kind,
		Message:   a.Message,
		CreatedAt: a.CreatedAt,
	}
}

// FromMedia maps a domain media reference.
func FromMedia(m domain.Media) MediaResponse {
	return MediaResponse{
		ID:          m.ID,
		UploadedBy:  m.UploadedBy,
		URL:         m.URL,
		ContentType: m.ContentType,
		CreatedAt:   m.CreatedAt,
	}
}
