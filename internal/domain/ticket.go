package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "open"
	TicketStatusAssigned   TicketStatus = "assigned"
	TicketStatusInProgress TicketStatus = "in_progress"
	TicketStatusResolved   TicketStatus = "resolved"
	TicketStatusVerified   TicketStatus = "verified"
	TicketStatusClosed     TicketStatus = "closed"
)

// TicketPriority enumerates urgency levels.
type TicketPriority string

const (
	TicketPriorityLow      TicketPriority = "low"
	TicketPriorityMedium   TicketPriority = "medium"
	TicketPriorityHigh     TicketPriority = "high"
	TicketPriorityCritical TicketPriority = "critical"
)

// Ticket is the aggregate for field work items.
type Ticket struct {
	ID          string
	Title       string
	Description string
	Location    string
	Priority    TicketPriority
	Status      TicketStatus
	CreatedBy   string
	AssignedTo  *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	AssignedAt  *time.Time
	ResolvedAt  *time.Time
	VerifiedAt  *time.Time
	VerifiedBy  *string
	DueDate     *time.Time

	// Display-only projections, never written by this module.
	AssignedToProfile *UserProfile
	CreatedByProfile  *UserProfile
}

var statusRank = map[TicketStatus]int{
	TicketStatusOpen:       1,
	TicketStatusAssigned:   2,
	TicketStatusInProgress: 3,
	TicketStatusResolved:   4,
	TicketStatusVerified:   5,
	TicketStatusClosed:     6,
}

// StatusRank returns the status position in the lifecycle order.
// Unknown statuses rank 0.
func StatusRank(status TicketStatus) int {
	return statusRank[status]
}

// ValidTransition reports whether moving from current to next respects the
// monotonic lifecycle. Returning to open is allowed only as the
// reopen-on-unassignment path.
func ValidTransition(current, next TicketStatus) bool {
	if current == next {
		return true
	}
	if next == TicketStatusOpen {
		return true
	}
	return StatusRank(next) > StatusRank(current)
}

var priorityRank = map[TicketPriority]int{
	TicketPriorityCritical: 4,
	TicketPriorityHigh:     3,
	TicketPriorityMedium:   2,
	TicketPriorityLow:      1,
}

// PriorityRank returns the sort weight of a priority. Unknown values rank 0.
func PriorityRank(priority TicketPriority) int {
	return priorityRank[priority]
}

// Terminal reports whether the status ends the active lifecycle.
func (s TicketStatus) Terminal() bool {
	switch s {
	case TicketStatusResolved, TicketStatusVerified, TicketStatusClosed:
		return true
	}
	return false
}

// Overdue reports whether the ticket has a due date in the past while still
// in an active status.
func (t *Ticket) Overdue(now time.Time) bool {
	if t.DueDate == nil {
		return false
	}
	if t.Status.Terminal() {
		return false
	}
	return t.DueDate.Before(now)
}

// Assigned reports whether the ticket has an assignee.
func (t *Ticket) Assigned() bool {
	return t.AssignedTo != nil && *t.AssignedTo != ""
}

// Activity is a read-only detail entry attached to a ticket.
type Activity struct {
	ID        string
	TicketID  string
	ActorID   string
	Kind      string
	Message   string
	CreatedAt time.Time
}

// Media is a read-only attachment reference for a ticket.
type Media struct {
	ID          string
	TicketID    string
	UploadedBy  string
	URL         string
	ContentType string
	CreatedAt   time.Time
}
