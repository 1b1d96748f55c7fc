// Package view derives the role-scoped, filtered, sorted projections of the
// ticket collection. Everything here is a pure function of its inputs: same
// collection, session, and parameters always produce the same output.
package view

import (
	"sort"
	"strings"
	"time"

	"github.com/spec-kit/ticket-sync/internal/auth"
	"github.com/spec-kit/ticket-sync/internal/domain"
)

// FilterAll is the wildcard value accepted by every filter dimension.
const FilterAll = "all"

// FilterUnassigned matches tickets without an assignee.
const FilterUnassigned = "unassigned"

// Filter narrows the visible set. Zero values and "all" are wildcards.
type Filter struct {
	Search   string
	Status   string
	Priority string
	Assignee string
}

// Sort enumerates the supported orderings.
type Sort string

const (
	SortCreated  Sort = "created"
	SortUpdated  Sort = "updated"
	SortPriority Sort = "priority"
	SortDueDate  Sort = "due_date"
)

// Counts aggregates over the visibility-scoped set, not the filtered one.
type Counts struct {
	Total        int `json:"total"`
	AssignedToMe int `json:"assigned_to_me"`
	CreatedByMe  int `json:"created_by_me"`
	Unassigned   int `json:"unassigned"`
	Overdue      int `json:"overdue"`
}

// Visible returns the subset the session is authorized to see. Admins and
// supervisors see everything; any other role sees only tickets it created or
// is assigned to. The gateway scopes its responses the same way; the store
// never assumes it did.
func Visible(tickets []domain.Ticket, session auth.Session) []domain.Ticket {
	if session.Role.Elevated() {
		out := make([]domain.Ticket, len(tickets))
		copy(out, tickets)
		return out
	}
	out := make([]domain.Ticket, 0, len(tickets))
	for _, t := range tickets {
		if t.CreatedBy == session.UserID || (t.AssignedTo != nil && *t.AssignedTo == session.UserID) {
			out = append(out, t)
		}
	}
	return out
}

// Build returns the visible tickets passing the filter, in the requested
// order. The input slice is never mutated.
func Build(tickets []domain.Ticket, session auth.Session, filter Filter, sortBy Sort) []domain.Ticket {
	visible := Visible(tickets, session)
	filtered := visible[:0:0]
	for _, t := range visible {
		if matches(&t, filter) {
			filtered = append(filtered, t)
		}
	}
	sortTickets(filtered, sortBy)
	return filtered
}

// Count computes aggregate counts over the visibility-scoped set. Unassigned
// is only reported for elevated roles.
func Count(tickets []domain.Ticket, session auth.Session, now time.Time) Counts {
	visible := Visible(tickets, session)
	counts := Counts{Total: len(visible)}
	for _, t := range visible {
		if t.AssignedTo != nil && *t.AssignedTo == session.UserID {
			counts.AssignedToMe++
		}
		if t.CreatedBy == session.UserID {
			counts.CreatedByMe++
		}
		if session.Role.Elevated() && !t.Assigned() {
			counts.Unassigned++
		}
		if t.Overdue(now) {
			counts.Overdue++
		}
	}
	return counts
}

func matches(t *domain.Ticket, filter Filter) bool {
	if term := strings.TrimSpace(filter.Search); term != "" {
		term = strings.ToLower(term)
		if !strings.Contains(strings.ToLower(t.Title), term) &&
			!strings.Contains(strings.ToLower(t.Description), term) &&
			!strings.Contains(strings.ToLower(t.Location), term) {
			return false
		}
	}
	if filter.Status != "" && filter.Status != FilterAll && filter.Status != string(t.Status) {
		return false
	}
	if filter.Priority != "" && filter.Priority != FilterAll && filter.Priority != string(t.Priority) {
		return false
	}
	switch filter.Assignee {
	case "", FilterAll:
	case FilterUnassigned:
		if t.Assigned() {
			return false
		}
	default:
		if t.AssignedTo == nil || *t.AssignedTo != filter.Assignee {
			return false
		}
	}
	return true
}

func sortTickets(tickets []domain.Ticket, sortBy Sort) {
	switch sortBy {
	case SortPriority:
		sort.SliceStable(tickets, func(i, j int) bool {
			return domain.PriorityRank(tickets[i].Priority) > domain.PriorityRank(tickets[j].Priority)
		})
	case SortUpdated:
		sort.SliceStable(tickets, func(i, j int) bool {
			return tickets[i].UpdatedAt.After(tickets[j].UpdatedAt)
		})
	case SortDueDate:
		// Tickets without a due date sort after all tickets with one;
		// among dated tickets, soonest first.
		sort.SliceStable(tickets, func(i, j int) bool {
			di, dj := tickets[i].DueDate, tickets[j].DueDate
			switch {
			case di == nil:
				return false
			case dj == nil:
				return true
			default:
				return di.Before(*dj)
			}
		})
	default:
		sort.SliceStable(tickets, func(i, j int) bool {
			return tickets[i].CreatedAt.After(tickets[j].CreatedAt)
		})
	}
}
