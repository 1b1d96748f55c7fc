package view

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/ticket-sync/internal/auth"
	"github.com/spec-kit/ticket-sync/internal/domain"
)

var baseTime = time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

func ticket(id, createdBy string, assignedTo *string, mutate ...func(*domain.Ticket)) domain.Ticket {
	t := domain.Ticket{
		ID:         id,
		Title:      "Ticket " + id,
		Priority:   domain.TicketPriorityMedium,
		Status:     domain.TicketStatusOpen,
		CreatedBy:  createdBy,
		AssignedTo: assignedTo,
		CreatedAt:  baseTime,
		UpdatedAt:  baseTime,
	}
	for _, fn := range mutate {
		fn(&t)
	}
	return t
}

func strPtr(s string) *string { return &s }

func timePtr(t time.Time) *time.Time { return &t }

func engineerSession(userID string) auth.Session {
	return auth.Session{UserID: userID, Role: domain.RoleFieldEngineer}
}

func adminSession() auth.Session {
	return auth.Session{UserID: "admin-1", Role: domain.RoleAdmin}
}

func TestVisibilityForFieldEngineer(t *testing.T) {
	tickets := []domain.Ticket{
		ticket("t1", "eng-1", nil),
		ticket("t2", "other", strPtr("eng-1")),
		ticket("t3", "other", strPtr("someone-else")),
		ticket("t4", "other", nil),
	}

	visible := Visible(tickets, engineerSession("eng-1"))
	require.Len(t, visible, 2)
	assert.Equal(t, "t1", visible[0].ID)
	assert.Equal(t, "t2", visible[1].ID)

	// Tickets neither created by nor assigned to the engineer never appear.
	for _, v := range visible {
		owns := v.CreatedBy == "eng-1" || (v.AssignedTo != nil && *v.AssignedTo == "eng-1")
		assert.True(t, owns)
	}
}

func TestVisibilityForElevatedRoles(t *testing.T) {
	tickets := []domain.Ticket{
		ticket("t1", "eng-1", nil),
		ticket("t2", "other", strPtr("someone-else")),
	}
	assert.Len(t, Visible(tickets, adminSession()), 2)
	assert.Len(t, Visible(tickets, auth.Session{UserID: "sup-1", Role: domain.RoleSupervisor}), 2)
}

func TestSortByPriority(t *testing.T) {
	tickets := []domain.Ticket{
		ticket("critical", "u", nil, func(t *domain.Ticket) { t.Priority = domain.TicketPriorityCritical }),
		ticket("low", "u", nil, func(t *domain.Ticket) { t.Priority = domain.TicketPriorityLow }),
		ticket("high", "u", nil, func(t *domain.Ticket) { t.Priority = domain.TicketPriorityHigh }),
		ticket("medium", "u", nil, func(t *domain.Ticket) { t.Priority = domain.TicketPriorityMedium }),
		ticket("unset", "u", nil, func(t *domain.Ticket) { t.Priority = "" }),
	}

	sorted := Build(tickets, adminSession(), Filter{}, SortPriority)
	ids := make([]string, len(sorted))
	for i, s := range sorted {
		ids[i] = s.ID
	}
	assert.Equal(t, []string{"critical", "high", "medium", "low", "unset"}, ids)
}

func TestSortByDueDate(t *testing.T) {
	tickets := []domain.Ticket{
		ticket("march", "u", nil, func(t *domain.Ticket) {
			t.DueDate = timePtr(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
		}),
		ticket("none", "u", nil),
		ticket("january", "u", nil, func(t *domain.Ticket) {
			t.DueDate = timePtr(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
		}),
	}

	sorted := Build(tickets, adminSession(), Filter{}, SortDueDate)
	require.Len(t, sorted, 3)
	assert.Equal(t, "january", sorted[0].ID)
	assert.Equal(t, "march", sorted[1].ID)
	assert.Equal(t, "none", sorted[2].ID)
}

func TestSortByCreatedDefault(t *testing.T) {
	tickets := []domain.Ticket{
		ticket("older", "u", nil, func(t *domain.Ticket) { t.CreatedAt = baseTime.Add(-time.Hour) }),
		ticket("newest", "u", nil, func(t *domain.Ticket) { t.CreatedAt = baseTime.Add(time.Hour) }),
		ticket("middle", "u", nil),
	}
	sorted := Build(tickets, adminSession(), Filter{}, SortCreated)
	assert.Equal(t, "newest", sorted[0].ID)
	assert.Equal(t, "middle", sorted[1].ID)
	assert.Equal(t, "older", sorted[2].ID)
}

func TestSortByUpdated(t *testing.T) {
	tickets := []domain.Ticket{
		ticket("stale", "u", nil),
		ticket("fresh", "u", nil, func(t *domain.Ticket) { t.UpdatedAt = baseTime.Add(time.Hour) }),
	}
	sorted := Build(tickets, adminSession(), Filter{}, SortUpdated)
	assert.Equal(t, "fresh", sorted[0].ID)
}

func TestFilterSearch(t *testing.T) {
	tickets := []domain.Ticket{
		ticket("t1", "u", nil, func(t *domain.Ticket) { t.Title = "Pump failure" }),
		ticket("t2", "u", nil, func(t *domain.Ticket) { t.Description = "the PUMP is leaking" }),
		ticket("t3", "u", nil, func(t *domain.Ticket) { t.Location = "pump house 7" }),
		ticket("t4", "u", nil, func(t *domain.Ticket) { t.Title = "Valve check" }),
	}
	got := Build(tickets, adminSession(), Filter{Search: "pump"}, SortCreated)
	assert.Len(t, got, 3)
}

func TestFilterStatusPriorityAssignment(t *testing.T) {
	tickets := []domain.Ticket{
		ticket("t1", "u", strPtr("eng-1"), func(t *domain.Ticket) {
			t.Status = domain.TicketStatusAssigned
			t.Priority = domain.TicketPriorityHigh
		}),
		ticket("t2", "u", nil),
		ticket("t3", "u", strPtr("eng-2"), func(t *domain.Ticket) {
			t.Status = domain.TicketStatusAssigned
		}),
	}

	assert.Len(t, Build(tickets, adminSession(), Filter{Status: "assigned"}, SortCreated), 2)
	assert.Len(t, Build(tickets, adminSession(), Filter{Priority: "high"}, SortCreated), 1)
	assert.Len(t, Build(tickets, adminSession(), Filter{Assignee: FilterUnassigned}, SortCreated), 1)
	assert.Len(t, Build(tickets, adminSession(), Filter{Assignee: "eng-2"}, SortCreated), 1)
	assert.Len(t, Build(tickets, adminSession(), Filter{Status: FilterAll, Priority: FilterAll, Assignee: FilterAll}, SortCreated), 3)
}

func TestCounts(t *testing.T) {
	now := baseTime.Add(48 * time.Hour)
	past := baseTime
	tickets := []domain.Ticket{
		ticket("mine", "eng-1", nil),
		ticket("assigned-to-me", "other", strPtr("eng-1")),
		ticket("overdue-open", "other", nil, func(t *domain.Ticket) { t.DueDate = &past }),
		ticket("overdue-resolved", "other", nil, func(t *domain.Ticket) {
			t.DueDate = &past
			t.Status = domain.TicketStatusResolved
		}),
		ticket("overdue-in-progress", "other", strPtr("eng-2"), func(t *domain.Ticket) {
			t.DueDate = &past
			t.Status = domain.TicketStatusInProgress
		}),
	}

	counts := Count(tickets, adminSession(), now)
	assert.Equal(t, 5, counts.Total)
	assert.Equal(t, 0, counts.AssignedToMe)
	assert.Equal(t, 0, counts.CreatedByMe)
	assert.Equal(t, 3, counts.Unassigned)
	assert.Equal(t, 2, counts.Overdue)

	engCounts := Count(tickets, engineerSession("eng-1"), now)
	assert.Equal(t, 2, engCounts.Total)
	assert.Equal(t, 1, engCounts.AssignedToMe)
	assert.Equal(t, 1, engCounts.CreatedByMe)
	// Unassigned is only reported for elevated roles.
	assert.Equal(t, 0, engCounts.Unassigned)
}

func TestBuildIsDeterministic(t *testing.T) {
	tickets := []domain.Ticket{
		ticket("a", "u", nil, func(t *domain.Ticket) { t.Priority = domain.TicketPriorityHigh }),
		ticket("b", "u", nil, func(t *domain.Ticket) { t.Priority = domain.TicketPriorityHigh }),
		ticket("c", "u", nil, func(t *domain.Ticket) { t.Priority = domain.TicketPriorityLow }),
	}
	first := Build(tickets, adminSession(), Filter{}, SortPriority)
	second := Build(tickets, adminSession(), Filter{}, SortPriority)
	assert.Equal(t, first, second)
	// Equal-priority tickets keep their input order (stable sort).
	assert.Equal(t, "a", first[0].ID)
	assert.Equal(t, "b", first[1].ID)
}

func TestBuildDoesNotMutateInput(t *testing.T) {
	tickets := []domain.Ticket{
		ticket("a", "u", nil, func(t *domain.Ticket) { t.CreatedAt = baseTime.Add(time.Hour) }),
		ticket("b", "u", nil, func(t *domain.Ticket) { t.CreatedAt = baseTime.Add(2 * time.Hour) }),
	}
	_ = Build(tickets, adminSession(), Filter{}, SortCreated)
	assert.Equal(t, "a", tickets[0].ID)
	assert.Equal(t, "b", tickets[1].ID)
}
