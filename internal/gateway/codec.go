package gateway

import (
	"fmt"
	"time"

	"github.com/spec-kit/ticket-sync/internal/domain"
)

// Timestamps cross the gateway boundary as ISO-8601 strings and live as
// instants everywhere else in the module.

// FormatTime encodes an instant to the wire format.
func FormatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// ParseTime decodes a wire timestamp. Empty input yields the zero time.
func ParseTime(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", raw, err)
	}
	return t, nil
}

func parseOptionalTime(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := ParseTime(raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// TicketFromRaw converts a wire ticket to the domain representation.
func TicketFromRaw(raw RawTicket) (domain.Ticket, error) {
	createdAt, err := ParseTime(raw.CreatedAt)
	if err != nil {
		return domain.Ticket{}, err
	}
	updatedAt, err := ParseTime(raw.UpdatedAt)
	if err != nil {
		return domain.Ticket{}, err
	}
	assignedAt, err := parseOptionalTime(raw.AssignedAt)
	if err != nil {
		return domain.Ticket{}, err
	}
	resolvedAt, err := parseOptionalTime(raw.ResolvedAt)
	if err != nil {
		return domain.Ticket{}, err
	}
	verifiedAt, err := parseOptionalTime(raw.VerifiedAt)
	if err != nil {
		return domain.Ticket{}, err
	}
	dueDate, err := parseOptionalTime(raw.DueDate)
	if err != nil {
		return domain.Ticket{}, err
	}

	ticket := domain.Ticket{
		ID:          raw.ID,
		Title:       raw.Title,
		Description: raw.Description,
		Location:    raw.Location,
		Priority:    domain.TicketPriority(raw.Priority),
		Status:      domain.TicketStatus(raw.Status),
		CreatedBy:   raw.CreatedBy,
		AssignedTo:  raw.AssignedTo,
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
		AssignedAt:  assignedAt,
		ResolvedAt:  resolvedAt,
		VerifiedAt:  verifiedAt,
		VerifiedBy:  raw.VerifiedBy,
		DueDate:     dueDate,
	}
	if raw.AssignedToProfile != nil {
		profile, err := profileFromRaw(*raw.AssignedToProfile)
		if err != nil {
			return domain.Ticket{}, err
		}
		ticket.AssignedToProfile = &profile
	}
	if raw.CreatedByProfile != nil {
		profile, err := profileFromRaw(*raw.CreatedByProfile)
		if err != nil {
			return domain.Ticket{}, err
		}
		ticket.CreatedByProfile = &profile
	}
	return ticket, nil
}

// TicketsFromRaw converts a wire ticket sequence, failing on the first
// malformed record.
func TicketsFromRaw(raws []RawTicket) ([]domain.Ticket, error) {
	tickets := make([]domain.Ticket, 0, len(raws))
	for _, raw := range raws {
		ticket, err := TicketFromRaw(raw)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, ticket)
	}
	return tickets, nil
}

func profileFromRaw(raw RawProfile) (domain.UserProfile, error) {
	createdAt, err := ParseTime(raw.CreatedAt)
	if err != nil {
		return domain.UserProfile{}, err
	}
	return domain.UserProfile{
		ID:         raw.ID,
		FullName:   raw.FullName,
		Email:      raw.Email,
		Role:       domain.Role(raw.Role),
		Department: raw.Department,
		IsActive:   raw.IsActive,
		CreatedAt:  createdAt,
	}, nil
}

// ActivityFromRaw converts a wire activity entry.
func ActivityFromRaw(raw RawActivity) (domain.Activity, error) {
	createdAt, err := ParseTime(raw.CreatedAt)
	if err != nil {
		return domain.Activity{}, err
	}
	return domain.Activity{
		ID:        raw.ID,
		TicketID:  raw.TicketID,
		ActorID:   raw.ActorID,
		Kind:      raw.Kind,
		Message:   raw.Message,
		CreatedAt: createdAt,
	}, nil
}

// MediaFromRaw converts a wire media reference.
func MediaFromRaw(raw RawMedia) (domain.Media, error) {
	createdAt, err := ParseTime(raw.CreatedAt)
	if err != nil {
		return domain.Media{}, err
	}
	return domain.Media{
		ID:          raw.ID,
		TicketID:    raw.TicketID,
		UploadedBy:  raw.UploadedBy,
		URL:         raw.URL,
		ContentType: raw.ContentType,
		CreatedAt:   createdAt,
	}, nil
}

// StringPtr returns a pointer to s. Convenience for building TicketFields.
func StringPtr(s string) *string {
	return &s
}

// TimePtr formats t and returns a pointer to the encoded value.
func TimePtr(t time.Time) *string {
	encoded := FormatTime(t)
	return &encoded
}
