package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-sync/internal/domain"
)

// changeChannel carries remote change notices between sessions.
const changeChannel = "ticket-sync:changes"

// ErrNotFound is returned when a referenced ticket id is absent.
var ErrNotFound = errors.New("ticket not found")

// PostgresGateway implements Gateway over a pgx pool, publishing change
// notices through Redis so other sessions reload.
type PostgresGateway struct {
	pool   *pgxpool.Pool
	redis  *redis.Client
	logger *zap.Logger
}

// NewPostgresGateway constructs the gateway.
func NewPostgresGateway(pool *pgxpool.Pool, redisClient *redis.Client, logger *zap.Logger) *PostgresGateway {
	return &PostgresGateway{pool: pool, redis: redisClient, logger: logger}
}

const ticketColumns = `
    id, title, description, location, priority, status,
    created_by, assigned_to, created_at, updated_at,
    assigned_at, resolved_at, verified_at, verified_by, due_date`

// FetchTickets returns every ticket the session may see, newest first.
// Elevated roles see the full collection.
func (g *PostgresGateway) FetchTickets(ctx context.Context, userID string, role domain.Role) ([]RawTicket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets`
	args := []any{}
	if !role.Elevated() {
		query += ` WHERE created_by = $1 OR assigned_to = $1`
		args = append(args, userID)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := g.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tickets := []RawTicket{}
	for rows.Next() {
		raw, err := scanRawTicket(rows)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, raw)
	}
	return tickets, rows.Err()
}

// CreateTicket persists a new ticket and returns the canonical record.
func (g *PostgresGateway) CreateTicket(ctx context.Context, userID string, fields TicketFields) (RawTicket, error) {
	if fields.Title == nil || strings.TrimSpace(*fields.Title) == "" {
		return RawTicket{}, errors.New("title required")
	}

	id := uuid.NewString()
	priority := string(domain.TicketPriorityMedium)
	if fields.Priority != nil && *fields.Priority != "" {
		priority = *fields.Priority
	}
	description := ""
	if fields.Description != nil {
		description = *fields.Description
	}
	location := ""
	if fields.Location != nil {
		location = *fields.Location
	}
	var dueDate *time.Time
	if fields.DueDate != nil {
		parsed, err := ParseTime(*fields.DueDate)
		if err != nil {
			return RawTicket{}, err
		}
		dueDate = &parsed
	}

	const query = `
        INSERT INTO tickets (id, title, description, location, priority, status, created_by, due_date)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id, created_at, updated_at`

	var createdAt, updatedAt time.Time
	var returnedID string
	err := g.pool.QueryRow(ctx, query,
		id,
		strings.TrimSpace(*fields.Title),
		description,
		location,
		priority,
		string(domain.TicketStatusOpen),
		userID,
		dueDate,
	).Scan(&returnedID, &createdAt, &updatedAt)
	if err != nil {
		return RawTicket{}, err
	}

	raw := RawTicket{
		ID:          returnedID,
		Title:       strings.TrimSpace(*fields.Title),
		Description: description,
		Location:    location,
		Priority:    priority,
		Status:      string(domain.TicketStatusOpen),
		CreatedBy:   userID,
		CreatedAt:   FormatTime(createdAt),
		UpdatedAt:   FormatTime(updatedAt),
	}
	if dueDate != nil {
		raw.DueDate = FormatTime(*dueDate)
	}
	g.publishChange(ctx, returnedID, "created")
	return raw, nil
}

// UpdateTicket applies the provided fields and returns the full updated
// record. Returns ErrNotFound when the id is absent.
func (g *PostgresGateway) UpdateTicket(ctx context.Context, id string, fields TicketFields) (RawTicket, error) {
	set := []string{"updated_at = NOW()"}
	args := []any{}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if fields.Title != nil {
		set = append(set, "title = "+arg(*fields.Title))
	}
	if fields.Description != nil {
		set = append(set, "description = "+arg(*fields.Description))
	}
	if fields.Location != nil {
		set = append(set, "location = "+arg(*fields.Location))
	}
	if fields.Priority != nil {
		set = append(set, "priority = "+arg(*fields.Priority))
	}
	if fields.Status != nil {
		set = append(set, "status = "+arg(*fields.Status))
	}
	if fields.ClearAssign {
		set = append(set, "assigned_to = NULL")
	} else if fields.AssignedTo != nil {
		set = append(set, "assigned_to = "+arg(*fields.AssignedTo))
	}
	if fields.ClearAssignedAt {
		set = append(set, "assigned_at = NULL")
	} else if fields.AssignedAt != nil {
		t, err := ParseTime(*fields.AssignedAt)
		if err != nil {
			return RawTicket{}, err
		}
		set = append(set, "assigned_at = "+arg(t))
	}
	if fields.ResolvedAt != nil {
		t, err := ParseTime(*fields.ResolvedAt)
		if err != nil {
			return RawTicket{}, err
		}
		set = append(set, "resolved_at = "+arg(t))
	}
	if fields.VerifiedAt != nil {
		t, err := ParseTime(*fields.VerifiedAt)
		if err != nil {
			return RawTicket{}, err
		}
		set = append(set, "verified_at = "+arg(t))
	}
	if fields.VerifiedBy != nil {
		set = append(set, "verified_by = "+arg(*fields.VerifiedBy))
	}
	if fields.ClearDue {
		set = append(set, "due_date = NULL")
	} else if fields.DueDate != nil {
		t, err := ParseTime(*fields.DueDate)
		if err != nil {
			return RawTicket{}, err
		}
		set = append(set, "due_date = "+arg(t))
	}

	query := `UPDATE tickets SET ` + strings.Join(set, ", ") +
		` WHERE id = ` + arg(id) + ` RETURNING ` + ticketColumns

	row := g.pool.QueryRow(ctx, query, args...)
	raw, err := scanRawTicket(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return RawTicket{}, ErrNotFound
		}
		return RawTicket{}, err
	}
	g.publishChange(ctx, id, "updated")
	return raw, nil
}

// DeleteTicket removes the ticket. Returns ErrNotFound when absent.
func (g *PostgresGateway) DeleteTicket(ctx context.Context, id string) error {
	cmd, err := g.pool.Exec(ctx, `DELETE FROM tickets WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	g.publishChange(ctx, id, "deleted")
	return nil
}

// GetActivities lists activity entries for a ticket, oldest first.
func (g *PostgresGateway) GetActivities(ctx context.Context, id string) ([]RawActivity, error) {
	const query = `
        SELECT id, ticket_id, actor_id, kind, message, created_at
        FROM ticket_activities WHERE ticket_id = $1 ORDER BY created_at`
	rows, err := g.pool.Query(ctx, query, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	activities := []RawActivity{}
	for rows.Next() {
		var raw RawActivity
		var createdAt time.Time
		if err := rows.Scan(&raw.ID, &raw.TicketID, &raw.ActorID, &raw.Kind, &raw.Message, &createdAt); err != nil {
			return nil, err
		}
		raw.CreatedAt = FormatTime(createdAt)
		activities = append(activities, raw)
	}
	return activities, rows.Err()
}

// GetMedia lists media references for a ticket, oldest first.
func (g *PostgresGateway) GetMedia(ctx context.Context, id string) ([]RawMedia, error) {
	const query = `
        SELECT id, ticket_id, uploaded_by, url, content_type, created_at
        FROM ticket_media WHERE ticket_id = $1 ORDER BY created_at`
	rows, err := g.pool.Query(ctx, query, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	media := []RawMedia{}
	for rows.Next() {
		var raw RawMedia
		var createdAt time.Time
		if err := rows.Scan(&raw.ID, &raw.TicketID, &raw.UploadedBy, &raw.URL, &raw.ContentType, &createdAt); err != nil {
			return nil, err
		}
		raw.CreatedAt = FormatTime(createdAt)
		media = append(media, raw)
	}
	return media, rows.Err()
}

// AddComment records a public comment as an activity entry.
func (g *PostgresGateway) AddComment(ctx context.Context, userID, id, text string) error {
	return g.insertActivity(ctx, userID, id, "comment", text)
}

// AddNote records an internal note as an activity entry.
func (g *PostgresGateway) AddNote(ctx context.Context, userID, id, text string) error {
	return g.insertActivity(ctx, userID, id, "note", text)
}

func (g *PostgresGateway) insertActivity(ctx context.Context, userID, ticketID, kind, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return errors.New("empty text")
	}
	const query = `
        INSERT INTO ticket_activities (id, ticket_id, actor_id, kind, message)
        VALUES ($1,$2,$3,$4,$5)`
	cmd, err := g.pool.Exec(ctx, query, uuid.NewString(), ticketID, userID, kind, text)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	g.publishChange(ctx, ticketID, kind)
	return nil
}

func (g *PostgresGateway) publishChange(ctx context.Context, ticketID, kind string) {
	if g.redis == nil {
		return
	}
	payload, err := json.Marshal(Change{TicketID: ticketID, Kind: kind})
	if err != nil {
		return
	}
	if err := g.redis.Publish(ctx, changeChannel, payload).Err(); err != nil {
		g.logger.Warn("publish change notice", zap.String("ticket_id", ticketID), zap.Error(err))
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRawTicket(row rowScanner) (RawTicket, error) {
	var raw RawTicket
	var createdAt, updatedAt time.Time
	var assignedAt, resolvedAt, verifiedAt, dueDate *time.Time
	err := row.Scan(
		&raw.ID,
		&raw.Title,
		&raw.Description,
		&raw.Location,
		&raw.Priority,
		&raw.Status,
		&raw.CreatedBy,
		&raw.AssignedTo,
		&createdAt,
		&updatedAt,
		&assignedAt,
		&resolvedAt,
		&verifiedAt,
		&raw.VerifiedBy,
		&dueDate,
	)
	if err != nil {
		return RawTicket{}, err
	}
	raw.CreatedAt = FormatTime(createdAt)
	raw.UpdatedAt = FormatTime(updatedAt)
	if assignedAt != nil {
		raw.AssignedAt = FormatTime(*assignedAt)
	}
	if resolvedAt != nil {
		raw.ResolvedAt = FormatTime(*resolvedAt)
	}
	if verifiedAt != nil {
		raw.VerifiedAt = FormatTime(*verifiedAt)
	}
	if dueDate != nil {
		raw.DueDate = FormatTime(*dueDate)
	}
	return raw, nil
}
