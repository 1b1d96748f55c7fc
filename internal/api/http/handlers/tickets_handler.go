package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-sync/internal/api/dto"
	"github.com/spec-kit/ticket-sync/internal/auth"
	"github.com/spec-kit/ticket-sync/internal/store"
	"github.com/spec-kit/ticket-sync/internal/view"
	apperrors "github.com/spec-kit/ticket-sync/pkg/util/errorutil"
)

// TicketsHandler exposes the session store and view builder over HTTP.
type TicketsHandler struct {
	stores *store.Manager
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(stores *store.Manager) *TicketsHandler {
	return &TicketsHandler{stores: stores}
}

func (h *TicketsHandler) sessionStore(c *fiber.Ctx) (*store.Store, auth.Session, error) {
	session, ok := auth.SessionFromContext(c)
	if !ok || !session.Authenticated() {
		return nil, auth.Session{}, apperrors.NewNotAuthenticated("session required")
	}
	s, err := h.stores.ForSession(c.UserContext(), session)
	if err != nil {
		return nil, auth.Session{}, err
	}
	return s, session, nil
}

// ListTickets GET /tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	s, session, err := h.sessionStore(c)
	if err != nil {
		return err
	}
	filter := view.Filter{
		Search:   c.Query("search"),
		Status:   c.Query("status", view.FilterAll),
		Priority: c.Query("priority", view.FilterAll),
		Assignee: c.Query("assignee", view.FilterAll),
	}
	sortBy := view.Sort(c.Query("sort", string(view.SortCreated)))

	tickets := view.Build(s.Snapshot(), session, filter, sortBy)
	return c.JSON(fiber.Map{"data": dto.FromTickets(tickets)})
}

// GetCounts GET /tickets/counts.
func (h *TicketsHandler) GetCounts(c *fiber.Ctx) error {
	s, session, err := h.sessionStore(c)
	if err != nil {
		return err
	}
	counts := view.Count(s.Snapshot(), session, time.Now())
	return c.JSON(fiber.Map{"data": counts})
}

// Refresh POST /tickets/refresh.
func (h *TicketsHandler) Refresh(c *fiber.Ctx) error {
	s, session, err := h.sessionStore(c)
	if err != nil {
		return err
	}
	// A failed reload keeps the previous collection; the client still gets
	// a usable snapshot.
	_ = s.Load(c.UserContext())
	tickets := view.Visible(s.Snapshot(), session)
	return c.JSON(fiber.Map{"data": dto.FromTickets(tickets)})
}

// CreateTicket POST /tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	s, _, err := h.sessionStore(c)
	if err != nil {
		return err
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Title == "" {
		return apperrors.NewValidationError("title required", nil)
	}

	ticket, err := s.Create(c.UserContext(), store.CreateInput{
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		Priority:    req.Priority,
		DueDate:     req.DueDate,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.FromTicket(ticket)})
}

// UpdateTicket PATCH /tickets/:id.
func (h *TicketsHandler) UpdateTicket(c *fiber.Ctx) error {
	s, _, err := h.sessionStore(c)
	if err != nil {
		return err
	}
	var req dto.UpdateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	ticket, err := s.Update(c.UserContext(), c.Params("id"), store.TicketPatch{
		Title:           req.Title,
		Description:     req.Description,
		Location:        req.Location,
		Priority:        req.Priority,
		Status:          req.Status,
		AssignedTo:      req.AssignedTo,
		ClearAssignedTo: req.ClearAssignedTo,
		DueDate:         req.DueDate,
		ClearDueDate:    req.ClearDueDate,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromTicket(ticket)})
}

// AssignTicket POST /tickets/:id/assign.
func (h *TicketsHandler) AssignTicket(c *fiber.Ctx) error {
	s, _, err := h.sessionStore(c)
	if err != nil {
		return err
	}
	var req dto.AssignTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	ticket, err := s.Assign(c.UserContext(), c.Params("id"), req.AssigneeID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromTicket(ticket)})
}

// DeleteTicket DELETE /tickets/:id.
func (h *TicketsHandler) DeleteTicket(c *fiber.Ctx) error {
	s, _, err := h.sessionStore(c)
	if err != nil {
		return err
	}
	if err := s.Delete(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// AddComment POST /tickets/:id/comments.
func (h *TicketsHandler) AddComment(c *fiber.Ctx) error {
	return h.addEntry(c, (*store.Store).AddComment)
}

// AddNote POST /tickets/:id/notes.
func (h *TicketsHandler) AddNote(c *fiber.Ctx) error {
	return h.addEntry(c, (*store.Store).AddNote)
}

func (h *TicketsHandler) addEntry(c *fiber.Ctx, call func(*store.Store, context.Context, string, string) error) error {
	s, _, err := h.sessionStore(c)
	if err != nil {
		return err
	}
	var req dto.EntryRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Text == "" {
		return apperrors.NewValidationError("text required", nil)
	}
	if err := call(s, c.UserContext(), c.Params("id"), req.Text); err != nil {
		return err
	}
	return c.SendStatus(http.StatusCreated)
}

// GetActivities GET /tickets/:id/activities.
func (h *TicketsHandler) GetActivities(c *fiber.Ctx) error {
	s, _, err := h.sessionStore(c)
	if err != nil {
		return err
	}
	activities := s.Activities(c.UserContext(), c.Params("id"))
	items := make([]dto.ActivityResponse, 0, len(activities))
	for _, a := range activities {
		items = append(items, dto.FromActivity(a))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetMedia GET /tickets/:id/media.
func (h *TicketsHandler) GetMedia(c *fiber.Ctx) error {
	s, _, err := h.sessionStore(c)
	if err != nil {
		return err
	}
	media := s.Media(c.UserContext(), c.Params("id"))
	items := make([]dto.MediaResponse, 0, len(media))
	for _, m := range media {
		items = append(items, dto.FromMedia(m))
	}
	return c.JSON(fiber.Map{"data": items})
}
