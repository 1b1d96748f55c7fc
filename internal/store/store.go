package store

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-sync/internal/auth"
	"github.com/spec-kit/ticket-sync/internal/domain"
	"github.com/spec-kit/ticket-sync/internal/gateway"
	"github.com/spec-kit/ticket-sync/internal/notify"
	"github.com/spec-kit/ticket-sync/internal/observability"
	apperrors "github.com/spec-kit/ticket-sync/pkg/util/errorutil"
)

// Store is the single source of truth for the session's ticket collection.
// It mediates every mutation through the remote data gateway: no mutation is
// visible to readers until the gateway confirms it, and a failed gateway call
// leaves the collection exactly as it was. The collection is replaced as a
// whole at reconciliation points, never edited while a reader could observe
// a torn state.
type Store struct {
	gw         gateway.Gateway
	dispatcher notify.Dispatcher
	notices    Notices
	logger     *zap.Logger
	metrics    *observability.Metrics
	session    auth.Session

	now func() time.Time

	mu        sync.RWMutex
	tickets   []domain.Ticket
	loadErr   error
	listeners []func()

	loadSeq atomic.Uint64
	sub     gateway.Subscription
}

// Dependencies bundles collaborators for the store.
type Dependencies struct {
	Gateway    gateway.Gateway
	Dispatcher notify.Dispatcher
	Notices    Notices
	Logger     *zap.Logger
	Metrics    *observability.Metrics
}

// New constructs a store bound to one session.
func New(session auth.Session, deps Dependencies) *Store {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	notices := deps.Notices
	if notices == nil {
		notices = NewLogNotices(logger)
	}
	return &Store{
		gw:         deps.Gateway,
		dispatcher: deps.Dispatcher,
		notices:    notices,
		logger:     logger,
		metrics:    deps.Metrics,
		session:    session,
		now:        time.Now,
	}
}

// Session returns the session context the store was built for.
func (s *Store) Session() auth.Session {
	return s.session
}

// CreateInput describes ticket creation payload.
type CreateInput struct {
	Title       string
	Description string
	Location    string
	Priority    domain.TicketPriority
	DueDate     *time.Time
}

// TicketPatch carries a partial update. Nil pointers leave the field
// unchanged; Clear flags request removal of the optional value.
type TicketPatch struct {
	Title           *string
	Description     *string
	Location        *string
	Priority        *domain.TicketPriority
	Status          *domain.TicketStatus
	AssignedTo      *string
	ClearAssignedTo bool
	AssignedAt      *time.Time
	ClearAssignedAt bool
	ResolvedAt      *time.Time
	VerifiedAt      *time.Time
	VerifiedBy      *string
	DueDate         *time.Time
	ClearDueDate    bool
}

// Load fetches the full visible set and replaces the local collection
// wholesale. On gateway failure the prior collection is kept, the error state
// is recorded, and a failure notice is raised. Overlapping loads coalesce to
// the most recently started one.
func (s *Store) Load(ctx context.Context) error {
	seq := s.loadSeq.Add(1)

	raws, err := s.gw.FetchTickets(ctx, s.session.UserID, s.session.Role)
	if err != nil {
		return s.loadFailed(err)
	}
	tickets, err := gateway.TicketsFromRaw(raws)
	if err != nil {
		return s.loadFailed(err)
	}

	s.mu.Lock()
	if s.loadSeq.Load() != seq {
		// A newer load started while this one was in flight; let it win.
		s.mu.Unlock()
		return nil
	}
	s.tickets = tickets
	s.loadErr = nil
	s.mu.Unlock()

	s.metrics.RecordStoreOp("load", false)
	s.notifyListeners()
	return nil
}

func (s *Store) loadFailed(err error) error {
	s.mu.Lock()
	s.loadErr = err
	s.mu.Unlock()
	s.metrics.RecordStoreOp("load", true)
	s.notices.Failure("load", "could not refresh tickets")
	s.logger.Warn("ticket load failed", zap.Error(err))
	return apperrors.NewGatewayFailure("load tickets", err)
}

// Snapshot returns a copy of the current collection in canonical
// presentation order (newest first).
func (s *Store) Snapshot() []domain.Ticket {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Ticket, len(s.tickets))
	copy(out, s.tickets)
	return out
}

// Err returns the recorded load error state, nil after a successful load.
func (s *Store) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadErr
}

// Create delegates creation to the gateway and, only on success, prepends
// the authoritative record to the collection. No optimistic ticket appears
// if the remote create did not succeed.
func (s *Store) Create(ctx context.Context, input CreateInput) (domain.Ticket, error) {
	if !s.session.Authenticated() {
		return domain.Ticket{}, apperrors.NewNotAuthenticated("sign in to create tickets")
	}

	fields := gateway.TicketFields{
		Title:       gateway.StringPtr(input.Title),
		Description: gateway.StringPtr(input.Description),
		Location:    gateway.StringPtr(input.Location),
	}
	if input.Priority != "" {
		fields.Priority = gateway.StringPtr(string(input.Priority))
	}
	if input.DueDate != nil {
		fields.DueDate = gateway.TimePtr(*input.DueDate)
	}

	raw, err := s.gw.CreateTicket(ctx, s.session.UserID, fields)
	if err != nil {
		s.metrics.RecordStoreOp("create", true)
		s.notices.Failure("create", "could not create the ticket")
		return domain.Ticket{}, apperrors.NewGatewayFailure("create ticket", err)
	}
	ticket, err := gateway.TicketFromRaw(raw)
	if err != nil {
		s.metrics.RecordStoreOp("create", true)
		s.notices.Failure("create", "could not create the ticket")
		return domain.Ticket{}, apperrors.NewGatewayFailure("create ticket", err)
	}

	s.mu.Lock()
	s.tickets = append([]domain.Ticket{ticket}, s.tickets...)
	s.mu.Unlock()

	s.metrics.RecordStoreOp("create", false)
	s.notices.Success("create", "ticket created")
	s.fireDispatch("created", func(ctx context.Context) error {
		return s.dispatcher.NotifyCreated(ctx, ticket)
	})
	s.notifyListeners()
	return ticket, nil
}

// Update applies a partial update through the gateway. The local record is
// replaced in place by id only after the gateway confirms; updates are never
// applied optimistically.
func (s *Store) Update(ctx context.Context, ticketID string, patch TicketPatch) (domain.Ticket, error) {
	if !s.session.Authenticated() {
		return domain.Ticket{}, apperrors.NewNotAuthenticated("sign in to update tickets")
	}

	current, ok := s.find(ticketID)
	if !ok {
		return domain.Ticket{}, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
	}
	s.normalizeAssignment(current, &patch)
	if patch.Status != nil && !domain.ValidTransition(current.Status, *patch.Status) {
		return domain.Ticket{}, apperrors.NewValidationError("invalid status transition", map[string]any{
			"from": current.Status,
			"to":   *patch.Status,
		})
	}

	s.stampTransition(&patch)

	raw, err := s.gw.UpdateTicket(ctx, ticketID, patchFields(patch))
	if err != nil {
		s.metrics.RecordStoreOp("update", true)
		if errors.Is(err, gateway.ErrNotFound) {
			s.notices.Failure("update", "ticket no longer exists")
			return domain.Ticket{}, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		s.notices.Failure("update", "could not update the ticket")
		return domain.Ticket{}, apperrors.NewGatewayFailure("update ticket", err)
	}
	updated, err := gateway.TicketFromRaw(raw)
	if err != nil {
		s.metrics.RecordStoreOp("update", true)
		s.notices.Failure("update", "could not update the ticket")
		return domain.Ticket{}, apperrors.NewGatewayFailure("update ticket", err)
	}

	s.replace(updated)
	s.metrics.RecordStoreOp("update", false)
	s.notices.Success("update", "ticket updated")

	if current.Status != domain.TicketStatusResolved && updated.Status == domain.TicketStatusResolved {
		s.fireDispatch("resolved", func(ctx context.Context) error {
			return s.dispatcher.NotifyResolved(ctx, updated, s.session.UserID)
		})
	}
	if patch.AssignedTo != nil && !patch.ClearAssignedTo && *patch.AssignedTo != updated.CreatedBy {
		assignee := *patch.AssignedTo
		s.fireDispatch("assigned", func(ctx context.Context) error {
			return s.dispatcher.NotifyAssigned(ctx, updated, assignee, s.session.UserID)
		})
	}
	s.notifyListeners()
	return updated, nil
}

// Assign is a convenience wrapper over Update. A non-empty assignee moves the
// ticket to assigned and stamps AssignedAt; nil clears the assignment and
// resets the ticket to open.
func (s *Store) Assign(ctx context.Context, ticketID string, assigneeID *string) (domain.Ticket, error) {
	patch := TicketPatch{}
	if assigneeID != nil && *assigneeID != "" {
		status := domain.TicketStatusAssigned
		now := s.now()
		patch.Status = &status
		patch.AssignedTo = assigneeID
		patch.AssignedAt = &now
	} else {
		status := domain.TicketStatusOpen
		patch.Status = &status
		patch.ClearAssignedTo = true
		patch.ClearAssignedAt = true
	}
	return s.Update(ctx, ticketID, patch)
}

// Delete removes the ticket remotely, then locally. A gateway error aborts
// the operation; the record is never dropped from the collection on failure.
func (s *Store) Delete(ctx context.Context, ticketID string) error {
	if !s.session.Authenticated() {
		return apperrors.NewNotAuthenticated("sign in to delete tickets")
	}
	if _, ok := s.find(ticketID); !ok {
		return apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
	}

	if err := s.gw.DeleteTicket(ctx, ticketID); err != nil {
		s.metrics.RecordStoreOp("delete", true)
		if errors.Is(err, gateway.ErrNotFound) {
			s.notices.Failure("delete", "ticket no longer exists")
			return apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		s.notices.Failure("delete", "could not delete the ticket")
		return apperrors.NewGatewayFailure("delete ticket", err)
	}

	s.mu.Lock()
	kept := make([]domain.Ticket, 0, len(s.tickets))
	for _, t := range s.tickets {
		if t.ID != ticketID {
			kept = append(kept, t)
		}
	}
	s.tickets = kept
	s.mu.Unlock()

	s.metrics.RecordStoreOp("delete", false)
	s.notices.Success("delete", "ticket deleted")
	s.notifyListeners()
	return nil
}

// AddComment records a comment through the gateway. The ticket collection is
// not touched; comments are not part of the aggregate here.
func (s *Store) AddComment(ctx context.Context, ticketID, text string) error {
	return s.addEntry(ctx, "comment", ticketID, text, s.gw.AddComment)
}

// AddNote records an internal note through the gateway.
func (s *Store) AddNote(ctx context.Context, ticketID, text string) error {
	return s.addEntry(ctx, "note", ticketID, text, s.gw.AddNote)
}

func (s *Store) addEntry(ctx context.Context, action, ticketID, text string, call func(context.Context, string, string, string) error) error {
	if !s.session.Authenticated() {
		return apperrors.NewNotAuthenticated("sign in to " + action)
	}
	if err := call(ctx, s.session.UserID, ticketID, text); err != nil {
		s.metrics.RecordStoreOp(action, true)
		s.notices.Failure(action, "could not add the "+action)
		return apperrors.NewGatewayFailure("add "+action, err)
	}
	s.metrics.RecordStoreOp(action, false)
	s.notices.Success(action, action+" added")
	return nil
}

// Activities reads the activity trail for a ticket. This is an auxiliary
// detail view: on failure it degrades to an empty sequence.
func (s *Store) Activities(ctx context.Context, ticketID string) []domain.Activity {
	raws, err := s.gw.GetActivities(ctx, ticketID)
	if err != nil {
		s.logger.Warn("activities fetch failed", zap.String("ticket_id", ticketID), zap.Error(err))
		return []domain.Activity{}
	}
	activities := make([]domain.Activity, 0, len(raws))
	for _, raw := range raws {
		activity, err := gateway.ActivityFromRaw(raw)
		if err != nil {
			s.logger.Warn("malformed activity", zap.String("ticket_id", ticketID), zap.Error(err))
			continue
		}
		activities = append(activities, activity)
	}
	return activities
}

// Media reads media references for a ticket, degrading to empty on failure.
func (s *Store) Media(ctx context.Context, ticketID string) []domain.Media {
	raws, err := s.gw.GetMedia(ctx, ticketID)
	if err != nil {
		s.logger.Warn("media fetch failed", zap.String("ticket_id", ticketID), zap.Error(err))
		return []domain.Media{}
	}
	media := make([]domain.Media, 0, len(raws))
	for _, raw := range raws {
		m, err := gateway.MediaFromRaw(raw)
		if err != nil {
			s.logger.Warn("malformed media", zap.String("ticket_id", ticketID), zap.Error(err))
			continue
		}
		media = append(media, m)
	}
	return media
}

// Start subscribes to the gateway change stream. Any remote change triggers
// a full reload; incremental patching is deliberately not attempted.
func (s *Store) Start(ctx context.Context) error {
	sub, err := s.gw.SubscribeToChanges(ctx, s.session.UserID, func(gateway.Change) {
		if err := s.Load(ctx); err != nil {
			s.logger.Warn("reload after remote change failed", zap.Error(err))
		}
	})
	if err != nil {
		return apperrors.NewGatewayFailure("subscribe to changes", err)
	}
	s.sub = sub
	return nil
}

// Close tears down the change subscription.
func (s *Store) Close() {
	if s.sub != nil {
		if err := s.sub.Unsubscribe(); err != nil {
			s.logger.Warn("unsubscribe failed", zap.Error(err))
		}
		s.sub = nil
	}
}

// OnChange registers a listener invoked after every visible collection
// change. Listeners must not mutate tickets.
func (s *Store) OnChange(listener func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, listener)
}

// normalizeAssignment keeps assignment and status consistent when a patch
// touches the assignee without naming a status: gaining an assignee moves an
// open ticket to assigned, and clearing the assignee resets the ticket to
// open and drops AssignedAt.
func (s *Store) normalizeAssignment(current domain.Ticket, patch *TicketPatch) {
	if patch.Status != nil {
		return
	}
	if patch.ClearAssignedTo {
		status := domain.TicketStatusOpen
		patch.Status = &status
		patch.ClearAssignedAt = true
		return
	}
	if patch.AssignedTo != nil && *patch.AssignedTo != "" && current.Status == domain.TicketStatusOpen {
		status := domain.TicketStatusAssigned
		patch.Status = &status
	}
}

// stampTransition fills in the side-effect timestamps a status transition
// requires when the caller did not supply them explicitly.
func (s *Store) stampTransition(patch *TicketPatch) {
	if patch.Status == nil {
		return
	}
	now := s.now()
	switch *patch.Status {
	case domain.TicketStatusAssigned:
		if patch.AssignedAt == nil && !patch.ClearAssignedAt {
			patch.AssignedAt = &now
		}
	case domain.TicketStatusResolved:
		if patch.ResolvedAt == nil {
			patch.ResolvedAt = &now
		}
	case domain.TicketStatusVerified:
		if patch.VerifiedAt == nil {
			patch.VerifiedAt = &now
		}
		if patch.VerifiedBy == nil {
			verifier := s.session.UserID
			patch.VerifiedBy = &verifier
		}
	}
}

func patchFields(patch TicketPatch) gateway.TicketFields {
	fields := gateway.TicketFields{
		Title:           patch.Title,
		Description:     patch.Description,
		Location:        patch.Location,
		AssignedTo:      patch.AssignedTo,
		ClearAssign:     patch.ClearAssignedTo,
		ClearAssignedAt: patch.ClearAssignedAt,
		VerifiedBy:      patch.VerifiedBy,
		ClearDue:        patch.ClearDueDate,
	}
	if patch.Priority != nil {
		fields.Priority = gateway.StringPtr(string(*patch.Priority))
	}
	if patch.Status != nil {
		fields.Status = gateway.StringPtr(string(*patch.Status))
	}
	if patch.AssignedAt != nil {
		fields.AssignedAt = gateway.TimePtr(*patch.AssignedAt)
	}
	if patch.ResolvedAt != nil {
		fields.ResolvedAt = gateway.TimePtr(*patch.ResolvedAt)
	}
	if patch.VerifiedAt != nil {
		fields.VerifiedAt = gateway.TimePtr(*patch.VerifiedAt)
	}
	if patch.DueDate != nil {
		fields.DueDate = gateway.TimePtr(*patch.DueDate)
	}
	return fields
}

func (s *Store) find(ticketID string) (domain.Ticket, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.tickets {
		if t.ID == ticketID {
			return t, true
		}
	}
	return domain.Ticket{}, false
}

func (s *Store) replace(updated domain.Ticket) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.tickets {
		if s.tickets[i].ID == updated.ID {
			s.tickets[i] = updated
			return
		}
	}
}

func (s *Store) notifyListeners() {
	s.mu.RLock()
	listeners := append([]func(){}, s.listeners...)
	s.mu.RUnlock()
	for _, listener := range listeners {
		listener()
	}
}

// fireDispatch runs a dispatcher call best-effort in the background. The
// mutation it is attached to has already committed; failures are recorded
// for diagnostics and swallowed.
func (s *Store) fireDispatch(event string, fn func(context.Context) error) {
	if s.dispatcher == nil {
		return
	}
	go func() {
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("notification dispatch panic",
					zap.String("event", event), zap.Any("panic", r))
			}
		}()
		if err := fn(context.Background()); err != nil {
			s.logger.Warn("notification dispatch failed",
				zap.String("event", event), zap.Error(err))
		}
	}()
}
