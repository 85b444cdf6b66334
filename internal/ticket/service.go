package ticket

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	internal "github.com/Akechi360/clinic-ops/internal"
	"github.com/Akechi360/clinic-ops/internal/core/events"
)

// RepositoryAPI is the data access contract for tickets. UpdateStatus guards
// on the expected current status so concurrent transitions cannot both win.
type RepositoryAPI interface {
	Create(ctx context.Context, t *Ticket) error
	GetByID(ctx context.Context, id int64) (*Ticket, error)
	List(ctx context.Context, filter ListFilter) ([]*Ticket, int64, error)
	UpdateStatus(ctx context.Context, id int64, from, to string, stamps map[string]interface{}) error
	Assign(ctx context.Context, id int64, assigneeID int64, assigneeName string) error
	AddComment(ctx context.Context, comment *Comment) error
}

type DisplayIDAllocator interface {
	Next(ctx context.Context, entityName string) (string, error)
}

type AuditRecorder interface {
	Record(ctx context.Context, actorEmail, action, details string)
}

type EventPublisher interface {
	Publish(ctx context.Context, event events.Event)
}

// AssigneeResolver looks up the display name for an assignee id. The user
// service satisfies it.
type AssigneeResolver interface {
	ResolveName(ctx context.Context, userID int64) (string, error)
}

type Service struct {
	repo      RepositoryAPI
	allocator DisplayIDAllocator
	recorder  AuditRecorder
	bus       EventPublisher
	resolver  AssigneeResolver
	logger    *slog.Logger
}

func NewService(repo RepositoryAPI, allocator DisplayIDAllocator, recorder AuditRecorder, bus EventPublisher, resolver AssigneeResolver, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		allocator: allocator,
		recorder:  recorder,
		bus:       bus,
		resolver:  resolver,
		logger:    logger,
	}
}

// Create opens a new ticket in the open status.
func (s *Service) Create(ctx context.Context, actor Actor, dto CreateTicketDTO) (*Ticket, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	dto = dto.Normalized()

	displayID, err := s.allocator.Next(ctx, "Ticket")
	if err != nil {
		s.logger.Error("display id allocation failed", "entity", "Ticket", "error", err)
		return nil, err
	}

	now := time.Now()
	t := &Ticket{
		DisplayID:     displayID,
		Subject:       dto.Subject,
		Description:   dto.Description,
		Category:      dto.Category,
		Priority:      dto.Priority,
		Status:        StatusOpen,
		ReporterID:    actor.ID,
		ReporterName:  actor.Name,
		ReporterEmail: actor.Email,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.repo.Create(ctx, t); err != nil {
		s.logger.Error("failed to create ticket", "error", err, "reporter_id", actor.ID)
		return nil, err
	}

	s.recorder.Record(ctx, actor.Email, "ticket.create", displayID)
	s.bus.Publish(ctx, events.NewTicketCreated(displayID, t.Subject, actor.Name))

	s.logger.Info("ticket created",
		"display_id", displayID,
		"priority", t.Priority,
		"reporter_id", actor.ID)

	return t, nil
}

// UpdateStatus moves the ticket along the status graph. The repository write
// is guarded on the status the caller observed, so a stale transition loses.
func (s *Service) UpdateStatus(ctx context.Context, actor Actor, id int64, dto UpdateStatusDTO) (*Ticket, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !CanTransition(t.Status, dto.Status) {
		return nil, internal.NewConflictError(
			fmt.Sprintf("cannot move ticket from %s to %s", t.Status, dto.Status),
			internal.ErrCodeInvalidStatusChange)
	}

	now := time.Now()
	stamps := map[string]interface{}{"updated_at": now}
	switch dto.Status {
	case StatusResolved:
		stamps["resolved_at"] = now
	case StatusClosed:
		stamps["closed_at"] = now
	}

	if err := s.repo.UpdateStatus(ctx, id, t.Status, dto.Status, stamps); err != nil {
		return nil, err
	}

	s.recorder.Record(ctx, actor.Email, "ticket.status",
		fmt.Sprintf("%s %s->%s", t.DisplayID, t.Status, dto.Status))

	s.logger.Info("ticket status changed",
		"display_id", t.DisplayID,
		"from", t.Status,
		"to", dto.Status,
		"actor_id", actor.ID)

	return s.repo.GetByID(ctx, id)
}

// Assign sets the ticket assignee, resolving the display name once so lists
// render without a join.
func (s *Service) Assign(ctx context.Context, actor Actor, id int64, dto AssignDTO) (*Ticket, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.Status == StatusClosed {
		return nil, internal.NewConflictError(
			"cannot assign a closed ticket",
			internal.ErrCodeInvalidStatusChange)
	}

	name, err := s.resolver.ResolveName(ctx, dto.AssigneeID)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Assign(ctx, id, dto.AssigneeID, name); err != nil {
		return nil, err
	}

	s.recorder.Record(ctx, actor.Email, "ticket.assign",
		fmt.Sprintf("%s -> %s", t.DisplayID, name))

	return s.repo.GetByID(ctx, id)
}

// AddComment appends a discussion entry. Closed tickets stay commentable so
// follow-up context is never lost.
func (s *Service) AddComment(ctx context.Context, actor Actor, id int64, dto CommentDTO) (*Comment, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return nil, err
	}

	comment := &Comment{
		TicketID:   id,
		AuthorID:   actor.ID,
		AuthorName: actor.Name,
		Body:       dto.Body,
		CreatedAt:  time.Now(),
	}
	if err := s.repo.AddComment(ctx, comment); err != nil {
		s.logger.Error("failed to add ticket comment", "error", err, "ticket_id", id)
		return nil, err
	}

	s.recorder.Record(ctx, actor.Email, "ticket.comment", fmt.Sprintf("ticket %d", id))
	return comment, nil
}

func (s *Service) GetByID(ctx context.Context, id int64) (*Ticket, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Ticket, int64, error) {
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 20
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return s.repo.List(ctx, filter)
}
