package maintenance

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	internal "github.com/Akechi360/clinic-ops/internal"
	"github.com/Akechi360/clinic-ops/internal/core/events"
)

// RepositoryAPI is the data access contract for maintenance cases.
// AdvanceStatus guards on the observed status and appends the activity entry
// in the same transaction.
type RepositoryAPI interface {
	Create(ctx context.Context, c *Case, entry *ActivityEntry) error
	GetByID(ctx context.Context, id int64) (*Case, error)
	List(ctx context.Context, filter ListFilter) ([]*Case, int64, error)
	AdvanceStatus(ctx context.Context, id int64, from string, fields map[string]interface{}, entry *ActivityEntry) error
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

// ItemChecker verifies the referenced inventory item exists before a case is
// opened against it.
type ItemChecker interface {
	EnsureExists(ctx context.Context, itemID int64) error
}

// TechnicianResolver looks up the display name for a technician id.
type TechnicianResolver interface {
	ResolveName(ctx context.Context, userID int64) (string, error)
}

type Service struct {
	repo      RepositoryAPI
	allocator DisplayIDAllocator
	recorder  AuditRecorder
	bus       EventPublisher
	items     ItemChecker
	resolver  TechnicianResolver
	logger    *slog.Logger
}

func NewService(repo RepositoryAPI, allocator DisplayIDAllocator, recorder AuditRecorder, bus EventPublisher, items ItemChecker, resolver TechnicianResolver, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		allocator: allocator,
		recorder:  recorder,
		bus:       bus,
		items:     items,
		resolver:  resolver,
		logger:    logger,
	}
}

// Create opens a case in the reported status after checking the item exists.
func (s *Service) Create(ctx context.Context, actor Actor, dto CreateCaseDTO) (*Case, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	if err := s.items.EnsureExists(ctx, dto.ItemID); err != nil {
		return nil, err
	}

	displayID, err := s.allocator.Next(ctx, "Case")
	if err != nil {
		s.logger.Error("display id allocation failed", "entity", "Case", "error", err)
		return nil, err
	}

	now := time.Now()
	c := &Case{
		DisplayID:    displayID,
		ItemID:       dto.ItemID,
		Title:        dto.Title,
		Description:  dto.Description,
		Status:       StatusReported,
		ReporterID:   actor.ID,
		ReporterName: actor.Name,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	entry := &ActivityEntry{
		Status:    StatusReported,
		ActorID:   actor.ID,
		ActorName: actor.Name,
		CreatedAt: now,
	}

	if err := s.repo.Create(ctx, c, entry); err != nil {
		s.logger.Error("failed to create maintenance case", "error", err, "item_id", dto.ItemID)
		return nil, err
	}

	s.recorder.Record(ctx, actor.Email, "maintenance.create", displayID)
	s.bus.Publish(ctx, events.NewMaintenanceUpdated(displayID, c.Title, StatusReported))

	s.logger.Info("maintenance case created",
		"display_id", displayID,
		"item_id", dto.ItemID,
		"reporter_id", actor.ID)

	return c, nil
}

// UpdateStatus advances the case along the progression and records the work
// note on the activity trail.
func (s *Service) UpdateStatus(ctx context.Context, actor Actor, id int64, dto UpdateStatusDTO) (*Case, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !CanTransition(c.Status, dto.Status) {
		return nil, internal.NewConflictError(
			fmt.Sprintf("cannot move case from %s to %s", c.Status, dto.Status),
			internal.ErrCodeInvalidStatusChange)
	}

	now := time.Now()
	fields := map[string]interface{}{
		"status":     dto.Status,
		"updated_at": now,
	}
	switch dto.Status {
	case StatusResolved:
		fields["resolved_at"] = now
	case StatusClosed:
		fields["closed_at"] = now
	}
	if dto.Cost != nil {
		fields["cost"] = *dto.Cost
	}
	if dto.TechnicianID != nil {
		name, err := s.resolver.ResolveName(ctx, *dto.TechnicianID)
		if err != nil {
			return nil, err
		}
		fields["technician_id"] = *dto.TechnicianID
		fields["technician_name"] = name
	}

	entry := &ActivityEntry{
		CaseID:    id,
		Status:    dto.Status,
		Note:      dto.Note,
		ActorID:   actor.ID,
		ActorName: actor.Name,
		CreatedAt: now,
	}

	if err := s.repo.AdvanceStatus(ctx, id, c.Status, fields, entry); err != nil {
		return nil, err
	}

	s.recorder.Record(ctx, actor.Email, "maintenance.status",
		fmt.Sprintf("%s %s->%s", c.DisplayID, c.Status, dto.Status))
	s.bus.Publish(ctx, events.NewMaintenanceUpdated(c.DisplayID, c.Title, dto.Status))

	s.logger.Info("maintenance case status changed",
		"display_id", c.DisplayID,
		"from", c.Status,
		"to", dto.Status,
		"actor_id", actor.ID)

	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetByID(ctx context.Context, id int64) (*Case, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Case, int64, error) {
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 20
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return s.repo.List(ctx, filter)
}
