package inventory

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	internal "github.com/Akechi360/clinic-ops/internal"
)

// RepositoryAPI is the data access contract for inventory items. Create and
// serial changes surface ErrDuplicateSerial on a unique-index violation.
type RepositoryAPI interface {
	Create(ctx context.Context, item *Item) error
	GetByID(ctx context.Context, id int64) (*Item, error)
	GetBySerial(ctx context.Context, serial string) (*Item, error)
	List(ctx context.Context, filter ListFilter) ([]*Item, int64, error)
	Update(ctx context.Context, id int64, fields map[string]interface{}) error
	Delete(ctx context.Context, id int64) error
}

type DisplayIDAllocator interface {
	Next(ctx context.Context, entityName string) (string, error)
}

type AuditRecorder interface {
	Record(ctx context.Context, actorEmail, action, details string)
}

// AssigneeResolver looks up the display name for a user id.
type AssigneeResolver interface {
	ResolveName(ctx context.Context, userID int64) (string, error)
}

type Service struct {
	repo      RepositoryAPI
	allocator DisplayIDAllocator
	recorder  AuditRecorder
	resolver  AssigneeResolver
	logger    *slog.Logger
}

func NewService(repo RepositoryAPI, allocator DisplayIDAllocator, recorder AuditRecorder, resolver AssigneeResolver, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		allocator: allocator,
		recorder:  recorder,
		resolver:  resolver,
		logger:    logger,
	}
}

// Create registers a new item. A duplicate serial number is a conflict, not
// an internal error.
func (s *Service) Create(ctx context.Context, actor Actor, dto CreateItemDTO) (*Item, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	displayID, err := s.allocator.Next(ctx, "Item")
	if err != nil {
		s.logger.Error("display id allocation failed", "entity", "Item", "error", err)
		return nil, err
	}

	category := dto.Category
	if category == "" {
		category = CategoryOther
	}

	now := time.Now()
	item := &Item{
		DisplayID:      displayID,
		Name:           dto.Name,
		SerialNumber:   dto.SerialNumber,
		Category:       category,
		Status:         StatusOperational,
		Brand:          dto.Brand,
		Model:          dto.Model,
		Location:       dto.Location,
		PurchaseDate:   dto.PurchaseDate,
		WarrantyExpiry: dto.WarrantyExpiry,
		Notes:          dto.Notes,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.repo.Create(ctx, item); err != nil {
		if appErr, ok := internal.IsAppError(err); ok && appErr.Code == internal.ErrCodeDuplicateSerial {
			return nil, err
		}
		s.logger.Error("failed to create inventory item", "error", err, "serial", dto.SerialNumber)
		return nil, err
	}

	s.recorder.Record(ctx, actor.Email, "inventory.create",
		fmt.Sprintf("%s serial=%s", displayID, item.SerialNumber))

	s.logger.Info("inventory item created",
		"display_id", displayID,
		"serial", item.SerialNumber,
		"category", item.Category)

	return item, nil
}

// Update applies a partial update to the mutable fields.
func (s *Service) Update(ctx context.Context, actor Actor, id int64, dto UpdateItemDTO) (*Item, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	item, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	fields := map[string]interface{}{"updated_at": time.Now()}
	if dto.Name != nil {
		fields["name"] = *dto.Name
	}
	if dto.Category != nil {
		fields["category"] = *dto.Category
	}
	if dto.Status != nil {
		fields["status"] = *dto.Status
	}
	if dto.Brand != nil {
		fields["brand"] = *dto.Brand
	}
	if dto.Model != nil {
		fields["model"] = *dto.Model
	}
	if dto.Location != nil {
		fields["location"] = *dto.Location
	}
	if dto.Notes != nil {
		fields["notes"] = *dto.Notes
	}

	if err := s.repo.Update(ctx, id, fields); err != nil {
		return nil, err
	}

	s.recorder.Record(ctx, actor.Email, "inventory.update", item.DisplayID)
	return s.repo.GetByID(ctx, id)
}

// Assign links the item to a user, or clears the link when the id is zero.
func (s *Service) Assign(ctx context.Context, actor Actor, id int64, dto AssignDTO) (*Item, error) {
	item, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	fields := map[string]interface{}{"updated_at": time.Now()}
	if dto.AssignedToID == 0 {
		fields["assigned_to_id"] = nil
		fields["assigned_to_name"] = ""
	} else {
		name, err := s.resolver.ResolveName(ctx, dto.AssignedToID)
		if err != nil {
			return nil, err
		}
		fields["assigned_to_id"] = dto.AssignedToID
		fields["assigned_to_name"] = name
	}

	if err := s.repo.Update(ctx, id, fields); err != nil {
		return nil, err
	}

	s.recorder.Record(ctx, actor.Email, "inventory.assign",
		fmt.Sprintf("%s -> user %d", item.DisplayID, dto.AssignedToID))
	return s.repo.GetByID(ctx, id)
}

// Delete removes an item permanently. Retiring is usually the better call;
// deletion exists for records created by mistake.
func (s *Service) Delete(ctx context.Context, actor Actor, id int64) error {
	item, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.recorder.Record(ctx, actor.Email, "inventory.delete", item.DisplayID)
	s.logger.Info("inventory item deleted", "display_id", item.DisplayID, "actor_id", actor.ID)
	return nil
}

func (s *Service) GetByID(ctx context.Context, id int64) (*Item, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Item, int64, error) {
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 20
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return s.repo.List(ctx, filter)
}
