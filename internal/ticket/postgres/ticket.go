package postgres

import (
	"context"
	"errors"

	internal "github.com/Akechi360/clinic-ops/internal"
	"github.com/Akechi360/clinic-ops/internal/ticket"
	"gorm.io/gorm"
)

type TicketRepository struct {
	db *gorm.DB
}

func NewTicketRepository(db *gorm.DB) ticket.RepositoryAPI {
	return &TicketRepository{db: db}
}

func (r *TicketRepository) Create(ctx context.Context, t *ticket.Ticket) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *TicketRepository) GetByID(ctx context.Context, id int64) (*ticket.Ticket, error) {
	var t ticket.Ticket
	err := r.db.WithContext(ctx).
		Preload("Comments", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		First(&t, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrTicketNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (r *TicketRepository) List(ctx context.Context, filter ticket.ListFilter) ([]*ticket.Ticket, int64, error) {
	query := r.db.WithContext(ctx).Model(&ticket.Ticket{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Priority != "" {
		query = query.Where("priority = ?", filter.Priority)
	}
	if filter.AssigneeID != nil {
		query = query.Where("assignee_id = ?", *filter.AssigneeID)
	}
	if filter.ReporterID != nil {
		query = query.Where("reporter_id = ?", *filter.ReporterID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var tickets []*ticket.Ticket
	err := query.
		Order("created_at DESC").
		Limit(filter.Limit).
		Offset(filter.Offset).
		Find(&tickets).Error
	return tickets, total, err
}

// UpdateStatus guards the write on the status the caller observed; a
// concurrent transition that got there first leaves zero affected rows.
func (r *TicketRepository) UpdateStatus(ctx context.Context, id int64, from, to string, stamps map[string]interface{}) error {
	updates := map[string]interface{}{"status": to}
	for col, v := range stamps {
		updates[col] = v
	}

	res := r.db.WithContext(ctx).Model(&ticket.Ticket{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).Model(&ticket.Ticket{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return internal.ErrTicketNotFound
		}
		return internal.NewConflictError(
			"ticket status changed concurrently",
			internal.ErrCodeInvalidStatusChange)
	}
	return nil
}

func (r *TicketRepository) Assign(ctx context.Context, id int64, assigneeID int64, assigneeName string) error {
	res := r.db.WithContext(ctx).Model(&ticket.Ticket{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"assignee_id":   assigneeID,
			"assignee_name": assigneeName,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return internal.ErrTicketNotFound
	}
	return nil
}

func (r *TicketRepository) AddComment(ctx context.Context, comment *ticket.Comment) error {
	return r.db.WithContext(ctx).Create(comment).Error
}
