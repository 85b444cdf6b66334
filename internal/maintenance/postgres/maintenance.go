package postgres

import (
	"context"
	"errors"

	internal "github.com/Akechi360/clinic-ops/internal"
	"github.com/Akechi360/clinic-ops/internal/maintenance"
	"gorm.io/gorm"
)

type MaintenanceRepository struct {
	db *gorm.DB
}

func NewMaintenanceRepository(db *gorm.DB) maintenance.RepositoryAPI {
	return &MaintenanceRepository{db: db}
}

// Create inserts the case and its first activity entry in one transaction.
func (r *MaintenanceRepository) Create(ctx context.Context, c *maintenance.Case, entry *maintenance.ActivityEntry) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(c).Error; err != nil {
			return err
		}
		entry.CaseID = c.ID
		return tx.Create(entry).Error
	})
}

func (r *MaintenanceRepository) GetByID(ctx context.Context, id int64) (*maintenance.Case, error) {
	var c maintenance.Case
	err := r.db.WithContext(ctx).
		Preload("Activity", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		First(&c, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrCaseNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *MaintenanceRepository) List(ctx context.Context, filter maintenance.ListFilter) ([]*maintenance.Case, int64, error) {
	query := r.db.WithContext(ctx).Model(&maintenance.Case{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.ItemID != nil {
		query = query.Where("item_id = ?", *filter.ItemID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var cases []*maintenance.Case
	err := query.
		Order("created_at DESC").
		Limit(filter.Limit).
		Offset(filter.Offset).
		Find(&cases).Error
	return cases, total, err
}

// AdvanceStatus applies the guarded status update and appends the activity
// entry atomically; a concurrent transition that committed first leaves zero
// affected rows and nothing is written.
func (r *MaintenanceRepository) AdvanceStatus(ctx context.Context, id int64, from string, fields map[string]interface{}, entry *maintenance.ActivityEntry) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&maintenance.Case{}).
			Where("id = ? AND status = ?", id, from).
			Updates(fields)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&maintenance.Case{}).Where("id = ?", id).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return internal.ErrCaseNotFound
			}
			return internal.NewConflictError(
				"maintenance case status changed concurrently",
				internal.ErrCodeInvalidStatusChange)
		}
		return tx.Create(entry).Error
	})
}
