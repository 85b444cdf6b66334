package postgres

import (
	"context"
	"errors"
	"strings"

	internal "github.com/Akechi360/clinic-ops/internal"
	"github.com/Akechi360/clinic-ops/internal/inventory"
	"gorm.io/gorm"
)

type InventoryRepository struct {
	db *gorm.DB
}

func NewInventoryRepository(db *gorm.DB) inventory.RepositoryAPI {
	return &InventoryRepository{db: db}
}

// isDuplicateSerial detects a unique-index violation on serial_number across
// the drivers in use.
func isDuplicateSerial(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "UNIQUE constraint failed")
}

func (r *InventoryRepository) Create(ctx context.Context, item *inventory.Item) error {
	if err := r.db.WithContext(ctx).Create(item).Error; err != nil {
		if isDuplicateSerial(err) {
			return internal.ErrDuplicateSerial
		}
		return err
	}
	return nil
}

func (r *InventoryRepository) GetByID(ctx context.Context, id int64) (*inventory.Item, error) {
	var item inventory.Item
	err := r.db.WithContext(ctx).First(&item, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrItemNotFound
		}
		return nil, err
	}
	return &item, nil
}

func (r *InventoryRepository) GetBySerial(ctx context.Context, serial string) (*inventory.Item, error) {
	var item inventory.Item
	err := r.db.WithContext(ctx).First(&item, "serial_number = ?", serial).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrItemNotFound
		}
		return nil, err
	}
	return &item, nil
}

func (r *InventoryRepository) List(ctx context.Context, filter inventory.ListFilter) ([]*inventory.Item, int64, error) {
	query := r.db.WithContext(ctx).Model(&inventory.Item{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.AssignedToID != nil {
		query = query.Where("assigned_to_id = ?", *filter.AssignedToID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []*inventory.Item
	err := query.
		Order("created_at DESC").
		Limit(filter.Limit).
		Offset(filter.Offset).
		Find(&items).Error
	return items, total, err
}

func (r *InventoryRepository) Update(ctx context.Context, id int64, fields map[string]interface{}) error {
	res := r.db.WithContext(ctx).Model(&inventory.Item{}).
		Where("id = ?", id).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return internal.ErrItemNotFound
	}
	return nil
}

func (r *InventoryRepository) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&inventory.Item{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return internal.ErrItemNotFound
	}
	return nil
}
