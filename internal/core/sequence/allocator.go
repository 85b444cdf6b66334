package sequence

import (
	"context"
	"fmt"

	"github.com/Akechi360/clinic-ops/internal"
	"gorm.io/gorm"
)

// Entity names with a registered display-ID counter. Allocation for anything
// else is a programming error and is rejected.
const (
	EntityTicket   = "Ticket"
	EntityApproval = "Approval"
	EntityItem     = "Item"
	EntityCase     = "Case"
	EntityUser     = "User"
)

var knownEntities = map[string]struct{}{
	EntityTicket:   {},
	EntityApproval: {},
	EntityItem:     {},
	EntityCase:     {},
	EntityUser:     {},
}

// Counter is the single-row-per-entity backing table.
type Counter struct {
	EntityName   string `gorm:"primaryKey;column:entity_name"`
	CurrentValue int64  `gorm:"column:current_value;not null"`
}

func (Counter) TableName() string {
	return "display_id_counters"
}

// Allocator produces human-readable sequential identifiers such as
// "Ticket-000123", decoupled from primary keys.
type Allocator struct {
	db *gorm.DB
}

func NewAllocator(db *gorm.DB) *Allocator {
	return &Allocator{db: db}
}

// Next increments the counter for entityName and returns the formatted
// display ID. The increment is a single atomic upsert statement, so
// concurrent calls never observe the same value. A store failure propagates
// to the caller; there is deliberately no fallback identifier.
func (a *Allocator) Next(ctx context.Context, entityName string) (string, error) {
	if _, ok := knownEntities[entityName]; !ok {
		return "", internal.NewValidationError(
			fmt.Sprintf("unknown entity name %q", entityName), internal.ErrCodeUnknownEntity)
	}

	var value int64
	err := a.db.WithContext(ctx).Raw(`
		INSERT INTO display_id_counters (entity_name, current_value)
		VALUES (?, 1)
		ON CONFLICT (entity_name)
		DO UPDATE SET current_value = display_id_counters.current_value + 1
		RETURNING current_value`, entityName).Scan(&value).Error
	if err != nil {
		return "", fmt.Errorf("allocate display id for %s: %w", entityName, err)
	}

	return Format(entityName, value), nil
}

func Format(entityName string, value int64) string {
	return fmt.Sprintf("%s-%06d", entityName, value)
}
