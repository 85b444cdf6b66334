package inventory

import (
	"time"
)

// Item statuses. Retired items stay listed for the asset history.
const (
	StatusOperational = "operational"
	StatusInRepair    = "in_repair"
	StatusRetired     = "retired"
)

// Equipment categories.
const (
	CategoryComputer   = "computer"
	CategoryPrinter    = "printer"
	CategoryNetworking = "networking"
	CategoryMedical    = "medical"
	CategoryFurniture  = "furniture"
	CategoryOther      = "other"
)

// Item is one tracked piece of equipment. The serial number is unique across
// the whole inventory.
type Item struct {
	ID           int64  `json:"id" gorm:"primaryKey"`
	DisplayID    string `json:"display_id" gorm:"column:display_id;uniqueIndex;not null"`
	Name         string `json:"name" gorm:"not null"`
	SerialNumber string `json:"serial_number" gorm:"column:serial_number;uniqueIndex;not null"`
	Category     string `json:"category" gorm:"not null;default:other"`
	Status       string `json:"status" gorm:"not null;default:operational;index"`
	Brand        string `json:"brand,omitempty"`
	Model        string `json:"model,omitempty"`
	Location     string `json:"location,omitempty"`

	AssignedToID   *int64 `json:"assigned_to_id,omitempty" gorm:"column:assigned_to_id;index"`
	AssignedToName string `json:"assigned_to_name,omitempty" gorm:"column:assigned_to_name"`

	PurchaseDate   *time.Time `json:"purchase_date,omitempty" gorm:"column:purchase_date"`
	WarrantyExpiry *time.Time `json:"warranty_expiry,omitempty" gorm:"column:warranty_expiry"`
	Notes          string     `json:"notes,omitempty" gorm:"type:text"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Item) TableName() string {
	return "inventory_items"
}

// Actor identifies who performs an operation.
type Actor struct {
	ID    int64
	Name  string
	Email string
}
