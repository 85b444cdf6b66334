package inventory

import (
	"time"

	errors "github.com/Akechi360/clinic-ops/internal"
	"github.com/Akechi360/clinic-ops/internal/core/common/validation"
)

// CreateItemDTO registers a new piece of equipment.
type CreateItemDTO struct {
	Name           string     `json:"name"`
	SerialNumber   string     `json:"serial_number"`
	Category       string     `json:"category"`
	Brand          string     `json:"brand,omitempty"`
	Model          string     `json:"model,omitempty"`
	Location       string     `json:"location,omitempty"`
	PurchaseDate   *time.Time `json:"purchase_date,omitempty"`
	WarrantyExpiry *time.Time `json:"warranty_expiry,omitempty"`
	Notes          string     `json:"notes,omitempty"`
}

func (dto CreateItemDTO) Validate() *errors.AppError {
	v := validation.NewValidator()
	v.Field("name", dto.Name).Required().MaxLength(200)
	v.Field("serial_number", dto.SerialNumber).Required().MaxLength(100)
	v.Field("category", dto.Category).OneOf(
		CategoryComputer, CategoryPrinter, CategoryNetworking,
		CategoryMedical, CategoryFurniture, CategoryOther)
	v.Field("location", dto.Location).MaxLength(200)
	v.Field("notes", dto.Notes).MaxLength(2000)
	return v.Validate()
}

// UpdateItemDTO carries a partial update; nil fields are left unchanged.
type UpdateItemDTO struct {
	Name     *string `json:"name,omitempty"`
	Category *string `json:"category,omitempty"`
	Status   *string `json:"status,omitempty"`
	Brand    *string `json:"brand,omitempty"`
	Model    *string `json:"model,omitempty"`
	Location *string `json:"location,omitempty"`
	Notes    *string `json:"notes,omitempty"`
}

func (dto UpdateItemDTO) Validate() *errors.AppError {
	v := validation.NewValidator()
	if dto.Name != nil {
		v.Field("name", *dto.Name).Required().MaxLength(200)
	}
	if dto.Category != nil {
		v.Field("category", *dto.Category).OneOf(
			CategoryComputer, CategoryPrinter, CategoryNetworking,
			CategoryMedical, CategoryFurniture, CategoryOther)
	}
	if dto.Status != nil {
		v.Field("status", *dto.Status).OneOf(StatusOperational, StatusInRepair, StatusRetired)
	}
	if dto.Location != nil {
		v.Field("location", *dto.Location).MaxLength(200)
	}
	if dto.Notes != nil {
		v.Field("notes", *dto.Notes).MaxLength(2000)
	}
	return v.Validate()
}

// AssignDTO assigns an item to a user; a zero id clears the assignment.
type AssignDTO struct {
	AssignedToID int64 `json:"assigned_to_id"`
}

// ListFilter narrows List reads.
type ListFilter struct {
	Status       string
	Category     string
	AssignedToID *int64
	Limit        int
	Offset       int
}
