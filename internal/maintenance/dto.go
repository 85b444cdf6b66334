package maintenance

import (
	errors "github.com/Akechi360/clinic-ops/internal"
	"github.com/Akechi360/clinic-ops/internal/core/common/validation"
)

// CreateCaseDTO opens a repair case against an inventory item.
type CreateCaseDTO struct {
	ItemID      int64  `json:"item_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

func (dto CreateCaseDTO) Validate() *errors.AppError {
	v := validation.NewValidator()
	v.Field("item_id", dto.ItemID).Required()
	v.Field("title", dto.Title).Required().MaxLength(200)
	v.Field("description", dto.Description).MaxLength(5000)
	return v.Validate()
}

// UpdateStatusDTO advances the case, optionally attaching a work note, cost
// and the technician doing the work.
type UpdateStatusDTO struct {
	Status       string   `json:"status"`
	Note         string   `json:"note,omitempty"`
	Cost         *float64 `json:"cost,omitempty"`
	TechnicianID *int64   `json:"technician_id,omitempty"`
}

func (dto UpdateStatusDTO) Validate() *errors.AppError {
	v := validation.NewValidator()
	v.Field("status", dto.Status).Required().OneOf(
		StatusReported, StatusDiagnosed, StatusInRepair, StatusResolved, StatusClosed)
	v.Field("note", dto.Note).MaxLength(5000)
	v.Field("cost", dto.Cost).Positive(errors.ErrCodeInvalidAmount)
	return v.Validate()
}

// ListFilter narrows List reads.
type ListFilter struct {
	Status string
	ItemID *int64
	Limit  int
	Offset int
}
