package ticket

import (
	errors "github.com/Akechi360/clinic-ops/internal"
	"github.com/Akechi360/clinic-ops/internal/core/common/validation"
)

// CreateTicketDTO is the payload for opening a new ticket.
type CreateTicketDTO struct {
	Subject     string `json:"subject"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Priority    string `json:"priority"`
}

func (dto CreateTicketDTO) Validate() *errors.AppError {
	v := validation.NewValidator()
	v.Field("subject", dto.Subject).Required().MaxLength(200)
	v.Field("description", dto.Description).MaxLength(5000)
	v.Field("category", dto.Category).OneOf(
		CategoryHardware, CategorySoftware, CategoryNetwork, CategoryAccess, CategoryOther)
	v.Field("priority", dto.Priority).OneOf(
		PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent)
	return v.Validate()
}

// Normalized fills the optional enum fields with their defaults.
func (dto CreateTicketDTO) Normalized() CreateTicketDTO {
	if dto.Category == "" {
		dto.Category = CategoryOther
	}
	if dto.Priority == "" {
		dto.Priority = PriorityMedium
	}
	return dto
}

// UpdateStatusDTO moves a ticket along the status graph.
type UpdateStatusDTO struct {
	Status string `json:"status"`
}

func (dto UpdateStatusDTO) Validate() *errors.AppError {
	v := validation.NewValidator()
	v.Field("status", dto.Status).Required().OneOf(
		StatusOpen, StatusInProgress, StatusResolved, StatusClosed)
	return v.Validate()
}

// AssignDTO assigns or reassigns a ticket.
type AssignDTO struct {
	AssigneeID int64 `json:"assignee_id"`
}

func (dto AssignDTO) Validate() *errors.AppError {
	v := validation.NewValidator()
	v.Field("assignee_id", dto.AssigneeID).Required()
	return v.Validate()
}

// CommentDTO adds a discussion entry.
type CommentDTO struct {
	Body string `json:"body"`
}

func (dto CommentDTO) Validate() *errors.AppError {
	v := validation.NewValidator()
	v.Field("body", dto.Body).Required().MaxLength(5000)
	return v.Validate()
}

// ListFilter narrows List reads.
type ListFilter struct {
	Status     string
	Priority   string
	AssigneeID *int64
	ReporterID *int64
	Limit      int
	Offset     int
}
