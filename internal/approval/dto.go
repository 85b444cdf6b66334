package approval

import (
	"fmt"
	"math"
	"time"

	errors "github.com/Akechi360/clinic-ops/internal"
	"github.com/Akechi360/clinic-ops/internal/core/common/validation"
)

// CreateRequestDTO is the payload for submitting a new approval request.
type CreateRequestDTO struct {
	Type        string `json:"type"`
	Subject     string `json:"subject"`
	Description string `json:"description"`

	// purchase
	ItemDescription string   `json:"item_description,omitempty"`
	EstimatedPrice  *float64 `json:"estimated_price,omitempty"`

	// provider_payment (supplier optional for purchase)
	Supplier         string   `json:"supplier,omitempty"`
	TotalAmountToPay *float64 `json:"total_amount_to_pay,omitempty"`
}

func (dto CreateRequestDTO) Validate() *errors.AppError {
	v := validation.NewValidator()
	v.Field("type", dto.Type).Required().OneOf(TypePurchase, TypeProviderPayment)
	v.Field("subject", dto.Subject).Required().MaxLength(200)
	v.Field("description", dto.Description).MaxLength(2000)

	switch dto.Type {
	case TypePurchase:
		v.Field("item_description", dto.ItemDescription).Required().MaxLength(500)
		v.Field("estimated_price", dto.EstimatedPrice).Positive(errors.ErrCodeInvalidAmount)
	case TypeProviderPayment:
		v.Field("supplier", dto.Supplier).Required().MaxLength(200)
		v.Field("total_amount_to_pay", dto.TotalAmountToPay).Required().Positive(errors.ErrCodeInvalidAmount)
	}

	return v.Validate()
}

type InstallmentDTO struct {
	Amount  float64   `json:"amount"`
	DueDate time.Time `json:"due_date"`
}

// ApproveDTO is the payload for the approve transition.
type ApproveDTO struct {
	PaymentType    string           `json:"approved_payment_type,omitempty"`
	ApprovedAmount float64          `json:"approved_amount"`
	Comment        string           `json:"comment,omitempty"`
	Installments   []InstallmentDTO `json:"installments,omitempty"`
}

// ValidateFor validates the approval payload against the request being
// decided. The installment-sum check runs here, server-side, regardless of
// any client pre-validation.
func (dto ApproveDTO) ValidateFor(requestType string) *errors.AppError {
	if requestType == TypeProviderPayment && dto.PaymentType == "" {
		return errors.NewValidationFieldError("approved_payment_type",
			"payment type is required when approving a provider payment",
			errors.ErrCodePaymentTypeRequired)
	}

	paymentType := dto.EffectivePaymentType()
	if paymentType != PaymentFull && paymentType != PaymentInstallments {
		return errors.NewValidationFieldError("approved_payment_type",
			fmt.Sprintf("unknown payment type %q", dto.PaymentType),
			errors.ErrCodeValidationFailed)
	}

	if dto.ApprovedAmount <= 0 {
		return errors.NewValidationFieldError("approved_amount",
			"approved amount must be greater than zero",
			errors.ErrCodeInvalidAmount)
	}

	switch paymentType {
	case PaymentFull:
		if len(dto.Installments) > 0 {
			return errors.NewValidationFieldError("installments",
				"a full payment approval cannot carry installments",
				errors.ErrCodeValidationFailed)
		}
	case PaymentInstallments:
		if len(dto.Installments) == 0 {
			return errors.NewValidationFieldError("installments",
				"at least one installment is required",
				errors.ErrCodeValidationFailed)
		}
		var sum float64
		for i, inst := range dto.Installments {
			if inst.Amount <= 0 {
				return errors.NewValidationFieldError("installments",
					fmt.Sprintf("installment %d amount must be greater than zero", i+1),
					errors.ErrCodeInvalidAmount)
			}
			if inst.DueDate.IsZero() {
				return errors.NewValidationFieldError("installments",
					fmt.Sprintf("installment %d due date is required", i+1),
					errors.ErrCodeValidationFailed)
			}
			sum += inst.Amount
		}
		if math.Abs(sum-dto.ApprovedAmount) > InstallmentTolerance {
			return errors.NewValidationFieldError("installments",
				fmt.Sprintf("installments sum to %.2f but approved amount is %.2f", sum, dto.ApprovedAmount),
				errors.ErrCodeInstallmentMismatch)
		}
	}

	return nil
}

// EffectivePaymentType defaults purchases without an explicit choice to a
// full payment.
func (dto ApproveDTO) EffectivePaymentType() string {
	if dto.PaymentType == "" {
		return PaymentFull
	}
	return dto.PaymentType
}

// CommentDTO is the payload for reject and request-info, where the comment
// is the one mandatory free-text field: a decision without a reason is not
// actionable for the requester.
type CommentDTO struct {
	Comment string `json:"comment"`
}

func (dto CommentDTO) Validate() *errors.AppError {
	v := validation.NewValidator()
	v.Field("comment", dto.Comment).Required().MaxLength(2000).
		Custom(func(value interface{}) *errors.AppError {
			if s, ok := value.(string); ok && s == "" {
				return errors.NewValidationFieldError("comment",
					"a comment is required for this decision",
					errors.ErrCodeCommentRequired)
			}
			return nil
		})
	return v.Validate()
}

// AttachmentDTO records uploaded-file metadata.
type AttachmentDTO struct {
	FileName string `json:"file_name"`
	FileSize int64  `json:"file_size"`
	MimeType string `json:"mime_type"`
}

func (dto AttachmentDTO) Validate() *errors.AppError {
	v := validation.NewValidator()
	v.Field("file_name", dto.FileName).Required().MaxLength(255)
	v.Field("mime_type", dto.MimeType).MaxLength(100)
	return v.Validate()
}

// ListFilter narrows List reads.
type ListFilter struct {
	Status string
	Type   string
	Limit  int
	Offset int
}
