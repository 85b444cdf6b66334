package approval

import (
	"time"
)

// Request types.
const (
	TypePurchase        = "purchase"
	TypeProviderPayment = "provider_payment"
)

// Request statuses. Pending and info_requested are decidable; approved and
// rejected are terminal.
const (
	StatusPending       = "pending"
	StatusApproved      = "approved"
	StatusRejected      = "rejected"
	StatusInfoRequested = "info_requested"
)

// Payment types stamped on approval.
const (
	PaymentFull         = "full_payment"
	PaymentInstallments = "installments"
)

// Activity trail action labels.
const (
	ActionCreated       = "Request Created"
	ActionApproved      = "Approved"
	ActionRejected      = "Rejected"
	ActionInfoRequested = "Information Requested"
)

// InstallmentTolerance is the maximum absolute difference allowed between the
// approved amount and the sum of its installments.
const InstallmentTolerance = 0.01

// Request is a purchase or provider-payment request awaiting a decision.
// Requester identity is captured redundantly at creation time so the audit
// trail survives later user changes.
type Request struct {
	ID          int64  `json:"id" gorm:"primaryKey"`
	DisplayID   string `json:"display_id" gorm:"column:display_id;uniqueIndex;not null"`
	Type        string `json:"type" gorm:"not null"`
	Subject     string `json:"subject" gorm:"not null"`
	Description string `json:"description" gorm:"type:text"`
	Status      string `json:"status" gorm:"not null;default:pending;index"`

	RequesterID    int64  `json:"requester_id" gorm:"column:requester_id;not null"`
	RequesterName  string `json:"requester_name" gorm:"column:requester_name"`
	RequesterEmail string `json:"requester_email" gorm:"column:requester_email"`

	// purchase fields
	ItemDescription string   `json:"item_description,omitempty" gorm:"column:item_description"`
	EstimatedPrice  *float64 `json:"estimated_price,omitempty" gorm:"column:estimated_price"`

	// supplier is required for provider_payment, optional for purchase
	Supplier         string   `json:"supplier,omitempty"`
	TotalAmountToPay *float64 `json:"total_amount_to_pay,omitempty" gorm:"column:total_amount_to_pay"`

	ApproverID          *int64   `json:"approver_id,omitempty" gorm:"column:approver_id"`
	ApproverName        string   `json:"approver_name,omitempty" gorm:"column:approver_name"`
	ApproverComment     string   `json:"approver_comment,omitempty" gorm:"column:approver_comment"`
	ApprovedPaymentType string   `json:"approved_payment_type,omitempty" gorm:"column:approved_payment_type"`
	ApprovedAmount      *float64 `json:"approved_amount,omitempty" gorm:"column:approved_amount"`

	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	ApprovedAt      *time.Time `json:"approved_at,omitempty" gorm:"column:approved_at"`
	RejectedAt      *time.Time `json:"rejected_at,omitempty" gorm:"column:rejected_at"`
	InfoRequestedAt *time.Time `json:"info_requested_at,omitempty" gorm:"column:info_requested_at"`

	Installments []Installment   `json:"installments,omitempty" gorm:"foreignKey:RequestID"`
	Activity     []ActivityEntry `json:"activity,omitempty" gorm:"foreignKey:RequestID"`
	Attachments  []Attachment    `json:"attachments,omitempty" gorm:"foreignKey:RequestID"`
}

func (Request) TableName() string {
	return "approval_requests"
}

// Decidable reports whether a decision action may still be taken.
func (r *Request) Decidable() bool {
	return r.Status == StatusPending || r.Status == StatusInfoRequested
}

// Installment is one scheduled payment owned by an approved request. The
// whole batch is replaced atomically on every approval.
type Installment struct {
	ID        int64     `json:"id" gorm:"primaryKey"`
	RequestID int64     `json:"request_id" gorm:"column:request_id;not null;index"`
	Amount    float64   `json:"amount" gorm:"not null"`
	DueDate   time.Time `json:"due_date" gorm:"column:due_date;not null"`
	CreatedAt time.Time `json:"created_at"`
}

func (Installment) TableName() string {
	return "payment_installments"
}

// ActivityEntry is an immutable trail row, one per creation or transition.
type ActivityEntry struct {
	ID        int64     `json:"id" gorm:"primaryKey"`
	RequestID int64     `json:"request_id" gorm:"column:request_id;not null;index"`
	Action    string    `json:"action" gorm:"not null"`
	ActorID   int64     `json:"actor_id" gorm:"column:actor_id"`
	ActorName string    `json:"actor_name" gorm:"column:actor_name"`
	Comment   string    `json:"comment,omitempty" gorm:"type:text"`
	CreatedAt time.Time `json:"created_at"`
}

func (ActivityEntry) TableName() string {
	return "approval_activity_entries"
}

// Attachment records uploaded-file metadata; the bytes live in external
// storage addressed by StorageKey.
type Attachment struct {
	ID         int64     `json:"id" gorm:"primaryKey"`
	RequestID  int64     `json:"request_id" gorm:"column:request_id;not null;index"`
	FileName   string    `json:"file_name" gorm:"column:file_name;not null"`
	FileSize   int64     `json:"file_size" gorm:"column:file_size"`
	MimeType   string    `json:"mime_type" gorm:"column:mime_type"`
	StorageKey string    `json:"storage_key" gorm:"column:storage_key;not null"`
	CreatedAt  time.Time `json:"created_at"`
}

func (Attachment) TableName() string {
	return "attachments"
}

// Actor identifies who performs an operation; handlers build it from the
// authenticated user.
type Actor struct {
	ID    int64
	Name  string
	Email string
}

// Decision carries everything a state transition writes. Exactly one of the
// three decision statuses is set; installments only accompany an approval
// with the installments payment type.
type Decision struct {
	Status              string
	ApproverID          int64
	ApproverName        string
	Comment             string
	ApprovedPaymentType string
	ApprovedAmount      *float64
	Installments        []Installment
	ActivityAction      string
}
