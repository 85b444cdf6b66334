package ticket

import (
	"time"
)

// Ticket statuses. Closed is terminal; everything else can still move.
const (
	StatusOpen       = "open"
	StatusInProgress = "in_progress"
	StatusResolved   = "resolved"
	StatusClosed     = "closed"
)

// Priorities.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// Categories cover the support surface of the clinic network.
const (
	CategoryHardware = "hardware"
	CategorySoftware = "software"
	CategoryNetwork  = "network"
	CategoryAccess   = "access"
	CategoryOther    = "other"
)

// allowedTransitions encodes the status graph. A ticket can be resolved or
// closed straight from open; closed accepts nothing.
var allowedTransitions = map[string][]string{
	StatusOpen:       {StatusInProgress, StatusResolved, StatusClosed},
	StatusInProgress: {StatusResolved, StatusClosed},
	StatusResolved:   {StatusInProgress, StatusClosed},
	StatusClosed:     {},
}

// CanTransition reports whether moving from one status to another is allowed.
func CanTransition(from, to string) bool {
	for _, allowed := range allowedTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Ticket is one IT support request. Reporter identity is captured at creation
// time so the record stays readable after user changes.
type Ticket struct {
	ID          int64  `json:"id" gorm:"primaryKey"`
	DisplayID   string `json:"display_id" gorm:"column:display_id;uniqueIndex;not null"`
	Subject     string `json:"subject" gorm:"not null"`
	Description string `json:"description" gorm:"type:text"`
	Category    string `json:"category" gorm:"not null;default:other"`
	Priority    string `json:"priority" gorm:"not null;default:medium;index"`
	Status      string `json:"status" gorm:"not null;default:open;index"`

	ReporterID    int64  `json:"reporter_id" gorm:"column:reporter_id;not null;index"`
	ReporterName  string `json:"reporter_name" gorm:"column:reporter_name"`
	ReporterEmail string `json:"reporter_email" gorm:"column:reporter_email"`

	AssigneeID   *int64 `json:"assignee_id,omitempty" gorm:"column:assignee_id;index"`
	AssigneeName string `json:"assignee_name,omitempty" gorm:"column:assignee_name"`

	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty" gorm:"column:resolved_at"`
	ClosedAt   *time.Time `json:"closed_at,omitempty" gorm:"column:closed_at"`

	Comments []Comment `json:"comments,omitempty" gorm:"foreignKey:TicketID"`
}

func (Ticket) TableName() string {
	return "tickets"
}

// Comment is one discussion entry on a ticket.
type Comment struct {
	ID         int64     `json:"id" gorm:"primaryKey"`
	TicketID   int64     `json:"ticket_id" gorm:"column:ticket_id;not null;index"`
	AuthorID   int64     `json:"author_id" gorm:"column:author_id;not null"`
	AuthorName string    `json:"author_name" gorm:"column:author_name"`
	Body       string    `json:"body" gorm:"type:text;not null"`
	CreatedAt  time.Time `json:"created_at"`
}

func (Comment) TableName() string {
	return "ticket_comments"
}

// Actor identifies who performs an operation; handlers build it from the
// authenticated user.
type Actor struct {
	ID    int64
	Name  string
	Email string
}
