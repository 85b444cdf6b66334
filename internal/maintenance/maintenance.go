package maintenance

import (
	"time"
)

// Case statuses form a forward-only progression; closed is terminal. A case
// can be resolved or closed from any earlier stage once the work stops.
const (
	StatusReported  = "reported"
	StatusDiagnosed = "diagnosed"
	StatusInRepair  = "in_repair"
	StatusResolved  = "resolved"
	StatusClosed    = "closed"
)

// statusRank orders the progression; transitions only move forward.
var statusRank = map[string]int{
	StatusReported:  0,
	StatusDiagnosed: 1,
	StatusInRepair:  2,
	StatusResolved:  3,
	StatusClosed:    4,
}

// CanTransition reports whether a case may move from one status to another.
func CanTransition(from, to string) bool {
	fromRank, ok := statusRank[from]
	if !ok {
		return false
	}
	toRank, ok := statusRank[to]
	if !ok {
		return false
	}
	return from != StatusClosed && toRank > fromRank
}

// Case tracks repair work on one piece of equipment.
type Case struct {
	ID          int64  `json:"id" gorm:"primaryKey"`
	DisplayID   string `json:"display_id" gorm:"column:display_id;uniqueIndex;not null"`
	ItemID      int64  `json:"item_id" gorm:"column:item_id;not null;index"`
	Title       string `json:"title" gorm:"not null"`
	Description string `json:"description" gorm:"type:text"`
	Status      string `json:"status" gorm:"not null;default:reported;index"`

	ReporterID   int64  `json:"reporter_id" gorm:"column:reporter_id;not null"`
	ReporterName string `json:"reporter_name" gorm:"column:reporter_name"`

	TechnicianID   *int64 `json:"technician_id,omitempty" gorm:"column:technician_id"`
	TechnicianName string `json:"technician_name,omitempty" gorm:"column:technician_name"`

	Cost *float64 `json:"cost,omitempty"`

	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty" gorm:"column:resolved_at"`
	ClosedAt   *time.Time `json:"closed_at,omitempty" gorm:"column:closed_at"`

	Activity []ActivityEntry `json:"activity,omitempty" gorm:"foreignKey:CaseID"`
}

func (Case) TableName() string {
	return "maintenance_cases"
}

// ActivityEntry is one immutable trail row, written on creation and on every
// status change.
type ActivityEntry struct {
	ID        int64     `json:"id" gorm:"primaryKey"`
	CaseID    int64     `json:"case_id" gorm:"column:case_id;not null;index"`
	Status    string    `json:"status" gorm:"not null"`
	Note      string    `json:"note,omitempty" gorm:"type:text"`
	ActorID   int64     `json:"actor_id" gorm:"column:actor_id"`
	ActorName string    `json:"actor_name" gorm:"column:actor_name"`
	CreatedAt time.Time `json:"created_at"`
}

func (ActivityEntry) TableName() string {
	return "maintenance_activity_entries"
}

// Actor identifies who performs an operation.
type Actor struct {
	ID    int64
	Name  string
	Email string
}
