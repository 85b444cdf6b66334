package user

import (
	"time"
)

// User is the full account record. The auth package reads a projection of
// this table for login and token validation.
type User struct {
	ID           int64  `json:"id" gorm:"primaryKey"`
	DisplayID    string `json:"display_id" gorm:"column:display_id;uniqueIndex;not null"`
	Email        string `json:"email" gorm:"uniqueIndex;not null"`
	Name         string `json:"name" gorm:"not null"`
	Role         string `json:"role" gorm:"not null;default:staff"`
	Department   string `json:"department,omitempty"`
	PasswordHash string `json:"-" gorm:"column:password_hash;not null"`
	IsActive     bool   `json:"is_active" gorm:"column:is_active;not null;default:true"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

// OwnedRecords counts the rows that reference a user and block deletion.
type OwnedRecords struct {
	Tickets   int64
	Comments  int64
	Approvals int64
}

// Total is the number of blocking references.
func (o OwnedRecords) Total() int64 {
	return o.Tickets + o.Comments + o.Approvals
}

// Actor identifies who performs an operation.
type Actor struct {
	ID    int64
	Name  string
	Email string
}
