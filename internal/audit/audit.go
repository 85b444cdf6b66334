package audit

import (
	"context"
	"log/slog"
	"time"
)

// Entry is one append-only "who did what" row. Entries are never updated or
// deleted.
type Entry struct {
	ID         int64     `json:"id" gorm:"primaryKey"`
	ActorEmail string    `json:"actor_email" gorm:"column:actor_email;not null"`
	Action     string    `json:"action" gorm:"not null"`
	Details    string    `json:"details,omitempty" gorm:"type:text"`
	CreatedAt  time.Time `json:"created_at" gorm:"column:created_at"`
}

func (Entry) TableName() string {
	return "audit_logs"
}

type RepositoryAPI interface {
	Append(ctx context.Context, entry *Entry) error
	List(ctx context.Context, limit, offset int) ([]*Entry, error)
}

// Recorder writes audit entries as a best-effort side channel: a failed
// write is logged and swallowed so it can never abort the business
// operation it describes.
type Recorder struct {
	repo   RepositoryAPI
	logger *slog.Logger
}

func NewRecorder(repo RepositoryAPI, logger *slog.Logger) *Recorder {
	return &Recorder{repo: repo, logger: logger}
}

func (r *Recorder) Record(ctx context.Context, actorEmail, action, details string) {
	entry := &Entry{
		ActorEmail: actorEmail,
		Action:     action,
		Details:    details,
		CreatedAt:  time.Now(),
	}

	if err := r.repo.Append(ctx, entry); err != nil {
		r.logger.Error("audit write failed",
			"actor", actorEmail,
			"action", action,
			"error", err)
	}
}
