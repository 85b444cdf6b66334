package postgres

import (
	"context"
	"errors"
	"time"

	internal "github.com/Akechi360/clinic-ops/internal"
	"github.com/Akechi360/clinic-ops/internal/approval"
	"gorm.io/gorm"
)

type ApprovalRepository struct {
	db *gorm.DB
}

func NewApprovalRepository(db *gorm.DB) approval.RepositoryAPI {
	return &ApprovalRepository{db: db}
}

// Create inserts the request and its first activity entry in one transaction.
func (r *ApprovalRepository) Create(ctx context.Context, req *approval.Request, entry *approval.ActivityEntry) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(req).Error; err != nil {
			return err
		}
		entry.RequestID = req.ID
		return tx.Create(entry).Error
	})
}

func (r *ApprovalRepository) GetByID(ctx context.Context, id int64) (*approval.Request, error) {
	var req approval.Request
	err := r.db.WithContext(ctx).
		Preload("Installments", func(db *gorm.DB) *gorm.DB { return db.Order("due_date ASC") }).
		Preload("Activity", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("Attachments").
		First(&req, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrApprovalNotFound
		}
		return nil, err
	}
	return &req, nil
}

func (r *ApprovalRepository) List(ctx context.Context, filter approval.ListFilter) ([]*approval.Request, int64, error) {
	query := r.db.WithContext(ctx).Model(&approval.Request{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var requests []*approval.Request
	err := query.
		Order("created_at DESC").
		Limit(filter.Limit).
		Offset(filter.Offset).
		Find(&requests).Error
	return requests, total, err
}

// Decide performs one state transition atomically. The status guard is part
// of the UPDATE itself, so of two concurrent decisions exactly one matches a
// decidable row; the loser observes zero affected rows and gets
// ErrNotDecidable without writing anything.
func (r *ApprovalRepository) Decide(ctx context.Context, id int64, decision approval.Decision) (*approval.Request, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()

		updates := map[string]interface{}{
			"status":           decision.Status,
			"approver_id":      decision.ApproverID,
			"approver_name":    decision.ApproverName,
			"approver_comment": decision.Comment,
			"updated_at":       now,
		}
		switch decision.Status {
		case approval.StatusApproved:
			updates["approved_payment_type"] = decision.ApprovedPaymentType
			updates["approved_amount"] = decision.ApprovedAmount
			updates["approved_at"] = now
		case approval.StatusRejected:
			updates["rejected_at"] = now
		case approval.StatusInfoRequested:
			updates["info_requested_at"] = now
		}

		res := tx.Model(&approval.Request{}).
			Where("id = ? AND status IN ?", id, []string{approval.StatusPending, approval.StatusInfoRequested}).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&approval.Request{}).Where("id = ?", id).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return internal.ErrApprovalNotFound
			}
			return internal.ErrNotDecidable
		}

		if decision.Status == approval.StatusApproved {
			// replace any batch left over from an earlier info-requested cycle
			if err := tx.Where("request_id = ?", id).Delete(&approval.Installment{}).Error; err != nil {
				return err
			}
			for i := range decision.Installments {
				decision.Installments[i].RequestID = id
				decision.Installments[i].CreatedAt = now
			}
			if len(decision.Installments) > 0 {
				if err := tx.Create(&decision.Installments).Error; err != nil {
					return err
				}
			}
		}

		entry := &approval.ActivityEntry{
			RequestID: id,
			Action:    decision.ActivityAction,
			ActorID:   decision.ApproverID,
			ActorName: decision.ApproverName,
			Comment:   decision.Comment,
			CreatedAt: now,
		}
		return tx.Create(entry).Error
	})
	if err != nil {
		return nil, err
	}

	return r.GetByID(ctx, id)
}

func (r *ApprovalRepository) AddAttachment(ctx context.Context, attachment *approval.Attachment) error {
	return r.db.WithContext(ctx).Create(attachment).Error
}
