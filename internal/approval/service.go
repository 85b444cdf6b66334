package approval

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Akechi360/clinic-ops/internal/core/events"
)

// RepositoryAPI is the data access contract for approval requests. Decide is
// the single entry point for state transitions and must apply the status
// guard, installment replacement and activity append atomically.
type RepositoryAPI interface {
	Create(ctx context.Context, req *Request, entry *ActivityEntry) error
	GetByID(ctx context.Context, id int64) (*Request, error)
	List(ctx context.Context, filter ListFilter) ([]*Request, int64, error)
	Decide(ctx context.Context, id int64, decision Decision) (*Request, error)
	AddAttachment(ctx context.Context, attachment *Attachment) error
}

type DisplayIDAllocator interface {
	Next(ctx context.Context, entityName string) (string, error)
}

type AuditRecorder interface {
	Record(ctx context.Context, actorEmail, action, details string)
}

type EventPublisher interface {
	Publish(ctx context.Context, event events.Event)
}

type Service struct {
	repo      RepositoryAPI
	allocator DisplayIDAllocator
	recorder  AuditRecorder
	bus       EventPublisher
	logger    *slog.Logger
}

func NewService(repo RepositoryAPI, allocator DisplayIDAllocator, recorder AuditRecorder, bus EventPublisher, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		allocator: allocator,
		recorder:  recorder,
		bus:       bus,
		logger:    logger,
	}
}

// Create submits a new request. It always starts pending with a single
// "Request Created" activity entry.
func (s *Service) Create(ctx context.Context, actor Actor, dto CreateRequestDTO) (*Request, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	displayID, err := s.allocator.Next(ctx, "Approval")
	if err != nil {
		s.logger.Error("display id allocation failed", "entity", "Approval", "error", err)
		return nil, err
	}

	now := time.Now()
	req := &Request{
		DisplayID:        displayID,
		Type:             dto.Type,
		Subject:          dto.Subject,
		Description:      dto.Description,
		Status:           StatusPending,
		RequesterID:      actor.ID,
		RequesterName:    actor.Name,
		RequesterEmail:   actor.Email,
		ItemDescription:  dto.ItemDescription,
		EstimatedPrice:   dto.EstimatedPrice,
		Supplier:         dto.Supplier,
		TotalAmountToPay: dto.TotalAmountToPay,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	entry := &ActivityEntry{
		Action:    ActionCreated,
		ActorID:   actor.ID,
		ActorName: actor.Name,
		CreatedAt: now,
	}

	if err := s.repo.Create(ctx, req, entry); err != nil {
		s.logger.Error("failed to create approval request", "error", err, "requester_id", actor.ID)
		return nil, err
	}

	s.recorder.Record(ctx, actor.Email, "approval.create", displayID)
	s.bus.Publish(ctx, events.NewApprovalCreated(displayID, req.Subject, actor.Name))

	s.logger.Info("approval request created",
		"display_id", displayID,
		"type", req.Type,
		"requester_id", actor.ID)

	return req, nil
}

// Approve transitions a decidable request to approved, stamping the decision
// fields and atomically replacing any previous installment batch.
func (s *Service) Approve(ctx context.Context, actor Actor, id int64, dto ApproveDTO) (*Request, error) {
	req, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := dto.ValidateFor(req.Type); err != nil {
		return nil, err
	}

	amount := dto.ApprovedAmount
	decision := Decision{
		Status:              StatusApproved,
		ApproverID:          actor.ID,
		ApproverName:        actor.Name,
		Comment:             dto.Comment,
		ApprovedPaymentType: dto.EffectivePaymentType(),
		ApprovedAmount:      &amount,
		ActivityAction:      ActionApproved,
	}
	for _, inst := range dto.Installments {
		decision.Installments = append(decision.Installments, Installment{
			Amount:  inst.Amount,
			DueDate: inst.DueDate,
		})
	}

	updated, err := s.repo.Decide(ctx, id, decision)
	if err != nil {
		return nil, err
	}

	s.recorder.Record(ctx, actor.Email, "approval.approve",
		fmt.Sprintf("%s amount=%.2f type=%s", updated.DisplayID, amount, decision.ApprovedPaymentType))
	s.bus.Publish(ctx, events.NewApprovalDecided(updated.DisplayID, updated.Subject, StatusApproved, actor.Name))

	s.logger.Info("approval request approved",
		"display_id", updated.DisplayID,
		"approver_id", actor.ID,
		"payment_type", decision.ApprovedPaymentType)

	return updated, nil
}

// Reject transitions a decidable request to rejected. The comment is
// mandatory.
func (s *Service) Reject(ctx context.Context, actor Actor, id int64, dto CommentDTO) (*Request, error) {
	return s.decideWithComment(ctx, actor, id, dto, StatusRejected, ActionRejected, "approval.reject")
}

// RequestInfo marks the request as needing more information from the
// requester; the request stays decidable.
func (s *Service) RequestInfo(ctx context.Context, actor Actor, id int64, dto CommentDTO) (*Request, error) {
	return s.decideWithComment(ctx, actor, id, dto, StatusInfoRequested, ActionInfoRequested, "approval.request_info")
}

func (s *Service) decideWithComment(ctx context.Context, actor Actor, id int64, dto CommentDTO, status, action, auditAction string) (*Request, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	updated, err := s.repo.Decide(ctx, id, Decision{
		Status:         status,
		ApproverID:     actor.ID,
		ApproverName:   actor.Name,
		Comment:        dto.Comment,
		ActivityAction: action,
	})
	if err != nil {
		return nil, err
	}

	s.recorder.Record(ctx, actor.Email, auditAction, updated.DisplayID)
	s.bus.Publish(ctx, events.NewApprovalDecided(updated.DisplayID, updated.Subject, status, actor.Name))

	s.logger.Info("approval request decided",
		"display_id", updated.DisplayID,
		"status", status,
		"approver_id", actor.ID)

	return updated, nil
}

// AddAttachment records supporting-document metadata for a request. Bytes
// are stored externally under the generated storage key.
func (s *Service) AddAttachment(ctx context.Context, actor Actor, id int64, dto AttachmentDTO) (*Attachment, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return nil, err
	}

	attachment := &Attachment{
		RequestID:  id,
		FileName:   dto.FileName,
		FileSize:   dto.FileSize,
		MimeType:   dto.MimeType,
		StorageKey: uuid.NewString(),
		CreatedAt:  time.Now(),
	}

	if err := s.repo.AddAttachment(ctx, attachment); err != nil {
		s.logger.Error("failed to record attachment", "error", err, "request_id", id)
		return nil, err
	}

	s.recorder.Record(ctx, actor.Email, "approval.attach", attachment.FileName)
	return attachment, nil
}

func (s *Service) GetByID(ctx context.Context, id int64) (*Request, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Request, int64, error) {
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 20
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return s.repo.List(ctx, filter)
}
