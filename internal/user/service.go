package user

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	internal "github.com/Akechi360/clinic-ops/internal"
	"github.com/Akechi360/clinic-ops/internal/auth"
)

// RepositoryAPI is the data access contract for accounts. Create surfaces
// ErrDuplicateEmail on a unique-index violation; CountOwnedRecords backs the
// referential delete guard.
type RepositoryAPI interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context, filter ListFilter) ([]*User, int64, error)
	Update(ctx context.Context, id int64, fields map[string]interface{}) error
	Delete(ctx context.Context, id int64) error
	CountOwnedRecords(ctx context.Context, id int64) (OwnedRecords, error)
}

type DisplayIDAllocator interface {
	Next(ctx context.Context, entityName string) (string, error)
}

type AuditRecorder interface {
	Record(ctx context.Context, actorEmail, action, details string)
}

type Service struct {
	repo      RepositoryAPI
	allocator DisplayIDAllocator
	recorder  AuditRecorder
	logger    *slog.Logger
}

func NewService(repo RepositoryAPI, allocator DisplayIDAllocator, recorder AuditRecorder, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		allocator: allocator,
		recorder:  recorder,
		logger:    logger,
	}
}

// Create registers an account with a bcrypt-hashed password. A duplicate
// email is a conflict.
func (s *Service) Create(ctx context.Context, actor Actor, dto CreateUserDTO) (*User, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(dto.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, internal.NewInternalError("failed to hash password", err)
	}

	displayID, err := s.allocator.Next(ctx, "User")
	if err != nil {
		s.logger.Error("display id allocation failed", "entity", "User", "error", err)
		return nil, err
	}

	role := dto.Role
	if role == "" {
		role = auth.RoleStaff
	}

	now := time.Now()
	u := &User{
		DisplayID:    displayID,
		Email:        dto.Email,
		Name:         dto.Name,
		Role:         role,
		Department:   dto.Department,
		PasswordHash: string(hash),
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}

	s.recorder.Record(ctx, actor.Email, "user.create", displayID)
	s.logger.Info("user created", "display_id", displayID, "role", role, "actor_id", actor.ID)

	return u, nil
}

// Update applies a partial update to the mutable account fields.
func (s *Service) Update(ctx context.Context, actor Actor, id int64, dto UpdateUserDTO) (*User, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	fields := map[string]interface{}{"updated_at": time.Now()}
	if dto.Name != nil {
		fields["name"] = *dto.Name
	}
	if dto.Role != nil {
		fields["role"] = *dto.Role
	}
	if dto.Department != nil {
		fields["department"] = *dto.Department
	}
	if dto.IsActive != nil {
		fields["is_active"] = *dto.IsActive
	}

	if err := s.repo.Update(ctx, id, fields); err != nil {
		return nil, err
	}

	s.recorder.Record(ctx, actor.Email, "user.update", u.DisplayID)
	return s.repo.GetByID(ctx, id)
}

// ChangePassword replaces the stored hash.
func (s *Service) ChangePassword(ctx context.Context, actor Actor, id int64, dto ChangePasswordDTO) error {
	if err := dto.Validate(); err != nil {
		return err
	}

	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(dto.Password), bcrypt.DefaultCost)
	if err != nil {
		return internal.NewInternalError("failed to hash password", err)
	}

	if err := s.repo.Update(ctx, id, map[string]interface{}{
		"password_hash": string(hash),
		"updated_at":    time.Now(),
	}); err != nil {
		return err
	}

	s.recorder.Record(ctx, actor.Email, "user.change_password", u.DisplayID)
	return nil
}

// Delete removes an account. It refuses self-deletion and any account that
// still owns tickets, comments or approval requests; deactivation is the
// path for accounts with history.
func (s *Service) Delete(ctx context.Context, actor Actor, id int64) error {
	if actor.ID == id {
		return internal.ErrCannotDeleteSelf
	}

	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	owned, err := s.repo.CountOwnedRecords(ctx, id)
	if err != nil {
		return err
	}
	if owned.Total() > 0 {
		s.logger.Info("user delete blocked by owned records",
			"display_id", u.DisplayID,
			"tickets", owned.Tickets,
			"comments", owned.Comments,
			"approvals", owned.Approvals)
		return internal.ErrUserOwnsRecords
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.recorder.Record(ctx, actor.Email, "user.delete", u.DisplayID)
	s.logger.Info("user deleted", "display_id", u.DisplayID, "actor_id", actor.ID)
	return nil
}

func (s *Service) GetByID(ctx context.Context, id int64) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]*User, int64, error) {
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 20
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return s.repo.List(ctx, filter)
}

// ResolveName satisfies the assignee and technician resolver contracts of
// the ticket, inventory and maintenance services.
func (s *Service) ResolveName(ctx context.Context, userID int64) (string, error) {
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}
	return u.Name, nil
}
