package postgres

import (
	"context"
	"errors"

	"github.com/Akechi360/clinic-ops/internal/auth"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) auth.RepositoryAPI {
	return &Repository{db: db}
}

func (r *Repository) GetCredentialsByEmail(ctx context.Context, email string) (*auth.Credentials, error) {
	var creds auth.Credentials
	err := r.db.WithContext(ctx).
		Table("users").
		Select("id AS user_id, password_hash, role, is_active").
		Where("email = ?", email).
		Take(&creds).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, auth.ErrInvalidCredentials
		}
		return nil, err
	}
	return &creds, nil
}

func (r *Repository) GetUserByID(ctx context.Context, userID int64) (*auth.User, error) {
	var user auth.User
	err := r.db.WithContext(ctx).
		Table("users").
		Select("id, email, name, role").
		Where("id = ? AND is_active = ?", userID, true).
		Take(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, auth.ErrUserInactive
		}
		return nil, err
	}
	return &user, nil
}
