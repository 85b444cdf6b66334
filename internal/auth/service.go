package auth

import (
	"context"
	"log/slog"

	"golang.org/x/crypto/bcrypt"
)

// Service performs authentication-related business logic.
type Service struct {
	repo     RepositoryAPI
	tokenGen TokenGeneratorAPI
	logger   *slog.Logger
}

func NewService(repo RepositoryAPI, tokenGen TokenGeneratorAPI, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		tokenGen: tokenGen,
		logger:   logger,
	}
}

// Authenticate validates credentials and returns a token pair.
func (s *Service) Authenticate(ctx context.Context, dto LoginDTO) (AuthTokens, error) {
	if err := dto.Validate(); err != nil {
		return AuthTokens{}, err
	}

	creds, err := s.repo.GetCredentialsByEmail(ctx, dto.Email)
	if err != nil {
		s.logger.Warn("login failed: unknown email", "email", dto.Email)
		return AuthTokens{}, ErrInvalidCredentials
	}

	if !creds.IsActive {
		return AuthTokens{}, ErrUserInactive
	}

	if err := bcrypt.CompareHashAndPassword([]byte(creds.PasswordHash), []byte(dto.Password)); err != nil {
		s.logger.Warn("login failed: password mismatch", "email", dto.Email)
		return AuthTokens{}, ErrInvalidCredentials
	}

	user, err := s.repo.GetUserByID(ctx, creds.UserID)
	if err != nil {
		return AuthTokens{}, ErrInvalidCredentials
	}

	return s.issueTokens(user)
}

// RefreshTokens validates a refresh token and returns a fresh pair.
func (s *Service) RefreshTokens(ctx context.Context, refreshToken string) (AuthTokens, error) {
	claims, err := s.tokenGen.ValidateRefreshToken(refreshToken)
	if err != nil {
		return AuthTokens{}, ErrInvalidToken
	}

	user, err := s.repo.GetUserByID(ctx, claims.UserID)
	if err != nil {
		return AuthTokens{}, ErrUserInactive
	}

	return s.issueTokens(user)
}

func (s *Service) ValidateAccessToken(tokenString string) (*Claims, error) {
	return s.tokenGen.ValidateAccessToken(tokenString)
}

// GetUser loads the active user for middleware context injection.
func (s *Service) GetUser(ctx context.Context, userID int64) (*User, error) {
	return s.repo.GetUserByID(ctx, userID)
}

func (s *Service) issueTokens(user *User) (AuthTokens, error) {
	accessToken, err := s.tokenGen.GenerateAccessToken(user)
	if err != nil {
		return AuthTokens{}, err
	}

	refreshToken, err := s.tokenGen.GenerateRefreshToken(user)
	if err != nil {
		return AuthTokens{}, err
	}

	return AuthTokens{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}
