package auth_test

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"

	"github.com/Akechi360/clinic-ops/internal/auth"
)

func TestAuth(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Auth Suite")
}

type mockAuthRepository struct {
	creds map[string]*auth.Credentials
	users map[int64]*auth.User
}

func (m *mockAuthRepository) GetCredentialsByEmail(_ context.Context, email string) (*auth.Credentials, error) {
	if c, ok := m.creds[email]; ok {
		return c, nil
	}
	return nil, auth.ErrInvalidCredentials
}

func (m *mockAuthRepository) GetUserByID(_ context.Context, userID int64) (*auth.User, error) {
	if u, ok := m.users[userID]; ok {
		return u, nil
	}
	return nil, auth.ErrUserInactive
}

var _ = Describe("Auth Service", func() {
	var (
		repo    *mockAuthRepository
		service *auth.Service
		ctx     context.Context
	)

	BeforeEach(func() {
		hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
		Expect(err).NotTo(HaveOccurred())

		repo = &mockAuthRepository{
			creds: map[string]*auth.Credentials{
				"dr.lopez@clinic.local": {
					UserID:       1,
					PasswordHash: string(hash),
					Role:         auth.RoleApprover,
					IsActive:     true,
				},
				"former@clinic.local": {
					UserID:       2,
					PasswordHash: string(hash),
					Role:         auth.RoleStaff,
					IsActive:     false,
				},
			},
			users: map[int64]*auth.User{
				1: {ID: 1, Email: "dr.lopez@clinic.local", Name: "Dr. Lopez", Role: auth.RoleApprover},
			},
		}

		tokenGen := auth.NewJWTTokenGenerator("access-secret", "refresh-secret", 15*time.Minute, 24*time.Hour)
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
		service = auth.NewService(repo, tokenGen, logger)
		ctx = context.Background()
	})

	Describe("Authenticate", func() {
		It("returns a token pair for valid credentials", func() {
			tokens, err := service.Authenticate(ctx, auth.LoginDTO{
				Email:    "dr.lopez@clinic.local",
				Password: "s3cret",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(tokens.AccessToken).NotTo(BeEmpty())
			Expect(tokens.RefreshToken).NotTo(BeEmpty())

			claims, err := service.ValidateAccessToken(tokens.AccessToken)
			Expect(err).NotTo(HaveOccurred())
			Expect(claims.UserID).To(Equal(int64(1)))
			Expect(claims.Role).To(Equal(auth.RoleApprover))
		})

		It("rejects a wrong password", func() {
			_, err := service.Authenticate(ctx, auth.LoginDTO{
				Email:    "dr.lopez@clinic.local",
				Password: "wrong",
			})
			Expect(err).To(Equal(auth.ErrInvalidCredentials))
		})

		It("rejects an unknown email", func() {
			_, err := service.Authenticate(ctx, auth.LoginDTO{
				Email:    "nobody@clinic.local",
				Password: "s3cret",
			})
			Expect(err).To(Equal(auth.ErrInvalidCredentials))
		})

		It("rejects inactive users", func() {
			_, err := service.Authenticate(ctx, auth.LoginDTO{
				Email:    "former@clinic.local",
				Password: "s3cret",
			})
			Expect(err).To(Equal(auth.ErrUserInactive))
		})

		It("rejects empty credentials with a validation error", func() {
			_, err := service.Authenticate(ctx, auth.LoginDTO{})
			Expect(err).To(BeAssignableToTypeOf(auth.ValidationError{}))
		})
	})

	Describe("RefreshTokens", func() {
		It("issues a fresh pair for a valid refresh token", func() {
			tokens, err := service.Authenticate(ctx, auth.LoginDTO{
				Email:    "dr.lopez@clinic.local",
				Password: "s3cret",
			})
			Expect(err).NotTo(HaveOccurred())

			refreshed, err := service.RefreshTokens(ctx, tokens.RefreshToken)
			Expect(err).NotTo(HaveOccurred())
			Expect(refreshed.AccessToken).NotTo(BeEmpty())
		})

		It("rejects an access token used as refresh token", func() {
			tokens, err := service.Authenticate(ctx, auth.LoginDTO{
				Email:    "dr.lopez@clinic.local",
				Password: "s3cret",
			})
			Expect(err).NotTo(HaveOccurred())

			_, err = service.RefreshTokens(ctx, tokens.AccessToken)
			Expect(err).To(Equal(auth.ErrInvalidToken))
		})

		It("rejects garbage tokens", func() {
			_, err := service.RefreshTokens(ctx, "not-a-token")
			Expect(err).To(Equal(auth.ErrInvalidToken))
		})
	})
})
