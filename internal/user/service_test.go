package user_test

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"

	internal "github.com/Akechi360/clinic-ops/internal"
	"github.com/Akechi360/clinic-ops/internal/auth"
	"github.com/Akechi360/clinic-ops/internal/user"
)

func TestUserService(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "User Service Suite")
}

type mockUserRepository struct {
	users  map[int64]*user.User
	owned  map[int64]user.OwnedRecords
	nextID int64
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{
		users:  make(map[int64]*user.User),
		owned:  make(map[int64]user.OwnedRecords),
		nextID: 1,
	}
}

func (m *mockUserRepository) Create(_ context.Context, u *user.User) error {
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return internal.ErrDuplicateEmail
		}
	}
	u.ID = m.nextID
	m.nextID++
	m.users[u.ID] = u
	return nil
}

func (m *mockUserRepository) GetByID(_ context.Context, id int64) (*user.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, internal.ErrUserNotFound
	}
	copied := *u
	return &copied, nil
}

func (m *mockUserRepository) GetByEmail(_ context.Context, email string) (*user.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, internal.ErrUserNotFound
}

func (m *mockUserRepository) List(_ context.Context, filter user.ListFilter) ([]*user.User, int64, error) {
	var out []*user.User
	for _, u := range m.users {
		if filter.Role != "" && u.Role != filter.Role {
			continue
		}
		out = append(out, u)
	}
	return out, int64(len(out)), nil
}

func (m *mockUserRepository) Update(_ context.Context, id int64, fields map[string]interface{}) error {
	u, ok := m.users[id]
	if !ok {
		return internal.ErrUserNotFound
	}
	if v, ok := fields["name"].(string); ok {
		u.Name = v
	}
	if v, ok := fields["role"].(string); ok {
		u.Role = v
	}
	if v, ok := fields["department"].(string); ok {
		u.Department = v
	}
	if v, ok := fields["is_active"].(bool); ok {
		u.IsActive = v
	}
	if v, ok := fields["password_hash"].(string); ok {
		u.PasswordHash = v
	}
	return nil
}

func (m *mockUserRepository) Delete(_ context.Context, id int64) error {
	if _, ok := m.users[id]; !ok {
		return internal.ErrUserNotFound
	}
	delete(m.users, id)
	return nil
}

func (m *mockUserRepository) CountOwnedRecords(_ context.Context, id int64) (user.OwnedRecords, error) {
	return m.owned[id], nil
}

type mockAllocator struct {
	next int64
}

func (m *mockAllocator) Next(_ context.Context, entityName string) (string, error) {
	m.next++
	return fmt.Sprintf("%s-%06d", entityName, m.next), nil
}

type mockRecorder struct {
	actions []string
}

func (m *mockRecorder) Record(_ context.Context, _, action, _ string) {
	m.actions = append(m.actions, action)
}

var _ = Describe("User Service", func() {
	var (
		repo     *mockUserRepository
		recorder *mockRecorder
		service  *user.Service
		ctx      context.Context

		admin = user.Actor{ID: 100, Name: "Root Admin", Email: "admin@clinic.local"}
	)

	BeforeEach(func() {
		repo = newMockUserRepository()
		recorder = &mockRecorder{}
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
		service = user.NewService(repo, &mockAllocator{}, recorder, logger)
		ctx = context.Background()
	})

	createUser := func(email string) *user.User {
		u, err := service.Create(ctx, admin, user.CreateUserDTO{
			Email:    email,
			Name:     "Ana Marin",
			Password: "s3cret-pass",
			Role:     auth.RoleStaff,
		})
		Expect(err).NotTo(HaveOccurred())
		return u
	}

	Describe("Create", func() {
		It("stores a bcrypt hash, never the raw password", func() {
			u := createUser("ana@clinic.local")

			Expect(u.PasswordHash).NotTo(Equal("s3cret-pass"))
			Expect(bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("s3cret-pass"))).To(Succeed())
			Expect(u.DisplayID).To(Equal("User-000001"))
			Expect(u.IsActive).To(BeTrue())
		})

		It("defaults the role to staff", func() {
			u, err := service.Create(ctx, admin, user.CreateUserDTO{
				Email:    "b@clinic.local",
				Name:     "B",
				Password: "s3cret-pass",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(u.Role).To(Equal(auth.RoleStaff))
		})

		It("maps a duplicate email to the conflict error", func() {
			createUser("ana@clinic.local")

			_, err := service.Create(ctx, admin, user.CreateUserDTO{
				Email:    "ana@clinic.local",
				Name:     "Other",
				Password: "s3cret-pass",
			})
			Expect(err).To(Equal(internal.ErrDuplicateEmail))
		})

		It("rejects a short password", func() {
			_, err := service.Create(ctx, admin, user.CreateUserDTO{
				Email:    "c@clinic.local",
				Name:     "C",
				Password: "short",
			})
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.FieldErrorMap()).To(HaveKey("password"))
		})

		It("rejects an unknown role", func() {
			_, err := service.Create(ctx, admin, user.CreateUserDTO{
				Email:    "d@clinic.local",
				Name:     "D",
				Password: "s3cret-pass",
				Role:     "superuser",
			})
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Update", func() {
		It("applies partial updates", func() {
			u := createUser("ana@clinic.local")

			newRole := auth.RoleApprover
			inactive := false
			updated, err := service.Update(ctx, admin, u.ID, user.UpdateUserDTO{
				Role:     &newRole,
				IsActive: &inactive,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Role).To(Equal(auth.RoleApprover))
			Expect(updated.IsActive).To(BeFalse())
			Expect(updated.Name).To(Equal("Ana Marin"))
		})
	})

	Describe("ChangePassword", func() {
		It("replaces the stored hash", func() {
			u := createUser("ana@clinic.local")
			oldHash := u.PasswordHash

			err := service.ChangePassword(ctx, admin, u.ID, user.ChangePasswordDTO{Password: "new-passw0rd"})
			Expect(err).NotTo(HaveOccurred())

			reloaded, err := service.GetByID(ctx, u.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(reloaded.PasswordHash).NotTo(Equal(oldHash))
			Expect(bcrypt.CompareHashAndPassword([]byte(reloaded.PasswordHash), []byte("new-passw0rd"))).To(Succeed())
		})
	})

	Describe("Delete", func() {
		It("refuses self-deletion", func() {
			u := createUser("ana@clinic.local")
			self := user.Actor{ID: u.ID, Name: u.Name, Email: u.Email}

			err := service.Delete(ctx, self, u.ID)
			Expect(err).To(Equal(internal.ErrCannotDeleteSelf))
		})

		It("refuses deletion while the user owns records", func() {
			u := createUser("ana@clinic.local")
			repo.owned[u.ID] = user.OwnedRecords{Tickets: 2, Approvals: 1}

			err := service.Delete(ctx, admin, u.ID)
			Expect(err).To(Equal(internal.ErrUserOwnsRecords))

			_, err = service.GetByID(ctx, u.ID)
			Expect(err).NotTo(HaveOccurred())
		})

		It("deletes an account with no history", func() {
			u := createUser("ana@clinic.local")

			Expect(service.Delete(ctx, admin, u.ID)).To(Succeed())

			_, err := service.GetByID(ctx, u.ID)
			Expect(err).To(Equal(internal.ErrUserNotFound))
			Expect(recorder.actions).To(ContainElement("user.delete"))
		})

		It("returns not-found for a missing user", func() {
			err := service.Delete(ctx, admin, 999)
			Expect(err).To(Equal(internal.ErrUserNotFound))
		})
	})

	Describe("ResolveName", func() {
		It("returns the display name", func() {
			u := createUser("ana@clinic.local")

			name, err := service.ResolveName(ctx, u.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(name).To(Equal("Ana Marin"))
		})
	})
})
