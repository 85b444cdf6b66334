package maintenance_test

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	internal "github.com/Akechi360/clinic-ops/internal"
	"github.com/Akechi360/clinic-ops/internal/core/events"
	"github.com/Akechi360/clinic-ops/internal/maintenance"
)

func TestMaintenanceService(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Maintenance Service Suite")
}

type mockCaseRepository struct {
	cases  map[int64]*maintenance.Case
	trail  map[int64][]maintenance.ActivityEntry
	nextID int64
}

func newMockCaseRepository() *mockCaseRepository {
	return &mockCaseRepository{
		cases:  make(map[int64]*maintenance.Case),
		trail:  make(map[int64][]maintenance.ActivityEntry),
		nextID: 1,
	}
}

func (m *mockCaseRepository) Create(_ context.Context, c *maintenance.Case, entry *maintenance.ActivityEntry) error {
	c.ID = m.nextID
	m.nextID++
	m.cases[c.ID] = c
	entry.CaseID = c.ID
	m.trail[c.ID] = append(m.trail[c.ID], *entry)
	return nil
}

func (m *mockCaseRepository) GetByID(_ context.Context, id int64) (*maintenance.Case, error) {
	c, ok := m.cases[id]
	if !ok {
		return nil, internal.ErrCaseNotFound
	}
	copied := *c
	copied.Activity = m.trail[id]
	return &copied, nil
}

func (m *mockCaseRepository) List(_ context.Context, filter maintenance.ListFilter) ([]*maintenance.Case, int64, error) {
	var out []*maintenance.Case
	for _, c := range m.cases {
		if filter.Status != "" && c.Status != filter.Status {
			continue
		}
		out = append(out, c)
	}
	return out, int64(len(out)), nil
}

func (m *mockCaseRepository) AdvanceStatus(_ context.Context, id int64, from string, fields map[string]interface{}, entry *maintenance.ActivityEntry) error {
	c, ok := m.cases[id]
	if !ok {
		return internal.ErrCaseNotFound
	}
	if c.Status != from {
		return internal.NewConflictError("maintenance case status changed concurrently", internal.ErrCodeInvalidStatusChange)
	}
	c.Status = fields["status"].(string)
	now := time.Now()
	if _, ok := fields["resolved_at"]; ok {
		c.ResolvedAt = &now
	}
	if _, ok := fields["closed_at"]; ok {
		c.ClosedAt = &now
	}
	if cost, ok := fields["cost"].(float64); ok {
		c.Cost = &cost
	}
	if techID, ok := fields["technician_id"].(int64); ok {
		c.TechnicianID = &techID
		c.TechnicianName = fields["technician_name"].(string)
	}
	m.trail[id] = append(m.trail[id], *entry)
	return nil
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

type mockPublisher struct {
	published []events.Event
}

func (m *mockPublisher) Publish(_ context.Context, event events.Event) {
	m.published = append(m.published, event)
}

type mockItemChecker struct {
	known map[int64]bool
}

func (m *mockItemChecker) EnsureExists(_ context.Context, itemID int64) error {
	if !m.known[itemID] {
		return internal.ErrItemNotFound
	}
	return nil
}

type mockResolver struct {
	names map[int64]string
}

func (m *mockResolver) ResolveName(_ context.Context, userID int64) (string, error) {
	name, ok := m.names[userID]
	if !ok {
		return "", internal.ErrUserNotFound
	}
	return name, nil
}

var _ = Describe("Maintenance Service", func() {
	var (
		repo      *mockCaseRepository
		allocator *mockAllocator
		recorder  *mockRecorder
		publisher *mockPublisher
		items     *mockItemChecker
		resolver  *mockResolver
		service   *maintenance.Service
		ctx       context.Context

		reporter = maintenance.Actor{ID: 1, Name: "Ana Marin", Email: "ana@clinic.local"}
		tech     = maintenance.Actor{ID: 3, Name: "Luis Ortega", Email: "luis@clinic.local"}
	)

	BeforeEach(func() {
		repo = newMockCaseRepository()
		allocator = &mockAllocator{}
		recorder = &mockRecorder{}
		publisher = &mockPublisher{}
		items = &mockItemChecker{known: map[int64]bool{7: true}}
		resolver = &mockResolver{names: map[int64]string{3: "Luis Ortega"}}
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
		service = maintenance.NewService(repo, allocator, recorder, publisher, items, resolver, logger)
		ctx = context.Background()
	})

	createCase := func() *maintenance.Case {
		c, err := service.Create(ctx, reporter, maintenance.CreateCaseDTO{
			ItemID:      7,
			Title:       "Centrifuge vibrates at high speed",
			Description: "Started after relocation to lab 2",
		})
		Expect(err).NotTo(HaveOccurred())
		return c
	}

	Describe("Create", func() {
		It("opens the case as reported with a first trail entry", func() {
			c := createCase()

			Expect(c.Status).To(Equal(maintenance.StatusReported))
			Expect(c.DisplayID).To(Equal("Case-000001"))
			Expect(repo.trail[c.ID]).To(HaveLen(1))
			Expect(repo.trail[c.ID][0].Status).To(Equal(maintenance.StatusReported))
			Expect(recorder.actions).To(ContainElement("maintenance.create"))
		})

		It("refuses a case against an unknown inventory item", func() {
			_, err := service.Create(ctx, reporter, maintenance.CreateCaseDTO{
				ItemID: 999,
				Title:  "Broken",
			})
			Expect(err).To(Equal(internal.ErrItemNotFound))
			Expect(repo.cases).To(BeEmpty())
		})

		It("publishes a maintenance event", func() {
			createCase()
			Expect(publisher.published).To(HaveLen(1))
			Expect(publisher.published[0].EventType()).To(Equal(events.TypeMaintenanceUpdated))
		})
	})

	Describe("UpdateStatus", func() {
		It("walks the full progression and stamps timestamps", func() {
			c := createCase()

			for _, status := range []string{
				maintenance.StatusDiagnosed,
				maintenance.StatusInRepair,
				maintenance.StatusResolved,
				maintenance.StatusClosed,
			} {
				updated, err := service.UpdateStatus(ctx, tech, c.ID, maintenance.UpdateStatusDTO{
					Status: status,
					Note:   "step done",
				})
				Expect(err).NotTo(HaveOccurred())
				Expect(updated.Status).To(Equal(status))
			}

			final, err := service.GetByID(ctx, c.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(final.ResolvedAt).NotTo(BeNil())
			Expect(final.ClosedAt).NotTo(BeNil())
			Expect(final.Activity).To(HaveLen(5))
		})

		It("allows skipping forward but never moving back", func() {
			c := createCase()

			_, err := service.UpdateStatus(ctx, tech, c.ID, maintenance.UpdateStatusDTO{Status: maintenance.StatusResolved})
			Expect(err).NotTo(HaveOccurred())

			_, err = service.UpdateStatus(ctx, tech, c.ID, maintenance.UpdateStatusDTO{Status: maintenance.StatusInRepair})
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeInvalidStatusChange))
		})

		It("treats closed as terminal", func() {
			c := createCase()

			_, err := service.UpdateStatus(ctx, tech, c.ID, maintenance.UpdateStatusDTO{Status: maintenance.StatusClosed})
			Expect(err).NotTo(HaveOccurred())

			_, err = service.UpdateStatus(ctx, tech, c.ID, maintenance.UpdateStatusDTO{Status: maintenance.StatusResolved})
			Expect(err).To(HaveOccurred())
		})

		It("records cost and technician when provided", func() {
			c := createCase()

			techID := int64(3)
			cost := 85.50
			updated, err := service.UpdateStatus(ctx, tech, c.ID, maintenance.UpdateStatusDTO{
				Status:       maintenance.StatusInRepair,
				Cost:         &cost,
				TechnicianID: &techID,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(*updated.Cost).To(Equal(85.50))
			Expect(updated.TechnicianName).To(Equal("Luis Ortega"))
		})

		It("fails for an unknown technician", func() {
			c := createCase()

			techID := int64(99)
			_, err := service.UpdateStatus(ctx, tech, c.ID, maintenance.UpdateStatusDTO{
				Status:       maintenance.StatusInRepair,
				TechnicianID: &techID,
			})
			Expect(err).To(Equal(internal.ErrUserNotFound))
		})
	})
})
