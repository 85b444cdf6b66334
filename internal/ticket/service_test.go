package ticket_test

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
	"github.com/Akechi360/clinic-ops/internal/ticket"
)

func TestTicketService(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Ticket Service Suite")
}

type mockTicketRepository struct {
	tickets  map[int64]*ticket.Ticket
	comments map[int64][]ticket.Comment
	nextID   int64
}

func newMockTicketRepository() *mockTicketRepository {
	return &mockTicketRepository{
		tickets:  make(map[int64]*ticket.Ticket),
		comments: make(map[int64][]ticket.Comment),
		nextID:   1,
	}
}

func (m *mockTicketRepository) Create(_ context.Context, t *ticket.Ticket) error {
	t.ID = m.nextID
	m.nextID++
	m.tickets[t.ID] = t
	return nil
}

func (m *mockTicketRepository) GetByID(_ context.Context, id int64) (*ticket.Ticket, error) {
	t, ok := m.tickets[id]
	if !ok {
		return nil, internal.ErrTicketNotFound
	}
	copied := *t
	copied.Comments = m.comments[id]
	return &copied, nil
}

func (m *mockTicketRepository) List(_ context.Context, filter ticket.ListFilter) ([]*ticket.Ticket, int64, error) {
	var out []*ticket.Ticket
	for _, t := range m.tickets {
		if filter.Status != "" && t.Status != filter.Status {
			continue
		}
		out = append(out, t)
	}
	return out, int64(len(out)), nil
}

func (m *mockTicketRepository) UpdateStatus(_ context.Context, id int64, from, to string, stamps map[string]interface{}) error {
	t, ok := m.tickets[id]
	if !ok {
		return internal.ErrTicketNotFound
	}
	if t.Status != from {
		return internal.NewConflictError("ticket status changed concurrently", internal.ErrCodeInvalidStatusChange)
	}
	t.Status = to
	now := time.Now()
	if _, ok := stamps["resolved_at"]; ok {
		t.ResolvedAt = &now
	}
	if _, ok := stamps["closed_at"]; ok {
		t.ClosedAt = &now
	}
	return nil
}

func (m *mockTicketRepository) Assign(_ context.Context, id int64, assigneeID int64, assigneeName string) error {
	t, ok := m.tickets[id]
	if !ok {
		return internal.ErrTicketNotFound
	}
	t.AssigneeID = &assigneeID
	t.AssigneeName = assigneeName
	return nil
}

func (m *mockTicketRepository) AddComment(_ context.Context, comment *ticket.Comment) error {
	comment.ID = int64(len(m.comments[comment.TicketID]) + 1)
	m.comments[comment.TicketID] = append(m.comments[comment.TicketID], *comment)
	return nil
}

type mockAllocator struct {
	next     int64
	allocErr error
}

func (m *mockAllocator) Next(_ context.Context, entityName string) (string, error) {
	if m.allocErr != nil {
		return "", m.allocErr
	}
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

var _ = Describe("Ticket Service", func() {
	var (
		repo      *mockTicketRepository
		allocator *mockAllocator
		recorder  *mockRecorder
		publisher *mockPublisher
		resolver  *mockResolver
		service   *ticket.Service
		ctx       context.Context

		reporter = ticket.Actor{ID: 1, Name: "Ana Marin", Email: "ana@clinic.local"}
		tech     = ticket.Actor{ID: 3, Name: "Luis Ortega", Email: "luis@clinic.local"}
	)

	BeforeEach(func() {
		repo = newMockTicketRepository()
		allocator = &mockAllocator{}
		recorder = &mockRecorder{}
		publisher = &mockPublisher{}
		resolver = &mockResolver{names: map[int64]string{3: "Luis Ortega"}}
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
		service = ticket.NewService(repo, allocator, recorder, publisher, resolver, logger)
		ctx = context.Background()
	})

	createTicket := func() *ticket.Ticket {
		t, err := service.Create(ctx, reporter, ticket.CreateTicketDTO{
			Subject:     "Reception printer jams on every job",
			Description: "Paper feed grinds and stops halfway",
			Category:    ticket.CategoryHardware,
			Priority:    ticket.PriorityHigh,
		})
		Expect(err).NotTo(HaveOccurred())
		return t
	}

	Describe("Create", func() {
		It("opens a ticket with a display id and reporter snapshot", func() {
			t := createTicket()

			Expect(t.Status).To(Equal(ticket.StatusOpen))
			Expect(t.DisplayID).To(Equal("Ticket-000001"))
			Expect(t.ReporterName).To(Equal("Ana Marin"))
			Expect(recorder.actions).To(ContainElement("ticket.create"))

			var types []string
			for _, e := range publisher.published {
				types = append(types, e.EventType())
			}
			Expect(types).To(ContainElement(events.TypeTicketCreated))
		})

		It("defaults category and priority", func() {
			t, err := service.Create(ctx, reporter, ticket.CreateTicketDTO{
				Subject: "VPN drops every hour",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(t.Category).To(Equal(ticket.CategoryOther))
			Expect(t.Priority).To(Equal(ticket.PriorityMedium))
		})

		It("rejects an empty subject", func() {
			_, err := service.Create(ctx, reporter, ticket.CreateTicketDTO{})
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.FieldErrorMap()).To(HaveKey("subject"))
		})

		It("rejects an unknown priority", func() {
			_, err := service.Create(ctx, reporter, ticket.CreateTicketDTO{
				Subject:  "X",
				Priority: "asap",
			})
			Expect(err).To(HaveOccurred())
		})

		It("propagates allocator failure", func() {
			allocator.allocErr = fmt.Errorf("store unavailable")
			_, err := service.Create(ctx, reporter, ticket.CreateTicketDTO{Subject: "X"})
			Expect(err).To(HaveOccurred())
			Expect(repo.tickets).To(BeEmpty())
		})
	})

	Describe("UpdateStatus", func() {
		It("walks open through in_progress to resolved and closed", func() {
			t := createTicket()

			for _, status := range []string{ticket.StatusInProgress, ticket.StatusResolved, ticket.StatusClosed} {
				updated, err := service.UpdateStatus(ctx, tech, t.ID, ticket.UpdateStatusDTO{Status: status})
				Expect(err).NotTo(HaveOccurred())
				Expect(updated.Status).To(Equal(status))
			}

			final, err := service.GetByID(ctx, t.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(final.ResolvedAt).NotTo(BeNil())
			Expect(final.ClosedAt).NotTo(BeNil())
		})

		It("allows resolving straight from open", func() {
			t := createTicket()

			updated, err := service.UpdateStatus(ctx, tech, t.ID, ticket.UpdateStatusDTO{Status: ticket.StatusResolved})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Status).To(Equal(ticket.StatusResolved))
		})

		It("treats closed as terminal", func() {
			t := createTicket()

			_, err := service.UpdateStatus(ctx, tech, t.ID, ticket.UpdateStatusDTO{Status: ticket.StatusClosed})
			Expect(err).NotTo(HaveOccurred())

			_, err = service.UpdateStatus(ctx, tech, t.ID, ticket.UpdateStatusDTO{Status: ticket.StatusOpen})
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeInvalidStatusChange))
		})

		It("rejects a skipped-backwards transition", func() {
			t := createTicket()

			_, err := service.UpdateStatus(ctx, tech, t.ID, ticket.UpdateStatusDTO{Status: ticket.StatusInProgress})
			Expect(err).NotTo(HaveOccurred())

			_, err = service.UpdateStatus(ctx, tech, t.ID, ticket.UpdateStatusDTO{Status: ticket.StatusOpen})
			Expect(err).To(HaveOccurred())
		})

		It("returns not-found for a missing ticket", func() {
			_, err := service.UpdateStatus(ctx, tech, 999, ticket.UpdateStatusDTO{Status: ticket.StatusClosed})
			Expect(err).To(Equal(internal.ErrTicketNotFound))
		})
	})

	Describe("Assign", func() {
		It("resolves and stores the assignee name", func() {
			t := createTicket()

			updated, err := service.Assign(ctx, tech, t.ID, ticket.AssignDTO{AssigneeID: 3})
			Expect(err).NotTo(HaveOccurred())
			Expect(*updated.AssigneeID).To(Equal(int64(3)))
			Expect(updated.AssigneeName).To(Equal("Luis Ortega"))
		})

		It("fails for an unknown assignee", func() {
			t := createTicket()

			_, err := service.Assign(ctx, tech, t.ID, ticket.AssignDTO{AssigneeID: 99})
			Expect(err).To(Equal(internal.ErrUserNotFound))
		})

		It("refuses to assign a closed ticket", func() {
			t := createTicket()

			_, err := service.UpdateStatus(ctx, tech, t.ID, ticket.UpdateStatusDTO{Status: ticket.StatusClosed})
			Expect(err).NotTo(HaveOccurred())

			_, err = service.Assign(ctx, tech, t.ID, ticket.AssignDTO{AssigneeID: 3})
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("AddComment", func() {
		It("appends a comment with the author snapshot", func() {
			t := createTicket()

			comment, err := service.AddComment(ctx, tech, t.ID, ticket.CommentDTO{
				Body: "swapped the feed roller, monitoring",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(comment.AuthorName).To(Equal("Luis Ortega"))

			loaded, err := service.GetByID(ctx, t.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded.Comments).To(HaveLen(1))
		})

		It("still accepts comments on a closed ticket", func() {
			t := createTicket()

			_, err := service.UpdateStatus(ctx, tech, t.ID, ticket.UpdateStatusDTO{Status: ticket.StatusClosed})
			Expect(err).NotTo(HaveOccurred())

			_, err = service.AddComment(ctx, tech, t.ID, ticket.CommentDTO{Body: "root cause: worn roller"})
			Expect(err).NotTo(HaveOccurred())
		})

		It("rejects an empty body", func() {
			t := createTicket()

			_, err := service.AddComment(ctx, tech, t.ID, ticket.CommentDTO{})
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.FieldErrorMap()).To(HaveKey("body"))
		})
	})
})
