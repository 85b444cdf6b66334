package postgres_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	internal "github.com/Akechi360/clinic-ops/internal"
	"github.com/Akechi360/clinic-ops/internal/approval"
	"github.com/Akechi360/clinic-ops/internal/approval/postgres"
)

func TestApprovalRepository(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Approval Repository Suite")
}

var _ = Describe("ApprovalRepository", func() {
	var (
		db   *gorm.DB
		repo approval.RepositoryAPI
		ctx  context.Context
	)

	amount := func(v float64) *float64 { return &v }

	BeforeEach(func() {
		var err error
		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
		Expect(err).NotTo(HaveOccurred())

		// single connection so concurrent transactions share the in-memory database
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		sqlDB.SetMaxOpenConns(1)

		err = db.AutoMigrate(
			&approval.Request{},
			&approval.Installment{},
			&approval.ActivityEntry{},
			&approval.Attachment{},
		)
		Expect(err).NotTo(HaveOccurred())

		repo = postgres.NewApprovalRepository(db)
		ctx = context.Background()
	})

	AfterEach(func() {
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		Expect(sqlDB.Close()).To(Succeed())
	})

	createRequest := func(displayID string) *approval.Request {
		req := &approval.Request{
			DisplayID:        displayID,
			Type:             approval.TypeProviderPayment,
			Subject:          "Lab reagent invoice",
			Status:           approval.StatusPending,
			RequesterID:      1,
			RequesterName:    "Ana Marin",
			RequesterEmail:   "ana@clinic.local",
			Supplier:         "BioSupply C.A.",
			TotalAmountToPay: amount(300),
			CreatedAt:        time.Now(),
			UpdatedAt:        time.Now(),
		}
		entry := &approval.ActivityEntry{
			Action:    approval.ActionCreated,
			ActorID:   1,
			ActorName: "Ana Marin",
			CreatedAt: time.Now(),
		}
		Expect(repo.Create(ctx, req, entry)).To(Succeed())
		return req
	}

	approveDecision := func(installments ...approval.Installment) approval.Decision {
		return approval.Decision{
			Status:              approval.StatusApproved,
			ApproverID:          2,
			ApproverName:        "Dr. Reyes",
			ApprovedPaymentType: approval.PaymentInstallments,
			ApprovedAmount:      amount(300),
			Installments:        installments,
			ActivityAction:      approval.ActionApproved,
		}
	}

	Describe("Create", func() {
		It("stores the request together with its first activity entry", func() {
			req := createRequest("Approval-000001")

			loaded, err := repo.GetByID(ctx, req.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded.DisplayID).To(Equal("Approval-000001"))
			Expect(loaded.Status).To(Equal(approval.StatusPending))
			Expect(loaded.Activity).To(HaveLen(1))
			Expect(loaded.Activity[0].Action).To(Equal(approval.ActionCreated))
		})

		It("enforces display id uniqueness", func() {
			createRequest("Approval-000001")

			dup := &approval.Request{
				DisplayID:     "Approval-000001",
				Type:          approval.TypePurchase,
				Subject:       "dup",
				Status:        approval.StatusPending,
				RequesterID:   1,
				RequesterName: "Ana Marin",
			}
			err := repo.Create(ctx, dup, &approval.ActivityEntry{Action: approval.ActionCreated})
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("GetByID", func() {
		It("returns a typed not-found error", func() {
			_, err := repo.GetByID(ctx, 12345)
			Expect(err).To(Equal(internal.ErrApprovalNotFound))
		})
	})

	Describe("Decide", func() {
		It("approves a pending request and persists the installment batch", func() {
			req := createRequest("Approval-000001")

			updated, err := repo.Decide(ctx, req.ID, approveDecision(
				approval.Installment{Amount: 150, DueDate: time.Now().AddDate(0, 0, 30)},
				approval.Installment{Amount: 150, DueDate: time.Now().AddDate(0, 0, 60)},
			))
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Status).To(Equal(approval.StatusApproved))
			Expect(updated.Installments).To(HaveLen(2))
			Expect(updated.ApprovedAt).NotTo(BeNil())
			Expect(updated.Activity).To(HaveLen(2))
		})

		It("refuses a decision on a terminal request", func() {
			req := createRequest("Approval-000001")

			_, err := repo.Decide(ctx, req.ID, approval.Decision{
				Status:         approval.StatusRejected,
				ApproverID:     2,
				ApproverName:   "Dr. Reyes",
				Comment:        "no budget this month",
				ActivityAction: approval.ActionRejected,
			})
			Expect(err).NotTo(HaveOccurred())

			_, err = repo.Decide(ctx, req.ID, approveDecision())
			Expect(err).To(Equal(internal.ErrNotDecidable))

			// the losing decision wrote nothing
			loaded, err := repo.GetByID(ctx, req.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded.Status).To(Equal(approval.StatusRejected))
			Expect(loaded.Activity).To(HaveLen(2))
		})

		It("returns not-found for a missing request", func() {
			_, err := repo.Decide(ctx, 9999, approveDecision())
			Expect(err).To(Equal(internal.ErrApprovalNotFound))
		})

		It("allows approval after an info-requested cycle and replaces the batch", func() {
			req := createRequest("Approval-000001")

			_, err := repo.Decide(ctx, req.ID, approval.Decision{
				Status:         approval.StatusInfoRequested,
				ApproverID:     2,
				ApproverName:   "Dr. Reyes",
				Comment:        "attach the invoice",
				ActivityAction: approval.ActionInfoRequested,
			})
			Expect(err).NotTo(HaveOccurred())

			updated, err := repo.Decide(ctx, req.ID, approveDecision(
				approval.Installment{Amount: 100, DueDate: time.Now().AddDate(0, 0, 30)},
				approval.Installment{Amount: 100, DueDate: time.Now().AddDate(0, 0, 60)},
				approval.Installment{Amount: 100, DueDate: time.Now().AddDate(0, 0, 90)},
			))
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Status).To(Equal(approval.StatusApproved))
			Expect(updated.Installments).To(HaveLen(3))
			Expect(updated.InfoRequestedAt).NotTo(BeNil())
			Expect(updated.Activity).To(HaveLen(3))

			// no orphan installment rows beyond the final batch
			var count int64
			Expect(db.Model(&approval.Installment{}).Where("request_id = ?", req.ID).Count(&count).Error).To(Succeed())
			Expect(count).To(Equal(int64(3)))
		})

		It("stores no installments for a full payment approval", func() {
			req := createRequest("Approval-000001")

			updated, err := repo.Decide(ctx, req.ID, approval.Decision{
				Status:              approval.StatusApproved,
				ApproverID:          2,
				ApproverName:        "Dr. Reyes",
				ApprovedPaymentType: approval.PaymentFull,
				ApprovedAmount:      amount(300),
				ActivityAction:      approval.ActionApproved,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Installments).To(BeEmpty())
			Expect(updated.ApprovedPaymentType).To(Equal(approval.PaymentFull))
		})

		It("lets exactly one of two concurrent approvals win", func() {
			req := createRequest("Approval-000001")

			var wg sync.WaitGroup
			errs := make(chan error, 2)
			for i := 0; i < 2; i++ {
				wg.Add(1)
				go func(n int) {
					defer wg.Done()
					_, err := repo.Decide(ctx, req.ID, approveDecision(
						approval.Installment{Amount: 300, DueDate: time.Now().AddDate(0, 0, 30*(n+1))},
					))
					errs <- err
				}(i)
			}
			wg.Wait()
			close(errs)

			var succeeded, refused int
			for err := range errs {
				switch {
				case err == nil:
					succeeded++
				case err == internal.ErrNotDecidable:
					refused++
				default:
					Fail(fmt.Sprintf("unexpected error: %v", err))
				}
			}
			Expect(succeeded).To(Equal(1))
			Expect(refused).To(Equal(1))

			// exactly one decision entry on top of the creation entry
			loaded, err := repo.GetByID(ctx, req.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded.Status).To(Equal(approval.StatusApproved))
			Expect(loaded.Activity).To(HaveLen(2))
			Expect(loaded.Installments).To(HaveLen(1))
		})
	})

	Describe("List", func() {
		It("filters by status and reports the total", func() {
			first := createRequest("Approval-000001")
			createRequest("Approval-000002")
			createRequest("Approval-000003")

			_, err := repo.Decide(ctx, first.ID, approval.Decision{
				Status:         approval.StatusRejected,
				ApproverID:     2,
				ApproverName:   "Dr. Reyes",
				Comment:        "no",
				ActivityAction: approval.ActionRejected,
			})
			Expect(err).NotTo(HaveOccurred())

			pending, total, err := repo.List(ctx, approval.ListFilter{
				Status: approval.StatusPending,
				Limit:  10,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(total).To(Equal(int64(2)))
			Expect(pending).To(HaveLen(2))
		})

		It("paginates", func() {
			for i := 1; i <= 5; i++ {
				createRequest(fmt.Sprintf("Approval-%06d", i))
			}

			page, total, err := repo.List(ctx, approval.ListFilter{Limit: 2, Offset: 2})
			Expect(err).NotTo(HaveOccurred())
			Expect(total).To(Equal(int64(5)))
			Expect(page).To(HaveLen(2))
		})
	})

	Describe("AddAttachment", func() {
		It("persists attachment metadata", func() {
			req := createRequest("Approval-000001")

			att := &approval.Attachment{
				RequestID:  req.ID,
				FileName:   "invoice.pdf",
				FileSize:   52341,
				MimeType:   "application/pdf",
				StorageKey: "0d2f7c7e-invoice",
				CreatedAt:  time.Now(),
			}
			Expect(repo.AddAttachment(ctx, att)).To(Succeed())

			loaded, err := repo.GetByID(ctx, req.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded.Attachments).To(HaveLen(1))
			Expect(loaded.Attachments[0].FileName).To(Equal("invoice.pdf"))
		})
	})
})
