package rest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"

	"github.com/Akechi360/clinic-ops/api"
	"github.com/Akechi360/clinic-ops/internal/approval"
	"github.com/Akechi360/clinic-ops/internal/auth"
	"github.com/Akechi360/clinic-ops/internal/inventory"
	"github.com/Akechi360/clinic-ops/internal/maintenance"
	"github.com/Akechi360/clinic-ops/internal/ticket"
	"github.com/Akechi360/clinic-ops/internal/transport/middleware"
	"github.com/Akechi360/clinic-ops/internal/transport/swagger"
	"github.com/Akechi360/clinic-ops/internal/user"
)

// Handlers bundles everything the router mounts.
type Handlers struct {
	Auth        *auth.Handler
	User        *user.Handler
	Ticket      *ticket.Handler
	Approval    *approval.Handler
	Inventory   *inventory.Handler
	Maintenance *maintenance.Handler
}

// RegisterAllRoutes wires the full API under /api/v1. Auth endpoints are
// public; everything else sits behind the auth middleware, with decision and
// administration endpoints additionally role-guarded.
func RegisterAllRoutes(router *chi.Mux, db *sql.DB, h Handlers, allowedOrigins string, logger *slog.Logger) {
	healthHandler := NewHealthHandler(db)

	router.Use(middleware.CORS(allowedOrigins))
	router.Use(middleware.RequestID)
	router.Use(middleware.LoggingMiddleware(logger))
	router.Use(middleware.RecoveryMiddleware(logger))

	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		w.Write(api.OpenAPISpec)
	})
	router.Handle("/swagger/*", swagger.Handler())

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		r.Route("/auth", func(sr chi.Router) {
			sr.Post("/login", h.Auth.Login)
			sr.Post("/refresh", h.Auth.RefreshToken)
			sr.Post("/logout", h.Auth.Logout)
		})

		r.Group(func(pr chi.Router) {
			pr.Use(h.Auth.AuthMiddleware)

			pr.Route("/tickets", func(tr chi.Router) {
				tr.Post("/", h.Ticket.CreateTicket)
				tr.Get("/", h.Ticket.ListTickets)
				tr.Get("/{id}", h.Ticket.GetTicket)
				tr.Patch("/{id}/status", h.Ticket.UpdateStatus)
				tr.Patch("/{id}/assign", h.Ticket.Assign)
				tr.Post("/{id}/comments", h.Ticket.AddComment)
			})

			pr.Route("/approvals", func(ar chi.Router) {
				ar.Post("/", h.Approval.CreateRequest)
				ar.Get("/", h.Approval.ListRequests)
				ar.Get("/{id}", h.Approval.GetRequest)
				ar.Post("/{id}/attachments", h.Approval.AddAttachment)

				// decisions are approver territory
				ar.Group(func(dr chi.Router) {
					dr.Use(h.Auth.RequireRole(auth.RoleApprover, auth.RoleAdmin))
					dr.Patch("/{id}/approve", h.Approval.Approve)
					dr.Patch("/{id}/reject", h.Approval.Reject)
					dr.Patch("/{id}/request-info", h.Approval.RequestInfo)
				})
			})

			pr.Route("/inventory", func(ir chi.Router) {
				ir.Post("/", h.Inventory.CreateItem)
				ir.Get("/", h.Inventory.ListItems)
				ir.Get("/{id}", h.Inventory.GetItem)
				ir.Patch("/{id}", h.Inventory.UpdateItem)
				ir.Patch("/{id}/assign", h.Inventory.AssignItem)

				ir.Group(func(ar chi.Router) {
					ar.Use(h.Auth.RequireRole(auth.RoleAdmin))
					ar.Delete("/{id}", h.Inventory.DeleteItem)
				})
			})

			pr.Route("/maintenance", func(mr chi.Router) {
				mr.Post("/", h.Maintenance.CreateCase)
				mr.Get("/", h.Maintenance.ListCases)
				mr.Get("/{id}", h.Maintenance.GetCase)
				mr.Patch("/{id}/status", h.Maintenance.UpdateStatus)
			})

			// user administration is admin-only
			pr.Route("/users", func(ur chi.Router) {
				ur.Use(h.Auth.RequireRole(auth.RoleAdmin))
				ur.Post("/", h.User.CreateUser)
				ur.Get("/", h.User.ListUsers)
				ur.Get("/{id}", h.User.GetUser)
				ur.Patch("/{id}", h.User.UpdateUser)
				ur.Patch("/{id}/password", h.User.ChangePassword)
				ur.Delete("/{id}", h.User.DeleteUser)
			})
		})
	})
}
