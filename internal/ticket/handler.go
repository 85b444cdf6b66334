package ticket

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"

	"github.com/Akechi360/clinic-ops/internal/auth"
	"github.com/Akechi360/clinic-ops/internal/transport"
	"github.com/Akechi360/clinic-ops/pkg/logger"
)

type ServiceAPI interface {
	Create(ctx context.Context, actor Actor, dto CreateTicketDTO) (*Ticket, error)
	UpdateStatus(ctx context.Context, actor Actor, id int64, dto UpdateStatusDTO) (*Ticket, error)
	Assign(ctx context.Context, actor Actor, id int64, dto AssignDTO) (*Ticket, error)
	AddComment(ctx context.Context, actor Actor, id int64, dto CommentDTO) (*Comment, error)
	GetByID(ctx context.Context, id int64) (*Ticket, error)
	List(ctx context.Context, filter ListFilter) ([]*Ticket, int64, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(service ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: transport.NewBaseHandler(logger.LoggerWrapper()),
		Service:     service,
	}
}

func (h *Handler) actorFromRequest(w http.ResponseWriter, r *http.Request) (Actor, bool) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return Actor{}, false
	}
	return Actor{ID: user.ID, Name: user.Name, Email: user.Email}, true
}

func (h *Handler) ticketID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	idStr := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid ticket ID")
		return 0, false
	}
	return id, true
}

func (h *Handler) CreateTicket(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actorFromRequest(w, r)
	if !ok {
		return
	}

	var dto CreateTicketDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	t, err := h.Service.Create(r.Context(), actor, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteResult(w, http.StatusCreated, "ticket created", map[string]interface{}{
		"ticket_id": t.DisplayID,
		"ticket":    t,
	})
}

func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actorFromRequest(w, r)
	if !ok {
		return
	}
	id, ok := h.ticketID(w, r)
	if !ok {
		return
	}

	var dto UpdateStatusDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	t, err := h.Service.UpdateStatus(r.Context(), actor, id, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteResult(w, http.StatusOK, "ticket status updated", map[string]interface{}{
		"ticket_id": t.DisplayID,
		"status":    t.Status,
	})
}

func (h *Handler) Assign(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actorFromRequest(w, r)
	if !ok {
		return
	}
	id, ok := h.ticketID(w, r)
	if !ok {
		return
	}

	var dto AssignDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	t, err := h.Service.Assign(r.Context(), actor, id, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteResult(w, http.StatusOK, "ticket assigned", map[string]interface{}{
		"ticket_id":     t.DisplayID,
		"assignee_id":   t.AssigneeID,
		"assignee_name": t.AssigneeName,
	})
}

func (h *Handler) AddComment(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actorFromRequest(w, r)
	if !ok {
		return
	}
	id, ok := h.ticketID(w, r)
	if !ok {
		return
	}

	var dto CommentDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	comment, err := h.Service.AddComment(r.Context(), actor, id, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteResult(w, http.StatusCreated, "comment added", map[string]interface{}{
		"comment_id": comment.ID,
	})
}

func (h *Handler) GetTicket(w http.ResponseWriter, r *http.Request) {
	id, ok := h.ticketID(w, r)
	if !ok {
		return
	}

	t, err := h.Service.GetByID(r.Context(), id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, t)
}

func (h *Handler) ListTickets(w http.ResponseWriter, r *http.Request) {
	filter := ListFilter{
		Status:   r.URL.Query().Get("status"),
		Priority: r.URL.Query().Get("priority"),
		Limit:    20,
	}
	if s := r.URL.Query().Get("assignee_id"); s != "" {
		if id, err := strconv.ParseInt(s, 10, 64); err == nil {
			filter.AssigneeID = &id
		}
	}
	if s := r.URL.Query().Get("reporter_id"); s != "" {
		if id, err := strconv.ParseInt(s, 10, 64); err == nil {
			filter.ReporterID = &id
		}
	}
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 100 {
			filter.Limit = l
		}
	}
	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			filter.Offset = o
		}
	}

	tickets, total, err := h.Service.List(r.Context(), filter)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"tickets": tickets,
		"total":   total,
		"limit":   filter.Limit,
		"offset":  filter.Offset,
	})
}
