package maintenance

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
	Create(ctx context.Context, actor Actor, dto CreateCaseDTO) (*Case, error)
	UpdateStatus(ctx context.Context, actor Actor, id int64, dto UpdateStatusDTO) (*Case, error)
	GetByID(ctx context.Context, id int64) (*Case, error)
	List(ctx context.Context, filter ListFilter) ([]*Case, int64, error)
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

func (h *Handler) caseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	idStr := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid case ID")
		return 0, false
	}
	return id, true
}

func (h *Handler) CreateCase(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actorFromRequest(w, r)
	if !ok {
		return
	}

	var dto CreateCaseDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	c, err := h.Service.Create(r.Context(), actor, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteResult(w, http.StatusCreated, "maintenance case created", map[string]interface{}{
		"case_id": c.DisplayID,
		"case":    c,
	})
}

func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actorFromRequest(w, r)
	if !ok {
		return
	}
	id, ok := h.caseID(w, r)
	if !ok {
		return
	}

	var dto UpdateStatusDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	c, err := h.Service.UpdateStatus(r.Context(), actor, id, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteResult(w, http.StatusOK, "maintenance case updated", map[string]interface{}{
		"case_id": c.DisplayID,
		"status":  c.Status,
	})
}

func (h *Handler) GetCase(w http.ResponseWriter, r *http.Request) {
	id, ok := h.caseID(w, r)
	if !ok {
		return
	}

	c, err := h.Service.GetByID(r.Context(), id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, c)
}

func (h *Handler) ListCases(w http.ResponseWriter, r *http.Request) {
	filter := ListFilter{
		Status: r.URL.Query().Get("status"),
		Limit:  20,
	}
	if s := r.URL.Query().Get("item_id"); s != "" {
		if id, err := strconv.ParseInt(s, 10, 64); err == nil {
			filter.ItemID = &id
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

	cases, total, err := h.Service.List(r.Context(), filter)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"cases":  cases,
		"total":  total,
		"limit":  filter.Limit,
		"offset": filter.Offset,
	})
}
