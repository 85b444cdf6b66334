package inventory

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
	Create(ctx context.Context, actor Actor, dto CreateItemDTO) (*Item, error)
	Update(ctx context.Context, actor Actor, id int64, dto UpdateItemDTO) (*Item, error)
	Assign(ctx context.Context, actor Actor, id int64, dto AssignDTO) (*Item, error)
	Delete(ctx context.Context, actor Actor, id int64) error
	GetByID(ctx context.Context, id int64) (*Item, error)
	List(ctx context.Context, filter ListFilter) ([]*Item, int64, error)
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

func (h *Handler) itemID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	idStr := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid item ID")
		return 0, false
	}
	return id, true
}

func (h *Handler) CreateItem(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actorFromRequest(w, r)
	if !ok {
		return
	}

	var dto CreateItemDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := h.Service.Create(r.Context(), actor, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteResult(w, http.StatusCreated, "inventory item created", map[string]interface{}{
		"item_id": item.DisplayID,
		"item":    item,
	})
}

func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actorFromRequest(w, r)
	if !ok {
		return
	}
	id, ok := h.itemID(w, r)
	if !ok {
		return
	}

	var dto UpdateItemDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := h.Service.Update(r.Context(), actor, id, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteResult(w, http.StatusOK, "inventory item updated", map[string]interface{}{
		"item_id": item.DisplayID,
		"item":    item,
	})
}

func (h *Handler) AssignItem(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actorFromRequest(w, r)
	if !ok {
		return
	}
	id, ok := h.itemID(w, r)
	if !ok {
		return
	}

	var dto AssignDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := h.Service.Assign(r.Context(), actor, id, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteResult(w, http.StatusOK, "inventory item assigned", map[string]interface{}{
		"item_id":          item.DisplayID,
		"assigned_to_id":   item.AssignedToID,
		"assigned_to_name": item.AssignedToName,
	})
}

func (h *Handler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actorFromRequest(w, r)
	if !ok {
		return
	}
	id, ok := h.itemID(w, r)
	if !ok {
		return
	}

	if err := h.Service.Delete(r.Context(), actor, id); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteResult(w, http.StatusOK, "inventory item deleted", nil)
}

func (h *Handler) GetItem(w http.ResponseWriter, r *http.Request) {
	id, ok := h.itemID(w, r)
	if !ok {
		return
	}

	item, err := h.Service.GetByID(r.Context(), id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, item)
}

func (h *Handler) ListItems(w http.ResponseWriter, r *http.Request) {
	filter := ListFilter{
		Status:   r.URL.Query().Get("status"),
		Category: r.URL.Query().Get("category"),
		Limit:    20,
	}
	if s := r.URL.Query().Get("assigned_to_id"); s != "" {
		if id, err := strconv.ParseInt(s, 10, 64); err == nil {
			filter.AssignedToID = &id
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

	items, total, err := h.Service.List(r.Context(), filter)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"items":  items,
		"total":  total,
		"limit":  filter.Limit,
		"offset": filter.Offset,
	})
}
