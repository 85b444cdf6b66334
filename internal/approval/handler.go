package approval

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
	Create(ctx context.Context, actor Actor, dto CreateRequestDTO) (*Request, error)
	Approve(ctx context.Context, actor Actor, id int64, dto ApproveDTO) (*Request, error)
	Reject(ctx context.Context, actor Actor, id int64, dto CommentDTO) (*Request, error)
	RequestInfo(ctx context.Context, actor Actor, id int64, dto CommentDTO) (*Request, error)
	AddAttachment(ctx context.Context, actor Actor, id int64, dto AttachmentDTO) (*Attachment, error)
	GetByID(ctx context.Context, id int64) (*Request, error)
	List(ctx context.Context, filter ListFilter) ([]*Request, int64, error)
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

func (h *Handler) requestID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	idStr := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid approval request ID")
		return 0, false
	}
	return id, true
}

func (h *Handler) CreateRequest(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actorFromRequest(w, r)
	if !ok {
		return
	}

	var dto CreateRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req, err := h.Service.Create(r.Context(), actor, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteResult(w, http.StatusCreated, "approval request created", map[string]interface{}{
		"approval_id": req.DisplayID,
		"request":     req,
	})
}

func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actorFromRequest(w, r)
	if !ok {
		return
	}
	id, ok := h.requestID(w, r)
	if !ok {
		return
	}

	var dto ApproveDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req, err := h.Service.Approve(r.Context(), actor, id, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteResult(w, http.StatusOK, "approval request approved", map[string]interface{}{
		"approval_id": req.DisplayID,
		"status":      req.Status,
	})
}

func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	h.decideWithComment(w, r, h.Service.Reject, "approval request rejected")
}

func (h *Handler) RequestInfo(w http.ResponseWriter, r *http.Request) {
	h.decideWithComment(w, r, h.Service.RequestInfo, "additional information requested")
}

func (h *Handler) decideWithComment(
	w http.ResponseWriter,
	r *http.Request,
	decide func(context.Context, Actor, int64, CommentDTO) (*Request, error),
	message string,
) {
	actor, ok := h.actorFromRequest(w, r)
	if !ok {
		return
	}
	id, ok := h.requestID(w, r)
	if !ok {
		return
	}

	var dto CommentDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req, err := decide(r.Context(), actor, id, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteResult(w, http.StatusOK, message, map[string]interface{}{
		"approval_id": req.DisplayID,
		"status":      req.Status,
	})
}

func (h *Handler) AddAttachment(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actorFromRequest(w, r)
	if !ok {
		return
	}
	id, ok := h.requestID(w, r)
	if !ok {
		return
	}

	var dto AttachmentDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	attachment, err := h.Service.AddAttachment(r.Context(), actor, id, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteResult(w, http.StatusCreated, "attachment recorded", map[string]interface{}{
		"attachment_id": attachment.ID,
		"storage_key":   attachment.StorageKey,
	})
}

func (h *Handler) GetRequest(w http.ResponseWriter, r *http.Request) {
	id, ok := h.requestID(w, r)
	if !ok {
		return
	}

	req, err := h.Service.GetByID(r.Context(), id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, req)
}

func (h *Handler) ListRequests(w http.ResponseWriter, r *http.Request) {
	filter := ListFilter{
		Status: r.URL.Query().Get("status"),
		Type:   r.URL.Query().Get("type"),
		Limit:  20,
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

	requests, total, err := h.Service.List(r.Context(), filter)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"requests": requests,
		"total":    total,
		"limit":    filter.Limit,
		"offset":   filter.Offset,
	})
}
