package transport

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/Akechi360/clinic-ops/internal"
	"github.com/Akechi360/clinic-ops/pkg/logger"
)

// BaseHandler provides common functionality for HTTP handlers
type BaseHandler struct {
	Logger *slog.Logger
}

func NewBaseHandler(lg *slog.Logger) *BaseHandler {
	if lg == nil {
		lg = logger.LoggerWrapper()
	}
	return &BaseHandler{Logger: lg}
}

// WriteJSON writes a JSON response
func (h *BaseHandler) WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.Logger.Error("failed to encode JSON response", "error", err)
	}
}

// WriteResult writes the discriminated success envelope every mutating
// action returns: {success, message, <entity>_id...}.
func (h *BaseHandler) WriteResult(w http.ResponseWriter, status int, message string, extra map[string]interface{}) {
	body := map[string]interface{}{
		"success": true,
		"message": message,
	}
	for k, v := range extra {
		body[k] = v
	}
	h.WriteJSON(w, status, body)
}

// WriteError writes a failure envelope with a plain message.
func (h *BaseHandler) WriteError(w http.ResponseWriter, status int, message string) {
	h.WriteJSON(w, status, map[string]interface{}{
		"success": false,
		"message": message,
	})
}

// HandleServiceError maps a service error onto the failure envelope. AppError
// carries its own status and optional per-field validation details; anything
// else becomes a generic server error.
func (h *BaseHandler) HandleServiceError(w http.ResponseWriter, err error) {
	if appErr, ok := internal.IsAppError(err); ok {
		body := map[string]interface{}{
			"success": false,
			"message": appErr.Message,
		}
		if fieldErrors := appErr.FieldErrorMap(); fieldErrors != nil {
			body["errors"] = fieldErrors
		}
		h.WriteJSON(w, appErr.StatusCode, body)
		return
	}

	h.Logger.Error("unhandled service error", "error", err)
	h.WriteError(w, http.StatusInternalServerError, "internal server error")
}

// ExtractTokenFromHeader extracts Bearer token from Authorization header
func (h *BaseHandler) ExtractTokenFromHeader(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	if len(authHeader) < 7 || authHeader[:7] != "Bearer " {
		return ""
	}

	return authHeader[7:]
}
