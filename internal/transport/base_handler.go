package transport

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/frahmantamala/complaint-management/internal"
	"github.com/frahmantamala/complaint-management/internal/core/identity"
	"github.com/frahmantamala/complaint-management/pkg/logger"
	"github.com/go-chi/chi"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Envelope is the shape of every JSON response body.
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   interface{} `json:"error,omitempty"`
}

// BaseHandler provides common functionality for HTTP handlers
type BaseHandler struct {
	Logger *slog.Logger
}

// NewBaseHandler creates a base handler with logger
func NewBaseHandler(lg *slog.Logger) *BaseHandler {
	if lg == nil {
		lg = logger.LoggerWrapper()
		if lg == nil {
			lg = slog.Default()
		}
	}
	return &BaseHandler{Logger: lg}
}

// WriteJSON writes data as-is, without the envelope.
func (h *BaseHandler) WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.Logger.Error("failed to encode JSON response", "error", err)
	}
}

func (h *BaseHandler) WriteSuccess(w http.ResponseWriter, status int, data interface{}) {
	h.WriteJSON(w, status, Envelope{Success: true, Data: data})
}

// WriteError writes an error envelope with a single message.
func (h *BaseHandler) WriteError(w http.ResponseWriter, status int, message string) {
	h.WriteJSON(w, status, Envelope{Success: false, Error: message})
}

func (h *BaseHandler) writeErrors(w http.ResponseWriter, status int, messages []string) {
	h.WriteJSON(w, status, Envelope{Success: false, Error: messages})
}

// HandleServiceError renders err. Application errors keep their status and
// message; anything else is logged and reported as a generic 500.
func (h *BaseHandler) HandleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *internal.AppError
	if !errors.As(err, &appErr) {
		h.log(r).Error("unhandled service error", "error", err)
		h.WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	if appErr.StatusCode >= http.StatusInternalServerError {
		h.log(r).Error("internal error", "error", appErr, "code", appErr.Code)
		h.WriteError(w, appErr.StatusCode, "Internal server error")
		return
	}

	if msgs := appErr.Messages(); len(msgs) > 0 {
		h.writeErrors(w, appErr.StatusCode, msgs)
		return
	}

	h.log(r).Debug("request rejected", "status", appErr.StatusCode, "code", appErr.Code)
	h.WriteError(w, appErr.StatusCode, appErr.Message)
}

// DecodeJSON reads the request body into dst, writing a 400 on failure.
func (h *BaseHandler) DecodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// Principal reads the authenticated caller, writing a 401 when absent.
func (h *BaseHandler) Principal(w http.ResponseWriter, r *http.Request) (p identity.Principal, ok bool) {
	p, ok = internal.PrincipalFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, internal.ErrMissingToken.Message)
	}
	return p, ok
}

// PathID parses a positive integer URL parameter, writing a 400 on failure.
func (h *BaseHandler) PathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		h.WriteError(w, http.StatusBadRequest, "Invalid "+name)
		return 0, false
	}
	return id, true
}

// QueryInt64 returns the integer query parameter, or zero when absent or malformed.
func QueryInt64(r *http.Request, name string) int64 {
	v, err := strconv.ParseInt(r.URL.Query().Get(name), 10, 64)
	if err != nil {
		return 0
	}
	return v
}

// Pagination reads limit and offset, clamping limit to [1, 100].
func Pagination(r *http.Request) (limit, offset int) {
	limit = int(QueryInt64(r, "limit"))
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	offset = int(QueryInt64(r, "offset"))
	if offset < 0 {
		offset = 0
	}
	return limit, offset
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

func (h *BaseHandler) log(r *http.Request) *slog.Logger {
	if r == nil {
		return h.Logger
	}
	if lg, ok := logger.Lookup(r.Context()); ok {
		return lg
	}
	return h.Logger
}
