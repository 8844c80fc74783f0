package activitylog

import (
	"context"
	"net/http"

	"github.com/frahmantamala/complaint-management/internal/core/identity"
	"github.com/frahmantamala/complaint-management/internal/transport"
)

type ServiceAPI interface {
	List(ctx context.Context, p identity.Principal, filter ListFilter) (*Page, error)
	Analytics(ctx context.Context, p identity.Principal) (*Analytics, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, svc ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     svc,
	}
}

// ListLogs handles GET /admin/logs
func (h *Handler) ListLogs(w http.ResponseWriter, r *http.Request) {
	p, ok := h.Principal(w, r)
	if !ok {
		return
	}
	limit, offset := transport.Pagination(r)
	page, err := h.Service.List(r.Context(), p, ListFilter{
		Module: r.URL.Query().Get("module"),
		EmpID:  transport.QueryInt64(r, "emp_id"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteSuccess(w, http.StatusOK, page)
}

// GetAnalytics handles GET /admin/analytics
func (h *Handler) GetAnalytics(w http.ResponseWriter, r *http.Request) {
	p, ok := h.Principal(w, r)
	if !ok {
		return
	}
	a, err := h.Service.Analytics(r.Context(), p)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteSuccess(w, http.StatusOK, a)
}
