package complaint

import (
	"context"
	"net/http"

	"github.com/frahmantamala/complaint-management/internal/core/identity"
	"github.com/frahmantamala/complaint-management/internal/transport"
)

type ServiceAPI interface {
	Create(ctx context.Context, p identity.Principal, dto CreateComplaintDTO) (*Complaint, error)
	List(ctx context.Context, p identity.Principal, q ListQuery) (*Page, error)
	DepartmentList(ctx context.Context, p identity.Principal, q ListQuery) (*Page, error)
	Get(ctx context.Context, p identity.Principal, id int64) (*Complaint, error)
	UpdateStatus(ctx context.Context, p identity.Principal, id int64, dto UpdateStatusDTO) (*Complaint, error)
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

// CreateComplaint handles POST /complaints
func (h *Handler) CreateComplaint(w http.ResponseWriter, r *http.Request) {
	p, ok := h.Principal(w, r)
	if !ok {
		return
	}
	var dto CreateComplaintDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}
	c, err := h.Service.Create(r.Context(), p, dto)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteSuccess(w, http.StatusCreated, c)
}

// ListComplaints handles GET /complaints
func (h *Handler) ListComplaints(w http.ResponseWriter, r *http.Request) {
	p, ok := h.Principal(w, r)
	if !ok {
		return
	}
	page, err := h.Service.List(r.Context(), p, listQuery(r))
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteSuccess(w, http.StatusOK, page)
}

// ListDepartmentComplaints handles GET /subadmin/complaints
func (h *Handler) ListDepartmentComplaints(w http.ResponseWriter, r *http.Request) {
	p, ok := h.Principal(w, r)
	if !ok {
		return
	}
	page, err := h.Service.DepartmentList(r.Context(), p, listQuery(r))
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteSuccess(w, http.StatusOK, page)
}

// GetComplaint handles GET /complaints/{id}
func (h *Handler) GetComplaint(w http.ResponseWriter, r *http.Request) {
	p, ok := h.Principal(w, r)
	if !ok {
		return
	}
	id, ok := h.PathID(w, r, "id")
	if !ok {
		return
	}
	c, err := h.Service.Get(r.Context(), p, id)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteSuccess(w, http.StatusOK, c)
}

// UpdateComplaintStatus handles PUT /complaints/{id}
func (h *Handler) UpdateComplaintStatus(w http.ResponseWriter, r *http.Request) {
	p, ok := h.Principal(w, r)
	if !ok {
		return
	}
	id, ok := h.PathID(w, r, "id")
	if !ok {
		return
	}
	var dto UpdateStatusDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}
	c, err := h.Service.UpdateStatus(r.Context(), p, id, dto)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteSuccess(w, http.StatusOK, c)
}

func listQuery(r *http.Request) ListQuery {
	limit, offset := transport.Pagination(r)
	return ListQuery{
		Status:   r.URL.Query().Get("status"),
		Severity: r.URL.Query().Get("severity"),
		DeptID:   transport.QueryInt64(r, "dept_id"),
		Limit:    limit,
		Offset:   offset,
	}
}
