package task

import (
	"context"
	"net/http"

	"github.com/frahmantamala/complaint-management/internal/core/identity"
	"github.com/frahmantamala/complaint-management/internal/transport"
)

type ServiceAPI interface {
	AddTask(ctx context.Context, p identity.Principal, dto CreateTaskDTO) (*Task, error)
	UpdateTask(ctx context.Context, p identity.Principal, taskID int64, dto UpdateTaskDTO) (*Task, error)
	CompleteTask(ctx context.Context, p identity.Principal, taskID int64) (*Task, error)
	ListMine(ctx context.Context, p identity.Principal, q ListQuery) (*Page, error)
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

// CreateTask handles POST /subadmin/tasks
func (h *Handler) CreateTask(w http.ResponseWriter, r *http.Request) {
	p, ok := h.Principal(w, r)
	if !ok {
		return
	}
	var dto CreateTaskDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}
	t, err := h.Service.AddTask(r.Context(), p, dto)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteSuccess(w, http.StatusCreated, t)
}

// UpdateTask handles PUT /subadmin/tasks/{id}
func (h *Handler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	p, ok := h.Principal(w, r)
	if !ok {
		return
	}
	id, ok := h.PathID(w, r, "id")
	if !ok {
		return
	}
	var dto UpdateTaskDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}
	t, err := h.Service.UpdateTask(r.Context(), p, id, dto)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteSuccess(w, http.StatusOK, t)
}

// CompleteTask handles PUT /subadmin/tasks/{id}/complete
func (h *Handler) CompleteTask(w http.ResponseWriter, r *http.Request) {
	p, ok := h.Principal(w, r)
	if !ok {
		return
	}
	id, ok := h.PathID(w, r, "id")
	if !ok {
		return
	}
	t, err := h.Service.CompleteTask(r.Context(), p, id)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteSuccess(w, http.StatusOK, t)
}

// ListTasks handles GET /subadmin/tasks
func (h *Handler) ListTasks(w http.ResponseWriter, r *http.Request) {
	p, ok := h.Principal(w, r)
	if !ok {
		return
	}
	limit, offset := transport.Pagination(r)
	page, err := h.Service.ListMine(r.Context(), p, ListQuery{
		Status: r.URL.Query().Get("status"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteSuccess(w, http.StatusOK, page)
}
