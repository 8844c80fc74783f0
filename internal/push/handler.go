package push

import (
	"context"
	"net/http"

	"github.com/frahmantamala/complaint-management/internal/core/identity"
	"github.com/frahmantamala/complaint-management/internal/transport"
)

type ServiceAPI interface {
	PublicKey() string
	Subscribe(ctx context.Context, p identity.Principal, dto SubscribeDTO) (*Subscription, error)
	Unsubscribe(ctx context.Context, p identity.Principal, dto UnsubscribeDTO) error
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

// VAPIDPublicKey handles GET /push/vapid-public-key
func (h *Handler) VAPIDPublicKey(w http.ResponseWriter, r *http.Request) {
	key := h.Service.PublicKey()
	if key == "" {
		h.WriteError(w, http.StatusServiceUnavailable, "Push notifications are not configured")
		return
	}
	h.WriteSuccess(w, http.StatusOK, map[string]string{"public_key": key})
}

// Subscribe handles POST /push/subscribe
func (h *Handler) Subscribe(w http.ResponseWriter, r *http.Request) {
	p, ok := h.Principal(w, r)
	if !ok {
		return
	}
	var dto SubscribeDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}
	sub, err := h.Service.Subscribe(r.Context(), p, dto)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteSuccess(w, http.StatusCreated, sub)
}

// Unsubscribe handles POST /push/unsubscribe
func (h *Handler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	p, ok := h.Principal(w, r)
	if !ok {
		return
	}
	var dto UnsubscribeDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}
	if err := h.Service.Unsubscribe(r.Context(), p, dto); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteSuccess(w, http.StatusOK, map[string]string{"message": "Unsubscribed"})
}
