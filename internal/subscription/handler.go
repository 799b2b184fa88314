// AngelaMos | 2026
// handler.go

package subscription

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dateu/dateu-backend/internal/core"
	"github.com/dateu/dateu-backend/internal/middleware"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.Route("/subscriptions", func(r chi.Router) {
		r.Use(authenticator)

		r.Get("/me", h.GetMine)
	})
}

func (h *Handler) RegisterAdminRoutes(
	r chi.Router,
	authenticator, adminOnly func(http.Handler) http.Handler,
) {
	r.Route("/admin/subscriptions", func(r chi.Router) {
		r.Use(authenticator)
		r.Use(adminOnly)

		r.Post("/{userID}/repair", h.Repair)
	})
}

func (h *Handler) GetMine(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		core.Unauthorized(w, "authentication required")
		return
	}

	subs, err := h.service.GetMine(r.Context(), userID)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	responses := make([]SubscriptionResponse, 0, len(subs))
	for i := range subs {
		responses = append(responses, ToSubscriptionResponse(&subs[i]))
	}
	core.OK(w, responses)
}

func (h *Handler) Repair(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if userID == "" {
		core.BadRequest(w, "user id is required")
		return
	}

	result, err := h.service.Repair(r.Context(), userID)
	if err != nil {
		core.JSONError(w, err)
		return
	}
	core.OK(w, result)
}
