// AngelaMos | 2026
// handler.go

package plan

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/dateu/dateu-backend/internal/core"
)

type Handler struct {
	service   *Service
	validator *validator.Validate
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.Route("/plans", func(r chi.Router) {
		r.Use(authenticator)

		r.Get("/", h.ListActivePlans)
	})
}

func (h *Handler) RegisterAdminRoutes(
	r chi.Router,
	authenticator, adminOnly func(http.Handler) http.Handler,
) {
	r.Route("/admin/plans", func(r chi.Router) {
		r.Use(authenticator)
		r.Use(adminOnly)

		r.Get("/", h.ListAllPlans)
		r.Post("/", h.CreatePlan)
		r.Get("/{planID}", h.GetPlan)
		r.Put("/{planID}", h.UpdatePlan)
	})
}

func (h *Handler) ListActivePlans(w http.ResponseWriter, r *http.Request) {
	plans, err := h.service.ListPlans(r.Context(), true)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, ToPlanResponseList(plans))
}

func (h *Handler) ListAllPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := h.service.ListPlans(r.Context(), false)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, ToPlanResponseList(plans))
}

func (h *Handler) CreatePlan(w http.ResponseWriter, r *http.Request) {
	var req CreatePlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	plan, err := h.service.CreatePlan(r.Context(), req)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.Created(w, ToPlanResponse(plan))
}

func (h *Handler) GetPlan(w http.ResponseWriter, r *http.Request) {
	planID := chi.URLParam(r, "planID")

	plan, err := h.service.GetPlan(r.Context(), planID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "plan")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, ToPlanResponse(plan))
}

func (h *Handler) UpdatePlan(w http.ResponseWriter, r *http.Request) {
	planID := chi.URLParam(r, "planID")

	var req UpdatePlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	plan, err := h.service.UpdatePlan(r.Context(), planID, req)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "plan")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, ToPlanResponse(plan))
}
