// AngelaMos | 2026
// handler.go

package round

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/dateu/dateu-backend/internal/core"
	"github.com/dateu/dateu-backend/internal/middleware"
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
	r.Route("/rounds", func(r chi.Router) {
		r.Use(authenticator)

		r.Get("/active", h.GetActiveRound)
		r.Post("/{roundID}/join", h.JoinRound)
	})
}

func (h *Handler) RegisterAdminRoutes(
	r chi.Router,
	authenticator, adminOnly func(http.Handler) http.Handler,
) {
	r.Route("/admin/rounds", func(r chi.Router) {
		r.Use(authenticator)
		r.Use(adminOnly)

		r.Get("/", h.ListRounds)
		r.Post("/", h.CreateRound)
		r.Get("/{roundID}", h.GetRoundDetail)
		r.Post("/{roundID}/activate", h.ActivateRound)
		r.Post("/{roundID}/deactivate", h.DeactivateRound)
	})
}

func (h *Handler) GetActiveRound(w http.ResponseWriter, r *http.Request) {
	round, err := h.service.ActiveRound(r.Context())
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	if round == nil {
		core.NotFound(w, "active round")
		return
	}

	core.OK(w, ToRoundResponse(round))
}

func (h *Handler) JoinRound(w http.ResponseWriter, r *http.Request) {
	roundID := chi.URLParam(r, "roundID")
	userID := middleware.GetUserID(r.Context())

	if err := h.service.JoinRound(r.Context(), roundID, userID); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "round")
			return
		}
		if errors.Is(err, core.ErrFailedPrecondition) {
			core.FailedPrecondition(w, err.Error())
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, map[string]bool{"ok": true})
}

func (h *Handler) ListRounds(w http.ResponseWriter, r *http.Request) {
	rounds, err := h.service.ListRounds(r.Context())
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, ToRoundResponseList(rounds))
}

func (h *Handler) CreateRound(w http.ResponseWriter, r *http.Request) {
	var req CreateRoundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	round, err := h.service.CreateRound(r.Context(), req)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.Created(w, ToRoundResponse(round))
}

func (h *Handler) GetRoundDetail(w http.ResponseWriter, r *http.Request) {
	roundID := chi.URLParam(r, "roundID")

	detail, err := h.service.GetRoundDetail(r.Context(), roundID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "round")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, detail)
}

func (h *Handler) ActivateRound(w http.ResponseWriter, r *http.Request) {
	roundID := chi.URLParam(r, "roundID")

	if err := h.service.ActivateRound(r.Context(), roundID); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "round")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, map[string]bool{"ok": true})
}

func (h *Handler) DeactivateRound(w http.ResponseWriter, r *http.Request) {
	roundID := chi.URLParam(r, "roundID")

	if err := h.service.DeactivateRound(r.Context(), roundID); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "round")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, map[string]bool{"ok": true})
}
