// AngelaMos | 2026
// handler.go

package match

import (
	"encoding/json"
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
	r.Route("/rounds/{roundID}/likes", func(r chi.Router) {
		r.Use(authenticator)

		r.Post("/", h.CreateLike)
		r.Get("/received", h.LikesReceived)
	})

	r.Route("/matches", func(r chi.Router) {
		r.Use(authenticator)

		r.Post("/confirm", h.Confirm)
		r.Get("/", h.MyMatches)
	})
}

func (h *Handler) RegisterAdminRoutes(
	r chi.Router,
	authenticator, adminOnly func(http.Handler) http.Handler,
) {
	r.Route("/admin/matches", func(r chi.Router) {
		r.Use(authenticator)
		r.Use(adminOnly)

		r.Post("/promote", h.Promote)
	})
}

func (h *Handler) CreateLike(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		core.Unauthorized(w, "authentication required")
		return
	}

	var req CreateLikeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	like, err := h.service.CreateLike(r.Context(), userID, chi.URLParam(r, "roundID"), req.TargetUID)
	if err != nil {
		core.JSONError(w, err)
		return
	}
	core.Created(w, ToLikeResponse(like))
}

func (h *Handler) LikesReceived(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		core.Unauthorized(w, "authentication required")
		return
	}

	likes, err := h.service.LikesReceived(r.Context(), chi.URLParam(r, "roundID"), userID)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	responses := make([]LikeResponse, 0, len(likes))
	for i := range likes {
		responses = append(responses, ToLikeResponse(&likes[i]))
	}
	core.OK(w, responses)
}

func (h *Handler) Confirm(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		core.Unauthorized(w, "authentication required")
		return
	}

	var req ConfirmMatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	result, err := h.service.ConfirmMatch(r.Context(), userID, req)
	if err != nil {
		core.JSONError(w, err)
		return
	}
	core.OK(w, result)
}

func (h *Handler) MyMatches(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		core.Unauthorized(w, "authentication required")
		return
	}

	matches, err := h.service.MyMatches(r.Context(), userID, r.URL.Query().Get("roundId"))
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	responses := make([]MatchResponse, 0, len(matches))
	for i := range matches {
		responses = append(responses, ToMatchResponse(&matches[i]))
	}
	core.OK(w, responses)
}

func (h *Handler) Promote(w http.ResponseWriter, r *http.Request) {
	var req PromoteMatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	result, err := h.service.Promote(r.Context(), req)
	if err != nil {
		core.JSONError(w, err)
		return
	}
	core.OK(w, result)
}
