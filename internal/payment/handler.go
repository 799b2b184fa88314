// AngelaMos | 2026
// handler.go

package payment

import (
	"encoding/json"
	"net/http"
	"strconv"

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
	limiter func(http.Handler) http.Handler,
) {
	r.Route("/payments", func(r chi.Router) {
		r.Use(authenticator)
		if limiter != nil {
			r.Use(limiter)
		}

		r.Post("/order", h.CreateOrder)
		r.Post("/verify", h.Verify)
		r.Get("/", h.ListMine)
	})
}

func (h *Handler) RegisterAdminRoutes(
	r chi.Router,
	authenticator, adminOnly func(http.Handler) http.Handler,
) {
	r.Route("/admin/payments", func(r chi.Router) {
		r.Use(authenticator)
		r.Use(adminOnly)

		r.Get("/", h.AdminList)
		r.Get("/{paymentID}", h.AdminGet)
		r.Post("/{paymentID}/approve", h.AdminApprove)
		r.Post("/{paymentID}/reject", h.AdminReject)
	})
}

func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		core.Unauthorized(w, "authentication required")
		return
	}

	var req CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	order, err := h.service.CreateOrder(r.Context(), userID, req)
	if err != nil {
		core.JSONError(w, err)
		return
	}
	core.Created(w, order)
}

func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		core.Unauthorized(w, "authentication required")
		return
	}

	var req VerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	result, err := h.service.VerifyPayment(r.Context(), userID, req)
	if err != nil {
		core.JSONError(w, err)
		return
	}
	core.OK(w, result)
}

func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		core.Unauthorized(w, "authentication required")
		return
	}

	payments, err := h.service.ListMine(r.Context(), userID)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	responses := make([]PaymentResponse, 0, len(payments))
	for i := range payments {
		responses = append(responses, ToPaymentResponse(&payments[i]))
	}
	core.OK(w, responses)
}

func (h *Handler) AdminList(w http.ResponseWriter, r *http.Request) {
	params := ListPaymentsParams{
		Status: r.URL.Query().Get("status"),
		UserID: r.URL.Query().Get("userId"),
		Page:   parseIntQuery(r, "page", 1),
		Limit:  parseIntQuery(r, "limit", 20),
	}

	payments, total, err := h.service.ListPayments(r.Context(), params)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	responses := make([]PaymentResponse, 0, len(payments))
	for i := range payments {
		responses = append(responses, ToPaymentResponse(&payments[i]))
	}
	core.Paginated(w, responses, params.Page, params.Limit, total)
}

func (h *Handler) AdminGet(w http.ResponseWriter, r *http.Request) {
	payment, err := h.service.GetPayment(r.Context(), chi.URLParam(r, "paymentID"))
	if err != nil {
		core.JSONError(w, err)
		return
	}
	core.OK(w, ToPaymentResponse(payment))
}

func (h *Handler) AdminApprove(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.AdminApprove(r.Context(), chi.URLParam(r, "paymentID"))
	if err != nil {
		core.JSONError(w, err)
		return
	}
	core.OK(w, result)
}

func (h *Handler) AdminReject(w http.ResponseWriter, r *http.Request) {
	if err := h.service.AdminReject(r.Context(), chi.URLParam(r, "paymentID")); err != nil {
		core.JSONError(w, err)
		return
	}
	core.OK(w, map[string]string{"status": StatusRejected})
}

func parseIntQuery(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		return fallback
	}
	return v
}
