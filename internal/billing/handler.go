package billing

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/stewardbooks/stewardbooks/internal/auth"
	"github.com/stewardbooks/stewardbooks/internal/platform/httpx"
)

// Handler exposes plan and subscription endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountPlanRoutes registers the public plan catalogue.
func (h *Handler) MountPlanRoutes(r chi.Router) {
	r.Get("/", h.ListPlans)
}

// MountRoutes registers subscription routes under /orgs/{orgID}/subscription.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.Current)
	r.Post("/", h.Subscribe)
	r.Delete("/", h.Cancel)
	r.Post("/events", h.GatewayEvent)
}

func (h *Handler) ListPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := h.service.ListPlans(r.Context())
	if err != nil {
		h.respondErr(w, err)
		return
	}
	views := make([]PlanView, 0, len(plans))
	for _, p := range plans {
		views = append(views, NewPlanView(p))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"plans": views})
}

func (h *Handler) Current(w http.ResponseWriter, r *http.Request) {
	orgID, actorID, ok := h.scope(w, r)
	if !ok {
		return
	}
	sub, err := h.service.Current(r.Context(), orgID, actorID)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, NewSubscriptionView(sub))
}

func (h *Handler) Subscribe(w http.ResponseWriter, r *http.Request) {
	orgID, actorID, ok := h.scope(w, r)
	if !ok {
		return
	}
	var req SubscribeRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	sub, err := h.service.Subscribe(r.Context(), orgID, actorID, req)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, NewSubscriptionView(sub))
}

func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	orgID, actorID, ok := h.scope(w, r)
	if !ok {
		return
	}
	if err := h.service.Cancel(r.Context(), orgID, actorID); err != nil {
		h.respondErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) GatewayEvent(w http.ResponseWriter, r *http.Request) {
	orgID, err := uuid.Parse(chi.URLParam(r, "orgID"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid organization id")
		return
	}
	var event GatewayEvent
	if err := httpx.DecodeJSON(r, &event); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed request body")
		return
	}
	if err := h.validator.Struct(event); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	if err := h.service.RecordGatewayEvent(r.Context(), orgID, event); err != nil {
		h.respondErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) scope(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	orgID, err := uuid.Parse(chi.URLParam(r, "orgID"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid organization id")
		return uuid.Nil, uuid.Nil, false
	}
	actorID, ok := auth.CurrentUserID(r)
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "login required")
		return uuid.Nil, uuid.Nil, false
	}
	return orgID, actorID, true
}

func (h *Handler) respondErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrPlanNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "plan not found")
	case errors.Is(err, ErrNoSubscription):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "no subscription")
	case errors.Is(err, ErrAlreadySubscribed):
		httpx.Problem(w, http.StatusConflict, "Conflict", "organization already subscribed")
	case errors.Is(err, ErrChargeDeclined):
		httpx.Problem(w, http.StatusPaymentRequired, "Payment Required", "charge declined")
	default:
		httpx.RespondError(w, err)
	}
}
