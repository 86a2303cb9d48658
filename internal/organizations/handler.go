package organizations

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

// Handler exposes organization endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers organization routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{orgID}", h.Get)
	r.Patch("/{orgID}", h.Update)
	r.Delete("/{orgID}", h.Deactivate)
	r.Get("/{orgID}/summary", h.Summary)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.CurrentUserID(r)
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "login required")
		return
	}
	list, err := h.service.ListForUser(r.Context(), userID)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	views := make([]View, 0, len(list))
	for _, o := range list {
		views = append(views, NewView(o))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"organizations": views})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.CurrentUserID(r)
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "login required")
		return
	}
	var req CreateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	created, err := h.service.Create(r.Context(), userID, req)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, NewView(created))
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	orgID, actorID, ok := h.scope(w, r)
	if !ok {
		return
	}
	org, err := h.service.Get(r.Context(), orgID, actorID)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, NewView(org))
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	orgID, actorID, ok := h.scope(w, r)
	if !ok {
		return
	}
	var req UpdateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	updated, err := h.service.Update(r.Context(), orgID, actorID, req)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, NewView(updated))
}

func (h *Handler) Deactivate(w http.ResponseWriter, r *http.Request) {
	orgID, actorID, ok := h.scope(w, r)
	if !ok {
		return
	}
	if err := h.service.Deactivate(r.Context(), orgID, actorID); err != nil {
		h.respondErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	orgID, actorID, ok := h.scope(w, r)
	if !ok {
		return
	}
	summary, err := h.service.Summary(r.Context(), orgID, actorID)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
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
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "organization not found")
	case errors.Is(err, ErrDuplicateSlug):
		httpx.Problem(w, http.StatusConflict, "Conflict", "slug already in use")
	case errors.Is(err, ErrInvalidCurrency):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "unknown currency code")
	default:
		httpx.RespondError(w, err)
	}
}
