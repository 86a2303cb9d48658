package memberships

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/stewardbooks/stewardbooks/internal/auth"
	"github.com/stewardbooks/stewardbooks/internal/platform/httpx"
	"github.com/stewardbooks/stewardbooks/internal/roles"
)

// Handler exposes membership endpoints under /orgs/{orgID}/members.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers membership routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Invite)
	r.Post("/leave", h.Leave)
	r.Patch("/{userID}/role", h.ChangeRole)
	r.Delete("/{userID}", h.Revoke)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	orgID, actorID, ok := h.scope(w, r)
	if !ok {
		return
	}
	members, err := h.service.List(r.Context(), orgID, actorID)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	views := make([]View, 0, len(members))
	for _, m := range members {
		views = append(views, NewView(m))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"members": views})
}

func (h *Handler) Invite(w http.ResponseWriter, r *http.Request) {
	orgID, actorID, ok := h.scope(w, r)
	if !ok {
		return
	}
	var req InviteRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	m, err := h.service.Invite(r.Context(), orgID, actorID, req.Email, roles.Role(req.Role))
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, NewView(m))
}

func (h *Handler) ChangeRole(w http.ResponseWriter, r *http.Request) {
	orgID, actorID, ok := h.scope(w, r)
	if !ok {
		return
	}
	targetID, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid user id")
		return
	}
	var req ChangeRoleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	m, err := h.service.ChangeRole(r.Context(), orgID, actorID, targetID, roles.Role(req.Role))
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, NewView(m))
}

func (h *Handler) Revoke(w http.ResponseWriter, r *http.Request) {
	orgID, actorID, ok := h.scope(w, r)
	if !ok {
		return
	}
	targetID, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid user id")
		return
	}
	if err := h.service.Revoke(r.Context(), orgID, actorID, targetID); err != nil {
		h.respondErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Leave(w http.ResponseWriter, r *http.Request) {
	orgID, actorID, ok := h.scope(w, r)
	if !ok {
		return
	}
	if err := h.service.Leave(r.Context(), orgID, actorID); err != nil {
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
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "member not found")
	case errors.Is(err, ErrUserNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrAlreadyMember):
		httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, ErrInvalidRole):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		httpx.RespondError(w, err)
	}
}
