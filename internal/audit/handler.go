package audit

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/stewardbooks/stewardbooks/internal/auth"
	"github.com/stewardbooks/stewardbooks/internal/platform/httpx"
	"github.com/stewardbooks/stewardbooks/internal/shared"
)

// Handler exposes the audit timeline under /orgs/{orgID}/audit.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers audit routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.Timeline)
}

// entryView is the JSON shape of an audit entry.
type entryView struct {
	ID         int64          `json:"id"`
	ActorID    uuid.UUID      `json:"actor_id"`
	Action     string         `json:"action"`
	Module     string         `json:"module"`
	Entity     string         `json:"entity"`
	EntityID   string         `json:"entity_id"`
	OldValues  map[string]any `json:"old_values,omitempty"`
	NewValues  map[string]any `json:"new_values,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

func (h *Handler) Timeline(w http.ResponseWriter, r *http.Request) {
	orgID, err := uuid.Parse(chi.URLParam(r, "orgID"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid organization id")
		return
	}
	actorID, ok := auth.CurrentUserID(r)
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "login required")
		return
	}

	filters := Filters{
		Module:   r.URL.Query().Get("module"),
		Entity:   r.URL.Query().Get("entity"),
		EntityID: r.URL.Query().Get("entity_id"),
	}
	if raw := r.URL.Query().Get("actor_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid actor id")
			return
		}
		filters.ActorID = &id
	}
	if page, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil {
		filters.Page = page
	}
	if perPage, err := strconv.Atoi(r.URL.Query().Get("per_page")); err == nil {
		filters.PerPage = perPage
	}

	entries, total, err := h.service.Timeline(r.Context(), orgID, actorID, filters)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	views := make([]entryView, 0, len(entries))
	for _, e := range entries {
		views = append(views, entryView{
			ID:         e.ID,
			ActorID:    e.ActorID,
			Action:     e.Action,
			Module:     e.Module,
			Entity:     e.Entity,
			EntityID:   e.EntityID,
			OldValues:  e.OldValues,
			NewValues:  e.NewValues,
			OccurredAt: e.OccurredAt,
		})
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"entries":    views,
		"pagination": shared.NewPagination(filters.Page, filters.PerPage, total),
	})
}
