package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stewardbooks/stewardbooks/internal/accounts"
	"github.com/stewardbooks/stewardbooks/internal/audit"
	"github.com/stewardbooks/stewardbooks/internal/auth"
	"github.com/stewardbooks/stewardbooks/internal/billing"
	"github.com/stewardbooks/stewardbooks/internal/categories"
	"github.com/stewardbooks/stewardbooks/internal/memberships"
	"github.com/stewardbooks/stewardbooks/internal/organizations"
	"github.com/stewardbooks/stewardbooks/internal/paymentmethods"
	"github.com/stewardbooks/stewardbooks/internal/shared"
	"github.com/stewardbooks/stewardbooks/internal/transactions"
	"github.com/stewardbooks/stewardbooks/internal/users"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager
	Pool           *pgxpool.Pool

	AuthHandler          *auth.Handler
	UsersHandler         *users.Handler
	OrganizationsHandler *organizations.Handler
	MembershipsHandler   *memberships.Handler
	AccountsHandler      *accounts.Handler
	TransactionsHandler  *transactions.Handler
	CategoriesHandler    *categories.Handler
	PaymentMethodHandler *paymentmethods.Handler
	AuditHandler         *audit.Handler
	BillingHandler       *billing.Handler
}

// NewRouter constructs the chi.Router for the JSON API.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/auth", params.AuthHandler.MountRoutes)
	r.Route("/plans", params.BillingHandler.MountPlanRoutes)

	r.Route("/users", func(r chi.Router) {
		params.UsersHandler.MountPublicRoutes(r)
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireUser)
			params.UsersHandler.MountRoutes(r)
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireUser)

		r.Route("/orgs", func(r chi.Router) {
			params.OrganizationsHandler.MountRoutes(r)

			r.Route("/{orgID}/members", params.MembershipsHandler.MountRoutes)
			r.Route("/{orgID}/accounts", params.AccountsHandler.MountRoutes)
			r.Route("/{orgID}/transactions", params.TransactionsHandler.MountRoutes)
			r.Route("/{orgID}/categories", params.CategoriesHandler.MountRoutes)
			r.Route("/{orgID}/payment-methods", params.PaymentMethodHandler.MountRoutes)
			r.Route("/{orgID}/audit", params.AuditHandler.MountRoutes)
			r.Route("/{orgID}/subscription", params.BillingHandler.MountRoutes)
		})
	})

	return r
}
