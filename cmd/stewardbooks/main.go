package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/stewardbooks/stewardbooks/internal/accounts"
	"github.com/stewardbooks/stewardbooks/internal/app"
	"github.com/stewardbooks/stewardbooks/internal/audit"
	"github.com/stewardbooks/stewardbooks/internal/auth"
	"github.com/stewardbooks/stewardbooks/internal/billing"
	"github.com/stewardbooks/stewardbooks/internal/categories"
	"github.com/stewardbooks/stewardbooks/internal/memberships"
	"github.com/stewardbooks/stewardbooks/internal/organizations"
	"github.com/stewardbooks/stewardbooks/internal/paymentmethods"
	"github.com/stewardbooks/stewardbooks/internal/platform/cache"
	"github.com/stewardbooks/stewardbooks/internal/platform/db"
	"github.com/stewardbooks/stewardbooks/internal/shared"
	"github.com/stewardbooks/stewardbooks/internal/transactions"
	"github.com/stewardbooks/stewardbooks/internal/users"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "stewardbooks_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)
	auditLogger := shared.NewAuditLogger(pool)

	authRepo := auth.NewRepository(pool)
	authService := auth.NewService(authRepo)
	authHandler := auth.NewHandler(logger, authService, sessionManager, csrfManager)

	userRepo := users.NewRepository(pool)
	userService := users.NewService(userRepo)
	userHandler := users.NewHandler(logger, userService)

	membershipRepo := memberships.NewRepository(pool)
	authorizer := memberships.NewAuthorizer(membershipRepo)
	membershipService := memberships.NewService(membershipRepo, authorizer, userService, auditLogger)
	membershipHandler := memberships.NewHandler(logger, membershipService)

	orgRepo := organizations.NewRepository(pool)
	orgService := organizations.NewService(orgRepo, authorizer, auditLogger)
	orgHandler := organizations.NewHandler(logger, orgService)

	accountRepo := accounts.NewRepository(pool)
	accountService := accounts.NewService(accountRepo, authorizer, auditLogger)
	accountHandler := accounts.NewHandler(logger, accountService)

	categoryRepo := categories.NewRepository(pool)
	categoryService := categories.NewService(categoryRepo, authorizer, auditLogger)
	categoryHandler := categories.NewHandler(logger, categoryService)

	methodRepo := paymentmethods.NewRepository(pool)
	methodService := paymentmethods.NewService(methodRepo, authorizer, auditLogger)
	methodHandler := paymentmethods.NewHandler(logger, methodService)

	transactionRepo := transactions.NewRepository(pool)
	transactionService := transactions.NewService(transactionRepo, authorizer, auditLogger, categoryService)
	transactionHandler := transactions.NewHandler(logger, transactionService)

	auditRepo := audit.NewRepository(pool)
	auditService := audit.NewService(auditRepo, authorizer)
	auditHandler := audit.NewHandler(logger, auditService)

	billingRepo := billing.NewRepository(pool)
	billingService := billing.NewService(billingRepo, billing.LogGateway{Logger: logger}, authorizer, auditLogger, logger)
	billingHandler := billing.NewHandler(logger, billingService)

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		SessionManager: sessionManager,
		CSRFManager:    csrfManager,
		Pool:           pool,

		AuthHandler:          authHandler,
		UsersHandler:         userHandler,
		OrganizationsHandler: orgHandler,
		MembershipsHandler:   membershipHandler,
		AccountsHandler:      accountHandler,
		TransactionsHandler:  transactionHandler,
		CategoriesHandler:    categoryHandler,
		PaymentMethodHandler: methodHandler,
		AuditHandler:         auditHandler,
		BillingHandler:       billingHandler,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", slog.String("addr", cfg.AppAddr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown", slog.Any("error", err))
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server run", slog.Any("error", err))
			os.Exit(1)
		}
	}
}
