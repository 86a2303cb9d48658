package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stewardbooks/stewardbooks/internal/app"
	"github.com/stewardbooks/stewardbooks/internal/audit"
	"github.com/stewardbooks/stewardbooks/internal/billing"
	"github.com/stewardbooks/stewardbooks/internal/memberships"
	"github.com/stewardbooks/stewardbooks/internal/shared"
	"github.com/stewardbooks/stewardbooks/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
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

	pool, err := pgxpool.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	auditLogger := shared.NewAuditLogger(pool)
	membershipRepo := memberships.NewRepository(pool)
	authorizer := memberships.NewAuthorizer(membershipRepo)

	billingRepo := billing.NewRepository(pool)
	billingService := billing.NewService(billingRepo, billing.LogGateway{Logger: logger}, authorizer, auditLogger, logger)
	renewalJob := jobs.NewRenewalScanJob(billingService, logger)

	auditRepo := audit.NewRepository(pool)
	auditService := audit.NewService(auditRepo, authorizer)
	pruneJob := jobs.NewAuditPruneJob(auditService, logger)

	renewalTask, err := jobs.NewRenewalScanTask(jobs.RenewalScanPayload{})
	if err != nil {
		logger.Error("build renewal task", slog.Any("error", err))
		os.Exit(1)
	}
	pruneTask, err := jobs.NewAuditPruneTask(jobs.AuditPrunePayload{RetentionDays: cfg.AuditRetentionDays})
	if err != nil {
		logger.Error("build prune task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskBillingRenewalScan, Handler: renewalJob.Handle},
			{Type: jobs.TaskAuditPrune, Handler: pruneJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "0 3 * * *", Task: renewalTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "30 3 * * *", Task: pruneTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
