package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/stewardbooks/stewardbooks/internal/billing"
)

// RenewalScanJob charges every subscription whose period has lapsed.
type RenewalScanJob struct {
	Billing *billing.Service
	Logger  *slog.Logger
}

// NewRenewalScanJob initialises the renewal scan handler.
func NewRenewalScanJob(billingService *billing.Service, logger *slog.Logger) *RenewalScanJob {
	return &RenewalScanJob{Billing: billingService, Logger: logger}
}

// Handle executes the renewal scan.
func (j *RenewalScanJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Billing == nil {
		return errors.New("renewal scan: handler not configured")
	}
	var payload RenewalScanPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	logger := j.logger()
	if payload.DryRun {
		logger.Info("renewal scan dry run requested, skipping charges")
		return nil
	}

	start := time.Now()
	outcome, err := j.Billing.RenewalScan(ctx)
	if err != nil {
		logger.Error("renewal scan failed", slog.Any("error", err))
		return err
	}
	logger.Info("completed renewal scan",
		slog.Int("scanned", outcome.Scanned),
		slog.Int("renewed", outcome.Renewed),
		slog.Int("declined", outcome.Declined),
		slog.Duration("duration", time.Since(start)),
	)
	return nil
}

func (j *RenewalScanJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskBillingRenewalScan))
	}
	return slog.Default().With(slog.String("job", TaskBillingRenewalScan))
}
