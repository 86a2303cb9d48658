package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/stewardbooks/stewardbooks/internal/audit"
)

// AuditPruneJob deletes audit entries older than the retention window.
type AuditPruneJob struct {
	Audit  *audit.Service
	Logger *slog.Logger
}

// NewAuditPruneJob initialises the retention sweep handler.
func NewAuditPruneJob(auditService *audit.Service, logger *slog.Logger) *AuditPruneJob {
	return &AuditPruneJob{Audit: auditService, Logger: logger}
}

// Handle executes the retention sweep.
func (j *AuditPruneJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Audit == nil {
		return errors.New("audit prune: handler not configured")
	}
	var payload AuditPrunePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.RetentionDays <= 0 {
		payload.RetentionDays = 365
	}

	logger := j.logger()
	removed, err := j.Audit.Prune(ctx, time.Duration(payload.RetentionDays)*24*time.Hour)
	if err != nil {
		logger.Error("audit prune failed", slog.Any("error", err))
		return err
	}
	logger.Info("completed audit prune",
		slog.Int("retention_days", payload.RetentionDays),
		slog.Int64("removed", removed),
	)
	return nil
}

func (j *AuditPruneJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskAuditPrune))
	}
	return slog.Default().With(slog.String("job", TaskAuditPrune))
}
