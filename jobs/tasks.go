package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskBillingRenewalScan charges lapsed subscriptions.
	TaskBillingRenewalScan = "billing:renewal_scan"
	// TaskAuditPrune sweeps audit entries past the retention window.
	TaskAuditPrune = "audit:prune"
)

// RenewalScanPayload configures a renewal scan run.
type RenewalScanPayload struct {
	DryRun bool `json:"dry_run"`
}

// NewRenewalScanTask constructs an Asynq task.
func NewRenewalScanTask(payload RenewalScanPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskBillingRenewalScan, data), nil
}

// AuditPrunePayload configures a retention sweep.
type AuditPrunePayload struct {
	RetentionDays int `json:"retention_days"`
}

// NewAuditPruneTask constructs an Asynq task.
func NewAuditPruneTask(payload AuditPrunePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAuditPrune, data), nil
}
