package billing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// ErrChargeDeclined indicates the gateway refused the charge.
var ErrChargeDeclined = errors.New("billing: charge declined")

// ChargeResult carries the gateway's reference for a successful charge.
type ChargeResult struct {
	ProviderRef string
}

// PaymentGateway charges a stored payment token. Concrete PSP clients live
// outside this module; the renewal flow only needs this much.
type PaymentGateway interface {
	Charge(ctx context.Context, token string, amount int64, currency, description string) (ChargeResult, error)
}

// LogGateway approves every charge and logs it. Development stand-in until a
// real PSP client is plugged in.
type LogGateway struct {
	Logger *slog.Logger
}

// Charge records the would-be charge and returns a synthetic reference.
func (g LogGateway) Charge(_ context.Context, token string, amount int64, currency, description string) (ChargeResult, error) {
	if g.Logger != nil {
		g.Logger.Info("gateway charge",
			slog.String("token", token),
			slog.Int64("amount", amount),
			slog.String("currency", currency),
			slog.String("description", description),
		)
	}
	return ChargeResult{ProviderRef: fmt.Sprintf("dev_%s", uuid.New())}, nil
}
