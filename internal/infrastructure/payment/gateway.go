package payment

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/payment"
)

// NewGateway returns the Toss adapter, or a gateway that rejects every call
// with payment.ErrGatewayNotConfigured when no secret key is set. Other
// configuration errors are returned.
func NewGateway(cfg *TossConfig, logger *zap.Logger) (payment.Gateway, error) {
	adapter, err := NewTossAdapter(cfg, logger)
	if errors.Is(err, ErrTossMissingSecretKey) {
		if logger != nil {
			logger.Warn("payment secret key not set, confirm and cancel are disabled")
		}
		return unconfiguredGateway{}, nil
	}
	if err != nil {
		return nil, err
	}
	return adapter, nil
}

type unconfiguredGateway struct{}

func (unconfiguredGateway) Confirm(context.Context, *payment.ConfirmRequest) (*payment.ConfirmResult, error) {
	return nil, payment.ErrGatewayNotConfigured
}

func (unconfiguredGateway) Cancel(context.Context, *payment.CancelRequest) (*payment.CancelResult, error) {
	return nil, payment.ErrGatewayNotConfigured
}
