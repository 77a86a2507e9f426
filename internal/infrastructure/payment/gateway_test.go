package payment

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/payment"
)

func TestNewGateway(t *testing.T) {
	t.Run("configured", func(t *testing.T) {
		gw, err := NewGateway(&TossConfig{SecretKey: "test_sk"}, zap.NewNop())
		require.NoError(t, err)
		assert.IsType(t, &TossAdapter{}, gw)
	})

	t.Run("missing secret disables the gateway", func(t *testing.T) {
		gw, err := NewGateway(&TossConfig{}, zap.NewNop())
		require.NoError(t, err)

		_, err = gw.Confirm(context.Background(), &payment.ConfirmRequest{PaymentKey: "pk"})
		assert.ErrorIs(t, err, payment.ErrGatewayNotConfigured)
		_, err = gw.Cancel(context.Background(), &payment.CancelRequest{PaymentKey: "pk"})
		assert.ErrorIs(t, err, payment.ErrGatewayNotConfigured)
	})

	t.Run("bad base url", func(t *testing.T) {
		_, err := NewGateway(&TossConfig{SecretKey: "test_sk", BaseURL: "::"}, nil)
		assert.ErrorIs(t, err, ErrTossInvalidBaseURL)
	})
}
