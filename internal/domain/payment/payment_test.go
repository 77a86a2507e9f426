package payment

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPayment(t *testing.T) *Payment {
	p, err := NewPayment(uuid.New(), "user-1", "tgen_20240101", decimal.NewFromInt(40000))
	require.NoError(t, err)
	return p
}

func TestNewPayment(t *testing.T) {
	p := newTestPayment(t)
	assert.Equal(t, StatusReady, p.Status)
	assert.True(t, p.CancelAmount.IsZero())

	_, err := NewPayment(uuid.Nil, "user-1", "key", decimal.NewFromInt(1))
	assert.ErrorIs(t, err, ErrInvalidOrderID)

	_, err = NewPayment(uuid.New(), "user-1", " ", decimal.NewFromInt(1))
	assert.ErrorIs(t, err, ErrInvalidPaymentKey)

	_, err = NewPayment(uuid.New(), "user-1", "key", decimal.NewFromInt(-1))
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestPayment_Approve(t *testing.T) {
	t.Run("ready to done", func(t *testing.T) {
		p := newTestPayment(t)
		at := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

		changed, err := p.Approve("card", at, "")
		require.NoError(t, err)
		assert.True(t, changed)
		assert.Equal(t, StatusDone, p.Status)
		assert.Equal(t, "card", p.Method)
		require.NotNil(t, p.ApprovedAt)
		assert.Equal(t, at, *p.ApprovedAt)
		assert.Equal(t, p.PaymentKey, p.LastTransactionKey)
		require.Len(t, p.GetDomainEvents(), 1)
		assert.Equal(t, EventTypePaymentApproved, p.GetDomainEvents()[0].EventType())
	})

	t.Run("repeat approval is a no-op", func(t *testing.T) {
		p := newTestPayment(t)
		_, err := p.Approve("card", time.Now(), "")
		require.NoError(t, err)
		first := *p.ApprovedAt

		changed, err := p.Approve("transfer", time.Now().Add(time.Hour), "")
		require.NoError(t, err)
		assert.False(t, changed)
		assert.Equal(t, "card", p.Method)
		assert.Equal(t, first, *p.ApprovedAt)
		assert.Len(t, p.GetDomainEvents(), 1)
	})

	t.Run("canceled cannot be approved", func(t *testing.T) {
		p := newTestPayment(t)
		_, err := p.Cancel("", decimal.Zero, time.Now())
		require.NoError(t, err)
		_, err = p.Approve("card", time.Now(), "")
		assert.ErrorIs(t, err, shared.ErrInvalidState)
	})
}

func TestPayment_Cancel(t *testing.T) {
	t.Run("defaults reason and amount", func(t *testing.T) {
		p := newTestPayment(t)
		changed, err := p.Cancel("  ", decimal.Zero, time.Time{})
		require.NoError(t, err)
		assert.True(t, changed)
		assert.Equal(t, StatusCanceled, p.Status)
		assert.Equal(t, DefaultCancelReason, p.CancelReason)
		assert.True(t, p.CancelAmount.Equal(p.Amount))
		assert.NotNil(t, p.CanceledAt)
	})

	t.Run("done can be canceled", func(t *testing.T) {
		p := newTestPayment(t)
		_, err := p.Approve("card", time.Now(), "")
		require.NoError(t, err)
		_, err = p.Cancel("changed my mind", decimal.NewFromInt(40000), time.Now())
		require.NoError(t, err)

		events := p.GetDomainEvents()
		require.Len(t, events, 2)
		evt, ok := events[1].(*PaymentCanceledEvent)
		require.True(t, ok)
		assert.Equal(t, StatusDone, evt.PreviousStatus)
		assert.Equal(t, "changed my mind", evt.CancelReason)
	})

	t.Run("repeat cancel is a no-op", func(t *testing.T) {
		p := newTestPayment(t)
		_, err := p.Cancel("first", decimal.Zero, time.Now())
		require.NoError(t, err)
		changed, err := p.Cancel("second", decimal.Zero, time.Now())
		require.NoError(t, err)
		assert.False(t, changed)
		assert.Equal(t, "first", p.CancelReason)
	})

	t.Run("expired cannot be canceled", func(t *testing.T) {
		p := newTestPayment(t)
		p.Status = StatusExpired
		_, err := p.Cancel("x", decimal.Zero, time.Now())
		assert.Error(t, err)
	})
}

func TestGatewayError(t *testing.T) {
	err := NewGatewayError(400, "ALREADY_PROCESSED_PAYMENT", "already processed")
	assert.ErrorIs(t, err, ErrGatewayRequestFailed)
	assert.Equal(t, shared.KindGateway, shared.KindOf(err))
	assert.Contains(t, err.Error(), "ALREADY_PROCESSED_PAYMENT")

	wrapped := fmt.Errorf("confirm: %w", &GatewayError{Err: ErrGatewayUnavailable})
	assert.ErrorIs(t, wrapped, ErrGatewayUnavailable)
	assert.NotErrorIs(t, wrapped, ErrGatewayRequestFailed)

	var ge *GatewayError
	require.True(t, errors.As(wrapped, &ge))
	assert.Zero(t, ge.StatusCode)
}

func TestConfirmRequest_Validate(t *testing.T) {
	valid := ConfirmRequest{PaymentKey: "k", OrderID: uuid.New(), Amount: decimal.NewFromInt(100)}
	assert.NoError(t, valid.Validate())

	noKey := valid
	noKey.PaymentKey = ""
	assert.ErrorIs(t, noKey.Validate(), ErrInvalidPaymentKey)

	fractional := valid
	fractional.Amount = decimal.RequireFromString("10.5")
	assert.ErrorIs(t, fractional.Validate(), ErrInvalidAmount)

	zero := valid
	zero.Amount = decimal.Zero
	assert.ErrorIs(t, zero.Validate(), ErrInvalidAmount)
}

func TestCancelResult_FirstCancel(t *testing.T) {
	var nilResult *CancelResult
	assert.True(t, nilResult.FirstCancel().CancelAmount.IsZero())

	r := &CancelResult{Cancels: []CancelRecord{{CancelAmount: decimal.NewFromInt(500)}, {CancelAmount: decimal.NewFromInt(1)}}}
	assert.True(t, r.FirstCancel().CancelAmount.Equal(decimal.NewFromInt(500)))
}
