package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/payment"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/interfaces/http/dto"
)

func TestResolveError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{
			name:       "not found",
			err:        shared.ErrNotFound,
			wantStatus: http.StatusNotFound,
			wantCode:   dto.ErrCodeNotFound,
		},
		{
			name:       "empty cart",
			err:        fmt.Errorf("settle: %w", order.ErrEmptyCart),
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   dto.ErrCodeEmptyCart,
		},
		{
			name:       "insufficient stock names the product",
			err:        &order.InsufficientStockError{ProductName: "Mug", Available: 1, Requested: 3},
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   dto.ErrCodeInsufficientStock,
			wantMsg:    "insufficient stock for Mug: available 1, requested 3",
		},
		{
			name:       "persistence step",
			err:        order.NewSettlementError(order.StepOrderPersist, uuid.New(), errors.New("disk full")),
			wantStatus: http.StatusInternalServerError,
			wantCode:   dto.ErrCodeOrderPersistFailed,
		},
		{
			name:       "unmapped domain code falls back to 400",
			err:        payment.ErrAmountMismatch,
			wantStatus: http.StatusBadRequest,
			wantCode:   "ERR_AMOUNT_MISMATCH",
		},
		{
			name:       "gateway rejection keeps the gateway message",
			err:        payment.NewGatewayError(400, "REJECT_CARD_PAYMENT", "Card declined"),
			wantStatus: http.StatusBadGateway,
			wantCode:   dto.ErrCodePaymentGateway,
			wantMsg:    "Card declined",
		},
		{
			name:       "gateway not configured",
			err:        payment.ErrGatewayNotConfigured,
			wantStatus: http.StatusBadGateway,
			wantCode:   dto.ErrCodePaymentGateway,
		},
		{
			name:       "deadline",
			err:        fmt.Errorf("query: %w", context.DeadlineExceeded),
			wantStatus: http.StatusGatewayTimeout,
			wantCode:   dto.ErrCodeTimeout,
		},
		{
			name:       "unknown error hides detail",
			err:        errors.New("pq: connection refused"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   dto.ErrCodeInternal,
			wantMsg:    "An unexpected error occurred",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, info := resolveError(tt.err)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantCode, info.Code)
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, info.Message)
			}
			assert.NotContains(t, info.Message, "pq:")
		})
	}
}
