package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storefront/backend/internal/interfaces/http/dto"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
)

func TestMockEventHandler(t *testing.T) {
	handler := NewMockEventHandler("OrderPlaced")
	assert.Equal(t, []string{"OrderPlaced"}, handler.EventTypes())

	event := NewTestEvent("OrderPlaced", "owner-1")
	require.NoError(t, handler.Handle(context.Background(), event))
	assert.Equal(t, 1, handler.HandledCount())
	assert.Equal(t, "owner-1", handler.Handled()[0].OwnerID())

	handler.SetError(assert.AnError)
	assert.ErrorIs(t, handler.Handle(context.Background(), event), assert.AnError)
	assert.Equal(t, 2, handler.HandledCount())
}

func TestWaitForEventCount(t *testing.T) {
	handler := NewMockEventHandler()
	go func() {
		time.Sleep(20 * time.Millisecond)
		_ = handler.Handle(context.Background(), NewTestEvent("PaymentApproved", ""))
	}()

	assert.True(t, WaitForEventCount(t, handler, 1, time.Second))
	assert.False(t, WaitForEventCount(t, handler, 2, 30*time.Millisecond))
}

func TestNewMockDB(t *testing.T) {
	mockDB := NewMockDB(t)
	assert.NotNil(t, mockDB.DB)
	mockDB.ExpectationsWereMet(t)
}

func TestTestContext(t *testing.T) {
	tc := NewTestContext(t, http.MethodPost, "/api/v1/cart/items", map[string]any{"quantity": 2})
	tc.SetOwner("owner-1").SetRequestID("req-1")

	assert.Equal(t, "owner-1", tc.Context.GetString(middleware.OwnerIDKey))
	assert.Equal(t, "req-1", tc.Context.GetString(middleware.RequestIDKey))
	assert.Equal(t, "application/json", tc.Context.Request.Header.Get("Content-Type"))
}

func TestEnvelope(t *testing.T) {
	tc := NewTestContext(t, http.MethodGet, "/", nil)
	tc.Context.JSON(http.StatusOK, dto.NewSuccessResponse(map[string]string{"status": "pending"}))

	var data struct {
		Status string `json:"status"`
	}
	resp := Envelope(t, tc.Recorder, &data)
	assert.True(t, resp.Success)
	assert.Equal(t, "pending", data.Status)
}

func TestAssertError(t *testing.T) {
	tc := NewTestContext(t, http.MethodGet, "/", nil)
	tc.Context.JSON(http.StatusNotFound, dto.Response{
		Error: &dto.ErrorInfo{Code: "ERR_NOT_FOUND", Message: "Order not found"},
	})

	AssertError(t, tc.Recorder, http.StatusNotFound, "ERR_NOT_FOUND")
}

func TestNewTestUUID(t *testing.T) {
	assert.Equal(t, NewTestUUID("buyer"), NewTestUUID("buyer"))
	assert.NotEqual(t, NewTestUUID("buyer"), NewTestUUID("seller"))
}
