package cart

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLine(t *testing.T) {
	pid := uuid.New()

	line, err := NewLine("user-1", pid, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, line.Quantity)
	assert.Equal(t, pid, line.ProductID)

	_, err = NewLine("", pid, 1)
	assert.ErrorIs(t, err, ErrInvalidOwner)

	_, err = NewLine("user-1", uuid.Nil, 1)
	assert.ErrorIs(t, err, ErrInvalidProduct)

	_, err = NewLine("user-1", pid, 0)
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = NewLine("user-1", pid, MaxQuantity+1)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestLine_SetQuantity(t *testing.T) {
	line, err := NewLine("user-1", uuid.New(), 1)
	require.NoError(t, err)

	require.NoError(t, line.SetQuantity(MaxQuantity))
	assert.Equal(t, MaxQuantity, line.Quantity)
	assert.ErrorIs(t, line.SetQuantity(-1), ErrInvalidQuantity)
	assert.Equal(t, MaxQuantity, line.Quantity)
}

func TestSummarize(t *testing.T) {
	tee := catalog.Product{Name: "Tee", Price: decimal.NewFromInt(20000)}
	mug := catalog.Product{Name: "Mug", Price: decimal.NewFromInt(8500)}

	s := Summarize([]LineWithProduct{
		{Line: Line{Quantity: 2}, Product: tee},
		{Line: Line{Quantity: 1}, Product: mug},
	})
	assert.Equal(t, 2, s.TotalItems)
	assert.Equal(t, 3, s.TotalQuantity)
	assert.True(t, s.TotalAmount.Equal(decimal.NewFromInt(48500)))

	empty := Summarize(nil)
	assert.Zero(t, empty.TotalItems)
	assert.True(t, empty.TotalAmount.IsZero())
}
