package catalog

import (
	"testing"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newProduct(t *testing.T) *Product {
	t.Helper()
	p, err := NewProduct(uuid.New(), "cam-01", "Camiseta", "un", dec("49.90"), dec("20.00"))
	require.NoError(t, err)
	return p
}

func TestNewProduct(t *testing.T) {
	p := newProduct(t)
	assert.Equal(t, "CAM-01", p.Code)
	assert.Equal(t, "UN", p.Unit)
	assert.True(t, p.Active)
	assert.True(t, p.StockQuantity.IsZero())

	tests := []struct {
		name  string
		code  string
		pname string
		price string
		cost  string
		want  string
	}{
		{"empty code", "", "X", "1", "1", "INVALID_CODE"},
		{"empty name", "A", " ", "1", "1", "INVALID_NAME"},
		{"negative price", "A", "X", "-1", "1", "INVALID_PRICE"},
		{"negative cost", "A", "X", "1", "-1", "INVALID_COST"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewProduct(uuid.New(), tt.code, tt.pname, "", dec(tt.price), dec(tt.cost))
			require.Error(t, err)
			de, ok := shared.AsDomainError(err)
			require.True(t, ok)
			assert.Equal(t, tt.want, de.Code)
		})
	}
}

func TestProduct_Stock(t *testing.T) {
	p := newProduct(t)
	require.NoError(t, p.AdjustStock(dec("10")))
	require.NoError(t, p.CanSell(dec("10")))
	assert.ErrorIs(t, p.AdjustStock(dec("-11")), shared.ErrInsufficientStock)
	require.NoError(t, p.AdjustStock(dec("-7")))
	assert.True(t, p.StockQuantity.Equal(dec("3")))

	assert.False(t, p.IsLowStock())
	require.NoError(t, p.SetMinStock(dec("5")))
	assert.True(t, p.IsLowStock())

	err := p.CanSell(dec("4"))
	require.Error(t, err)
	de, _ := shared.AsDomainError(err)
	assert.Equal(t, "INSUFFICIENT_STOCK", de.Code)
}

func TestProduct_SoftDelete(t *testing.T) {
	p := newProduct(t)
	require.NoError(t, p.AdjustStock(dec("1")))
	p.SoftDelete()
	assert.True(t, p.IsDeleted())
	assert.False(t, p.Active)
	assert.Error(t, p.CanSell(dec("1")))
}

func TestProduct_MarginAndBarcode(t *testing.T) {
	p := newProduct(t)
	require.NoError(t, p.SetPrices(dec("50"), dec("20")))
	assert.True(t, p.Margin().Equal(dec("60")))

	require.NoError(t, p.SetBarcode("7891234567895"))
	assert.Error(t, p.SetBarcode("789-123"))
}
