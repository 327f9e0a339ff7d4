package inventory_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/FichesVente-api/internal/domain/entity"
	"github.com/jhoicas/FichesVente-api/internal/domain/inventory"
)

func TestNameKey_TrimYMayusculas(t *testing.T) {
	assert.Equal(t, inventory.NameKey("robe bleue"), inventory.NameKey("  Robe BLEUE "))
	assert.Equal(t, inventory.NameKey("ÉTOFFE"), inventory.NameKey("étoffe"))
	assert.NotEqual(t, inventory.NameKey("robe"), inventory.NameKey("robes"))
}

func TestPercentage(t *testing.T) {
	tests := []struct {
		name             string
		onHand, baseline int
		want             int
	}{
		{"baseline cero no divide", 5, 0, 0},
		{"completo", 10, 10, 100},
		{"mitad", 5, 10, 50},
		{"redondea", 1, 3, 33},
		{"redondea arriba", 2, 3, 67},
		{"sobre baseline", 15, 10, 150},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, inventory.Percentage(tt.onHand, tt.baseline))
		})
	}
}

func TestLowStock_SoloBajoUmbral(t *testing.T) {
	a := &entity.StockItem{Name: "A", OnHand: 1, AlertThreshold: 2}
	b := &entity.StockItem{Name: "B", OnHand: 5, AlertThreshold: 2}
	c := &entity.StockItem{Name: "C", OnHand: 2, AlertThreshold: 2}

	got := inventory.LowStock([]*entity.StockItem{a, b, c})

	assert.Equal(t, []*entity.StockItem{a, c}, got)
}

func TestLevel(t *testing.T) {
	assert.Equal(t, inventory.LevelOut, inventory.Level(&entity.StockItem{OnHand: 0, AlertThreshold: 2}))
	assert.Equal(t, inventory.LevelLow, inventory.Level(&entity.StockItem{OnHand: 2, AlertThreshold: 2}))
	assert.Equal(t, inventory.LevelOK, inventory.Level(&entity.StockItem{OnHand: 3, AlertThreshold: 2}))
}

func TestComputeStats(t *testing.T) {
	items := []*entity.StockItem{
		{OnHand: 0, AlertThreshold: 2, UnitPrice: decimal.NewFromInt(1000)},
		{OnHand: 1, AlertThreshold: 2, UnitPrice: decimal.NewFromInt(500)},
		{OnHand: 10, AlertThreshold: 2, UnitPrice: decimal.NewFromInt(5000)},
	}

	s := inventory.ComputeStats(items)

	assert.Equal(t, 3, s.TotalItems)
	assert.Equal(t, 2, s.LowStockCount)
	assert.Equal(t, 1, s.OutOfStockCount)
	assert.True(t, decimal.NewFromInt(50500).Equal(s.TotalValue))
}
