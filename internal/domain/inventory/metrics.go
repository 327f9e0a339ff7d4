package inventory

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"

	"github.com/jhoicas/FichesVente-api/internal/domain/entity"
)

// Estados de nivel de stock.
const (
	LevelOK  = "OK"
	LevelLow = "LOW"
	LevelOut = "OUT"
)

var folder = cases.Fold()

// NameKey normaliza un nombre de producto para búsqueda: trim + case folding Unicode.
func NameKey(name string) string {
	return folder.String(strings.TrimSpace(name))
}

// Percentage round(onHand / baseline * 100); 0 cuando baseline es 0.
func Percentage(onHand, baseline int) int {
	if baseline <= 0 {
		return 0
	}
	return int(math.Round(float64(onHand) / float64(baseline) * 100))
}

// IsLow onHand <= alertThreshold (incluye los agotados).
func IsLow(item *entity.StockItem) bool {
	return item.OnHand <= item.AlertThreshold
}

// IsOut onHand == 0.
func IsOut(item *entity.StockItem) bool {
	return item.OnHand == 0
}

// Level clasifica el artículo en OUT, LOW u OK.
func Level(item *entity.StockItem) string {
	switch {
	case IsOut(item):
		return LevelOut
	case IsLow(item):
		return LevelLow
	default:
		return LevelOK
	}
}

// LowStock filtra los artículos en alerta conservando el orden de entrada.
func LowStock(items []*entity.StockItem) []*entity.StockItem {
	out := make([]*entity.StockItem, 0)
	for _, it := range items {
		if IsLow(it) {
			out = append(out, it)
		}
	}
	return out
}

// Stats resumen del inventario.
type Stats struct {
	TotalItems      int
	LowStockCount   int
	OutOfStockCount int
	TotalValue      decimal.Decimal
}

// ComputeStats totales sobre una lista de artículos; TotalValue = Σ onHand * unitPrice.
func ComputeStats(items []*entity.StockItem) Stats {
	s := Stats{TotalItems: len(items), TotalValue: decimal.Zero}
	for _, it := range items {
		if IsLow(it) {
			s.LowStockCount++
		}
		if IsOut(it) {
			s.OutOfStockCount++
		}
		s.TotalValue = s.TotalValue.Add(it.Value())
	}
	return s
}
