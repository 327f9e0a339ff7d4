package inventory

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/FichesVente-api/internal/domain/entity"
	domaininv "github.com/jhoicas/FichesVente-api/internal/domain/inventory"
)

// ReplenishmentSuggestion artículo en alerta con la cantidad sugerida para volver al stock base.
type ReplenishmentSuggestion struct {
	Item          *entity.StockItem
	Percentage    int
	SuggestedQty  int
	EstimatedCost decimal.Decimal
	Priority      int
}

// Replenishment devuelve los artículos bajo el umbral de alerta con la cantidad sugerida de reposición.
// Orden: menor porcentaje de stock primero, luego por nombre. Priority 1 = más urgente.
func (l *StockLedger) Replenishment(ctx context.Context) ([]ReplenishmentSuggestion, error) {
	low, err := l.LowStockAlerts(ctx)
	if err != nil {
		return nil, err
	}
	if len(low) == 0 {
		return []ReplenishmentSuggestion{}, nil
	}

	suggestions := make([]ReplenishmentSuggestion, 0, len(low))
	for _, item := range low {
		qty := item.Baseline - item.OnHand
		if qty < 0 {
			qty = 0
		}
		suggestions = append(suggestions, ReplenishmentSuggestion{
			Item:          item,
			Percentage:    domaininv.Percentage(item.OnHand, item.Baseline),
			SuggestedQty:  qty,
			EstimatedCost: item.UnitPrice.Mul(decimal.NewFromInt(int64(qty))),
		})
	}

	sort.SliceStable(suggestions, func(i, j int) bool {
		a, b := suggestions[i], suggestions[j]
		if a.Percentage != b.Percentage {
			return a.Percentage < b.Percentage
		}
		return a.Item.NameKey < b.Item.NameKey
	})

	for i := range suggestions {
		suggestions[i].Priority = i + 1
	}
	return suggestions, nil
}
