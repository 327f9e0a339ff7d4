package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateStockItemRequest body para POST /api/stock.
type CreateStockItemRequest struct {
	Name           string          `json:"name"`
	OnHand         int             `json:"on_hand"`
	Baseline       int             `json:"baseline"`
	AlertThreshold int             `json:"alert_threshold"`
	Unit           string          `json:"unit"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
}

// UpdateStockItemRequest body para PUT /api/stock/:id. on_hand no es editable aquí.
type UpdateStockItemRequest struct {
	Name           *string          `json:"name,omitempty"`
	Baseline       *int             `json:"baseline,omitempty"`
	AlertThreshold *int             `json:"alert_threshold,omitempty"`
	Unit           *string          `json:"unit,omitempty"`
	UnitPrice      *decimal.Decimal `json:"unit_price,omitempty"`
	OnHand         *int             `json:"on_hand,omitempty"` // rechazado: usar /adjust
}

// AdjustStockRequest body para POST /api/stock/:id/adjust.
type AdjustStockRequest struct {
	Kind     string `json:"kind"` // IN | OUT
	Quantity int    `json:"quantity"`
	Reason   string `json:"reason"`
}

// StockItemResponse artículo con métricas derivadas.
type StockItemResponse struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	OnHand         int             `json:"on_hand"`
	InitialOnHand  int             `json:"initial_on_hand"`
	Baseline       int             `json:"baseline"`
	AlertThreshold int             `json:"alert_threshold"`
	Unit           string          `json:"unit"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	Value          decimal.Decimal `json:"value"`      // on_hand * unit_price
	Percentage     int             `json:"percentage"` // on_hand / baseline * 100
	Level          string          `json:"level"`      // OK | LOW | OUT
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	DeletedAt      *time.Time      `json:"deleted_at,omitempty"`
}

// StockTransactionResponse movimiento del libro.
type StockTransactionResponse struct {
	ID          string    `json:"id"`
	StockItemID string    `json:"stock_item_id"`
	ItemName    string    `json:"item_name"`
	Kind        string    `json:"kind"`
	Quantity    int       `json:"quantity"`
	Reason      string    `json:"reason"`
	SaleID      string    `json:"sale_id,omitempty"`
	Operator    string    `json:"operator,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// AvailabilityResponse salida de GET /api/stock/availability.
type AvailabilityResponse struct {
	Available bool               `json:"available"`
	OnHand    int                `json:"on_hand"`
	Item      *StockItemResponse `json:"item"`
}

// StockStatsResponse salida de GET /api/stock/stats.
type StockStatsResponse struct {
	TotalItems      int             `json:"total_items"`
	LowStockCount   int             `json:"low_stock_count"`
	OutOfStockCount int             `json:"out_of_stock_count"`
	TotalValue      decimal.Decimal `json:"total_value"`
}

// ReplenishmentSuggestionDTO artículo en alerta con la cantidad sugerida de reposición.
type ReplenishmentSuggestionDTO struct {
	ItemID        string          `json:"item_id"`
	Name          string          `json:"name"`
	OnHand        int             `json:"on_hand"`
	Baseline      int             `json:"baseline"`
	Percentage    int             `json:"percentage"`
	SuggestedQty  int             `json:"suggested_qty"`  // max(baseline - on_hand, 0)
	EstimatedCost decimal.Decimal `json:"estimated_cost"` // suggested_qty * unit_price
	Priority      int             `json:"priority"`       // 1 = más urgente
}

// StockAuditResponse resultado de GET /api/stock/:id/audit.
type StockAuditResponse struct {
	ItemID         string `json:"item_id"`
	InitialOnHand  int    `json:"initial_on_hand"`
	TotalIn        int    `json:"total_in"`
	TotalOut       int    `json:"total_out"`
	ExpectedOnHand int    `json:"expected_on_hand"`
	OnHand         int    `json:"on_hand"`
	Consistent     bool   `json:"consistent"`
}
