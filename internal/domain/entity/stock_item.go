package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Unidades de venta admitidas para un artículo de stock.
const (
	UnitKG        = "KG"
	UnitG         = "G"
	UnitDozen     = "DOZEN"
	UnitHalfDozen = "HALF_DOZEN"
	UnitUnit      = "UNIT"
)

// ValidUnit indica si u pertenece al conjunto cerrado de unidades.
func ValidUnit(u string) bool {
	switch u {
	case UnitKG, UnitG, UnitDozen, UnitHalfDozen, UnitUnit:
		return true
	}
	return false
}

// StockItem artículo con cantidad disponible. OnHand solo cambia a través del libro de stock.
type StockItem struct {
	ID             string
	Name           string
	NameKey        string // nombre normalizado (trim + case folding) usado como clave de búsqueda
	OnHand         int
	InitialOnHand  int // OnHand al momento de la creación; base de la auditoría
	Baseline       int // stock de referencia para "reset"
	AlertThreshold int
	Unit           string
	UnitPrice      decimal.Decimal
	CreatedAt      time.Time
	UpdatedAt      time.Time
	DeletedAt      *time.Time // papelera
}

// Value devuelve OnHand * UnitPrice.
func (s *StockItem) Value() decimal.Decimal {
	return s.UnitPrice.Mul(decimal.NewFromInt(int64(s.OnHand)))
}
