package entity

import "time"

// Tipos de movimiento del libro de stock.
const (
	TransactionIn  = "IN"
	TransactionOut = "OUT"
)

// StockTransaction movimiento inmutable del libro de stock.
// StockItemID es una referencia débil: el artículo puede haber sido eliminado.
type StockTransaction struct {
	ID          string
	StockItemID string
	ItemName    string
	Kind        string // IN, OUT
	Quantity    int    // siempre positivo
	Reason      string
	SaleID      string // vacío si no proviene de una venta
	Operator    string
	CreatedAt   time.Time
}

// Signed devuelve la cantidad con signo (+IN, -OUT).
func (t *StockTransaction) Signed() int {
	if t.Kind == TransactionOut {
		return -t.Quantity
	}
	return t.Quantity
}
