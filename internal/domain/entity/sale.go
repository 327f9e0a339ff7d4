package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de una venta.
const (
	SaleStatusActive    = "ACTIVE"
	SaleStatusPending   = "PENDING"
	SaleStatusCancelled = "CANCELLED"
	SaleStatusRefunded  = "REFUNDED"
	SaleStatusDeleted   = "DELETED"
)

// Medios de pago.
const (
	PaymentOrange = "ORANGE"
	PaymentWave   = "WAVE"
	PaymentCash   = "CASH"
)

// ValidPaymentMethod indica si m es un medio de pago conocido.
func ValidPaymentMethod(m string) bool {
	switch m {
	case PaymentOrange, PaymentWave, PaymentCash:
		return true
	}
	return false
}

// SaleItem línea de venta. Precio y unidad se copian al crear la venta.
type SaleItem struct {
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Unit        string          `json:"unit"`
}

// Subtotal cantidad * precio unitario.
func (i SaleItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Sale ficha de venta.
type Sale struct {
	ID              string
	SaleDate        time.Time
	CustomerPhone   string
	CustomerPhone2  string
	DeliveryAddress string
	Courier         string
	PaymentMethod   string
	PaymentMethod2  string
	Items           []SaleItem
	Status          string
	IsValidated     bool
	CreatedBy       string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Total suma de subtotales de las líneas.
func (s *Sale) Total() decimal.Decimal {
	total := decimal.Zero
	for _, it := range s.Items {
		total = total.Add(it.Subtotal())
	}
	return total
}

// Units suma de cantidades de las líneas.
func (s *Sale) Units() int {
	n := 0
	for _, it := range s.Items {
		n += it.Quantity
	}
	return n
}

// ShortID últimos 6 caracteres del id, usados como número de ficha.
func (s *Sale) ShortID() string {
	if len(s.ID) <= 6 {
		return s.ID
	}
	return s.ID[len(s.ID)-6:]
}

// Clone copia profunda (las líneas incluidas).
func (s *Sale) Clone() *Sale {
	c := *s
	c.Items = append([]SaleItem(nil), s.Items...)
	return &c
}
