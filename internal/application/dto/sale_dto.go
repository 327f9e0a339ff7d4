package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// SaleItemDTO línea de venta.
type SaleItemDTO struct {
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Unit        string          `json:"unit,omitempty"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

// CreateSaleRequest body para POST /api/sales.
type CreateSaleRequest struct {
	SaleDate        *time.Time    `json:"sale_date,omitempty"`
	CustomerPhone   string        `json:"customer_phone"`
	CustomerPhone2  string        `json:"customer_phone_2,omitempty"`
	DeliveryAddress string        `json:"delivery_address"`
	Courier         string        `json:"courier"`
	PaymentMethod   string        `json:"payment_method"`
	PaymentMethod2  string        `json:"payment_method_2,omitempty"`
	Items           []SaleItemDTO `json:"items"`
	OnHold          bool          `json:"on_hold,omitempty"`
}

// UpdateSaleRequest body para PUT /api/sales/:id. Solo metadatos; items se rechaza.
type UpdateSaleRequest struct {
	SaleDate        *time.Time    `json:"sale_date,omitempty"`
	CustomerPhone   *string       `json:"customer_phone,omitempty"`
	CustomerPhone2  *string       `json:"customer_phone_2,omitempty"`
	DeliveryAddress *string       `json:"delivery_address,omitempty"`
	Courier         *string       `json:"courier,omitempty"`
	PaymentMethod   *string       `json:"payment_method,omitempty"`
	PaymentMethod2  *string       `json:"payment_method_2,omitempty"`
	Items           []SaleItemDTO `json:"items,omitempty"`
}

// SaleResponse ficha de venta.
type SaleResponse struct {
	ID              string          `json:"id"`
	Number          string          `json:"number"` // últimos 6 caracteres del id
	SaleDate        time.Time       `json:"sale_date"`
	CustomerPhone   string          `json:"customer_phone"`
	CustomerPhone2  string          `json:"customer_phone_2,omitempty"`
	DeliveryAddress string          `json:"delivery_address"`
	Courier         string          `json:"courier"`
	PaymentMethod   string          `json:"payment_method"`
	PaymentMethod2  string          `json:"payment_method_2,omitempty"`
	Items           []SaleItemDTO   `json:"items"`
	Total           decimal.Decimal `json:"total"`
	Status          string          `json:"status"`
	IsValidated     bool            `json:"is_validated"`
	CreatedBy       string          `json:"created_by,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}
