package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// GenerateReportRequest body para POST /api/reports.
type GenerateReportRequest struct {
	Period string `json:"period"` // DAILY | MONTHLY | YEARLY
}

// ProductSalesDTO acumulado de un producto en un reporte.
type ProductSalesDTO struct {
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	Revenue     decimal.Decimal `json:"revenue"`
}

// ReportResponse reporte de ventas de un periodo. Products ordenado por ingreso descendente.
type ReportResponse struct {
	ID             string            `json:"id"`
	Period         string            `json:"period"`
	PeriodStart    time.Time         `json:"period_start"`
	PeriodEnd      time.Time         `json:"period_end"`
	SaleCount      int               `json:"sale_count"`
	TotalRevenue   decimal.Decimal   `json:"total_revenue"`
	TotalUnitsSold int               `json:"total_units_sold"`
	AverageSale    decimal.Decimal   `json:"average_sale"`
	Products       []ProductSalesDTO `json:"products"`
	CancelledCount int               `json:"cancelled_count"`
	CancelledTotal decimal.Decimal   `json:"cancelled_total"`
	RefundedCount  int               `json:"refunded_count"`
	RefundedTotal  decimal.Decimal   `json:"refunded_total"`
	PendingCount   int               `json:"pending_count"`
	GeneratedBy    string            `json:"generated_by,omitempty"`
	GeneratedAt    time.Time         `json:"generated_at"`
}

// ChartsResponse respuesta de GET /api/reports/charts (solo ventas ACTIVE).
type ChartsResponse struct {
	PaymentMethods []PaymentMethodShareDTO `json:"payment_methods"`
	TopProducts    []ProductShareDTO       `json:"top_products"`
	MonthlyRevenue []MonthlyRevenueDTO     `json:"monthly_revenue"`
}

// PaymentMethodShareDTO uso de un medio de pago (se cuentan ambos medios de cada venta).
type PaymentMethodShareDTO struct {
	Method     string          `json:"method"`
	Count      int             `json:"count"`
	Percentage decimal.Decimal `json:"percentage"` // 1 decimal
}

// ProductShareDTO participación de un producto en unidades vendidas.
type ProductShareDTO struct {
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	Percentage  decimal.Decimal `json:"percentage"` // 1 decimal
}

// MonthlyRevenueDTO ingreso de un mes (YYYY-MM).
type MonthlyRevenueDTO struct {
	Month string          `json:"month"`
	Total decimal.Decimal `json:"total"`
}
