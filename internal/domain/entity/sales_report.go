package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Periodos de reporte.
const (
	ReportDaily   = "DAILY"
	ReportMonthly = "MONTHLY"
	ReportYearly  = "YEARLY"
)

// ProductRevenue acumulado por producto dentro de un reporte.
type ProductRevenue struct {
	Quantity int             `json:"quantity"`
	Revenue  decimal.Decimal `json:"revenue"`
}

// ReportSummary agregados de un conjunto de ventas. Solo las ACTIVE cuentan como ingreso.
type ReportSummary struct {
	SaleCount        int                       `json:"sale_count"`
	TotalRevenue     decimal.Decimal           `json:"total_revenue"`
	TotalUnitsSold   int                       `json:"total_units_sold"`
	AverageSale      decimal.Decimal           `json:"average_sale"`
	RevenueByProduct map[string]ProductRevenue `json:"revenue_by_product"`
	CancelledCount   int                       `json:"cancelled_count"`
	CancelledTotal   decimal.Decimal           `json:"cancelled_total"`
	RefundedCount    int                       `json:"refunded_count"`
	RefundedTotal    decimal.Decimal           `json:"refunded_total"`
	PendingCount     int                       `json:"pending_count"`
}

// SalesReport reporte persistido de un periodo.
type SalesReport struct {
	ID          string
	Period      string // DAILY, MONTHLY, YEARLY
	PeriodStart time.Time
	PeriodEnd   time.Time
	Summary     ReportSummary
	GeneratedBy string
	GeneratedAt time.Time
}
