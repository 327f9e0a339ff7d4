// Package report reduce listas de ventas a los agregados de un reporte.
package report

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/FichesVente-api/internal/domain"
	"github.com/jhoicas/FichesVente-api/internal/domain/entity"
	"github.com/jhoicas/FichesVente-api/internal/domain/sale"
)

// ValidPeriod indica si p es DAILY, MONTHLY o YEARLY.
func ValidPeriod(p string) bool {
	switch p {
	case entity.ReportDaily, entity.ReportMonthly, entity.ReportYearly:
		return true
	}
	return false
}

// Bounds devuelve [inicio del día/mes/año, now] en la zona horaria de now.
func Bounds(period string, now time.Time) (time.Time, time.Time, error) {
	y, m, d := now.Date()
	loc := now.Location()
	switch period {
	case entity.ReportDaily:
		return time.Date(y, m, d, 0, 0, 0, 0, loc), now, nil
	case entity.ReportMonthly:
		return time.Date(y, m, 1, 0, 0, 0, 0, loc), now, nil
	case entity.ReportYearly:
		return time.Date(y, time.January, 1, 0, 0, 0, 0, loc), now, nil
	}
	return time.Time{}, time.Time{}, domain.NewValidationError("period", "periodo inválido: "+period)
}

// InRange ventas cuya fecha de venta cae en [start, end], ambos inclusivos.
func InRange(sales []*entity.Sale, start, end time.Time) []*entity.Sale {
	out := make([]*entity.Sale, 0, len(sales))
	for _, s := range sales {
		if s.SaleDate.Before(start) || s.SaleDate.After(end) {
			continue
		}
		out = append(out, s)
	}
	return out
}

// Summarize agrega un conjunto de ventas. Ingresos, unidades y productos cuentan solo ventas ACTIVE;
// anuladas y reembolsadas se cuentan aparte; DELETED se ignora.
func Summarize(sales []*entity.Sale) entity.ReportSummary {
	sum := entity.ReportSummary{
		TotalRevenue:     decimal.Zero,
		AverageSale:      decimal.Zero,
		CancelledTotal:   decimal.Zero,
		RefundedTotal:    decimal.Zero,
		RevenueByProduct: make(map[string]entity.ProductRevenue),
	}

	for _, s := range sales {
		switch sale.NormalizeStatus(s.Status) {
		case entity.SaleStatusActive:
			sum.SaleCount++
			for _, it := range s.Items {
				sub := it.Subtotal()
				sum.TotalRevenue = sum.TotalRevenue.Add(sub)
				sum.TotalUnitsSold += it.Quantity
				pr, ok := sum.RevenueByProduct[it.ProductName]
				if !ok {
					pr.Revenue = decimal.Zero
				}
				pr.Quantity += it.Quantity
				pr.Revenue = pr.Revenue.Add(sub)
				sum.RevenueByProduct[it.ProductName] = pr
			}
		case entity.SaleStatusCancelled:
			sum.CancelledCount++
			sum.CancelledTotal = sum.CancelledTotal.Add(s.Total())
		case entity.SaleStatusRefunded:
			sum.RefundedCount++
			sum.RefundedTotal = sum.RefundedTotal.Add(s.Total())
		case entity.SaleStatusPending:
			sum.PendingCount++
		}
	}

	if sum.SaleCount > 0 {
		sum.AverageSale = sum.TotalRevenue.Div(decimal.NewFromInt(int64(sum.SaleCount))).Round(0)
	}
	return sum
}

// ProductLine fila de un ranking de productos.
type ProductLine struct {
	Name     string
	Quantity int
	Revenue  decimal.Decimal
}

// TopByQuantity los n productos más vendidos en unidades (desempate por nombre). n <= 0 devuelve todos.
func TopByQuantity(s entity.ReportSummary, n int) []ProductLine {
	lines := lines(s)
	sort.SliceStable(lines, func(i, j int) bool {
		if lines[i].Quantity != lines[j].Quantity {
			return lines[i].Quantity > lines[j].Quantity
		}
		return lines[i].Name < lines[j].Name
	})
	return limit(lines, n)
}

// ByRevenue productos ordenados por ingreso descendente.
func ByRevenue(s entity.ReportSummary) []ProductLine {
	lines := lines(s)
	sort.SliceStable(lines, func(i, j int) bool {
		if !lines[i].Revenue.Equal(lines[j].Revenue) {
			return lines[i].Revenue.GreaterThan(lines[j].Revenue)
		}
		return lines[i].Name < lines[j].Name
	})
	return lines
}

func lines(s entity.ReportSummary) []ProductLine {
	out := make([]ProductLine, 0, len(s.RevenueByProduct))
	for name, pr := range s.RevenueByProduct {
		out = append(out, ProductLine{Name: name, Quantity: pr.Quantity, Revenue: pr.Revenue})
	}
	return out
}

func limit(lines []ProductLine, n int) []ProductLine {
	if n > 0 && len(lines) > n {
		return lines[:n]
	}
	return lines
}
