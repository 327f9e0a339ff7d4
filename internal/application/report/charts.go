package report

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/FichesVente-api/internal/application/dto"
	"github.com/jhoicas/FichesVente-api/internal/domain/entity"
	domreport "github.com/jhoicas/FichesVente-api/internal/domain/report"
	"github.com/jhoicas/FichesVente-api/internal/domain/repository"
)

const topChartProducts = 8

// Charts agregados para gráficos sobre ventas ACTIVE: medios de pago, top productos e ingreso mensual.
func (uc *ReportUseCase) Charts(ctx context.Context) (*dto.ChartsResponse, error) {
	active, err := uc.sales.List(ctx, repository.SaleFilter{Statuses: []string{entity.SaleStatusActive}})
	if err != nil {
		return nil, err
	}
	return &dto.ChartsResponse{
		PaymentMethods: paymentShares(active),
		TopProducts:    productShares(active),
		MonthlyRevenue: monthlyRevenue(active),
	}, nil
}

// paymentShares cuenta ambos medios de pago de cada venta.
func paymentShares(sales []*entity.Sale) []dto.PaymentMethodShareDTO {
	counts := map[string]int{}
	total := 0
	for _, s := range sales {
		for _, m := range []string{s.PaymentMethod, s.PaymentMethod2} {
			if m == "" {
				continue
			}
			counts[m]++
			total++
		}
	}
	out := make([]dto.PaymentMethodShareDTO, 0, len(counts))
	for _, m := range []string{entity.PaymentOrange, entity.PaymentWave, entity.PaymentCash} {
		if n, ok := counts[m]; ok {
			out = append(out, dto.PaymentMethodShareDTO{Method: m, Count: n, Percentage: percent(n, total)})
			delete(counts, m)
		}
	}
	// medios heredados fuera del catálogo actual, al final
	rest := make([]string, 0, len(counts))
	for m := range counts {
		rest = append(rest, m)
	}
	sort.Strings(rest)
	for _, m := range rest {
		out = append(out, dto.PaymentMethodShareDTO{Method: m, Count: counts[m], Percentage: percent(counts[m], total)})
	}
	return out
}

func productShares(sales []*entity.Sale) []dto.ProductShareDTO {
	sum := domreport.Summarize(sales)
	top := domreport.TopByQuantity(sum, topChartProducts)
	out := make([]dto.ProductShareDTO, 0, len(top))
	for _, l := range top {
		out = append(out, dto.ProductShareDTO{
			ProductName: l.Name,
			Quantity:    l.Quantity,
			Percentage:  percent(l.Quantity, sum.TotalUnitsSold),
		})
	}
	return out
}

// monthlyRevenue ingreso por mes YYYY-MM en orden ascendente.
func monthlyRevenue(sales []*entity.Sale) []dto.MonthlyRevenueDTO {
	byMonth := map[string]decimal.Decimal{}
	for _, s := range sales {
		key := s.SaleDate.Format("2006-01")
		byMonth[key] = byMonth[key].Add(s.Total())
	}
	months := make([]string, 0, len(byMonth))
	for k := range byMonth {
		months = append(months, k)
	}
	sort.Strings(months)
	out := make([]dto.MonthlyRevenueDTO, 0, len(months))
	for _, k := range months {
		out = append(out, dto.MonthlyRevenueDTO{Month: k, Total: byMonth[k]})
	}
	return out
}

func percent(part, total int) decimal.Decimal {
	if total == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(part)).Mul(decimal.NewFromInt(100)).Div(decimal.NewFromInt(int64(total))).Round(1)
}
