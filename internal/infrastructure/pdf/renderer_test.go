package pdf_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/FichesVente-api/internal/domain/entity"
	"github.com/jhoicas/FichesVente-api/internal/infrastructure/pdf"
)

func sampleSale() *entity.Sale {
	return &entity.Sale{
		ID:              "3f1c2a7e-1111-4c2b-9d3e-a1b2c3d4e5f6",
		SaleDate:        time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC),
		CustomerPhone:   "77 123 45 67",
		DeliveryAddress: "Dakar, Médina",
		Courier:         "Moussa",
		PaymentMethod:   entity.PaymentWave,
		PaymentMethod2:  entity.PaymentCash,
		Items: []entity.SaleItem{
			{ProductName: "Riz brisé", Quantity: 2, UnitPrice: decimal.NewFromInt(12500), Unit: "sac"},
			{ProductName: "Huile", Quantity: 1, UnitPrice: decimal.NewFromInt(1500), Unit: "L"},
		},
		Status:      entity.SaleStatusActive,
		IsValidated: true,
	}
}

func TestRenderSaleTicket_GeneraPDF(t *testing.T) {
	r := pdf.NewRenderer("Boutique")
	out, err := r.RenderSaleTicket(context.Background(), sampleSale(), "https://ventes.example/vente/abc")
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(out[:4]))
}

func TestRenderSaleTicket_SinQRNiLineas(t *testing.T) {
	s := sampleSale()
	s.Items = nil
	s.Status = entity.SaleStatusPending

	out, err := pdf.NewRenderer("").RenderSaleTicket(context.Background(), s, "")
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(out[:4]))
}

func TestRenderSaleTicket_VentaNil(t *testing.T) {
	_, err := pdf.NewRenderer("").RenderSaleTicket(context.Background(), nil, "")
	assert.Error(t, err)
}

func TestRenderSalesReport_GeneraPDF(t *testing.T) {
	rep := &entity.SalesReport{
		ID:          "rep-1",
		Period:      entity.ReportMonthly,
		PeriodStart: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:   time.Date(2026, 3, 31, 18, 0, 0, 0, time.UTC),
		Summary: entity.ReportSummary{
			SaleCount:      2,
			TotalRevenue:   decimal.NewFromInt(40000),
			TotalUnitsSold: 5,
			AverageSale:    decimal.NewFromInt(20000),
			RevenueByProduct: map[string]entity.ProductRevenue{
				"Riz brisé": {Quantity: 2, Revenue: decimal.NewFromInt(25000)},
				"Huile":     {Quantity: 3, Revenue: decimal.NewFromInt(15000)},
			},
		},
		GeneratedBy: "admin",
		GeneratedAt: time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC),
	}
	out, err := pdf.NewRenderer("Boutique").RenderSalesReport(context.Background(), rep, "https://ventes.example/rapport/rep-1")
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(out[:4]))
}

func TestRenderSalesReport_Vacio(t *testing.T) {
	rep := &entity.SalesReport{Period: entity.ReportDaily, PeriodStart: time.Now(), PeriodEnd: time.Now().AddDate(0, 0, 1)}
	out, err := pdf.NewRenderer("").RenderSalesReport(context.Background(), rep, "")
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(out[:4]))
}
