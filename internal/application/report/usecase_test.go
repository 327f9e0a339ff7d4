package report_test

import (
	"bytes"
	"context"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/FichesVente-api/internal/application/dto"
	"github.com/jhoicas/FichesVente-api/internal/application/inventory"
	"github.com/jhoicas/FichesVente-api/internal/application/report"
	"github.com/jhoicas/FichesVente-api/internal/domain"
	"github.com/jhoicas/FichesVente-api/internal/domain/entity"
	"github.com/jhoicas/FichesVente-api/internal/domain/repository"
	"github.com/jhoicas/FichesVente-api/internal/infrastructure/memory"
	"github.com/jhoicas/FichesVente-api/pkg/logger"
)

var now = time.Date(2024, 5, 15, 18, 30, 0, 0, time.UTC)

type fakeRenderer struct{ url string }

func (r *fakeRenderer) RenderSalesReport(_ context.Context, _ *entity.SalesReport, qrURL string) ([]byte, error) {
	r.url = qrURL
	return []byte("%PDF-1.4"), nil
}

func newUseCase(t *testing.T) (*report.ReportUseCase, *memory.Store, *fakeRenderer) {
	t.Helper()
	s := memory.NewStore()
	r := &fakeRenderer{}
	uc := report.NewReportUseCase(s.Sales(), s.Reports(), r, "https://fiches.sn/", logger.Nop()).
		WithClock(func() time.Time { return now })
	return uc, s, r
}

func line(name string, qty int, price int64) entity.SaleItem {
	return entity.SaleItem{ProductName: name, Quantity: qty, UnitPrice: decimal.NewFromInt(price), Unit: entity.UnitUnit}
}

func putSale(t *testing.T, s *memory.Store, date time.Time, status string, pay1, pay2 string, items ...entity.SaleItem) *entity.Sale {
	t.Helper()
	sl := &entity.Sale{
		ID: uuid.New().String(), SaleDate: date, CustomerPhone: "770000000", DeliveryAddress: "Dakar",
		Courier: "Moussa", PaymentMethod: pay1, PaymentMethod2: pay2, Items: items, Status: status,
		CreatedAt: date, UpdatedAt: date,
	}
	require.NoError(t, s.Sales().Create(context.Background(), sl))
	return sl
}

// ─── Generación ──────────────────────────────────────────────────────────────

func TestGenerate_Mensual(t *testing.T) {
	uc, s, _ := newUseCase(t)
	putSale(t, s, now.Add(-2*time.Hour), entity.SaleStatusActive, entity.PaymentWave, "", line("Poulet", 2, 3000), line("Oeufs", 1, 1500))
	putSale(t, s, now.AddDate(0, 0, -10), entity.SaleStatusActive, entity.PaymentCash, "", line("Poulet", 1, 3000))
	putSale(t, s, now.AddDate(0, 0, -3), entity.SaleStatusCancelled, entity.PaymentCash, "", line("Poulet", 4, 3000))
	putSale(t, s, now.AddDate(0, 0, -1), entity.SaleStatusPending, entity.PaymentCash, "", line("Oeufs", 4, 1500))
	putSale(t, s, now.AddDate(0, -1, 0), entity.SaleStatusActive, entity.PaymentCash, "", line("Poulet", 9, 3000))

	out, err := uc.Generate(context.Background(), dto.GenerateReportRequest{Period: "monthly"}, "awa")
	require.NoError(t, err)

	assert.Equal(t, entity.ReportMonthly, out.Period)
	assert.Equal(t, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), out.PeriodStart)
	assert.Equal(t, 2, out.SaleCount)
	assert.True(t, decimal.NewFromInt(10500).Equal(out.TotalRevenue))
	assert.Equal(t, 4, out.TotalUnitsSold)
	assert.True(t, decimal.NewFromInt(5250).Equal(out.AverageSale))
	assert.Equal(t, 1, out.CancelledCount)
	assert.True(t, decimal.NewFromInt(12000).Equal(out.CancelledTotal))
	assert.Equal(t, 1, out.PendingCount)
	require.Len(t, out.Products, 2)
	assert.Equal(t, "Poulet", out.Products[0].ProductName)

	got, err := uc.Get(context.Background(), out.ID)
	require.NoError(t, err)
	assert.Equal(t, out.SaleCount, got.SaleCount)
	assert.Equal(t, "awa", got.GeneratedBy)
}

func TestGenerate_SinVentasPromedioCero(t *testing.T) {
	uc, _, _ := newUseCase(t)
	out, err := uc.Generate(context.Background(), dto.GenerateReportRequest{Period: entity.ReportDaily}, "awa")
	require.NoError(t, err)
	assert.Zero(t, out.SaleCount)
	assert.True(t, out.AverageSale.IsZero())
}

func TestGenerate_PeriodoInvalido(t *testing.T) {
	uc, _, _ := newUseCase(t)
	_, err := uc.Generate(context.Background(), dto.GenerateReportRequest{Period: "WEEKLY"}, "awa")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestDeleteYPDF(t *testing.T) {
	uc, _, r := newUseCase(t)
	out, err := uc.Generate(context.Background(), dto.GenerateReportRequest{Period: entity.ReportYearly}, "awa")
	require.NoError(t, err)

	b, name, err := uc.PDF(context.Background(), out.ID)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(b, []byte("%PDF")))
	assert.Equal(t, "rapport_yearly_2024-05-15.pdf", name)
	assert.Equal(t, "https://fiches.sn/rapport/"+out.ID, r.url)

	require.NoError(t, uc.Delete(context.Background(), out.ID))
	assert.ErrorIs(t, uc.Delete(context.Background(), out.ID), domain.ErrNotFound)
	list, err := uc.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
}

// ─── Gráficos ────────────────────────────────────────────────────────────────

func TestCharts(t *testing.T) {
	uc, s, _ := newUseCase(t)
	putSale(t, s, time.Date(2024, 4, 2, 10, 0, 0, 0, time.UTC), entity.SaleStatusActive, entity.PaymentWave, entity.PaymentCash, line("Poulet", 3, 3000))
	putSale(t, s, time.Date(2024, 5, 2, 10, 0, 0, 0, time.UTC), entity.SaleStatusActive, entity.PaymentWave, "", line("Oeufs", 1, 1500))
	putSale(t, s, time.Date(2024, 5, 3, 10, 0, 0, 0, time.UTC), entity.SaleStatusRefunded, entity.PaymentOrange, "", line("Oeufs", 50, 1500))

	c, err := uc.Charts(context.Background())
	require.NoError(t, err)

	require.Len(t, c.PaymentMethods, 2)
	assert.Equal(t, entity.PaymentWave, c.PaymentMethods[0].Method)
	assert.Equal(t, 2, c.PaymentMethods[0].Count)
	assert.Equal(t, "66.7", c.PaymentMethods[0].Percentage.String())
	assert.Equal(t, "33.3", c.PaymentMethods[1].Percentage.String())

	require.Len(t, c.TopProducts, 2)
	assert.Equal(t, "Poulet", c.TopProducts[0].ProductName)
	assert.Equal(t, "75", c.TopProducts[0].Percentage.String())

	require.Len(t, c.MonthlyRevenue, 2)
	assert.Equal(t, "2024-04", c.MonthlyRevenue[0].Month)
	assert.True(t, decimal.NewFromInt(9000).Equal(c.MonthlyRevenue[0].Total))
	assert.Equal(t, "2024-05", c.MonthlyRevenue[1].Month)
}

// ─── Exportación CSV ─────────────────────────────────────────────────────────

func TestExportSales_ColumnasYPapeleraExcluida(t *testing.T) {
	_, s, _ := newUseCase(t)
	sl := putSale(t, s, now, entity.SaleStatusActive, entity.PaymentWave, "", line("Poulet", 2, 3000))
	putSale(t, s, now, entity.SaleStatusDeleted, entity.PaymentWave, "", line("Poulet", 2, 3000))

	exp := report.NewCSVExporter(s.Sales(), nil)
	var buf bytes.Buffer
	require.NoError(t, exp.ExportSales(context.Background(), &buf, repository.SaleFilter{}, report.CharsetUTF8))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Len(t, rows[0], 13)
	assert.Equal(t, sl.ID, rows[1][0])
	assert.Equal(t, "15/05/2024", rows[1][1])
	assert.Equal(t, "Poulet (2 UNIT x 3000 F CFA)", rows[1][8])
	assert.Equal(t, "6000", rows[1][9])
	assert.Equal(t, "Non", rows[1][11])
}

func TestExportSummary_Top10(t *testing.T) {
	_, s, _ := newUseCase(t)
	for i := 0; i < 12; i++ {
		putSale(t, s, now, entity.SaleStatusActive, entity.PaymentCash, "", line(string(rune('A'+i)), i+1, 100))
	}
	exp := report.NewCSVExporter(s.Sales(), nil)
	var buf bytes.Buffer
	require.NoError(t, exp.ExportSummary(context.Background(), &buf, repository.SaleFilter{}, report.CharsetUTF8))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, "RÉSUMÉ DES VENTES", rows[0][0])
	assert.Equal(t, []string{"Total des fiches créées", "12"}, rows[3])
	// 14 filas fijas + 10 productos
	require.Len(t, rows, 24)
	assert.Equal(t, "L", rows[14][0])
	assert.Equal(t, "12 unités - 1200 F CFA", rows[14][1])
}

func TestExportStock_Windows1252(t *testing.T) {
	s := memory.NewStore()
	l := inventory.NewStockLedger(memory.NewTxRunner(s), s.StockItems(), s.StockTransactions(), logger.Nop())
	_, err := l.AddItem(context.Background(), inventory.NewItemInput{
		Name: "Pâté", OnHand: 5, Baseline: 20, AlertThreshold: 6, Unit: entity.UnitKG, UnitPrice: decimal.NewFromInt(2500),
	})
	require.NoError(t, err)

	exp := report.NewCSVExporter(s.Sales(), l)
	var buf bytes.Buffer
	require.NoError(t, exp.ExportStock(context.Background(), &buf, report.CharsetWindows1252))

	raw := buf.Bytes()
	assert.True(t, bytes.Contains(raw, []byte{'P', 0xE2, 't', 0xE9}))
	assert.False(t, strings.Contains(string(raw), "Pâté"))
	assert.True(t, bytes.Contains(raw, []byte("25%,LOW")))
}

func TestParseCharset(t *testing.T) {
	c, err := report.ParseCharset("")
	require.NoError(t, err)
	assert.Equal(t, report.CharsetUTF8, c)
	c, err = report.ParseCharset("CP1252")
	require.NoError(t, err)
	assert.Equal(t, report.CharsetWindows1252, c)
	_, err = report.ParseCharset("ebcdic")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
