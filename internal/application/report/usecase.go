// Package report genera, persiste y exporta reportes de ventas.
package report

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/FichesVente-api/internal/application/dto"
	"github.com/jhoicas/FichesVente-api/internal/domain"
	"github.com/jhoicas/FichesVente-api/internal/domain/entity"
	domreport "github.com/jhoicas/FichesVente-api/internal/domain/report"
	"github.com/jhoicas/FichesVente-api/internal/domain/repository"
	"github.com/jhoicas/FichesVente-api/pkg/logger"
)

// ReportUseCase casos de uso de reportes de ventas.
type ReportUseCase struct {
	sales         repository.SaleRepository
	reports       repository.ReportRepository
	renderer      ReportRenderer
	publicBaseURL string
	log           *logger.Logger
	now           func() time.Time
}

// NewReportUseCase construye el caso de uso. renderer puede ser nil si no se sirven PDFs.
func NewReportUseCase(sales repository.SaleRepository, reports repository.ReportRepository, renderer ReportRenderer, publicBaseURL string, log *logger.Logger) *ReportUseCase {
	return &ReportUseCase{
		sales:         sales,
		reports:       reports,
		renderer:      renderer,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		log:           log.Component("report"),
		now:           time.Now,
	}
}

// WithClock reemplaza el reloj usado para calcular el periodo.
func (uc *ReportUseCase) WithClock(now func() time.Time) *ReportUseCase {
	uc.now = now
	return uc
}

// Generate calcula el reporte del periodo en curso (día, mes o año hasta ahora) y lo persiste.
func (uc *ReportUseCase) Generate(ctx context.Context, in dto.GenerateReportRequest, operator string) (*dto.ReportResponse, error) {
	period := strings.ToUpper(strings.TrimSpace(in.Period))
	now := uc.now()
	start, end, err := domreport.Bounds(period, now)
	if err != nil {
		return nil, err
	}
	all, err := uc.sales.List(ctx, repository.SaleFilter{From: &start, To: &end})
	if err != nil {
		return nil, fmt.Errorf("report: listar ventas: %w", err)
	}
	r := &entity.SalesReport{
		ID:          uuid.New().String(),
		Period:      period,
		PeriodStart: start,
		PeriodEnd:   end,
		Summary:     domreport.Summarize(domreport.InRange(all, start, end)),
		GeneratedBy: operator,
		GeneratedAt: now,
	}
	if err := uc.reports.Create(ctx, r); err != nil {
		return nil, err
	}
	uc.log.Info().
		Str("report_id", r.ID).
		Str("period", period).
		Int("sales", r.Summary.SaleCount).
		Str("revenue", r.Summary.TotalRevenue.String()).
		Msg("reporte generado")
	return ToReportResponse(r), nil
}

// List reportes guardados, más recientes primero.
func (uc *ReportUseCase) List(ctx context.Context) ([]dto.ReportResponse, error) {
	list, err := uc.reports.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.ReportResponse, 0, len(list))
	for _, r := range list {
		out = append(out, *ToReportResponse(r))
	}
	return out, nil
}

// Get obtiene un reporte por ID.
func (uc *ReportUseCase) Get(ctx context.Context, id string) (*dto.ReportResponse, error) {
	r, err := uc.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return ToReportResponse(r), nil
}

// Delete elimina un reporte guardado.
func (uc *ReportUseCase) Delete(ctx context.Context, id string) error {
	if _, err := uc.load(ctx, id); err != nil {
		return err
	}
	return uc.reports.Delete(ctx, id)
}

// ReportURL URL pública codificada en el QR del reporte.
func (uc *ReportUseCase) ReportURL(id string) string {
	return uc.publicBaseURL + "/rapport/" + id
}

// PDF genera el PDF del reporte; devuelve bytes y nombre de archivo.
func (uc *ReportUseCase) PDF(ctx context.Context, id string) ([]byte, string, error) {
	if uc.renderer == nil {
		return nil, "", fmt.Errorf("report: renderer PDF no configurado")
	}
	r, err := uc.load(ctx, id)
	if err != nil {
		return nil, "", err
	}
	b, err := uc.renderer.RenderSalesReport(ctx, r, uc.ReportURL(r.ID))
	if err != nil {
		return nil, "", fmt.Errorf("report: generar PDF: %w", err)
	}
	name := fmt.Sprintf("rapport_%s_%s.pdf", strings.ToLower(r.Period), r.GeneratedAt.Format("2006-01-02"))
	return b, name, nil
}

func (uc *ReportUseCase) load(ctx context.Context, id string) (*entity.SalesReport, error) {
	r, err := uc.reports.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, domain.ErrNotFound
	}
	return r, nil
}

// ToReportResponse convierte entidad a DTO; productos por ingreso descendente.
func ToReportResponse(r *entity.SalesReport) *dto.ReportResponse {
	lines := domreport.ByRevenue(r.Summary)
	products := make([]dto.ProductSalesDTO, 0, len(lines))
	for _, l := range lines {
		products = append(products, dto.ProductSalesDTO{ProductName: l.Name, Quantity: l.Quantity, Revenue: l.Revenue})
	}
	s := r.Summary
	return &dto.ReportResponse{
		ID:             r.ID,
		Period:         r.Period,
		PeriodStart:    r.PeriodStart,
		PeriodEnd:      r.PeriodEnd,
		SaleCount:      s.SaleCount,
		TotalRevenue:   s.TotalRevenue,
		TotalUnitsSold: s.TotalUnitsSold,
		AverageSale:    s.AverageSale,
		Products:       products,
		CancelledCount: s.CancelledCount,
		CancelledTotal: s.CancelledTotal,
		RefundedCount:  s.RefundedCount,
		RefundedTotal:  s.RefundedTotal,
		PendingCount:   s.PendingCount,
		GeneratedBy:    r.GeneratedBy,
		GeneratedAt:    r.GeneratedAt,
	}
}
