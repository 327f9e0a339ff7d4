package report

import (
	"context"

	"github.com/jhoicas/FichesVente-api/internal/domain/entity"
)

// ReportRenderer genera la vista imprimible de un reporte (PDF con QR).
type ReportRenderer interface {
	RenderSalesReport(ctx context.Context, r *entity.SalesReport, qrURL string) ([]byte, error)
}

// StockCatalog lectura de artículos activos para la exportación de stock.
type StockCatalog interface {
	ListItems(ctx context.Context) ([]*entity.StockItem, error)
}
