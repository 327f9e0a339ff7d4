package sales

import (
	"context"
	"fmt"
	"strings"

	"github.com/jhoicas/FichesVente-api/internal/domain"
	"github.com/jhoicas/FichesVente-api/internal/domain/repository"
)

// TicketUseCase genera la ficha imprimible de una venta con un QR hacia su vista pública.
type TicketUseCase struct {
	sales         repository.SaleRepository
	renderer      TicketRenderer
	publicBaseURL string
}

// NewTicketUseCase construye el caso de uso.
func NewTicketUseCase(sales repository.SaleRepository, renderer TicketRenderer, publicBaseURL string) *TicketUseCase {
	return &TicketUseCase{
		sales:         sales,
		renderer:      renderer,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}
}

// SaleURL URL pública de la venta (contenido del QR).
func (uc *TicketUseCase) SaleURL(id string) string {
	return fmt.Sprintf("%s/vente/%s", uc.publicBaseURL, id)
}

// DownloadTicket devuelve (pdfBytes, filename, nil) o domain.ErrNotFound.
func (uc *TicketUseCase) DownloadTicket(ctx context.Context, id string) ([]byte, string, error) {
	s, err := uc.sales.GetByID(ctx, id)
	if err != nil {
		return nil, "", fmt.Errorf("ticket: obtener venta: %w", err)
	}
	if s == nil {
		return nil, "", domain.ErrNotFound
	}
	pdf, err := uc.renderer.RenderSaleTicket(ctx, s, uc.SaleURL(s.ID))
	if err != nil {
		return nil, "", fmt.Errorf("ticket: generación fallida: %w", err)
	}
	return pdf, fmt.Sprintf("fiche_%s.pdf", s.ShortID()), nil
}
