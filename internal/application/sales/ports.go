package sales

import (
	"context"

	"github.com/jhoicas/FichesVente-api/internal/application/inventory"
	"github.com/jhoicas/FichesVente-api/internal/domain/entity"
)

// StockLedger operaciones del libro de stock que usa el ciclo de vida de una venta.
// Implementado por *inventory.StockLedger.
type StockLedger interface {
	CheckAvailability(ctx context.Context, name string, qty int) (inventory.Availability, error)
	Decrement(ctx context.Context, m inventory.Movement) (bool, error)
	Increment(ctx context.Context, m inventory.Movement) (bool, error)
}

// TicketRenderer genera la ficha imprimible (PDF) de una venta; qrURL se codifica como QR.
type TicketRenderer interface {
	RenderSaleTicket(ctx context.Context, sale *entity.Sale, qrURL string) ([]byte, error)
}
