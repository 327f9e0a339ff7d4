package inventory

import (
	"context"

	"github.com/jhoicas/FichesVente-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción, pasando repositorios atados a esa tx.
// Garantiza atomicidad para el libro de stock: si fn devuelve error no queda nada aplicado.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		items repository.StockItemRepository,
		txns repository.StockTransactionRepository,
	) error) error
}
