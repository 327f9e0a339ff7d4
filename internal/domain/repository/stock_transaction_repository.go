package repository

import (
	"context"

	"github.com/jhoicas/FichesVente-api/internal/domain/entity"
)

// StockTransactionRepository libro de movimientos (solo inserción).
type StockTransactionRepository interface {
	Create(ctx context.Context, tx *entity.StockTransaction) error
	// ListByItem movimientos de un artículo en orden cronológico ascendente.
	ListByItem(ctx context.Context, stockItemID string) ([]*entity.StockTransaction, error)
	// List todos los movimientos, más recientes primero.
	List(ctx context.Context, limit, offset int) ([]*entity.StockTransaction, error)
}
