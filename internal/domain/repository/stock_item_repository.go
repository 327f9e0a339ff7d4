package repository

import (
	"context"

	"github.com/jhoicas/FichesVente-api/internal/domain/entity"
)

// StockItemRepository define el puerto de persistencia para StockItem.
// Los métodos de lectura ignoran los artículos en papelera salvo ListDeleted/GetDeletedByID.
// Un registro inexistente se devuelve como (nil, nil).
type StockItemRepository interface {
	Create(ctx context.Context, item *entity.StockItem) error
	GetByID(ctx context.Context, id string) (*entity.StockItem, error)
	GetByNameKey(ctx context.Context, nameKey string) (*entity.StockItem, error)
	// GetByIDForUpdate y GetByNameKeyForUpdate bloquean la fila (SELECT FOR UPDATE) dentro de una tx.
	GetByIDForUpdate(ctx context.Context, id string) (*entity.StockItem, error)
	GetByNameKeyForUpdate(ctx context.Context, nameKey string) (*entity.StockItem, error)
	// Update persiste campos descriptivos; nunca escribe OnHand.
	Update(ctx context.Context, item *entity.StockItem) error
	UpdateOnHand(ctx context.Context, id string, onHand int) error
	List(ctx context.Context) ([]*entity.StockItem, error)
	SoftDelete(ctx context.Context, id string) error
	ListDeleted(ctx context.Context) ([]*entity.StockItem, error)
	GetDeletedByID(ctx context.Context, id string) (*entity.StockItem, error)
	Restore(ctx context.Context, id string) error
	Purge(ctx context.Context, id string) error
}
