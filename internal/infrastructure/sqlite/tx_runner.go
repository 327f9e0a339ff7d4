package sqlite

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/jhoicas/FichesVente-api/internal/application/inventory"
	"github.com/jhoicas/FichesVente-api/internal/domain/repository"
)

var _ inventory.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción SQLite.
type TxRunner struct {
	db *sqlx.DB
}

// NewTxRunner construye el runner.
func NewTxRunner(db *sqlx.DB) *TxRunner {
	return &TxRunner{db: db}
}

// Run abre la tx, ejecuta fn con repos atados a ella y hace Commit o Rollback.
// Con una sola conexión abierta las transacciones se ejecutan de a una.
func (r *TxRunner) Run(ctx context.Context, fn func(
	itemRepo repository.StockItemRepository,
	txnRepo repository.StockTransactionRepository,
) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(NewStockItemRepository(tx), NewStockTransactionRepository(tx)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite commit: %w", err)
	}
	return nil
}
