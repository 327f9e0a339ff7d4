// Package store elige el backend de persistencia según la configuración.
package store

import (
	"context"
	"fmt"

	"github.com/jhoicas/FichesVente-api/internal/application/inventory"
	"github.com/jhoicas/FichesVente-api/internal/domain/repository"
	"github.com/jhoicas/FichesVente-api/internal/infrastructure/memory"
	"github.com/jhoicas/FichesVente-api/internal/infrastructure/postgres"
	"github.com/jhoicas/FichesVente-api/internal/infrastructure/sqlite"
	"github.com/jhoicas/FichesVente-api/pkg/config"
	"github.com/jhoicas/FichesVente-api/pkg/logger"
)

// Repositories adaptadores de un mismo backend.
type Repositories struct {
	Driver       string
	TxRunner     inventory.TxRunner
	StockItems   repository.StockItemRepository
	Transactions repository.StockTransactionRepository
	Sales        repository.SaleRepository
	Reports      repository.ReportRepository
	Users        repository.UserRepository

	close func()
}

// Close libera conexiones del backend.
func (r *Repositories) Close() {
	if r.close != nil {
		r.close()
	}
}

// Open abre el backend configurado y ejecuta migraciones.
// Con Store.Fallback, un PostgreSQL inaccesible degrada a SQLite local.
func Open(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Repositories, error) {
	log = log.Component("store")
	switch cfg.Store.Driver {
	case config.StoreDriverMemory:
		log.Warn().Msg("almacén en memoria: los datos se pierden al reiniciar")
		return openMemory(), nil
	case config.StoreDriverSQLite:
		return openSQLite(ctx, cfg.Store.SQLitePath)
	}

	repos, err := openPostgres(ctx, cfg.DB)
	if err == nil {
		return repos, nil
	}
	if !cfg.Store.Fallback {
		return nil, err
	}
	log.Error().Err(err).Str("sqlite_path", cfg.Store.SQLitePath).Msg("PostgreSQL no disponible, usando SQLite local")
	return openSQLite(ctx, cfg.Store.SQLitePath)
}

func openPostgres(ctx context.Context, cfg config.DBConfig) (*Repositories, error) {
	pool, err := postgres.NewPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("store postgres: %w", err)
	}
	if err := postgres.Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("store postgres: %w", err)
	}
	return &Repositories{
		Driver:       config.StoreDriverPostgres,
		TxRunner:     postgres.NewTxRunner(pool),
		StockItems:   postgres.NewStockItemRepository(pool),
		Transactions: postgres.NewStockTransactionRepository(pool),
		Sales:        postgres.NewSaleRepository(pool),
		Reports:      postgres.NewReportRepository(pool),
		Users:        postgres.NewUserRepository(pool),
		close:        pool.Close,
	}, nil
}

func openSQLite(ctx context.Context, path string) (*Repositories, error) {
	db, err := sqlite.Open(path)
	if err != nil {
		return nil, err
	}
	if err := sqlite.Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Repositories{
		Driver:       config.StoreDriverSQLite,
		TxRunner:     sqlite.NewTxRunner(db),
		StockItems:   sqlite.NewStockItemRepository(db),
		Transactions: sqlite.NewStockTransactionRepository(db),
		Sales:        sqlite.NewSaleRepository(db),
		Reports:      sqlite.NewReportRepository(db),
		Users:        sqlite.NewUserRepository(db),
		close:        func() { _ = db.Close() },
	}, nil
}

func openMemory() *Repositories {
	s := memory.NewStore()
	return &Repositories{
		Driver:       config.StoreDriverMemory,
		TxRunner:     memory.NewTxRunner(s),
		StockItems:   s.StockItems(),
		Transactions: s.StockTransactions(),
		Sales:        s.Sales(),
		Reports:      s.Reports(),
		Users:        s.Users(),
	}
}
