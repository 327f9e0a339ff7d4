package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/FichesVente-api/internal/application/inventory"
	"github.com/jhoicas/FichesVente-api/internal/application/sales"
	"github.com/jhoicas/FichesVente-api/internal/domain"
	"github.com/jhoicas/FichesVente-api/internal/domain/entity"
	"github.com/jhoicas/FichesVente-api/internal/domain/repository"
	"github.com/jhoicas/FichesVente-api/internal/infrastructure/sqlite"
	"github.com/jhoicas/FichesVente-api/pkg/logger"
)

func openDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, sqlite.Migrate(context.Background(), db))
	require.NoError(t, sqlite.Migrate(context.Background(), db))
	return db
}

func newLedger(db *sqlx.DB) *inventory.StockLedger {
	return inventory.NewStockLedger(
		sqlite.NewTxRunner(db),
		sqlite.NewStockItemRepository(db),
		sqlite.NewStockTransactionRepository(db),
		logger.Nop(),
	)
}

// ─── Artículos y libro ───────────────────────────────────────────────────────

func TestSQLite_LibroDeStock(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()
	ledger := newLedger(db)

	item, err := ledger.AddItem(ctx, inventory.NewItemInput{
		Name: "Poulet", OnHand: 10, Baseline: 12, AlertThreshold: 3, Unit: entity.UnitKG, UnitPrice: decimal.RequireFromString("2750.25"),
	})
	require.NoError(t, err)

	_, err = ledger.AddItem(ctx, inventory.NewItemInput{Name: " POULET ", OnHand: 1, Unit: entity.UnitKG})
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	ok, err := ledger.Decrement(ctx, inventory.Movement{Name: "poulet", Quantity: 4, Operator: "awa"})
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = ledger.Decrement(ctx, inventory.Movement{Name: "poulet", Quantity: 7})
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := ledger.GetItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, got.OnHand)
	assert.True(t, decimal.RequireFromString("2750.25").Equal(got.UnitPrice))

	reset, err := ledger.ResetToBaseline(ctx, item.ID, "awa")
	require.NoError(t, err)
	assert.True(t, reset)

	txns, err := ledger.ItemTransactions(ctx, item.ID)
	require.NoError(t, err)
	require.Len(t, txns, 2)
	assert.Equal(t, entity.TransactionOut, txns[0].Kind)
	assert.Equal(t, "awa", txns[0].Operator)
	assert.Equal(t, entity.TransactionIn, txns[1].Kind)
	assert.Equal(t, 6, txns[1].Quantity)

	latest, err := ledger.ListTransactions(ctx, 1, 0)
	require.NoError(t, err)
	require.Len(t, latest, 1)
	assert.Equal(t, txns[1].ID, latest[0].ID)

	audit, err := ledger.Audit(ctx, item.ID)
	require.NoError(t, err)
	assert.True(t, audit.Consistent)
}

func TestSQLite_Papelera(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()
	ledger := newLedger(db)

	first, err := ledger.AddItem(ctx, inventory.NewItemInput{Name: "Oeufs", OnHand: 5, Unit: entity.UnitDozen})
	require.NoError(t, err)
	require.NoError(t, ledger.DeleteItem(ctx, first.ID))

	trash, err := ledger.ListTrash(ctx)
	require.NoError(t, err)
	require.Len(t, trash, 1)
	assert.NotNil(t, trash[0].DeletedAt)

	// el nombre queda libre mientras el original está en la papelera
	_, err = ledger.AddItem(ctx, inventory.NewItemInput{Name: "oeufs", OnHand: 2, Unit: entity.UnitDozen})
	require.NoError(t, err)
	_, err = ledger.RestoreItem(ctx, first.ID)
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	require.NoError(t, ledger.PurgeItem(ctx, first.ID))
	trash, err = ledger.ListTrash(ctx)
	require.NoError(t, err)
	assert.Empty(t, trash)
}

func TestSQLite_OnHandNegativoRechazado(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()
	items := sqlite.NewStockItemRepository(db)
	now := time.Now()
	it := &entity.StockItem{
		ID: uuid.New().String(), Name: "Lait", NameKey: "lait", OnHand: 1, Unit: entity.UnitUnit,
		UnitPrice: decimal.Zero, CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, items.Create(ctx, it))
	assert.ErrorIs(t, items.UpdateOnHand(ctx, it.ID, -1), domain.ErrInvariantViolation)
	assert.ErrorIs(t, items.UpdateOnHand(ctx, "no-existe", 3), domain.ErrNotFound)
}

// ─── Ventas ──────────────────────────────────────────────────────────────────

func TestSQLite_VentasFiltros(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()
	ledger := newLedger(db)
	_, err := ledger.AddItem(ctx, inventory.NewItemInput{Name: "Poulet", OnHand: 20, Unit: entity.UnitUnit, UnitPrice: decimal.NewFromInt(3000)})
	require.NoError(t, err)

	repo := sqlite.NewSaleRepository(db)
	lc := sales.NewSaleLifecycle(ledger, repo, logger.Nop())
	day := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	var ids []string
	for i := 0; i < 3; i++ {
		d := day.AddDate(0, 0, i)
		s, err := lc.CreateSale(ctx, sales.SaleDraft{
			SaleDate: d, CustomerPhone: "770000000", DeliveryAddress: "Yoff", Courier: "Ibou",
			PaymentMethod: entity.PaymentCash, PaymentMethod2: entity.PaymentWave,
			Items: []entity.SaleItem{{ProductName: "Poulet", Quantity: 2, UnitPrice: decimal.NewFromInt(3000)}},
		})
		require.NoError(t, err)
		ids = append(ids, s.ID)
	}
	_, err = lc.CancelSale(ctx, ids[0], "awa")
	require.NoError(t, err)

	all, err := repo.List(ctx, repository.SaleFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, ids[2], all[0].ID)
	assert.Equal(t, entity.PaymentWave, all[0].PaymentMethod2)

	from := day.AddDate(0, 0, 1)
	active, err := repo.List(ctx, repository.SaleFilter{Statuses: []string{entity.SaleStatusActive}, From: &from, Limit: 1})
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, ids[2], active[0].ID)

	cancelled, err := repo.GetByID(ctx, ids[0])
	require.NoError(t, err)
	assert.Equal(t, entity.SaleStatusCancelled, cancelled.Status)
	require.Len(t, cancelled.Items, 1)
	assert.True(t, decimal.NewFromInt(6000).Equal(cancelled.Total()))
}

func TestSQLite_UpdateStatusCompareAndSet(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()
	ledger := newLedger(db)
	_, err := ledger.AddItem(ctx, inventory.NewItemInput{Name: "Poulet", OnHand: 5, Unit: entity.UnitUnit, UnitPrice: decimal.NewFromInt(3000)})
	require.NoError(t, err)

	repo := sqlite.NewSaleRepository(db)
	lc := sales.NewSaleLifecycle(ledger, repo, logger.Nop())
	s, err := lc.CreateSale(ctx, sales.SaleDraft{
		SaleDate: time.Now(), CustomerPhone: "770000000", DeliveryAddress: "Yoff", Courier: "Ibou",
		PaymentMethod: entity.PaymentCash,
		Items:         []entity.SaleItem{{ProductName: "Poulet", Quantity: 1, UnitPrice: decimal.NewFromInt(3000)}},
	})
	require.NoError(t, err)

	ch := repository.StatusChange{ID: s.ID, From: entity.SaleStatusActive, To: entity.SaleStatusCancelled, At: time.Now()}
	ok, err := repo.UpdateStatus(ctx, ch)
	require.NoError(t, err)
	assert.True(t, ok)

	// El segundo intento ya no encuentra la venta en ACTIVE.
	ok, err = repo.UpdateStatus(ctx, ch)
	require.NoError(t, err)
	assert.False(t, ok)

	s.Courier = "Modou"
	assert.ErrorIs(t, repo.Update(ctx, s), domain.ErrConflict, "una venta cancelada no admite edición")

	got, err := repo.GetByID(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.SaleStatusCancelled, got.Status)
	assert.Equal(t, "Ibou", got.Courier)
}

// ─── Usuarios y reportes ─────────────────────────────────────────────────────

func TestSQLite_Usuarios(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()
	repo := sqlite.NewUserRepository(db)
	now := time.Now()
	u := &entity.User{ID: uuid.New().String(), Username: "Awa", PasswordHash: "x", Role: entity.RoleAdmin, IsActive: true, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, repo.Create(ctx, u))

	dup := *u
	dup.ID = uuid.New().String()
	dup.Username = "AWA"
	assert.ErrorIs(t, repo.Create(ctx, &dup), domain.ErrDuplicate)

	got, err := repo.GetByUsername(ctx, "awa")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.IsActive)
	assert.False(t, got.TwoFactorEnabled)

	got.TwoFactorEnabled = true
	require.NoError(t, repo.Update(ctx, got))
	got, err = repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, got.TwoFactorEnabled)

	require.NoError(t, repo.Delete(ctx, u.ID))
	assert.ErrorIs(t, repo.Delete(ctx, u.ID), domain.ErrNotFound)
}

func TestSQLite_Reportes(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()
	repo := sqlite.NewReportRepository(db)
	now := time.Date(2024, 6, 30, 12, 0, 0, 0, time.UTC)
	rep := &entity.SalesReport{
		ID: uuid.New().String(), Period: entity.ReportMonthly,
		PeriodStart: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), PeriodEnd: now,
		Summary: entity.ReportSummary{
			SaleCount: 2, TotalRevenue: decimal.NewFromInt(9000), AverageSale: decimal.NewFromInt(4500),
			RevenueByProduct: map[string]entity.ProductRevenue{"Poulet": {Quantity: 3, Revenue: decimal.NewFromInt(9000)}},
		},
		GeneratedBy: "awa", GeneratedAt: now,
	}
	require.NoError(t, repo.Create(ctx, rep))

	got, err := repo.GetByID(ctx, rep.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 2, got.Summary.SaleCount)
	assert.True(t, decimal.NewFromInt(9000).Equal(got.Summary.RevenueByProduct["Poulet"].Revenue))
	assert.True(t, now.Equal(got.GeneratedAt))

	list, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
