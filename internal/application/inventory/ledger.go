package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/FichesVente-api/internal/domain"
	"github.com/jhoicas/FichesVente-api/internal/domain/entity"
	domaininv "github.com/jhoicas/FichesVente-api/internal/domain/inventory"
	"github.com/jhoicas/FichesVente-api/internal/domain/repository"
	"github.com/jhoicas/FichesVente-api/pkg/logger"
)

// Motivos por defecto de los movimientos.
const (
	ReasonManualOut     = "Salida manual"
	ReasonManualIn      = "Entrada manual"
	ReasonResetBaseline = "Reinicio al stock base"
)

// errShortStock señal interna: la comprobación final de límites falló dentro de la tx.
var errShortStock = errors.New("stock insuficiente en el punto de mutación")

// StockLedger fuente de verdad de las cantidades disponibles y de su historial.
// Toda mutación de OnHand pasa por aquí, dentro de una transacción con la fila bloqueada.
type StockLedger struct {
	txRunner TxRunner
	items    repository.StockItemRepository
	txns     repository.StockTransactionRepository
	log      *logger.Logger
	now      func() time.Time
}

// NewStockLedger construye el libro de stock.
func NewStockLedger(
	txRunner TxRunner,
	items repository.StockItemRepository,
	txns repository.StockTransactionRepository,
	log *logger.Logger,
) *StockLedger {
	return &StockLedger{
		txRunner: txRunner,
		items:    items,
		txns:     txns,
		log:      log.Component("stock_ledger"),
		now:      time.Now,
	}
}

// WithClock reemplaza el reloj (tests).
func (l *StockLedger) WithClock(now func() time.Time) *StockLedger {
	l.now = now
	return l
}

// NewItemInput datos de alta de un artículo.
type NewItemInput struct {
	Name           string
	OnHand         int
	Baseline       int
	AlertThreshold int
	Unit           string
	UnitPrice      decimal.Decimal
}

// ItemPatch campos descriptivos modificables; nil = sin cambio. OnHand no es modificable aquí.
type ItemPatch struct {
	Name           *string
	Baseline       *int
	AlertThreshold *int
	Unit           *string
	UnitPrice      *decimal.Decimal
}

// Movement entrada de Decrement/Increment.
type Movement struct {
	Name     string
	Quantity int
	Reason   string
	SaleID   string
	Operator string
}

// Availability resultado de CheckAvailability.
type Availability struct {
	Available bool
	OnHand    int
	Item      *entity.StockItem
}

// AddItem da de alta un artículo. El stock inicial no genera movimiento; queda en InitialOnHand.
func (l *StockLedger) AddItem(ctx context.Context, in NewItemInput) (*entity.StockItem, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, domain.NewValidationError("name", "obligatorio")
	}
	if in.Baseline < 0 {
		return nil, domain.NewValidationError("baseline", "no puede ser negativo")
	}
	if in.OnHand < 0 {
		return nil, domain.NewValidationError("on_hand", "no puede ser negativo")
	}
	if in.AlertThreshold < 0 {
		return nil, domain.NewValidationError("alert_threshold", "no puede ser negativo")
	}
	if !entity.ValidUnit(in.Unit) {
		return nil, domain.NewValidationError("unit", "unidad inválida: "+in.Unit)
	}
	if in.UnitPrice.IsNegative() {
		return nil, domain.NewValidationError("unit_price", "no puede ser negativo")
	}

	key := domaininv.NameKey(name)
	existing, err := l.items.GetByNameKey(ctx, key)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrDuplicate
	}

	now := l.now()
	item := &entity.StockItem{
		ID:             uuid.New().String(),
		Name:           name,
		NameKey:        key,
		OnHand:         in.OnHand,
		InitialOnHand:  in.OnHand,
		Baseline:       in.Baseline,
		AlertThreshold: in.AlertThreshold,
		Unit:           in.Unit,
		UnitPrice:      in.UnitPrice,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := l.items.Create(ctx, item); err != nil {
		return nil, err
	}
	l.log.Info().Str("item_id", item.ID).Str("name", item.Name).Int("on_hand", item.OnHand).Msg("artículo creado")
	return item, nil
}

// UpdateItem modifica campos descriptivos. Nunca toca OnHand.
func (l *StockLedger) UpdateItem(ctx context.Context, id string, patch ItemPatch) (*entity.StockItem, error) {
	item, err := l.items.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}

	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, domain.NewValidationError("name", "obligatorio")
		}
		key := domaininv.NameKey(name)
		if key != item.NameKey {
			other, err := l.items.GetByNameKey(ctx, key)
			if err != nil {
				return nil, err
			}
			if other != nil && other.ID != item.ID {
				return nil, domain.ErrDuplicate
			}
		}
		item.Name, item.NameKey = name, key
	}
	if patch.Baseline != nil {
		if *patch.Baseline < 0 {
			return nil, domain.NewValidationError("baseline", "no puede ser negativo")
		}
		item.Baseline = *patch.Baseline
	}
	if patch.AlertThreshold != nil {
		if *patch.AlertThreshold < 0 {
			return nil, domain.NewValidationError("alert_threshold", "no puede ser negativo")
		}
		item.AlertThreshold = *patch.AlertThreshold
	}
	if patch.Unit != nil {
		if !entity.ValidUnit(*patch.Unit) {
			return nil, domain.NewValidationError("unit", "unidad inválida: "+*patch.Unit)
		}
		item.Unit = *patch.Unit
	}
	if patch.UnitPrice != nil {
		if patch.UnitPrice.IsNegative() {
			return nil, domain.NewValidationError("unit_price", "no puede ser negativo")
		}
		item.UnitPrice = *patch.UnitPrice
	}
	item.UpdatedAt = l.now()

	if err := l.items.Update(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// DeleteItem mueve el artículo a la papelera. Sus movimientos se conservan.
func (l *StockLedger) DeleteItem(ctx context.Context, id string) error {
	item, err := l.items.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if item == nil {
		return domain.ErrNotFound
	}
	if err := l.items.SoftDelete(ctx, id); err != nil {
		return err
	}
	l.log.Info().Str("item_id", id).Str("name", item.Name).Msg("artículo enviado a la papelera")
	return nil
}

// GetItem devuelve un artículo activo o ErrNotFound.
func (l *StockLedger) GetItem(ctx context.Context, id string) (*entity.StockItem, error) {
	item, err := l.items.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}
	return item, nil
}

// ListItems artículos activos en orden de alta.
func (l *StockLedger) ListItems(ctx context.Context) ([]*entity.StockItem, error) {
	return l.items.List(ctx)
}

// FindByName búsqueda exacta sin distinguir mayúsculas ni espacios. (nil, nil) si no existe.
func (l *StockLedger) FindByName(ctx context.Context, name string) (*entity.StockItem, error) {
	key := domaininv.NameKey(name)
	if key == "" {
		return nil, nil
	}
	return l.items.GetByNameKey(ctx, key)
}

// CheckAvailability consulta sin efectos. No reserva: quien muta debe volver a validar.
func (l *StockLedger) CheckAvailability(ctx context.Context, name string, qty int) (Availability, error) {
	item, err := l.FindByName(ctx, name)
	if err != nil {
		return Availability{}, err
	}
	if item == nil {
		return Availability{}, nil
	}
	return Availability{Available: item.OnHand >= qty, OnHand: item.OnHand, Item: item}, nil
}

// Decrement resta qty al artículo y registra un movimiento OUT.
// Devuelve false sin cambios si el producto no existe o el stock no alcanza en el punto de mutación.
func (l *StockLedger) Decrement(ctx context.Context, m Movement) (bool, error) {
	return l.moveByName(ctx, entity.TransactionOut, m)
}

// Increment suma qty al artículo y registra un movimiento IN. Devuelve false si el producto no existe.
func (l *StockLedger) Increment(ctx context.Context, m Movement) (bool, error) {
	return l.moveByName(ctx, entity.TransactionIn, m)
}

func (l *StockLedger) moveByName(ctx context.Context, kind string, m Movement) (bool, error) {
	if m.Quantity <= 0 {
		return false, domain.NewValidationError("quantity", "debe ser un entero positivo")
	}
	key := domaininv.NameKey(m.Name)
	if key == "" {
		return false, domain.NewValidationError("name", "obligatorio")
	}
	if strings.TrimSpace(m.Reason) == "" {
		m.Reason = defaultReason(kind)
	}

	var applied *entity.StockTransaction
	err := l.txRunner.Run(ctx, func(items repository.StockItemRepository, txns repository.StockTransactionRepository) error {
		item, err := items.GetByNameKeyForUpdate(ctx, key)
		if err != nil {
			return err
		}
		if item == nil {
			return nil
		}
		t, err := l.apply(ctx, items, txns, item, kind, m)
		if errors.Is(err, errShortStock) {
			return nil
		}
		if err != nil {
			return err
		}
		applied = t
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("movimiento %s %q: %w", kind, m.Name, err)
	}
	if applied == nil {
		l.log.Debug().Str("name", m.Name).Str("kind", kind).Int("quantity", m.Quantity).Msg("movimiento rechazado")
		return false, nil
	}
	l.logMovement(applied)
	return true, nil
}

// apply comprueba límites y escribe OnHand + movimiento con la fila ya bloqueada.
func (l *StockLedger) apply(
	ctx context.Context,
	items repository.StockItemRepository,
	txns repository.StockTransactionRepository,
	item *entity.StockItem,
	kind string,
	m Movement,
) (*entity.StockTransaction, error) {
	next := item.OnHand + m.Quantity
	if kind == entity.TransactionOut {
		next = item.OnHand - m.Quantity
	}
	if next < 0 {
		return nil, errShortStock
	}
	if err := items.UpdateOnHand(ctx, item.ID, next); err != nil {
		return nil, err
	}
	t := &entity.StockTransaction{
		ID:          uuid.New().String(),
		StockItemID: item.ID,
		ItemName:    item.Name,
		Kind:        kind,
		Quantity:    m.Quantity,
		Reason:      m.Reason,
		SaleID:      m.SaleID,
		Operator:    m.Operator,
		CreatedAt:   l.now(),
	}
	if err := txns.Create(ctx, t); err != nil {
		return nil, err
	}
	item.OnHand = next
	return t, nil
}

func (l *StockLedger) logMovement(t *entity.StockTransaction) {
	l.log.Debug().
		Str("item_id", t.StockItemID).
		Str("name", t.ItemName).
		Str("kind", t.Kind).
		Int("quantity", t.Quantity).
		Str("reason", t.Reason).
		Str("sale_id", t.SaleID).
		Str("operator", t.Operator).
		Msg("movimiento de stock")
}

func defaultReason(kind string) string {
	if kind == entity.TransactionOut {
		return ReasonManualOut
	}
	return ReasonManualIn
}

// AdjustInput ajuste manual por id.
type AdjustInput struct {
	Kind     string // IN, OUT
	Quantity int
	Reason   string
	Operator string
}

// AdjustItem ajuste manual. Una salida mayor que el stock devuelve ErrInsufficientStock.
func (l *StockLedger) AdjustItem(ctx context.Context, id string, in AdjustInput) (*entity.StockItem, error) {
	if in.Kind != entity.TransactionIn && in.Kind != entity.TransactionOut {
		return nil, domain.NewValidationError("kind", "debe ser IN u OUT")
	}
	if in.Quantity <= 0 {
		return nil, domain.NewValidationError("quantity", "debe ser un entero positivo")
	}
	if strings.TrimSpace(in.Reason) == "" {
		in.Reason = defaultReason(in.Kind)
	}

	var (
		result  *entity.StockItem
		applied *entity.StockTransaction
	)
	err := l.txRunner.Run(ctx, func(items repository.StockItemRepository, txns repository.StockTransactionRepository) error {
		item, err := items.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if item == nil {
			return domain.ErrNotFound
		}
		t, err := l.apply(ctx, items, txns, item, in.Kind, Movement{
			Name: item.Name, Quantity: in.Quantity, Reason: in.Reason, Operator: in.Operator,
		})
		if errors.Is(err, errShortStock) {
			return domain.ErrInsufficientStock
		}
		if err != nil {
			return err
		}
		result, applied = item, t
		return nil
	})
	if err != nil {
		return nil, err
	}
	l.logMovement(applied)
	return result, nil
}

// ResetToBaseline lleva OnHand al stock base con un único movimiento (o ninguno si ya coincide).
func (l *StockLedger) ResetToBaseline(ctx context.Context, id, operator string) (bool, error) {
	var applied *entity.StockTransaction
	err := l.txRunner.Run(ctx, func(items repository.StockItemRepository, txns repository.StockTransactionRepository) error {
		item, err := items.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if item == nil {
			return domain.ErrNotFound
		}
		delta := item.Baseline - item.OnHand
		if delta == 0 {
			return nil
		}
		kind, qty := entity.TransactionIn, delta
		if delta < 0 {
			kind, qty = entity.TransactionOut, -delta
		}
		t, err := l.apply(ctx, items, txns, item, kind, Movement{
			Name: item.Name, Quantity: qty, Reason: ReasonResetBaseline, Operator: operator,
		})
		if errors.Is(err, errShortStock) {
			l.log.Invariant().Str("item_id", id).Int("on_hand", item.OnHand).Int("baseline", item.Baseline).
				Msg("reset al stock base: salida imposible")
			return fmt.Errorf("reset %s: %w", id, domain.ErrInvariantViolation)
		}
		if err != nil {
			return err
		}
		applied = t
		return nil
	})
	if err != nil {
		return false, err
	}
	if applied != nil {
		l.logMovement(applied)
	}
	return true, nil
}

// LowStockAlerts artículos con OnHand <= umbral, en orden de alta.
func (l *StockLedger) LowStockAlerts(ctx context.Context) ([]*entity.StockItem, error) {
	items, err := l.items.List(ctx)
	if err != nil {
		return nil, err
	}
	return domaininv.LowStock(items), nil
}

// Stats totales del inventario activo.
func (l *StockLedger) Stats(ctx context.Context) (domaininv.Stats, error) {
	items, err := l.items.List(ctx)
	if err != nil {
		return domaininv.Stats{}, err
	}
	return domaininv.ComputeStats(items), nil
}

// StockPercentage round(onHand / baseline * 100); 0 si baseline es 0.
func (l *StockLedger) StockPercentage(item *entity.StockItem) int {
	return domaininv.Percentage(item.OnHand, item.Baseline)
}

// ListTransactions todos los movimientos, más recientes primero. limit <= 0 = sin límite.
func (l *StockLedger) ListTransactions(ctx context.Context, limit, offset int) ([]*entity.StockTransaction, error) {
	return l.txns.List(ctx, limit, offset)
}

// ItemTransactions movimientos de un artículo (activo o en papelera) en orden cronológico.
func (l *StockLedger) ItemTransactions(ctx context.Context, id string) ([]*entity.StockTransaction, error) {
	if _, err := l.anyItem(ctx, id); err != nil {
		return nil, err
	}
	return l.txns.ListByItem(ctx, id)
}

// AuditReport resultado de la auditoría de un artículo.
type AuditReport struct {
	ItemID         string
	InitialOnHand  int
	TotalIn        int
	TotalOut       int
	ExpectedOnHand int
	OnHand         int
	Consistent     bool
}

// Audit verifica onHand == inicial + Σ IN − Σ OUT. Una diferencia devuelve ErrInvariantViolation junto al reporte.
func (l *StockLedger) Audit(ctx context.Context, id string) (*AuditReport, error) {
	item, err := l.anyItem(ctx, id)
	if err != nil {
		return nil, err
	}
	txns, err := l.txns.ListByItem(ctx, id)
	if err != nil {
		return nil, err
	}

	r := &AuditReport{ItemID: id, InitialOnHand: item.InitialOnHand, OnHand: item.OnHand}
	for _, t := range txns {
		if t.Kind == entity.TransactionOut {
			r.TotalOut += t.Quantity
		} else {
			r.TotalIn += t.Quantity
		}
	}
	r.ExpectedOnHand = r.InitialOnHand + r.TotalIn - r.TotalOut
	r.Consistent = r.ExpectedOnHand == r.OnHand
	if !r.Consistent {
		l.log.Invariant().Str("item_id", id).Int("expected", r.ExpectedOnHand).Int("on_hand", r.OnHand).
			Msg("auditoría de stock inconsistente")
		return r, fmt.Errorf("auditoría %s: %w", id, domain.ErrInvariantViolation)
	}
	return r, nil
}

func (l *StockLedger) anyItem(ctx context.Context, id string) (*entity.StockItem, error) {
	item, err := l.items.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if item != nil {
		return item, nil
	}
	item, err = l.items.GetDeletedByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}
	return item, nil
}

// ListTrash artículos en la papelera.
func (l *StockLedger) ListTrash(ctx context.Context) ([]*entity.StockItem, error) {
	return l.items.ListDeleted(ctx)
}

// RestoreItem saca un artículo de la papelera. ErrDuplicate si ya hay uno activo con el mismo nombre.
func (l *StockLedger) RestoreItem(ctx context.Context, id string) (*entity.StockItem, error) {
	item, err := l.items.GetDeletedByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}
	other, err := l.items.GetByNameKey(ctx, item.NameKey)
	if err != nil {
		return nil, err
	}
	if other != nil {
		return nil, domain.ErrDuplicate
	}
	if err := l.items.Restore(ctx, id); err != nil {
		return nil, err
	}
	item.DeletedAt = nil
	l.log.Info().Str("item_id", id).Str("name", item.Name).Msg("artículo restaurado")
	return item, nil
}

// PurgeItem elimina definitivamente un artículo de la papelera.
func (l *StockLedger) PurgeItem(ctx context.Context, id string) error {
	item, err := l.items.GetDeletedByID(ctx, id)
	if err != nil {
		return err
	}
	if item == nil {
		return domain.ErrNotFound
	}
	if err := l.items.Purge(ctx, id); err != nil {
		return err
	}
	l.log.Info().Str("item_id", id).Str("name", item.Name).Msg("artículo eliminado definitivamente")
	return nil
}
