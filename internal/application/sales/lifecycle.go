package sales

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/FichesVente-api/internal/application/inventory"
	"github.com/jhoicas/FichesVente-api/internal/domain"
	"github.com/jhoicas/FichesVente-api/internal/domain/entity"
	domaininv "github.com/jhoicas/FichesVente-api/internal/domain/inventory"
	"github.com/jhoicas/FichesVente-api/internal/domain/repository"
	"github.com/jhoicas/FichesVente-api/internal/domain/sale"
	"github.com/jhoicas/FichesVente-api/pkg/logger"
)

// Prefijos de motivo de los movimientos generados por ventas; se completan con el número de ficha.
const (
	reasonSale     = "Venta - Ficha #"
	reasonCancel   = "Anulación venta - Ficha #"
	reasonRefund   = "Reembolso venta - Ficha #"
	reasonDelete   = "Eliminación venta - Ficha #"
	reasonRollback = "Reversión - "
)

// SaleLifecycle aplica las transiciones de estado de una venta y mantiene el stock coherente con ellas.
// Nunca toca OnHand directamente: todo pasa por el StockLedger.
type SaleLifecycle struct {
	ledger StockLedger
	sales  repository.SaleRepository
	log    *logger.Logger
	now    func() time.Time
}

// NewSaleLifecycle construye el caso de uso.
func NewSaleLifecycle(ledger StockLedger, sales repository.SaleRepository, log *logger.Logger) *SaleLifecycle {
	return &SaleLifecycle{
		ledger: ledger,
		sales:  sales,
		log:    log.Component("sale_lifecycle"),
		now:    time.Now,
	}
}

// WithClock reemplaza el reloj (tests).
func (uc *SaleLifecycle) WithClock(now func() time.Time) *SaleLifecycle {
	uc.now = now
	return uc
}

// SaleDraft datos de una venta nueva.
type SaleDraft struct {
	SaleDate        time.Time // cero = ahora
	CustomerPhone   string
	CustomerPhone2  string
	DeliveryAddress string
	Courier         string
	PaymentMethod   string
	PaymentMethod2  string
	Items           []entity.SaleItem
	OnHold          bool // crea la venta directamente en PENDING
	Operator        string
}

func validateDraft(d *SaleDraft) error {
	d.CustomerPhone = strings.TrimSpace(d.CustomerPhone)
	d.CustomerPhone2 = strings.TrimSpace(d.CustomerPhone2)
	d.DeliveryAddress = strings.TrimSpace(d.DeliveryAddress)
	d.Courier = strings.TrimSpace(d.Courier)
	d.PaymentMethod = strings.ToUpper(strings.TrimSpace(d.PaymentMethod))
	d.PaymentMethod2 = strings.ToUpper(strings.TrimSpace(d.PaymentMethod2))

	if d.CustomerPhone == "" {
		return domain.NewValidationError("customer_phone", "obligatorio")
	}
	if d.DeliveryAddress == "" {
		return domain.NewValidationError("delivery_address", "obligatoria")
	}
	if d.Courier == "" {
		return domain.NewValidationError("courier", "obligatorio")
	}
	if err := validatePayments(d.PaymentMethod, d.PaymentMethod2); err != nil {
		return err
	}
	if len(d.Items) == 0 {
		return domain.NewValidationError("items", "al menos una línea")
	}
	for i := range d.Items {
		it := &d.Items[i]
		it.ProductName = strings.TrimSpace(it.ProductName)
		it.Unit = strings.ToUpper(strings.TrimSpace(it.Unit))
		field := fmt.Sprintf("items[%d]", i)
		if it.ProductName == "" {
			return domain.NewValidationError(field+".product_name", "obligatorio")
		}
		if it.Quantity <= 0 {
			return domain.NewValidationError(field+".quantity", "debe ser positiva")
		}
		if it.UnitPrice.IsNegative() {
			return domain.NewValidationError(field+".unit_price", "no puede ser negativo")
		}
		if it.Unit != "" && !entity.ValidUnit(it.Unit) {
			return domain.NewValidationError(field+".unit", "unidad inválida: "+it.Unit)
		}
	}
	return nil
}

func validatePayments(m1, m2 string) error {
	if !entity.ValidPaymentMethod(m1) {
		return domain.NewValidationError("payment_method", "medio de pago inválido: "+m1)
	}
	if m2 != "" && !entity.ValidPaymentMethod(m2) {
		return domain.NewValidationError("payment_method_2", "medio de pago inválido: "+m2)
	}
	return nil
}

// CreateSale valida, comprueba disponibilidad de todas las líneas y descuenta el stock línea a línea.
// Si falta stock en alguna línea devuelve *domain.StockShortfallError sin crear nada.
// Si un descuento posterior falla, revierte los ya aplicados antes de devolver el error.
func (uc *SaleLifecycle) CreateSale(ctx context.Context, d SaleDraft) (*entity.Sale, error) {
	if err := validateDraft(&d); err != nil {
		return nil, err
	}

	found, err := uc.checkStock(ctx, d.Items)
	if err != nil {
		return nil, err
	}
	// nombre canónico del artículo; la unidad se copia si la línea no la trae
	for i := range d.Items {
		item := found[domaininv.NameKey(d.Items[i].ProductName)]
		d.Items[i].ProductName = item.Name
		if d.Items[i].Unit == "" {
			d.Items[i].Unit = item.Unit
		}
	}

	now := uc.now()
	s := &entity.Sale{
		ID:              uuid.New().String(),
		SaleDate:        d.SaleDate,
		CustomerPhone:   d.CustomerPhone,
		CustomerPhone2:  d.CustomerPhone2,
		DeliveryAddress: d.DeliveryAddress,
		Courier:         d.Courier,
		PaymentMethod:   d.PaymentMethod,
		PaymentMethod2:  d.PaymentMethod2,
		Items:           append([]entity.SaleItem(nil), d.Items...),
		Status:          entity.SaleStatusActive,
		CreatedBy:       d.Operator,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if s.SaleDate.IsZero() {
		s.SaleDate = now
	}
	if d.OnHold {
		s.Status = entity.SaleStatusPending
	}

	applied := make([]inventory.Movement, 0, len(s.Items))
	for _, it := range s.Items {
		m := inventory.Movement{
			Name:     it.ProductName,
			Quantity: it.Quantity,
			Reason:   reasonSale + s.ShortID(),
			SaleID:   s.ID,
			Operator: d.Operator,
		}
		ok, err := uc.ledger.Decrement(ctx, m)
		if err == nil && !ok {
			err = uc.lateShortfall(ctx, it)
		}
		if err != nil {
			return nil, uc.rollback(ctx, s.ID, applied, err, uc.ledger.Increment)
		}
		applied = append(applied, m)
	}

	if err := uc.sales.Create(ctx, s); err != nil {
		return nil, uc.rollback(ctx, s.ID, applied, fmt.Errorf("guardar venta: %w", err), uc.ledger.Increment)
	}

	uc.log.Info().
		Str("sale_id", s.ID).
		Str("status", s.Status).
		Int("lines", len(s.Items)).
		Str("total", s.Total().String()).
		Str("operator", d.Operator).
		Msg("venta creada")
	return s, nil
}

// checkStock agrupa las líneas por producto y verifica que cada total esté disponible.
// Un producto desconocido cuenta como faltante con disponible 0. Devuelve los artículos por clave de nombre.
func (uc *SaleLifecycle) checkStock(ctx context.Context, items []entity.SaleItem) (map[string]*entity.StockItem, error) {
	type need struct {
		name string
		qty  int
	}
	order := make([]string, 0, len(items))
	needs := make(map[string]*need, len(items))
	for _, it := range items {
		key := domaininv.NameKey(it.ProductName)
		n, ok := needs[key]
		if !ok {
			n = &need{name: it.ProductName}
			needs[key] = n
			order = append(order, key)
		}
		n.qty += it.Quantity
	}

	var short []domain.StockShortfall
	found := make(map[string]*entity.StockItem, len(order))
	for _, key := range order {
		n := needs[key]
		av, err := uc.ledger.CheckAvailability(ctx, n.name, n.qty)
		if err != nil {
			return nil, err
		}
		found[key] = av.Item
		if !av.Available {
			short = append(short, domain.StockShortfall{ProductName: n.name, Requested: n.qty, Available: av.OnHand})
		}
	}
	if len(short) > 0 {
		uc.log.Debug().Int("short_lines", len(short)).Msg("venta rechazada por stock insuficiente")
		return nil, &domain.StockShortfallError{Items: short}
	}
	return found, nil
}

// lateShortfall el stock cambió entre la comprobación y el descuento.
func (uc *SaleLifecycle) lateShortfall(ctx context.Context, it entity.SaleItem) error {
	av, err := uc.ledger.CheckAvailability(ctx, it.ProductName, it.Quantity)
	if err != nil {
		return err
	}
	return &domain.StockShortfallError{Items: []domain.StockShortfall{
		{ProductName: it.ProductName, Requested: it.Quantity, Available: av.OnHand},
	}}
}

// rollback deshace en orden inverso los movimientos aplicados usando undo.
// Si alguna reversión falla devuelve *domain.CompensationError; si no, devuelve cause.
func (uc *SaleLifecycle) rollback(
	ctx context.Context,
	saleID string,
	applied []inventory.Movement,
	cause error,
	undo func(context.Context, inventory.Movement) (bool, error),
) error {
	var failures []error
	for i := len(applied) - 1; i >= 0; i-- {
		m := applied[i]
		m.Reason = reasonRollback + m.Reason
		ok, err := undo(ctx, m)
		if err == nil && !ok {
			err = fmt.Errorf("producto %q no disponible para revertir %d unidades", m.Name, m.Quantity)
		}
		if err != nil {
			failures = append(failures, fmt.Errorf("revertir %q: %w", m.Name, err))
		}
	}
	if len(failures) > 0 {
		cerr := &domain.CompensationError{Cause: cause, Failures: failures}
		uc.log.Invariant().Err(cerr).Str("sale_id", saleID).Msg("compensación de stock incompleta: requiere conciliación manual")
		return cerr
	}
	uc.log.Warn().Err(cause).Str("sale_id", saleID).Int("reverted", len(applied)).Msg("operación revertida")
	return cause
}

// CancelSale ACTIVE → CANCELLED, devolviendo al stock las cantidades de la venta.
func (uc *SaleLifecycle) CancelSale(ctx context.Context, id, operator string) (*entity.Sale, error) {
	return uc.transition(ctx, id, sale.ActionCancel, operator)
}

// RefundSale ACTIVE → REFUNDED, devolviendo al stock las cantidades de la venta.
func (uc *SaleLifecycle) RefundSale(ctx context.Context, id, operator string) (*entity.Sale, error) {
	return uc.transition(ctx, id, sale.ActionRefund, operator)
}

// DeleteSale ACTIVE → DELETED (papelera de ventas), devolviendo al stock las cantidades de la venta.
func (uc *SaleLifecycle) DeleteSale(ctx context.Context, id, operator string) (*entity.Sale, error) {
	return uc.transition(ctx, id, sale.ActionDelete, operator)
}

// PutOnHold ACTIVE → PENDING. El stock sigue descontado mientras la venta está en espera.
func (uc *SaleLifecycle) PutOnHold(ctx context.Context, id, operator string) (*entity.Sale, error) {
	return uc.transition(ctx, id, sale.ActionHold, operator)
}

// ValidateSale PENDING (o ACTIVE) → ACTIVE validada. Una venta validada ya no admite transiciones.
func (uc *SaleLifecycle) ValidateSale(ctx context.Context, id, operator string) (*entity.Sale, error) {
	return uc.transition(ctx, id, sale.ActionValidate, operator)
}

func restoreReason(a sale.Action) string {
	switch a {
	case sale.ActionCancel:
		return reasonCancel
	case sale.ActionRefund:
		return reasonRefund
	default:
		return reasonDelete
	}
}

// transition reclama el estado con compare-and-set y solo después devuelve el stock.
// Una venta se restaura una sola vez aunque lleguen dos peticiones a la vez.
func (uc *SaleLifecycle) transition(ctx context.Context, id string, a sale.Action, operator string) (*entity.Sale, error) {
	s, err := uc.loadSale(ctx, id)
	if err != nil {
		return nil, err
	}
	from := sale.NormalizeStatus(s.Status)
	next, err := sale.Next(s.ID, s.Status, s.IsValidated, a)
	if err != nil {
		uc.log.Debug().Err(err).Str("sale_id", id).Str("action", string(a)).Msg("transición rechazada")
		return nil, err
	}

	claim := repository.StatusChange{
		ID:            s.ID,
		From:          from,
		FromValidated: s.IsValidated,
		To:            next,
		ToValidated:   s.IsValidated || a == sale.ActionValidate,
		At:            uc.now(),
	}
	ok, err := uc.sales.UpdateStatus(ctx, claim)
	if err != nil {
		return nil, fmt.Errorf("actualizar venta: %w", err)
	}
	if !ok {
		return nil, uc.lostRace(ctx, id, a)
	}

	var restored []inventory.Movement
	if sale.RestoresStock(a) {
		restored, err = uc.restoreStock(ctx, s, restoreReason(a)+s.ShortID(), operator)
		if err != nil {
			return nil, uc.releaseClaim(ctx, claim, err)
		}
	}

	s.Status = claim.To
	s.IsValidated = claim.ToValidated
	s.UpdatedAt = claim.At

	uc.log.Info().
		Str("sale_id", s.ID).
		Str("from", from).
		Str("to", next).
		Str("action", string(a)).
		Int("restored_lines", len(restored)).
		Str("operator", operator).
		Msg("transición de venta")
	return s, nil
}

// lostRace otra petición cambió la venta entre la lectura y el compare-and-set.
// Devuelve el error de transición del estado actual o ErrConflict si aún sería válida.
func (uc *SaleLifecycle) lostRace(ctx context.Context, id string, a sale.Action) error {
	cur, err := uc.loadSale(ctx, id)
	if err != nil {
		return err
	}
	if _, err := sale.Next(cur.ID, cur.Status, cur.IsValidated, a); err != nil {
		uc.log.Debug().Err(err).Str("sale_id", id).Str("action", string(a)).Msg("transición concurrente rechazada")
		return err
	}
	return fmt.Errorf("venta %s modificada concurrentemente: %w", id, domain.ErrConflict)
}

// releaseClaim devuelve la venta al estado previo tras un fallo de restauración.
// Si tampoco se puede, el stock y el estado quedan desalineados: *domain.CompensationError.
func (uc *SaleLifecycle) releaseClaim(ctx context.Context, claim repository.StatusChange, cause error) error {
	back := repository.StatusChange{
		ID:            claim.ID,
		From:          claim.To,
		FromValidated: claim.ToValidated,
		To:            claim.From,
		ToValidated:   claim.FromValidated,
		At:            uc.now(),
	}
	ok, err := uc.sales.UpdateStatus(ctx, back)
	if err == nil && !ok {
		err = fmt.Errorf("la venta %s ya no está en %s", claim.ID, claim.To)
	}
	if err == nil {
		return cause
	}
	cerr := &domain.CompensationError{Cause: cause, Failures: []error{fmt.Errorf("revertir estado: %w", err)}}
	uc.log.Invariant().Err(cerr).Str("sale_id", claim.ID).Msg("estado de venta sin revertir: requiere conciliación manual")
	return cerr
}

// restoreStock devuelve al stock cada línea. Un producto que ya no existe se registra y se omite;
// un error de persistencia revierte los incrementos aplicados.
func (uc *SaleLifecycle) restoreStock(ctx context.Context, s *entity.Sale, reason, operator string) ([]inventory.Movement, error) {
	applied := make([]inventory.Movement, 0, len(s.Items))
	for _, it := range s.Items {
		m := inventory.Movement{
			Name:     it.ProductName,
			Quantity: it.Quantity,
			Reason:   reason,
			SaleID:   s.ID,
			Operator: operator,
		}
		ok, err := uc.ledger.Increment(ctx, m)
		if err != nil {
			return nil, uc.rollback(ctx, s.ID, applied, err, uc.ledger.Decrement)
		}
		if !ok {
			uc.log.Warn().Str("sale_id", s.ID).Str("product", it.ProductName).Int("quantity", it.Quantity).
				Msg("producto no encontrado en stock, no se restaura")
			continue
		}
		applied = append(applied, m)
	}
	return applied, nil
}

func (uc *SaleLifecycle) loadSale(ctx context.Context, id string) (*entity.Sale, error) {
	s, err := uc.sales.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("obtener venta: %w", err)
	}
	if s == nil {
		return nil, domain.ErrNotFound
	}
	return s, nil
}

// SaleUpdate edición de metadatos; nil = sin cambio. Items no nil se rechaza: editar líneas no está soportado.
type SaleUpdate struct {
	SaleDate        *time.Time
	CustomerPhone   *string
	CustomerPhone2  *string
	DeliveryAddress *string
	Courier         *string
	PaymentMethod   *string
	PaymentMethod2  *string
	Items           []entity.SaleItem
}

// UpdateSale modifica solo metadatos (contacto, dirección, repartidor, pagos, fecha).
// Para cambiar productos o cantidades hay que eliminar la venta y crearla de nuevo.
func (uc *SaleLifecycle) UpdateSale(ctx context.Context, id string, u SaleUpdate) (*entity.Sale, error) {
	if u.Items != nil {
		return nil, domain.NewValidationError("items", "las líneas no se pueden editar; elimine la venta y créela de nuevo")
	}
	s, err := uc.loadSale(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := sale.Next(s.ID, s.Status, s.IsValidated, sale.ActionEdit); err != nil {
		return nil, err
	}

	set := func(dst *string, src *string, field string, required bool) error {
		if src == nil {
			return nil
		}
		v := strings.TrimSpace(*src)
		if required && v == "" {
			return domain.NewValidationError(field, "obligatorio")
		}
		*dst = v
		return nil
	}
	if err := errors.Join(
		set(&s.CustomerPhone, u.CustomerPhone, "customer_phone", true),
		set(&s.CustomerPhone2, u.CustomerPhone2, "customer_phone_2", false),
		set(&s.DeliveryAddress, u.DeliveryAddress, "delivery_address", true),
		set(&s.Courier, u.Courier, "courier", true),
	); err != nil {
		return nil, err
	}
	if u.PaymentMethod != nil {
		s.PaymentMethod = strings.ToUpper(strings.TrimSpace(*u.PaymentMethod))
	}
	if u.PaymentMethod2 != nil {
		s.PaymentMethod2 = strings.ToUpper(strings.TrimSpace(*u.PaymentMethod2))
	}
	if err := validatePayments(s.PaymentMethod, s.PaymentMethod2); err != nil {
		return nil, err
	}
	if u.SaleDate != nil && !u.SaleDate.IsZero() {
		s.SaleDate = *u.SaleDate
	}
	s.UpdatedAt = uc.now()

	if err := uc.sales.Update(ctx, s); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, uc.lostRace(ctx, id, sale.ActionEdit)
		}
		return nil, fmt.Errorf("actualizar venta: %w", err)
	}
	return s, nil
}

// GetSale devuelve una venta o ErrNotFound.
func (uc *SaleLifecycle) GetSale(ctx context.Context, id string) (*entity.Sale, error) {
	return uc.loadSale(ctx, id)
}

// ListFilter filtros de listado. Status vacío = todas salvo DELETED.
type ListFilter struct {
	Status string
	From   *time.Time
	To     *time.Time
	Limit  int
	Offset int
}

// ListSales lista ventas por fecha descendente. Status=DELETED lista la papelera de ventas.
func (uc *SaleLifecycle) ListSales(ctx context.Context, f ListFilter) ([]*entity.Sale, error) {
	filter := repository.SaleFilter{From: f.From, To: f.To, Limit: f.Limit, Offset: f.Offset}
	status := strings.ToUpper(strings.TrimSpace(f.Status))
	switch {
	case status == "":
		filter.Statuses = []string{
			entity.SaleStatusActive, entity.SaleStatusPending,
			entity.SaleStatusCancelled, entity.SaleStatusRefunded,
		}
	case sale.ValidStatus(status):
		filter.Statuses = []string{status}
	default:
		return nil, domain.NewValidationError("status", "estado inválido: "+f.Status)
	}
	return uc.sales.List(ctx, filter)
}
