// Package memory implementa los puertos de persistencia en memoria del proceso (modo demo y tests).
package memory

import (
	"context"
	"sync"

	"github.com/jhoicas/FichesVente-api/internal/domain/entity"
	"github.com/jhoicas/FichesVente-api/internal/domain/repository"
)

type state struct {
	items       map[string]*entity.StockItem
	itemOrder   []string
	txns        []*entity.StockTransaction
	sales       map[string]*entity.Sale
	reports     map[string]*entity.SalesReport
	reportOrder []string
	users       map[string]*entity.User
	userOrder   []string
}

func newState() *state {
	return &state{
		items:   make(map[string]*entity.StockItem),
		sales:   make(map[string]*entity.Sale),
		reports: make(map[string]*entity.SalesReport),
		users:   make(map[string]*entity.User),
	}
}

// clone copia el estado para una transacción. Los artículos se copian en profundidad porque
// UpdateOnHand los modifica en sitio; el resto de registros se reemplaza, nunca se muta.
func (s *state) clone() *state {
	c := &state{
		items:       make(map[string]*entity.StockItem, len(s.items)),
		itemOrder:   append([]string(nil), s.itemOrder...),
		txns:        append([]*entity.StockTransaction(nil), s.txns...),
		sales:       make(map[string]*entity.Sale, len(s.sales)),
		reports:     make(map[string]*entity.SalesReport, len(s.reports)),
		reportOrder: append([]string(nil), s.reportOrder...),
		users:       make(map[string]*entity.User, len(s.users)),
		userOrder:   append([]string(nil), s.userOrder...),
	}
	for k, v := range s.items {
		cp := *v
		c.items[k] = &cp
	}
	for k, v := range s.sales {
		c.sales[k] = v
	}
	for k, v := range s.reports {
		c.reports[k] = v
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	return c
}

// Store almacén en memoria. mu protege el estado; txMu serializa a los escritores
// (escrituras sueltas y transacciones) para que una tx nunca pise otra.
type Store struct {
	mu   sync.RWMutex
	txMu sync.Mutex
	st   *state
}

// NewStore crea un almacén vacío.
func NewStore() *Store {
	return &Store{st: newState()}
}

// handle acceso al estado: directo sobre la copia dentro de una tx, con locks fuera de ella.
type handle struct {
	s  *Store
	tx *state
}

func (h handle) read(fn func(st *state) error) error {
	if h.tx != nil {
		return fn(h.tx)
	}
	h.s.mu.RLock()
	defer h.s.mu.RUnlock()
	return fn(h.s.st)
}

func (h handle) write(fn func(st *state) error) error {
	if h.tx != nil {
		return fn(h.tx)
	}
	h.s.txMu.Lock()
	defer h.s.txMu.Unlock()
	h.s.mu.Lock()
	defer h.s.mu.Unlock()
	return fn(h.s.st)
}

// StockItems repositorio de artículos fuera de transacción.
func (s *Store) StockItems() *StockItemRepository {
	return &StockItemRepository{handle{s: s}}
}

// StockTransactions repositorio de movimientos fuera de transacción.
func (s *Store) StockTransactions() *StockTransactionRepository {
	return &StockTransactionRepository{handle{s: s}}
}

// Sales repositorio de ventas.
func (s *Store) Sales() *SaleRepository {
	return &SaleRepository{handle{s: s}}
}

// Reports repositorio de reportes.
func (s *Store) Reports() *ReportRepository {
	return &ReportRepository{handle{s: s}}
}

// Users repositorio de usuarios.
func (s *Store) Users() *UserRepository {
	return &UserRepository{handle{s: s}}
}

// TxRunner ejecuta fn sobre una copia del estado y la publica solo si fn no falla.
type TxRunner struct {
	s *Store
}

// NewTxRunner crea el TxRunner del almacén.
func NewTxRunner(s *Store) *TxRunner {
	return &TxRunner{s: s}
}

// Run aplica fn de forma atómica y aislada: los escritores esperan en txMu, los lectores ven el estado anterior hasta el swap.
func (r *TxRunner) Run(ctx context.Context, fn func(
	items repository.StockItemRepository,
	txns repository.StockTransactionRepository,
) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.txMu.Lock()
	defer r.s.txMu.Unlock()

	r.s.mu.RLock()
	work := r.s.st.clone()
	r.s.mu.RUnlock()

	h := handle{s: r.s, tx: work}
	if err := fn(&StockItemRepository{h}, &StockTransactionRepository{h}); err != nil {
		return err
	}

	r.s.mu.Lock()
	r.s.st = work
	r.s.mu.Unlock()
	return nil
}
