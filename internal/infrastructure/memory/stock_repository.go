package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/FichesVente-api/internal/domain"
	"github.com/jhoicas/FichesVente-api/internal/domain/entity"
)

// StockItemRepository implementa repository.StockItemRepository en memoria.
type StockItemRepository struct {
	handle
}

func copyItem(it *entity.StockItem) *entity.StockItem {
	cp := *it
	if it.DeletedAt != nil {
		d := *it.DeletedAt
		cp.DeletedAt = &d
	}
	return &cp
}

func (r *StockItemRepository) Create(_ context.Context, item *entity.StockItem) error {
	return r.write(func(st *state) error {
		if _, ok := st.items[item.ID]; ok {
			return domain.ErrDuplicate
		}
		for _, it := range st.items {
			if it.DeletedAt == nil && it.NameKey == item.NameKey {
				return domain.ErrDuplicate
			}
		}
		st.items[item.ID] = copyItem(item)
		st.itemOrder = append(st.itemOrder, item.ID)
		return nil
	})
}

func (r *StockItemRepository) find(st *state, pred func(*entity.StockItem) bool) *entity.StockItem {
	for _, id := range st.itemOrder {
		if it := st.items[id]; it != nil && pred(it) {
			return copyItem(it)
		}
	}
	return nil
}

func (r *StockItemRepository) GetByID(_ context.Context, id string) (*entity.StockItem, error) {
	var out *entity.StockItem
	err := r.read(func(st *state) error {
		if it, ok := st.items[id]; ok && it.DeletedAt == nil {
			out = copyItem(it)
		}
		return nil
	})
	return out, err
}

func (r *StockItemRepository) GetByNameKey(_ context.Context, nameKey string) (*entity.StockItem, error) {
	var out *entity.StockItem
	err := r.read(func(st *state) error {
		out = r.find(st, func(it *entity.StockItem) bool { return it.DeletedAt == nil && it.NameKey == nameKey })
		return nil
	})
	return out, err
}

// GetByIDForUpdate dentro de TxRunner.Run el aislamiento lo da txMu.
func (r *StockItemRepository) GetByIDForUpdate(ctx context.Context, id string) (*entity.StockItem, error) {
	return r.GetByID(ctx, id)
}

func (r *StockItemRepository) GetByNameKeyForUpdate(ctx context.Context, nameKey string) (*entity.StockItem, error) {
	return r.GetByNameKey(ctx, nameKey)
}

func (r *StockItemRepository) Update(_ context.Context, item *entity.StockItem) error {
	return r.write(func(st *state) error {
		cur, ok := st.items[item.ID]
		if !ok || cur.DeletedAt != nil {
			return domain.ErrNotFound
		}
		for _, it := range st.items {
			if it.ID != item.ID && it.DeletedAt == nil && it.NameKey == item.NameKey {
				return domain.ErrDuplicate
			}
		}
		next := copyItem(item)
		next.OnHand = cur.OnHand
		next.InitialOnHand = cur.InitialOnHand
		next.CreatedAt = cur.CreatedAt
		next.DeletedAt = nil
		st.items[item.ID] = next
		return nil
	})
}

func (r *StockItemRepository) UpdateOnHand(_ context.Context, id string, onHand int) error {
	if onHand < 0 {
		return fmt.Errorf("memory: onHand negativo para %s: %w", id, domain.ErrInvariantViolation)
	}
	return r.write(func(st *state) error {
		cur, ok := st.items[id]
		if !ok || cur.DeletedAt != nil {
			return domain.ErrNotFound
		}
		cur.OnHand = onHand
		cur.UpdatedAt = time.Now()
		return nil
	})
}

func (r *StockItemRepository) list(deleted bool) ([]*entity.StockItem, error) {
	out := make([]*entity.StockItem, 0)
	err := r.read(func(st *state) error {
		for _, id := range st.itemOrder {
			it := st.items[id]
			if it != nil && (it.DeletedAt != nil) == deleted {
				out = append(out, copyItem(it))
			}
		}
		return nil
	})
	return out, err
}

func (r *StockItemRepository) List(_ context.Context) ([]*entity.StockItem, error) {
	return r.list(false)
}

func (r *StockItemRepository) SoftDelete(_ context.Context, id string) error {
	return r.write(func(st *state) error {
		cur, ok := st.items[id]
		if !ok || cur.DeletedAt != nil {
			return domain.ErrNotFound
		}
		now := time.Now()
		cur.DeletedAt = &now
		return nil
	})
}

func (r *StockItemRepository) ListDeleted(_ context.Context) ([]*entity.StockItem, error) {
	return r.list(true)
}

func (r *StockItemRepository) GetDeletedByID(_ context.Context, id string) (*entity.StockItem, error) {
	var out *entity.StockItem
	err := r.read(func(st *state) error {
		if it, ok := st.items[id]; ok && it.DeletedAt != nil {
			out = copyItem(it)
		}
		return nil
	})
	return out, err
}

func (r *StockItemRepository) Restore(_ context.Context, id string) error {
	return r.write(func(st *state) error {
		cur, ok := st.items[id]
		if !ok || cur.DeletedAt == nil {
			return domain.ErrNotFound
		}
		for _, it := range st.items {
			if it.ID != id && it.DeletedAt == nil && it.NameKey == cur.NameKey {
				return domain.ErrDuplicate
			}
		}
		cur.DeletedAt = nil
		return nil
	})
}

func (r *StockItemRepository) Purge(_ context.Context, id string) error {
	return r.write(func(st *state) error {
		if _, ok := st.items[id]; !ok {
			return domain.ErrNotFound
		}
		delete(st.items, id)
		for i, oid := range st.itemOrder {
			if oid == id {
				st.itemOrder = append(st.itemOrder[:i:i], st.itemOrder[i+1:]...)
				break
			}
		}
		return nil
	})
}

// StockTransactionRepository implementa repository.StockTransactionRepository en memoria.
type StockTransactionRepository struct {
	handle
}

func (r *StockTransactionRepository) Create(_ context.Context, t *entity.StockTransaction) error {
	cp := *t
	return r.write(func(st *state) error {
		st.txns = append(st.txns, &cp)
		return nil
	})
}

func (r *StockTransactionRepository) ListByItem(_ context.Context, stockItemID string) ([]*entity.StockTransaction, error) {
	out := make([]*entity.StockTransaction, 0)
	err := r.read(func(st *state) error {
		for _, t := range st.txns {
			if t.StockItemID == stockItemID {
				cp := *t
				out = append(out, &cp)
			}
		}
		return nil
	})
	return out, err
}

func (r *StockTransactionRepository) List(_ context.Context, limit, offset int) ([]*entity.StockTransaction, error) {
	out := make([]*entity.StockTransaction, 0)
	err := r.read(func(st *state) error {
		for i := len(st.txns) - 1; i >= 0; i-- {
			cp := *st.txns[i]
			out = append(out, &cp)
		}
		return nil
	})
	return page(out, limit, offset), err
}

func page[T any](in []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(in) {
			return in[:0]
		}
		in = in[offset:]
	}
	if limit > 0 && len(in) > limit {
		in = in[:limit]
	}
	return in
}
