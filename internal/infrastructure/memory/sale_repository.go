package memory

import (
	"context"
	"sort"

	"github.com/jhoicas/FichesVente-api/internal/domain"
	"github.com/jhoicas/FichesVente-api/internal/domain/entity"
	"github.com/jhoicas/FichesVente-api/internal/domain/repository"
	"github.com/jhoicas/FichesVente-api/internal/domain/sale"
)

// SaleRepository implementa repository.SaleRepository en memoria.
type SaleRepository struct {
	handle
}

func (r *SaleRepository) Create(_ context.Context, s *entity.Sale) error {
	return r.write(func(st *state) error {
		if _, ok := st.sales[s.ID]; ok {
			return domain.ErrDuplicate
		}
		st.sales[s.ID] = s.Clone()
		return nil
	})
}

func (r *SaleRepository) GetByID(_ context.Context, id string) (*entity.Sale, error) {
	var out *entity.Sale
	err := r.read(func(st *state) error {
		if s, ok := st.sales[id]; ok {
			out = s.Clone()
		}
		return nil
	})
	return out, err
}

func (r *SaleRepository) Update(_ context.Context, s *entity.Sale) error {
	return r.write(func(st *state) error {
		cur, ok := st.sales[s.ID]
		if !ok {
			return domain.ErrNotFound
		}
		if !editable(cur) {
			return domain.ErrConflict
		}
		next := cur.Clone()
		next.SaleDate = s.SaleDate
		next.CustomerPhone = s.CustomerPhone
		next.CustomerPhone2 = s.CustomerPhone2
		next.DeliveryAddress = s.DeliveryAddress
		next.Courier = s.Courier
		next.PaymentMethod = s.PaymentMethod
		next.PaymentMethod2 = s.PaymentMethod2
		next.UpdatedAt = s.UpdatedAt
		st.sales[s.ID] = next
		return nil
	})
}

func editable(s *entity.Sale) bool {
	status := sale.NormalizeStatus(s.Status)
	return !s.IsValidated && (status == entity.SaleStatusActive || status == entity.SaleStatusPending)
}

func (r *SaleRepository) UpdateStatus(_ context.Context, ch repository.StatusChange) (bool, error) {
	applied := false
	err := r.write(func(st *state) error {
		cur, ok := st.sales[ch.ID]
		if !ok || sale.NormalizeStatus(cur.Status) != ch.From || cur.IsValidated != ch.FromValidated {
			return nil
		}
		next := cur.Clone()
		next.Status = ch.To
		next.IsValidated = ch.ToValidated
		next.UpdatedAt = ch.At
		st.sales[ch.ID] = next
		applied = true
		return nil
	})
	return applied, err
}

func (r *SaleRepository) List(_ context.Context, f repository.SaleFilter) ([]*entity.Sale, error) {
	out := make([]*entity.Sale, 0)
	err := r.read(func(st *state) error {
		for _, s := range st.sales {
			if !matches(s, f) {
				continue
			}
			out = append(out, s.Clone())
		}
		return nil
	})
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].SaleDate.Equal(out[j].SaleDate) {
			return out[i].SaleDate.After(out[j].SaleDate)
		}
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return page(out, f.Limit, f.Offset), err
}

func matches(s *entity.Sale, f repository.SaleFilter) bool {
	if len(f.Statuses) > 0 {
		status := sale.NormalizeStatus(s.Status)
		found := false
		for _, st := range f.Statuses {
			if st == status {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.From != nil && s.SaleDate.Before(*f.From) {
		return false
	}
	if f.To != nil && s.SaleDate.After(*f.To) {
		return false
	}
	return true
}
