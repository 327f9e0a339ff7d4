package memory

import (
	"context"

	"github.com/jhoicas/FichesVente-api/internal/domain"
	"github.com/jhoicas/FichesVente-api/internal/domain/entity"
)

// ReportRepository implementa repository.ReportRepository en memoria.
type ReportRepository struct {
	handle
}

func copyReport(r *entity.SalesReport) *entity.SalesReport {
	cp := *r
	cp.Summary.RevenueByProduct = make(map[string]entity.ProductRevenue, len(r.Summary.RevenueByProduct))
	for k, v := range r.Summary.RevenueByProduct {
		cp.Summary.RevenueByProduct[k] = v
	}
	return &cp
}

func (r *ReportRepository) Create(_ context.Context, rep *entity.SalesReport) error {
	return r.write(func(st *state) error {
		if _, ok := st.reports[rep.ID]; ok {
			return domain.ErrDuplicate
		}
		st.reports[rep.ID] = copyReport(rep)
		st.reportOrder = append(st.reportOrder, rep.ID)
		return nil
	})
}

func (r *ReportRepository) GetByID(_ context.Context, id string) (*entity.SalesReport, error) {
	var out *entity.SalesReport
	err := r.read(func(st *state) error {
		if rep, ok := st.reports[id]; ok {
			out = copyReport(rep)
		}
		return nil
	})
	return out, err
}

func (r *ReportRepository) List(_ context.Context) ([]*entity.SalesReport, error) {
	out := make([]*entity.SalesReport, 0)
	err := r.read(func(st *state) error {
		for i := len(st.reportOrder) - 1; i >= 0; i-- {
			out = append(out, copyReport(st.reports[st.reportOrder[i]]))
		}
		return nil
	})
	return out, err
}

func (r *ReportRepository) Delete(_ context.Context, id string) error {
	return r.write(func(st *state) error {
		if _, ok := st.reports[id]; !ok {
			return domain.ErrNotFound
		}
		delete(st.reports, id)
		st.reportOrder = remove(st.reportOrder, id)
		return nil
	})
}

func remove(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
