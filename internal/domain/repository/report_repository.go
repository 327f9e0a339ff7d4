package repository

import (
	"context"

	"github.com/jhoicas/FichesVente-api/internal/domain/entity"
)

// ReportRepository define el puerto de persistencia para SalesReport.
type ReportRepository interface {
	Create(ctx context.Context, report *entity.SalesReport) error
	GetByID(ctx context.Context, id string) (*entity.SalesReport, error)
	// List más recientes primero.
	List(ctx context.Context) ([]*entity.SalesReport, error)
	Delete(ctx context.Context, id string) error
}
