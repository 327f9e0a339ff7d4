package repository

import (
	"context"
	"time"

	"github.com/jhoicas/FichesVente-api/internal/domain/entity"
)

// SaleFilter criterios de listado de ventas. Statuses vacío = todos.
type SaleFilter struct {
	Statuses []string
	From     *time.Time
	To       *time.Time
	Limit    int
	Offset   int
}

// StatusChange cambio de estado condicionado: solo se aplica si la venta sigue en From/FromValidated.
type StatusChange struct {
	ID            string
	From          string
	FromValidated bool
	To            string
	ToValidated   bool
	At            time.Time
}

// SaleRepository define el puerto de persistencia para Sale.
type SaleRepository interface {
	Create(ctx context.Context, sale *entity.Sale) error
	GetByID(ctx context.Context, id string) (*entity.Sale, error)
	// Update guarda solo metadatos (fecha, contacto, dirección, repartidor, pagos) y nunca estado ni validación.
	// Exige una venta ACTIVE o PENDING sin validar; si no, domain.ErrConflict.
	Update(ctx context.Context, sale *entity.Sale) error
	// UpdateStatus compare-and-set del estado. false si la venta ya no estaba en el estado esperado.
	UpdateStatus(ctx context.Context, ch StatusChange) (bool, error)
	// List ordena por fecha de venta descendente.
	List(ctx context.Context, filter SaleFilter) ([]*entity.Sale, error)
}
