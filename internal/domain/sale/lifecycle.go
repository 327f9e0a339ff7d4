// Package sale contiene la tabla de transiciones del ciclo de vida de una venta.
// No hace I/O: decide el estado destino o el error, y el caso de uso aplica los efectos de stock.
package sale

import (
	"github.com/jhoicas/FichesVente-api/internal/domain"
	"github.com/jhoicas/FichesVente-api/internal/domain/entity"
)

// Action operación del ciclo de vida.
type Action string

const (
	ActionCancel   Action = "cancel"
	ActionRefund   Action = "refund"
	ActionDelete   Action = "delete"
	ActionHold     Action = "hold"
	ActionValidate Action = "validate"
	ActionEdit     Action = "edit"
)

// Actions todas las acciones, en orden estable (útil para tablas de prueba).
var Actions = []Action{ActionCancel, ActionRefund, ActionDelete, ActionHold, ActionValidate, ActionEdit}

// Statuses todos los estados posibles.
var Statuses = []string{
	entity.SaleStatusActive,
	entity.SaleStatusPending,
	entity.SaleStatusCancelled,
	entity.SaleStatusRefunded,
	entity.SaleStatusDeleted,
}

// NormalizeStatus un estado vacío equivale a ACTIVE.
func NormalizeStatus(status string) string {
	if status == "" {
		return entity.SaleStatusActive
	}
	return status
}

// ValidStatus indica si status es uno de los estados conocidos.
func ValidStatus(status string) bool {
	for _, s := range Statuses {
		if s == status {
			return true
		}
	}
	return false
}

// IsTerminal CANCELLED, REFUNDED y DELETED no admiten más transiciones.
func IsTerminal(status string) bool {
	switch NormalizeStatus(status) {
	case entity.SaleStatusCancelled, entity.SaleStatusRefunded, entity.SaleStatusDeleted:
		return true
	}
	return false
}

// RestoresStock indica si la acción devuelve al stock las cantidades de la venta.
func RestoresStock(a Action) bool {
	return a == ActionCancel || a == ActionRefund || a == ActionDelete
}

// Next devuelve el estado destino de aplicar a sobre una venta en estado status con el flag isValidated.
// Errores: domain.ErrSaleLocked si la venta está validada; *domain.TransitionError si el estado no lo permite.
func Next(saleID, status string, isValidated bool, a Action) (string, error) {
	from := NormalizeStatus(status)

	switch a {
	case ActionCancel, ActionRefund, ActionDelete, ActionHold:
		if isValidated {
			return "", domain.ErrSaleLocked
		}
		if from != entity.SaleStatusActive {
			return "", &domain.TransitionError{SaleID: saleID, From: from, Action: string(a)}
		}
		return target(a), nil

	case ActionValidate:
		if from != entity.SaleStatusPending && from != entity.SaleStatusActive {
			return "", &domain.TransitionError{SaleID: saleID, From: from, Action: string(a)}
		}
		return entity.SaleStatusActive, nil

	case ActionEdit:
		if isValidated {
			return "", domain.ErrSaleLocked
		}
		if from != entity.SaleStatusActive && from != entity.SaleStatusPending {
			return "", &domain.TransitionError{SaleID: saleID, From: from, Action: string(a)}
		}
		return from, nil
	}
	return "", domain.NewValidationError("action", "acción desconocida: "+string(a))
}

func target(a Action) string {
	switch a {
	case ActionCancel:
		return entity.SaleStatusCancelled
	case ActionRefund:
		return entity.SaleStatusRefunded
	case ActionDelete:
		return entity.SaleStatusDeleted
	default:
		return entity.SaleStatusPending
	}
}
