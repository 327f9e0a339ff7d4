package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound           = errors.New("recurso no encontrado")
	ErrInvalidInput       = errors.New("entrada inválida")
	ErrDuplicate          = errors.New("recurso duplicado")
	ErrUnauthorized       = errors.New("no autorizado")
	ErrForbidden          = errors.New("acceso denegado")
	ErrConflict           = errors.New("conflicto con el estado actual")
	ErrInsufficientStock  = errors.New("stock insuficiente")
	ErrInvalidTransition  = errors.New("transición de estado no permitida")
	ErrSaleLocked         = errors.New("la venta está validada y no admite cambios")
	ErrInvariantViolation = errors.New("violación de invariante interna")
	ErrLastAdmin          = errors.New("no se puede quitar el último administrador activo")
	ErrCodeExpired        = errors.New("código SMS expirado")
	ErrCodeInvalid        = errors.New("código SMS incorrecto")
	ErrTooManyAttempts    = errors.New("demasiados intentos de verificación")
)

// ValidationError entrada mal formada en un campo concreto.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrInvalidInput }

// NewValidationError atajo para construir un *ValidationError.
func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// StockShortfall una línea de venta que no puede atenderse con el stock actual.
type StockShortfall struct {
	ProductName string `json:"product_name"`
	Requested   int    `json:"requested"`
	Available   int    `json:"available"`
}

// StockShortfallError resultado estructurado de una venta rechazada por falta de stock.
// Lista todas las líneas cortas, no solo la primera.
type StockShortfallError struct {
	Items []StockShortfall
}

func (e *StockShortfallError) Error() string {
	parts := make([]string, 0, len(e.Items))
	for _, it := range e.Items {
		parts = append(parts, fmt.Sprintf("%s (pedido %d, disponible %d)", it.ProductName, it.Requested, it.Available))
	}
	return "stock insuficiente: " + strings.Join(parts, ", ")
}

func (e *StockShortfallError) Is(target error) bool { return target == ErrInsufficientStock }

// TransitionError cambio de estado no permitido desde el estado actual de la venta.
type TransitionError struct {
	SaleID string
	From   string
	Action string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("venta %s: no se puede %s desde el estado %s", e.SaleID, e.Action, e.From)
}

func (e *TransitionError) Is(target error) bool { return target == ErrInvalidTransition }

// CompensationError una operación falló y la reversión de sus efectos también falló.
// El sistema queda inconsistente y requiere conciliación manual.
type CompensationError struct {
	Cause    error
	Failures []error
}

func (e *CompensationError) Error() string {
	msgs := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		msgs = append(msgs, f.Error())
	}
	return fmt.Sprintf("compensación incompleta tras %v: %s", e.Cause, strings.Join(msgs, "; "))
}

func (e *CompensationError) Is(target error) bool { return target == ErrInvariantViolation }

func (e *CompensationError) Unwrap() error { return e.Cause }
