package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound            = errors.New("recurso no encontrado")
	ErrOrderNotCollectable = errors.New("pedido no encontrado o no disponible para colecta")
	ErrInvalidInput        = errors.New("entrada inválida")
	ErrInsufficientPending = errors.New("cantidad excede lo pendiente de la línea")
	ErrInsufficientStock   = errors.New("stock insuficiente")
	ErrStockNegative       = errors.New("el movimiento dejaría el stock en negativo")
	ErrLockingUnavailable  = errors.New("el backend de datos no soporta bloqueo pesimista de filas")
)

// InsufficientPendingError rechazo de negocio: la cantidad solicitada excede
// lo pendiente de la línea. Nombra la línea ofensora y el límite.
type InsufficientPendingError struct {
	OrderLineID string
	ProductName string
	Requested   int64
	Pending     int64
}

func (e *InsufficientPendingError) Error() string {
	return fmt.Sprintf("cantidad %d excede lo pendiente %d para %s (línea %s)",
		e.Requested, e.Pending, e.ProductName, e.OrderLineID)
}

func (e *InsufficientPendingError) Unwrap() error { return ErrInsufficientPending }

// InsufficientStockError rechazo de negocio: la cantidad solicitada excede el
// stock disponible del producto al momento del bloqueo.
type InsufficientStockError struct {
	ProductID   string
	ProductName string
	Requested   int64
	Available   int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("cantidad %d excede el stock disponible %d para %s",
		e.Requested, e.Available, e.ProductName)
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// StockNegativeError última línea de defensa dentro del ledger: aunque la
// validación previa haya quedado obsoleta por una carrera, ningún débito
// puede dejar el stock en negativo. Siempre provoca rollback total.
type StockNegativeError struct {
	ProductID string
	Available int64
	Requested int64
}

func (e *StockNegativeError) Error() string {
	return fmt.Sprintf("débito de %d dejaría en negativo el stock del producto %s (disponible %d)",
		e.Requested, e.ProductID, e.Available)
}

func (e *StockNegativeError) Unwrap() error { return ErrStockNegative }
