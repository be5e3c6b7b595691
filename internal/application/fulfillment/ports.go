package fulfillment

import (
	"context"

	"github.com/grupoventas/pedidos-api/internal/application/dto"
	"github.com/grupoventas/pedidos-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando
// repositorios atados a esa tx. Garantiza atomicidad: si fn retorna error no
// queda visible ningún estado parcial (ni Collection, ni CollectedItem, ni
// StockMovement).
type TxRunner interface {
	Run(ctx context.Context, fn func(
		orderRepo repository.OrderRepository,
		lineRepo repository.OrderLineRepository,
		collectionRepo repository.CollectionRepository,
		stockRepo repository.StockRepository,
		movementRepo repository.StockMovementRepository,
	) error) error

	// SupportsRowLocking indica si el backend honra SELECT ... FOR UPDATE.
	// Sin esa capacidad el motor falla cerrado (ErrLockingUnavailable) salvo
	// en modo degradado explícito de tests.
	SupportsRowLocking() bool
}

// ReceiptQueue puerto de salida hacia la generación de recibos. La entrega es
// best-effort y posterior al commit: un fallo aquí jamás revierte la colecta.
type ReceiptQueue interface {
	Enqueue(ctx context.Context, receipt dto.CollectionReceipt) error
}
