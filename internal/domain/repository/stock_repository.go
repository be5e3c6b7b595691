package repository

import (
	"context"

	"github.com/grupoventas/pedidos-api/internal/domain/entity"
)

// StockRepository puerto para consultar/actualizar la cantidad disponible por
// producto. Usado dentro de transacciones para garantizar consistencia; un
// producto sin fila de stock se lee como cantidad 0.
type StockRepository interface {
	Get(ctx context.Context, productID string) (*entity.Stock, error)
	// GetForUpdate bloquea la fila de stock (SELECT ... FOR UPDATE). Último
	// bloqueo del protocolo; el coordinador las adquiere en orden ascendente
	// de product_id.
	GetForUpdate(ctx context.Context, productID string) (*entity.Stock, error)
	Upsert(ctx context.Context, stock *entity.Stock) error
}

// StockMovementRepository puerto de persistencia del ledger de movimientos.
type StockMovementRepository interface {
	Create(ctx context.Context, movement *entity.StockMovement) error
	ListByProduct(ctx context.Context, productID string, limit, offset int) ([]*entity.StockMovement, error)
	// ReplaySum suma de todos los deltas de un producto. Reproducida desde
	// cero debe coincidir con Stock.Quantity (check de consistencia).
	ReplaySum(ctx context.Context, productID string) (int64, error)
}
