package repository

import (
	"context"

	"github.com/grupoventas/pedidos-api/internal/domain/entity"
)

// OrderRepository puerto de lectura/bloqueo de pedidos. El motor de colectas
// nunca crea ni borra pedidos; solo los lee, los bloquea y recalcula su estado.
type OrderRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Order, error)
	// GetForUpdate bloquea la fila del pedido (SELECT ... FOR UPDATE). Primer
	// bloqueo del protocolo: ningún otro ProcessCollection sobre el mismo
	// pedido avanza hasta que esta transacción termine.
	GetForUpdate(ctx context.Context, id string) (*entity.Order, error)
	UpdateStatus(ctx context.Context, id string, status entity.OrderStatus) error
}

// OrderLineRepository puerto de lectura/bloqueo de líneas de pedido.
type OrderLineRepository interface {
	ListByOrder(ctx context.Context, orderID string) ([]*entity.OrderLine, error)
	// ListByOrderForUpdate bloquea las líneas en orden ascendente de id,
	// parte del orden total de adquisición de locks (ver ProcessCollection).
	ListByOrderForUpdate(ctx context.Context, orderID string) ([]*entity.OrderLine, error)
}
