package postgres

import (
	"context"
	"fmt"

	"github.com/grupoventas/pedidos-api/internal/domain/entity"
	"github.com/grupoventas/pedidos-api/internal/domain/repository"
)

var _ repository.OrderLineRepository = (*OrderLineRepo)(nil)

// OrderLineRepo implementación de OrderLineRepository sobre PostgreSQL.
type OrderLineRepo struct {
	q Querier
}

// NewOrderLineRepository construye el adaptador de líneas de pedido.
func NewOrderLineRepository(q Querier) *OrderLineRepo {
	return &OrderLineRepo{q: q}
}

const lineColumns = `id, order_id, product_id, product_name, quantity, unit_sale_price`

// ListByOrder líneas de un pedido, id ascendente.
func (r *OrderLineRepo) ListByOrder(ctx context.Context, orderID string) ([]*entity.OrderLine, error) {
	query := `SELECT ` + lineColumns + ` FROM order_lines WHERE order_id = $1 ORDER BY id ASC`
	return r.list(ctx, query, orderID)
}

// ListByOrderForUpdate bloquea las líneas en orden ascendente de id. El ORDER
// BY dentro del FOR UPDATE fija el orden de adquisición de los locks.
func (r *OrderLineRepo) ListByOrderForUpdate(ctx context.Context, orderID string) ([]*entity.OrderLine, error) {
	query := `SELECT ` + lineColumns + ` FROM order_lines WHERE order_id = $1 ORDER BY id ASC FOR UPDATE`
	return r.list(ctx, query, orderID)
}

func (r *OrderLineRepo) list(ctx context.Context, query, orderID string) ([]*entity.OrderLine, error) {
	rows, err := r.q.Query(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("list order lines: %w", err)
	}
	defer rows.Close()

	var lines []*entity.OrderLine
	for rows.Next() {
		var l entity.OrderLine
		if err := rows.Scan(&l.ID, &l.OrderID, &l.ProductID, &l.ProductName,
			&l.Quantity, &l.UnitSalePrice); err != nil {
			return nil, fmt.Errorf("scan order line: %w", err)
		}
		lines = append(lines, &l)
	}
	return lines, rows.Err()
}
