package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/grupoventas/pedidos-api/internal/domain/entity"
	"github.com/grupoventas/pedidos-api/internal/domain/repository"
)

var _ repository.StockMovementRepository = (*StockMovementRepo)(nil)

// StockMovementRepo implementación del ledger de movimientos sobre PostgreSQL.
// Solo inserta y lee: los movimientos nunca se actualizan ni borran.
type StockMovementRepo struct {
	q Querier
}

// NewStockMovementRepository construye el adaptador de movimientos.
func NewStockMovementRepository(q Querier) *StockMovementRepo {
	return &StockMovementRepo{q: q}
}

// Create registra un movimiento en el ledger. Genera ID si viene vacío.
func (r *StockMovementRepo) Create(ctx context.Context, movement *entity.StockMovement) error {
	if movement.ID == "" {
		movement.ID = uuid.New().String()
	}
	_, err := r.q.Exec(ctx, `
		INSERT INTO stock_movements (id, product_id, type, quantity_before,
			quantity_delta, quantity_after, reason, actor, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		movement.ID, movement.ProductID, string(movement.Type),
		movement.QuantityBefore, movement.QuantityDelta, movement.QuantityAfter,
		movement.Reason, movement.Actor, movement.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert stock movement: %w", err)
	}
	return nil
}

// ListByProduct movimientos de un producto, más reciente primero.
func (r *StockMovementRepo) ListByProduct(ctx context.Context, productID string, limit, offset int) ([]*entity.StockMovement, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, product_id, type, quantity_before, quantity_delta,
		       quantity_after, reason, actor, created_at
		FROM stock_movements
		WHERE product_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`, productID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list stock movements: %w", err)
	}
	defer rows.Close()

	var movements []*entity.StockMovement
	for rows.Next() {
		var m entity.StockMovement
		var mType string
		if err := rows.Scan(&m.ID, &m.ProductID, &mType, &m.QuantityBefore,
			&m.QuantityDelta, &m.QuantityAfter, &m.Reason, &m.Actor,
			&m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan stock movement: %w", err)
		}
		m.Type = entity.MovementType(mType)
		movements = append(movements, &m)
	}
	return movements, rows.Err()
}

// ReplaySum suma de todos los deltas de un producto. Partiendo de cero debe
// reconstruir Stock.Quantity exactamente.
func (r *StockMovementRepo) ReplaySum(ctx context.Context, productID string) (int64, error) {
	var sum int64
	err := r.q.QueryRow(ctx,
		`SELECT COALESCE(SUM(quantity_delta), 0) FROM stock_movements WHERE product_id = $1`,
		productID,
	).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("replay sum: %w", err)
	}
	return sum, nil
}
