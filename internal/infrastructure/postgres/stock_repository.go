package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/grupoventas/pedidos-api/internal/domain/entity"
	"github.com/grupoventas/pedidos-api/internal/domain/repository"
)

var _ repository.StockRepository = (*StockRepo)(nil)

// StockRepo implementación de StockRepository sobre PostgreSQL.
type StockRepo struct {
	q Querier
}

// NewStockRepository construye el adaptador de stock.
func NewStockRepository(q Querier) *StockRepo {
	return &StockRepo{q: q}
}

// Get cantidad disponible de un producto. Sin fila registrada, el producto se
// lee como cantidad 0 (no es error).
func (r *StockRepo) Get(ctx context.Context, productID string) (*entity.Stock, error) {
	query := `SELECT product_id, quantity, updated_at, updated_by FROM stock WHERE product_id = $1`
	return r.scanOne(ctx, query, productID)
}

// GetForUpdate como Get pero bloqueando la fila (SELECT ... FOR UPDATE).
// Un producto sin fila no deja nada bloqueado; el ledger crea la fila al
// primer crédito.
func (r *StockRepo) GetForUpdate(ctx context.Context, productID string) (*entity.Stock, error) {
	query := `SELECT product_id, quantity, updated_at, updated_by FROM stock WHERE product_id = $1 FOR UPDATE`
	return r.scanOne(ctx, query, productID)
}

// Upsert inserta o actualiza la fila de stock del producto.
func (r *StockRepo) Upsert(ctx context.Context, stock *entity.Stock) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO stock (product_id, quantity, updated_at, updated_by)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (product_id) DO UPDATE SET
			quantity = EXCLUDED.quantity,
			updated_at = EXCLUDED.updated_at,
			updated_by = EXCLUDED.updated_by`,
		stock.ProductID, stock.Quantity, stock.UpdatedAt, stock.UpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("upsert stock: %w", err)
	}
	return nil
}

func (r *StockRepo) scanOne(ctx context.Context, query, productID string) (*entity.Stock, error) {
	var s entity.Stock
	err := r.q.QueryRow(ctx, query, productID).Scan(
		&s.ProductID, &s.Quantity, &s.UpdatedAt, &s.UpdatedBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &entity.Stock{ProductID: productID, Quantity: 0}, nil
		}
		return nil, fmt.Errorf("get stock: %w", err)
	}
	return &s, nil
}
