// Package stock implementa el ledger de stock: todo cambio de cantidad pasa
// por un débito o crédito que registra un movimiento inmutable.
package stock

import (
	"context"
	"time"

	"github.com/grupoventas/pedidos-api/internal/domain"
	"github.com/grupoventas/pedidos-api/internal/domain/entity"
	"github.com/grupoventas/pedidos-api/internal/domain/repository"
)

// Ledger registra débitos y créditos como movimientos append-only y actualiza
// la cantidad materializada de Stock. NO bloquea internamente: el caller debe
// tener la fila de stock ya bloqueada (GetForUpdate) dentro de su propia
// transacción; así varios débitos componen una sola unidad atómica.
type Ledger struct{}

// NewLedger construye el ledger.
func NewLedger() *Ledger {
	return &Ledger{}
}

// Debit descuenta quantity del stock del producto y registra el movimiento
// EXIT. Requiere quantity > 0 y la fila bloqueada por el caller. Si el
// resultado quedara negativo devuelve StockNegativeError sin escribir nada:
// es la última línea de defensa ante validaciones que quedaron obsoletas por
// una carrera, y debe provocar rollback de toda la operación.
func (l *Ledger) Debit(
	ctx context.Context,
	stockRepo repository.StockRepository,
	movementRepo repository.StockMovementRepository,
	productID string,
	quantity int64,
	reason, actor string,
	now time.Time,
) error {
	if quantity <= 0 {
		return domain.ErrInvalidInput
	}
	st, err := stockRepo.Get(ctx, productID)
	if err != nil {
		return err
	}
	after := st.Quantity - quantity
	if after < 0 {
		return &domain.StockNegativeError{
			ProductID: productID,
			Available: st.Quantity,
			Requested: quantity,
		}
	}
	movement := &entity.StockMovement{
		ProductID:      productID,
		Type:           entity.MovementTypeExit,
		QuantityBefore: st.Quantity,
		QuantityDelta:  -quantity,
		QuantityAfter:  after,
		Reason:         reason,
		Actor:          actor,
		CreatedAt:      now,
	}
	if err := movementRepo.Create(ctx, movement); err != nil {
		return err
	}
	st.Quantity = after
	st.UpdatedAt = now
	st.UpdatedBy = actor
	return stockRepo.Upsert(ctx, st)
}

// Credit repone quantity al stock del producto y registra el movimiento
// ENTRY. Usado por el estorno y por devoluciones; un crédito siempre procede
// (no aplica el invariante de no-negatividad) pero igual deja movimiento.
// Si el producto no tiene fila de stock, la crea partiendo de 0.
func (l *Ledger) Credit(
	ctx context.Context,
	stockRepo repository.StockRepository,
	movementRepo repository.StockMovementRepository,
	productID string,
	quantity int64,
	reason, actor string,
	now time.Time,
) error {
	if quantity <= 0 {
		return domain.ErrInvalidInput
	}
	st, err := stockRepo.Get(ctx, productID)
	if err != nil {
		return err
	}
	after := st.Quantity + quantity
	movement := &entity.StockMovement{
		ProductID:      productID,
		Type:           entity.MovementTypeEntry,
		QuantityBefore: st.Quantity,
		QuantityDelta:  quantity,
		QuantityAfter:  after,
		Reason:         reason,
		Actor:          actor,
		CreatedAt:      now,
	}
	if err := movementRepo.Create(ctx, movement); err != nil {
		return err
	}
	st.Quantity = after
	st.UpdatedAt = now
	st.UpdatedBy = actor
	return stockRepo.Upsert(ctx, st)
}
