package fulfillment

import (
	"context"
	"time"

	"github.com/grupoventas/pedidos-api/internal/application/dto"
	"github.com/grupoventas/pedidos-api/internal/application/stock"
	"github.com/grupoventas/pedidos-api/internal/domain/entity"
	"github.com/grupoventas/pedidos-api/internal/domain/repository"
	"github.com/grupoventas/pedidos-api/pkg/logger"
)

// ReversalUseCase estorno de colectas: repone el stock según los ítems
// colectados, regresa los pedidos afectados a PAYMENT_APPROVED y borra los
// registros de Collection/CollectedItem. Es la única vía legítima de borrar
// historial de colectas y existe como herramienta administrativa separada.
type ReversalUseCase struct {
	txRunner       TxRunner
	collectionRepo repository.CollectionRepository // solo lectura, para el resumen
	ledger         *stock.Ledger
	log            *logger.Logger
}

// NewReversalUseCase construye el caso de uso de estorno.
func NewReversalUseCase(
	txRunner TxRunner,
	collectionRepo repository.CollectionRepository,
	ledger *stock.Ledger,
	log *logger.Logger,
) *ReversalUseCase {
	return &ReversalUseCase{
		txRunner:       txRunner,
		collectionRepo: collectionRepo,
		ledger:         ledger,
		log:            log,
	}
}

// Summary modo simulación: qué se repondría y cuántos registros se borrarían,
// sin tocar nada.
func (uc *ReversalUseCase) Summary(ctx context.Context) (*dto.ReversalSummary, error) {
	collections, items, err := uc.collectionRepo.Counts(ctx)
	if err != nil {
		return nil, err
	}
	restock, err := uc.collectionRepo.RestockSummary(ctx)
	if err != nil {
		return nil, err
	}
	orderIDs, err := uc.collectionRepo.OrderIDsWithCollections(ctx)
	if err != nil {
		return nil, err
	}
	summary := &dto.ReversalSummary{
		Collections:    collections,
		CollectedItems: items,
		AffectedOrders: int64(len(orderIDs)),
	}
	for _, row := range restock {
		summary.Restock = append(summary.Restock, dto.ReversalRestock{
			ProductID: row.ProductID,
			Quantity:  row.Quantity,
		})
	}
	return summary, nil
}

// Apply ejecuta el estorno completo en una sola transacción: créditos de
// stock (con movimiento ENTRY por producto), reset de estado de pedidos y
// borrado de colectas. Cualquier fallo revierte todo.
func (uc *ReversalUseCase) Apply(ctx context.Context, actor string) (*dto.ReversalSummary, error) {
	now := time.Now().UTC()
	summary := &dto.ReversalSummary{}

	err := uc.txRunner.Run(ctx, func(
		orderRepo repository.OrderRepository,
		_ repository.OrderLineRepository,
		collectionRepo repository.CollectionRepository,
		stockRepo repository.StockRepository,
		movementRepo repository.StockMovementRepository,
	) error {
		// Mismo protocolo de locks que el coordinador: pedidos primero,
		// filas de stock después. Con los pedidos afectados bloqueados,
		// ninguna colecta nueva puede colarse entre el cálculo de la
		// reposición y el borrado.
		orderIDs, err := collectionRepo.OrderIDsWithCollections(ctx)
		if err != nil {
			return err
		}
		orders := make(map[string]*entity.Order, len(orderIDs))
		for _, orderID := range orderIDs {
			order, err := orderRepo.GetForUpdate(ctx, orderID)
			if err != nil {
				return err
			}
			if order != nil {
				orders[orderID] = order
			}
		}

		restock, err := collectionRepo.RestockSummary(ctx)
		if err != nil {
			return err
		}
		for _, row := range restock {
			// RestockSummary viene ordenado por product_id; el lock de cada
			// fila se toma en ese mismo orden ANTES de acreditar, porque el
			// ledger lee sin bloquear y asume la fila ya bloqueada.
			if _, err := stockRepo.GetForUpdate(ctx, row.ProductID); err != nil {
				return err
			}
			if err := uc.ledger.Credit(ctx, stockRepo, movementRepo,
				row.ProductID, row.Quantity, "estorno de colectas", actor, now); err != nil {
				return err
			}
			summary.Restock = append(summary.Restock, dto.ReversalRestock{
				ProductID: row.ProductID,
				Quantity:  row.Quantity,
			})
		}

		for _, orderID := range orderIDs {
			order := orders[orderID]
			if order == nil {
				continue
			}
			if order.Status == entity.OrderStatusPartiallyCollected ||
				order.Status == entity.OrderStatusFullyCollected {
				if err := orderRepo.UpdateStatus(ctx, orderID, entity.OrderStatusPaymentApproved); err != nil {
					return err
				}
				summary.AffectedOrders++
			}
		}

		collections, items, err := collectionRepo.DeleteAll(ctx)
		if err != nil {
			return err
		}
		summary.Collections = collections
		summary.CollectedItems = items
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.log.Info().
		Int64("collections", summary.Collections).
		Int64("collected_items", summary.CollectedItems).
		Int64("affected_orders", summary.AffectedOrders).
		Str("actor", actor).
		Msg("estorno de colectas aplicado")
	return summary, nil
}
