package fulfillment

import (
	"context"

	"github.com/grupoventas/pedidos-api/internal/application/dto"
	"github.com/grupoventas/pedidos-api/internal/domain"
	"github.com/grupoventas/pedidos-api/internal/domain/entity"
	"github.com/grupoventas/pedidos-api/internal/domain/repository"
)

// QueryUseCase lado de lectura del motor de colectas: detalle de pendientes,
// historial y proyecciones para tableros. Nunca toma locks y lee solo datos
// confirmados; puede ver un pendiente levemente desactualizado (relajación
// aceptada, los escritores re-validan con locks).
type QueryUseCase struct {
	orderRepo      repository.OrderRepository
	lineRepo       repository.OrderLineRepository
	collectionRepo repository.CollectionRepository
	stockRepo      repository.StockRepository
	summaryRepo    repository.SummaryRepository
}

// NewQueryUseCase construye el caso de uso de lecturas.
func NewQueryUseCase(
	orderRepo repository.OrderRepository,
	lineRepo repository.OrderLineRepository,
	collectionRepo repository.CollectionRepository,
	stockRepo repository.StockRepository,
	summaryRepo repository.SummaryRepository,
) *QueryUseCase {
	return &QueryUseCase{
		orderRepo:      orderRepo,
		lineRepo:       lineRepo,
		collectionRepo: collectionRepo,
		stockRepo:      stockRepo,
		summaryRepo:    summaryRepo,
	}
}

// GetPendingSummary detalle de un pedido para la pantalla de colecta: por
// línea, lo pedido, lo colectado (derivado del ledger), lo pendiente, el
// stock disponible y el máximo colectable (min de ambos).
func (uc *QueryUseCase) GetPendingSummary(ctx context.Context, orderID string) (*dto.OrderPendingSummary, error) {
	order, err := uc.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, domain.ErrNotFound
	}
	if !order.Status.Collectable() {
		return nil, domain.ErrOrderNotCollectable
	}

	lines, err := uc.lineRepo.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	collected, err := uc.collectionRepo.CollectedByLine(ctx, orderID)
	if err != nil {
		return nil, err
	}

	summary := &dto.OrderPendingSummary{Order: order}
	for _, line := range lines {
		st, err := uc.stockRepo.Get(ctx, line.ProductID)
		if err != nil {
			return nil, err
		}
		pending := line.Quantity - collected[line.ID]
		summary.Lines = append(summary.Lines, dto.PendingLine{
			OrderLineID:    line.ID,
			ProductID:      line.ProductID,
			ProductName:    line.ProductName,
			Ordered:        line.Quantity,
			Collected:      collected[line.ID],
			Pending:        pending,
			AvailableStock: st.Quantity,
			MaxCollectable: min(pending, st.Quantity),
			UnitSalePrice:  line.UnitSalePrice,
		})
	}
	return summary, nil
}

// GetCollectionHistory historial de colectas de un pedido, más reciente primero.
func (uc *QueryUseCase) GetCollectionHistory(ctx context.Context, orderID string) ([]*entity.Collection, error) {
	order, err := uc.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, domain.ErrNotFound
	}
	return uc.collectionRepo.ListByOrder(ctx, orderID)
}

// ListOrdersForCollection listado agregado de pedidos con filtro
// pendientes/colectados/todos.
func (uc *QueryUseCase) ListOrdersForCollection(ctx context.Context, filter repository.ListFilter) ([]repository.OrderCollectionSummary, error) {
	switch filter {
	case repository.FilterPending, repository.FilterCollected, repository.FilterAll:
	case "":
		filter = repository.FilterPending
	default:
		return nil, domain.ErrInvalidInput
	}
	return uc.summaryRepo.ListOrdersForCollection(ctx, filter)
}

// PendingByClient unidades pendientes agrupadas por cliente (tablero).
func (uc *QueryUseCase) PendingByClient(ctx context.Context) ([]repository.PendingByClientRow, error) {
	return uc.summaryRepo.PendingByClient(ctx)
}

// PendingByProduct unidades pendientes agrupadas por producto (tablero).
func (uc *QueryUseCase) PendingByProduct(ctx context.Context) ([]repository.PendingByProductRow, error) {
	return uc.summaryRepo.PendingByProduct(ctx)
}
