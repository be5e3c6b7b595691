package repository

import (
	"context"

	"github.com/grupoventas/pedidos-api/internal/domain/entity"
)

// RestockRow cantidad a devolver al stock de un producto al estornar colectas.
type RestockRow struct {
	ProductID string
	Quantity  int64
}

// CollectionRepository puerto de persistencia de colectas y sus ítems.
// Las colectas son historial de auditoría: solo Create y lecturas, salvo las
// operaciones de estorno usadas por la herramienta explícita de reversión.
type CollectionRepository interface {
	// Create persiste la colecta y todos sus CollectedItems.
	Create(ctx context.Context, collection *entity.Collection) error
	// ListByOrder colectas de un pedido con sus ítems, más reciente primero.
	ListByOrder(ctx context.Context, orderID string) ([]*entity.Collection, error)
	// CollectedByLine suma de cantidades colectadas por línea del pedido,
	// derivada del ledger de CollectedItem. Ejecutada dentro de la misma
	// transacción bloqueada, es la única fuente de verdad de "ya colectado".
	CollectedByLine(ctx context.Context, orderID string) (map[string]int64, error)

	// Operaciones de estorno (herramienta explícita de reversión, no flujo normal).
	Counts(ctx context.Context) (collections int64, items int64, err error)
	RestockSummary(ctx context.Context) ([]RestockRow, error)
	OrderIDsWithCollections(ctx context.Context) ([]string, error)
	DeleteAll(ctx context.Context) (collections int64, items int64, err error)
}
