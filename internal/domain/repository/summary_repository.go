package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/grupoventas/pedidos-api/internal/domain/entity"
)

// ListFilter filtro del listado de pedidos para colecta.
type ListFilter string

const (
	FilterPending   ListFilter = "pending"   // pago aprobado y colecta incompleta
	FilterCollected ListFilter = "collected" // colecta completa
	FilterAll       ListFilter = "all"
)

// OrderCollectionSummary fila agregada del listado de pedidos para colecta.
type OrderCollectionSummary struct {
	OrderID        string
	ClientID       string
	ClientName     string
	Status         entity.OrderStatus
	TotalUnits     int64
	CollectedUnits int64
	PendingUnits   int64
	TotalSaleValue decimal.Decimal
	CreatedAt      time.Time
}

// PendingByClientRow unidades pendientes de colecta agrupadas por cliente.
type PendingByClientRow struct {
	ClientID     string
	ClientName   string
	OrderCount   int64
	PendingUnits int64
}

// PendingByProductRow unidades pendientes de colecta agrupadas por producto,
// con el stock disponible para dimensionar faltantes.
type PendingByProductRow struct {
	ProductID      string
	ProductName    string
	PendingUnits   int64
	AvailableStock int64
}

// SummaryRepository proyecciones de solo lectura para tableros. Nunca toman
// locks y leen únicamente datos confirmados: pueden ver un pendiente
// levemente desactualizado, relajación aceptada.
type SummaryRepository interface {
	ListOrdersForCollection(ctx context.Context, filter ListFilter) ([]OrderCollectionSummary, error)
	PendingByClient(ctx context.Context) ([]PendingByClientRow, error)
	PendingByProduct(ctx context.Context) ([]PendingByProductRow, error)
}
