package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/grupoventas/pedidos-api/internal/domain/entity"
)

// CollectionItemRequest una línea solicitada dentro de una colecta.
type CollectionItemRequest struct {
	OrderLineID string `json:"order_line_id"`
	Quantity    int64  `json:"quantity"`
}

// ProcessCollectionRequest entrada de ProcessCollection. Conferente
// (verificador) es opcional; si viene, se valida igual que el retirante.
type ProcessCollectionRequest struct {
	OrderID           string                  `json:"order_id"`
	CollectorName     string                  `json:"collector_name"`
	CollectorDocument string                  `json:"collector_document"`
	VerifierName      string                  `json:"verifier_name,omitempty"`
	VerifierDocument  string                  `json:"verifier_document,omitempty"`
	Items             []CollectionItemRequest `json:"items"`
	Notes             string                  `json:"notes,omitempty"`
}

// ReceiptItem línea del contrato de datos hacia la generación de recibos.
type ReceiptItem struct {
	ProductName string `json:"product_name"`
	Quantity    int64  `json:"quantity"`
}

// CollectionReceipt contrato de datos que consume la generación de recibos
// (fuera del core). El generador lo trata como entrada opaca y no tiene
// acceso de escritura al estado del motor.
type CollectionReceipt struct {
	CollectionID      string        `json:"collection_id"`
	OrderID           string        `json:"order_id"`
	ClientName        string        `json:"client_name"`
	CollectorName     string        `json:"collector_name"`
	CollectorDocument string        `json:"collector_document"`
	VerifierName      string        `json:"verifier_name,omitempty"`
	VerifierDocument  string        `json:"verifier_document,omitempty"`
	Items             []ReceiptItem `json:"items"`
	CollectedAt       time.Time     `json:"collected_at"`
}

// PendingLine detalle por línea para la pantalla de colecta: lo pedido, lo ya
// colectado (derivado del ledger), lo pendiente y cuánto admite el stock.
type PendingLine struct {
	OrderLineID    string
	ProductID      string
	ProductName    string
	Ordered        int64
	Collected      int64
	Pending        int64
	AvailableStock int64
	MaxCollectable int64
	UnitSalePrice  decimal.Decimal
}

// OrderPendingSummary pedido + detalle de pendientes por línea.
type OrderPendingSummary struct {
	Order *entity.Order
	Lines []PendingLine
}

// ReversalSummary resumen del estorno (modo simulación y aplicado).
type ReversalSummary struct {
	Collections    int64
	CollectedItems int64
	AffectedOrders int64
	Restock        []ReversalRestock
}

// ReversalRestock cantidad a reponer por producto al estornar.
type ReversalRestock struct {
	ProductID string
	Quantity  int64
}
