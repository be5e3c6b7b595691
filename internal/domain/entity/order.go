package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus ciclo de vida del pedido. Las transiciones son de una sola vía,
// salvo el bucle PARTIALLY_COLLECTED -> PARTIALLY_COLLECTED mientras se
// acumulan colectas. CANCELLED solo es alcanzable desde PENDING o
// PAYMENT_APPROVED.
type OrderStatus string

const (
	OrderStatusPending            OrderStatus = "PENDING"
	OrderStatusPaymentApproved    OrderStatus = "PAYMENT_APPROVED"
	OrderStatusPartiallyCollected OrderStatus = "PARTIALLY_COLLECTED"
	OrderStatusFullyCollected     OrderStatus = "FULLY_COLLECTED"
	OrderStatusCancelled          OrderStatus = "CANCELLED"
)

// Collectable indica si el pedido admite colectas en su estado actual.
func (s OrderStatus) Collectable() bool {
	return s == OrderStatusPaymentApproved || s == OrderStatusPartiallyCollected
}

// Order representa un pedido de venta. El motor de colectas solo lee sus
// líneas y recalcula su estado; la edición del pedido vive en otro módulo.
// ClientName viaja denormalizado para listados y recibos.
type Order struct {
	ID               string
	ClientID         string
	ClientName       string
	Status           OrderStatus
	ConfirmedBySales bool
	CreatedAt        time.Time
}

// OrderLine una línea del pedido: producto + cantidad pedida + precio de venta.
// Inmutable una vez que el pedido entra al flujo de colectas. La cantidad ya
// colectada NO se almacena aquí: se deriva siempre de la suma de
// CollectedItem dentro de la misma transacción (ver ProcessCollectionUseCase).
type OrderLine struct {
	ID            string
	OrderID       string
	ProductID     string
	ProductName   string
	Quantity      int64
	UnitSalePrice decimal.Decimal
}

// TotalSaleValue valor total de venta de la línea.
func (l OrderLine) TotalSaleValue() decimal.Decimal {
	return l.UnitSalePrice.Mul(decimal.NewFromInt(l.Quantity))
}
