// Package fulfillment contiene la política de estados de colecta como
// funciones puras, para mantenerla en un solo lugar y testearla aislada.
package fulfillment

import "github.com/grupoventas/pedidos-api/internal/domain/entity"

// Progress resultado de comparar cantidades colectadas contra pedidas.
type Progress int

const (
	ProgressPartial Progress = iota
	ProgressComplete
)

// DetermineProgress función pura: Complete solo si orderedTotal > 0 y lo
// colectado acumulado alcanza lo pedido. Sin efectos secundarios ni I/O.
func DetermineProgress(orderedTotal, collectedTotal int64) Progress {
	if orderedTotal > 0 && collectedTotal >= orderedTotal {
		return ProgressComplete
	}
	return ProgressPartial
}

// OrderStatusFor mapea el progreso ACUMULADO del pedido a su estado.
func OrderStatusFor(p Progress) entity.OrderStatus {
	if p == ProgressComplete {
		return entity.OrderStatusFullyCollected
	}
	return entity.OrderStatusPartiallyCollected
}

// CollectionStatusFor mapea la decisión por evento al estado de la colecta.
func CollectionStatusFor(p Progress) entity.CollectionStatus {
	if p == ProgressComplete {
		return entity.CollectionStatusFullyCollected
	}
	return entity.CollectionStatusPartiallyCollected
}
