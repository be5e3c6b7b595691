package entity

import "time"

// CollectionStatus estado de UNA colecta puntual (el evento de retiro), no el
// estado acumulado del pedido. Son dos hechos distintos: una colecta puede
// quedar PARTIALLY_COLLECTED y aun así el pedido completarse con una colecta
// posterior. Por eso es un tipo separado de OrderStatus.
type CollectionStatus string

const (
	CollectionStatusPartiallyCollected CollectionStatus = "PARTIALLY_COLLECTED"
	CollectionStatusFullyCollected     CollectionStatus = "FULLY_COLLECTED"
)

// Collection un evento físico de retiro contra un pedido. Se crea una sola
// vez por colecta exitosa y nunca se muta ni se borra (historial de
// auditoría), salvo por la herramienta explícita de estorno.
type Collection struct {
	ID                string
	OrderID           string
	CollectedAt       time.Time
	CollectorName     string
	CollectorDocument string
	VerifierName      string
	VerifierDocument  string
	Status            CollectionStatus
	Notes             string
	Items             []*CollectedItem
}

// CollectedItem cantidad de una línea del pedido satisfecha por UNA colecta.
// Append-only: la cantidad colectada acumulada de una línea es la suma de
// estos registros, nunca un contador cacheado.
type CollectedItem struct {
	ID           string
	CollectionID string
	OrderLineID  string
	Quantity     int64
}
