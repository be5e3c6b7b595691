package entity

import "time"

// MovementType tipo de movimiento de stock.
type MovementType string

const (
	MovementTypeEntry      MovementType = "ENTRY"      // entrada (estorno, reposición)
	MovementTypeExit       MovementType = "EXIT"       // salida (colecta)
	MovementTypeAdjustment MovementType = "ADJUSTMENT" // ajuste manual
)

// StockMovement entrada inmutable del ledger de stock: antes, delta y después
// de cada cambio, con motivo y responsable. Nunca se muta ni se borra; la
// cantidad actual de Stock debe poder reconstruirse reproduciendo los deltas
// desde cero (propiedad verificada en tests).
type StockMovement struct {
	ID             string
	ProductID      string
	Type           MovementType
	QuantityBefore int64
	QuantityDelta  int64 // positivo entrada, negativo salida
	QuantityAfter  int64
	Reason         string
	Actor          string
	CreatedAt      time.Time
}
