package entity

import "time"

// Stock cantidad disponible actual de un producto. Se muta exclusivamente a
// través del ledger de movimientos (application/stock); invariante: la
// cantidad nunca puede quedar negativa.
type Stock struct {
	ProductID string
	Quantity  int64
	UpdatedAt time.Time
	UpdatedBy string
}
