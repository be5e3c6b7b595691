package postgres

import (
	"context"
	"fmt"

	"github.com/grupoventas/pedidos-api/internal/domain/entity"
	"github.com/grupoventas/pedidos-api/internal/domain/repository"
)

var _ repository.SummaryRepository = (*SummaryRepo)(nil)

// SummaryRepo proyecciones agregadas de solo lectura sobre PostgreSQL.
// Ninguna consulta toma locks: ejecutan fuera de transacción contra datos
// confirmados, por lo que pueden ver un pendiente levemente desactualizado.
type SummaryRepo struct {
	q Querier
}

// NewSummaryRepository construye el adaptador de proyecciones.
func NewSummaryRepository(q Querier) *SummaryRepo {
	return &SummaryRepo{q: q}
}

// collectedPerOrderCTE suma lo colectado por pedido desde el ledger de ítems.
// Compartida por los listados; el pendiente siempre se deriva, nunca se lee
// de una columna cacheada.
const collectedPerOrderCTE = `
	collected AS (
		SELECT c.order_id, ci.order_line_id, SUM(ci.quantity) AS qty
		FROM collected_items ci
		JOIN collections c ON c.id = ci.collection_id
		GROUP BY c.order_id, ci.order_line_id
	)`

// ListOrdersForCollection listado de pedidos con totales pedidos/colectados/
// pendientes. El filtro "pending" devuelve pedidos colectables con unidades
// pendientes; "collected" los completamente colectados.
func (r *SummaryRepo) ListOrdersForCollection(ctx context.Context, filter repository.ListFilter) ([]repository.OrderCollectionSummary, error) {
	query := `
		WITH ` + collectedPerOrderCTE + `
		SELECT o.id, o.client_id, o.client_name, o.status,
		       COALESCE(SUM(ol.quantity), 0) AS total_units,
		       COALESCE(SUM(col.qty), 0) AS collected_units,
		       COALESCE(SUM(ol.quantity), 0) - COALESCE(SUM(col.qty), 0) AS pending_units,
		       COALESCE(SUM(ol.quantity * ol.unit_sale_price), 0) AS total_sale_value,
		       o.created_at
		FROM orders o
		LEFT JOIN order_lines ol ON ol.order_id = o.id
		LEFT JOIN collected col ON col.order_id = o.id AND col.order_line_id = ol.id
		WHERE ($1 = 'all')
		   OR ($1 = 'pending' AND o.status IN ('PAYMENT_APPROVED', 'PARTIALLY_COLLECTED'))
		   OR ($1 = 'collected' AND o.status = 'FULLY_COLLECTED')
		GROUP BY o.id, o.client_id, o.client_name, o.status, o.created_at
		ORDER BY o.created_at ASC`

	rows, err := r.q.Query(ctx, query, string(filter))
	if err != nil {
		return nil, fmt.Errorf("list orders for collection: %w", err)
	}
	defer rows.Close()

	var result []repository.OrderCollectionSummary
	for rows.Next() {
		var s repository.OrderCollectionSummary
		var status string
		if err := rows.Scan(&s.OrderID, &s.ClientID, &s.ClientName, &status,
			&s.TotalUnits, &s.CollectedUnits, &s.PendingUnits,
			&s.TotalSaleValue, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan order summary: %w", err)
		}
		s.Status = entity.OrderStatus(status)
		result = append(result, s)
	}
	return result, rows.Err()
}

// PendingByClient unidades pendientes de colecta agrupadas por cliente, solo
// sobre pedidos colectables.
func (r *SummaryRepo) PendingByClient(ctx context.Context) ([]repository.PendingByClientRow, error) {
	query := `
		WITH ` + collectedPerOrderCTE + `
		SELECT o.client_id, o.client_name,
		       COUNT(DISTINCT o.id) AS order_count,
		       COALESCE(SUM(ol.quantity), 0) - COALESCE(SUM(col.qty), 0) AS pending_units
		FROM orders o
		JOIN order_lines ol ON ol.order_id = o.id
		LEFT JOIN collected col ON col.order_id = o.id AND col.order_line_id = ol.id
		WHERE o.status IN ('PAYMENT_APPROVED', 'PARTIALLY_COLLECTED')
		GROUP BY o.client_id, o.client_name
		HAVING COALESCE(SUM(ol.quantity), 0) - COALESCE(SUM(col.qty), 0) > 0
		ORDER BY pending_units DESC`

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("pending by client: %w", err)
	}
	defer rows.Close()

	var result []repository.PendingByClientRow
	for rows.Next() {
		var row repository.PendingByClientRow
		if err := rows.Scan(&row.ClientID, &row.ClientName, &row.OrderCount,
			&row.PendingUnits); err != nil {
			return nil, fmt.Errorf("scan pending by client: %w", err)
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

// PendingByProduct unidades pendientes agrupadas por producto, con el stock
// disponible al lado para dimensionar faltantes.
func (r *SummaryRepo) PendingByProduct(ctx context.Context) ([]repository.PendingByProductRow, error) {
	query := `
		WITH ` + collectedPerOrderCTE + `
		SELECT ol.product_id, MAX(ol.product_name) AS product_name,
		       COALESCE(SUM(ol.quantity), 0) - COALESCE(SUM(col.qty), 0) AS pending_units,
		       COALESCE(MAX(s.quantity), 0) AS available_stock
		FROM order_lines ol
		JOIN orders o ON o.id = ol.order_id
		LEFT JOIN collected col ON col.order_id = o.id AND col.order_line_id = ol.id
		LEFT JOIN stock s ON s.product_id = ol.product_id
		WHERE o.status IN ('PAYMENT_APPROVED', 'PARTIALLY_COLLECTED')
		GROUP BY ol.product_id
		HAVING COALESCE(SUM(ol.quantity), 0) - COALESCE(SUM(col.qty), 0) > 0
		ORDER BY pending_units DESC`

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("pending by product: %w", err)
	}
	defer rows.Close()

	var result []repository.PendingByProductRow
	for rows.Next() {
		var row repository.PendingByProductRow
		if err := rows.Scan(&row.ProductID, &row.ProductName, &row.PendingUnits,
			&row.AvailableStock); err != nil {
			return nil, fmt.Errorf("scan pending by product: %w", err)
		}
		result = append(result, row)
	}
	return result, rows.Err()
}
