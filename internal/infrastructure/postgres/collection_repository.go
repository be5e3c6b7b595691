package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/grupoventas/pedidos-api/internal/domain/entity"
	"github.com/grupoventas/pedidos-api/internal/domain/repository"
)

var _ repository.CollectionRepository = (*CollectionRepo)(nil)

// CollectionRepo implementación de CollectionRepository sobre PostgreSQL.
type CollectionRepo struct {
	q Querier
}

// NewCollectionRepository construye el adaptador de colectas.
func NewCollectionRepository(q Querier) *CollectionRepo {
	return &CollectionRepo{q: q}
}

// Create persiste el evento de colecta y todos sus ítems. Genera IDs si
// vienen vacíos. Debe ejecutarse dentro de la transacción del coordinador.
func (r *CollectionRepo) Create(ctx context.Context, collection *entity.Collection) error {
	if collection.ID == "" {
		collection.ID = uuid.New().String()
	}

	_, err := r.q.Exec(ctx, `
		INSERT INTO collections (id, order_id, collected_at, collector_name,
			collector_document, verifier_name, verifier_document, status, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		collection.ID, collection.OrderID, collection.CollectedAt,
		collection.CollectorName, collection.CollectorDocument,
		collection.VerifierName, collection.VerifierDocument,
		string(collection.Status), collection.Notes,
	)
	if err != nil {
		return fmt.Errorf("insert collection: %w", err)
	}

	for _, item := range collection.Items {
		if item.ID == "" {
			item.ID = uuid.New().String()
		}
		item.CollectionID = collection.ID
		_, err := r.q.Exec(ctx, `
			INSERT INTO collected_items (id, collection_id, order_line_id, quantity)
			VALUES ($1, $2, $3, $4)`,
			item.ID, item.CollectionID, item.OrderLineID, item.Quantity,
		)
		if err != nil {
			return fmt.Errorf("insert collected item: %w", err)
		}
	}
	return nil
}

// ListByOrder colectas de un pedido con sus ítems, más reciente primero.
func (r *CollectionRepo) ListByOrder(ctx context.Context, orderID string) ([]*entity.Collection, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, order_id, collected_at, collector_name, collector_document,
		       verifier_name, verifier_document, status, notes
		FROM collections
		WHERE order_id = $1
		ORDER BY collected_at DESC`, orderID)
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	defer rows.Close()

	var collections []*entity.Collection
	for rows.Next() {
		var c entity.Collection
		var status string
		if err := rows.Scan(&c.ID, &c.OrderID, &c.CollectedAt, &c.CollectorName,
			&c.CollectorDocument, &c.VerifierName, &c.VerifierDocument,
			&status, &c.Notes); err != nil {
			return nil, fmt.Errorf("scan collection: %w", err)
		}
		c.Status = entity.CollectionStatus(status)
		collections = append(collections, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, c := range collections {
		items, err := r.listItems(ctx, c.ID)
		if err != nil {
			return nil, err
		}
		c.Items = items
	}
	return collections, nil
}

func (r *CollectionRepo) listItems(ctx context.Context, collectionID string) ([]*entity.CollectedItem, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, collection_id, order_line_id, quantity
		FROM collected_items
		WHERE collection_id = $1
		ORDER BY id ASC`, collectionID)
	if err != nil {
		return nil, fmt.Errorf("list collected items: %w", err)
	}
	defer rows.Close()

	var items []*entity.CollectedItem
	for rows.Next() {
		var it entity.CollectedItem
		if err := rows.Scan(&it.ID, &it.CollectionID, &it.OrderLineID, &it.Quantity); err != nil {
			return nil, fmt.Errorf("scan collected item: %w", err)
		}
		items = append(items, &it)
	}
	return items, rows.Err()
}

// CollectedByLine deriva lo ya colectado por línea sumando los CollectedItems
// de todas las colectas del pedido. Nunca se cachea en el pedido: dentro de la
// transacción bloqueada esta suma es la fuente de verdad.
func (r *CollectionRepo) CollectedByLine(ctx context.Context, orderID string) (map[string]int64, error) {
	rows, err := r.q.Query(ctx, `
		SELECT ci.order_line_id, SUM(ci.quantity)
		FROM collected_items ci
		JOIN collections c ON c.id = ci.collection_id
		WHERE c.order_id = $1
		GROUP BY ci.order_line_id`, orderID)
	if err != nil {
		return nil, fmt.Errorf("collected by line: %w", err)
	}
	defer rows.Close()

	collected := make(map[string]int64)
	for rows.Next() {
		var lineID string
		var qty int64
		if err := rows.Scan(&lineID, &qty); err != nil {
			return nil, fmt.Errorf("scan collected sum: %w", err)
		}
		collected[lineID] = qty
	}
	return collected, rows.Err()
}

// Counts totales de colectas e ítems registrados (vista previa del estorno).
func (r *CollectionRepo) Counts(ctx context.Context) (int64, int64, error) {
	var collections, items int64
	err := r.q.QueryRow(ctx,
		`SELECT (SELECT COUNT(*) FROM collections), (SELECT COUNT(*) FROM collected_items)`,
	).Scan(&collections, &items)
	if err != nil {
		return 0, 0, fmt.Errorf("count collections: %w", err)
	}
	return collections, items, nil
}

// RestockSummary cantidades colectadas agregadas por producto, a devolver al
// stock en un estorno. Orden ascendente de product_id, igual que el protocolo
// de locks del coordinador.
func (r *CollectionRepo) RestockSummary(ctx context.Context) ([]repository.RestockRow, error) {
	rows, err := r.q.Query(ctx, `
		SELECT ol.product_id, SUM(ci.quantity)
		FROM collected_items ci
		JOIN order_lines ol ON ol.id = ci.order_line_id
		GROUP BY ol.product_id
		ORDER BY ol.product_id ASC`)
	if err != nil {
		return nil, fmt.Errorf("restock summary: %w", err)
	}
	defer rows.Close()

	var result []repository.RestockRow
	for rows.Next() {
		var row repository.RestockRow
		if err := rows.Scan(&row.ProductID, &row.Quantity); err != nil {
			return nil, fmt.Errorf("scan restock row: %w", err)
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

// OrderIDsWithCollections pedidos con al menos una colecta registrada.
func (r *CollectionRepo) OrderIDsWithCollections(ctx context.Context) ([]string, error) {
	rows, err := r.q.Query(ctx,
		`SELECT DISTINCT order_id FROM collections ORDER BY order_id ASC`)
	if err != nil {
		return nil, fmt.Errorf("orders with collections: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan order id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// DeleteAll borra todas las colectas y sus ítems. Solo la herramienta de
// estorno la invoca, dentro de la misma transacción que devuelve el stock.
func (r *CollectionRepo) DeleteAll(ctx context.Context) (int64, int64, error) {
	itemsTag, err := r.q.Exec(ctx, `DELETE FROM collected_items`)
	if err != nil {
		return 0, 0, fmt.Errorf("delete collected items: %w", err)
	}
	collectionsTag, err := r.q.Exec(ctx, `DELETE FROM collections`)
	if err != nil {
		return 0, 0, fmt.Errorf("delete collections: %w", err)
	}
	return collectionsTag.RowsAffected(), itemsTag.RowsAffected(), nil
}
