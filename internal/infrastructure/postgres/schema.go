package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// EnsureSchema crea las tablas del motor de colectas si no existen. Es un
// paso de bootstrap explícito, invocado una sola vez desde cmd/ al arrancar;
// nada en los repositorios crea tablas de forma perezosa.
//
// client_name y product_name viajan denormalizados: los catálogos de clientes
// y productos pertenecen a otros módulos, que los escriben al crear pedidos.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	const ddl = `
	CREATE TABLE IF NOT EXISTS orders (
		id                 UUID PRIMARY KEY,
		client_id          UUID NOT NULL,
		client_name        TEXT NOT NULL DEFAULT '',
		status             TEXT NOT NULL DEFAULT 'PENDING',
		confirmed_by_sales BOOLEAN NOT NULL DEFAULT FALSE,
		created_at         TIMESTAMPTZ NOT NULL DEFAULT now()
	);

	CREATE TABLE IF NOT EXISTS order_lines (
		id              UUID PRIMARY KEY,
		order_id        UUID NOT NULL REFERENCES orders(id),
		product_id      UUID NOT NULL,
		product_name    TEXT NOT NULL DEFAULT '',
		quantity        BIGINT NOT NULL,
		unit_sale_price NUMERIC(10,2) NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_order_lines_order ON order_lines(order_id);

	CREATE TABLE IF NOT EXISTS collections (
		id                 UUID PRIMARY KEY,
		order_id           UUID NOT NULL REFERENCES orders(id),
		collected_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
		collector_name     TEXT NOT NULL,
		collector_document TEXT NOT NULL,
		verifier_name      TEXT NOT NULL DEFAULT '',
		verifier_document  TEXT NOT NULL DEFAULT '',
		status             TEXT NOT NULL,
		notes              TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_collections_order ON collections(order_id);

	CREATE TABLE IF NOT EXISTS collected_items (
		id            UUID PRIMARY KEY,
		collection_id UUID NOT NULL REFERENCES collections(id),
		order_line_id UUID NOT NULL REFERENCES order_lines(id),
		quantity      BIGINT NOT NULL CHECK (quantity > 0)
	);
	CREATE INDEX IF NOT EXISTS idx_collected_items_line ON collected_items(order_line_id);

	CREATE TABLE IF NOT EXISTS stock (
		product_id UUID PRIMARY KEY,
		quantity   BIGINT NOT NULL DEFAULT 0 CHECK (quantity >= 0),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_by TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS stock_movements (
		id              UUID PRIMARY KEY,
		product_id      UUID NOT NULL,
		type            TEXT NOT NULL,
		quantity_before BIGINT NOT NULL,
		quantity_delta  BIGINT NOT NULL,
		quantity_after  BIGINT NOT NULL,
		reason          TEXT NOT NULL DEFAULT '',
		actor           TEXT NOT NULL DEFAULT '',
		created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	CREATE INDEX IF NOT EXISTS idx_stock_movements_product ON stock_movements(product_id);
	`
	if _, err := pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
