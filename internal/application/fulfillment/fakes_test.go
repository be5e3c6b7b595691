package fulfillment_test

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/grupoventas/pedidos-api/internal/application/dto"
	"github.com/grupoventas/pedidos-api/internal/domain/entity"
	"github.com/grupoventas/pedidos-api/internal/domain/repository"
	"github.com/grupoventas/pedidos-api/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Arnés en memoria para los casos de uso de colecta.
//
// memTxRunner imita la semántica transaccional del backend real: cada Run
// trabaja sobre una COPIA profunda de los datos y solo la publica si fn
// retorna nil (commit); ante error la copia se descarta (rollback). El mutex
// serializa las transacciones, que es el efecto observable del protocolo de
// locks sobre un mismo pedido.
// ──────────────────────────────────────────────────────────────────────────────

type memData struct {
	orders      map[string]*entity.Order
	lines       []*entity.OrderLine
	collections []*entity.Collection
	stock       map[string]*entity.Stock
	movements   []*entity.StockMovement
}

func newMemData() *memData {
	return &memData{
		orders: make(map[string]*entity.Order),
		stock:  make(map[string]*entity.Stock),
	}
}

func (d *memData) clone() *memData {
	c := newMemData()
	for id, o := range d.orders {
		cp := *o
		c.orders[id] = &cp
	}
	for _, l := range d.lines {
		cp := *l
		c.lines = append(c.lines, &cp)
	}
	for _, col := range d.collections {
		cp := *col
		cp.Items = nil
		for _, it := range col.Items {
			itCp := *it
			cp.Items = append(cp.Items, &itCp)
		}
		c.collections = append(c.collections, &cp)
	}
	for id, s := range d.stock {
		cp := *s
		c.stock[id] = &cp
	}
	for _, m := range d.movements {
		cp := *m
		c.movements = append(c.movements, &cp)
	}
	return c
}

func (d *memData) productOfLine(lineID string) string {
	for _, l := range d.lines {
		if l.ID == lineID {
			return l.ProductID
		}
	}
	return ""
}

type memTxRunner struct {
	mu         sync.Mutex
	data       *memData
	rowLocking bool
}

func newMemTxRunner(data *memData) *memTxRunner {
	return &memTxRunner{data: data, rowLocking: true}
}

func (r *memTxRunner) Run(ctx context.Context, fn func(
	orderRepo repository.OrderRepository,
	lineRepo repository.OrderLineRepository,
	collectionRepo repository.CollectionRepository,
	stockRepo repository.StockRepository,
	movementRepo repository.StockMovementRepository,
) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	snapshot := r.data.clone()
	err := fn(
		&memOrderRepo{d: snapshot},
		&memOrderLineRepo{d: snapshot},
		&memCollectionRepo{d: snapshot},
		&memStockRepo{d: snapshot},
		&memMovementRepo{d: snapshot},
	)
	if err != nil {
		return err // rollback: la copia se descarta
	}
	// commit: publicar la copia de una sola vez
	*r.data = *snapshot
	return nil
}

func (r *memTxRunner) SupportsRowLocking() bool { return r.rowLocking }

// ── repos en memoria ──────────────────────────────────────────────────────────

type memOrderRepo struct{ d *memData }

func (r *memOrderRepo) GetByID(_ context.Context, id string) (*entity.Order, error) {
	o, ok := r.d.orders[id]
	if !ok {
		return nil, nil
	}
	cp := *o
	return &cp, nil
}

func (r *memOrderRepo) GetForUpdate(ctx context.Context, id string) (*entity.Order, error) {
	return r.GetByID(ctx, id)
}

func (r *memOrderRepo) UpdateStatus(_ context.Context, id string, status entity.OrderStatus) error {
	if o, ok := r.d.orders[id]; ok {
		o.Status = status
	}
	return nil
}

type memOrderLineRepo struct{ d *memData }

func (r *memOrderLineRepo) ListByOrder(_ context.Context, orderID string) ([]*entity.OrderLine, error) {
	var out []*entity.OrderLine
	for _, l := range r.d.lines {
		if l.OrderID == orderID {
			cp := *l
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memOrderLineRepo) ListByOrderForUpdate(ctx context.Context, orderID string) ([]*entity.OrderLine, error) {
	return r.ListByOrder(ctx, orderID)
}

type memCollectionRepo struct{ d *memData }

func (r *memCollectionRepo) Create(_ context.Context, collection *entity.Collection) error {
	if collection.ID == "" {
		collection.ID = uuid.New().String()
	}
	for _, it := range collection.Items {
		if it.ID == "" {
			it.ID = uuid.New().String()
		}
		it.CollectionID = collection.ID
	}
	cp := *collection
	r.d.collections = append(r.d.collections, &cp)
	return nil
}

func (r *memCollectionRepo) ListByOrder(_ context.Context, orderID string) ([]*entity.Collection, error) {
	var out []*entity.Collection
	for _, c := range r.d.collections {
		if c.OrderID == orderID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CollectedAt.After(out[j].CollectedAt) })
	return out, nil
}

func (r *memCollectionRepo) CollectedByLine(_ context.Context, orderID string) (map[string]int64, error) {
	collected := make(map[string]int64)
	for _, c := range r.d.collections {
		if c.OrderID != orderID {
			continue
		}
		for _, it := range c.Items {
			collected[it.OrderLineID] += it.Quantity
		}
	}
	return collected, nil
}

func (r *memCollectionRepo) Counts(_ context.Context) (int64, int64, error) {
	var items int64
	for _, c := range r.d.collections {
		items += int64(len(c.Items))
	}
	return int64(len(r.d.collections)), items, nil
}

func (r *memCollectionRepo) RestockSummary(_ context.Context) ([]repository.RestockRow, error) {
	byProduct := make(map[string]int64)
	for _, c := range r.d.collections {
		for _, it := range c.Items {
			byProduct[r.d.productOfLine(it.OrderLineID)] += it.Quantity
		}
	}
	ids := make([]string, 0, len(byProduct))
	for id := range byProduct {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	var out []repository.RestockRow
	for _, id := range ids {
		out = append(out, repository.RestockRow{ProductID: id, Quantity: byProduct[id]})
	}
	return out, nil
}

func (r *memCollectionRepo) OrderIDsWithCollections(_ context.Context) ([]string, error) {
	seen := make(map[string]bool)
	var ids []string
	for _, c := range r.d.collections {
		if !seen[c.OrderID] {
			seen[c.OrderID] = true
			ids = append(ids, c.OrderID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (r *memCollectionRepo) DeleteAll(_ context.Context) (int64, int64, error) {
	collections, items, _ := r.Counts(context.Background())
	r.d.collections = nil
	return collections, items, nil
}

type memStockRepo struct{ d *memData }

func (r *memStockRepo) Get(_ context.Context, productID string) (*entity.Stock, error) {
	if s, ok := r.d.stock[productID]; ok {
		cp := *s
		return &cp, nil
	}
	// producto sin fila = cantidad 0
	return &entity.Stock{ProductID: productID, Quantity: 0}, nil
}

func (r *memStockRepo) GetForUpdate(ctx context.Context, productID string) (*entity.Stock, error) {
	return r.Get(ctx, productID)
}

func (r *memStockRepo) Upsert(_ context.Context, stock *entity.Stock) error {
	cp := *stock
	r.d.stock[stock.ProductID] = &cp
	return nil
}

type memMovementRepo struct{ d *memData }

func (r *memMovementRepo) Create(_ context.Context, movement *entity.StockMovement) error {
	if movement.ID == "" {
		movement.ID = uuid.New().String()
	}
	cp := *movement
	r.d.movements = append(r.d.movements, &cp)
	return nil
}

func (r *memMovementRepo) ListByProduct(_ context.Context, productID string, limit, offset int) ([]*entity.StockMovement, error) {
	var out []*entity.StockMovement
	for _, m := range r.d.movements {
		if m.ProductID == productID {
			out = append(out, m)
		}
	}
	if offset > len(out) {
		offset = len(out)
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (r *memMovementRepo) ReplaySum(_ context.Context, productID string) (int64, error) {
	var sum int64
	for _, m := range r.d.movements {
		if m.ProductID == productID {
			sum += m.QuantityDelta
		}
	}
	return sum, nil
}

// ── cola de recibos y resumen ────────────────────────────────────────────────

type fakeReceiptQueue struct {
	mu       sync.Mutex
	receipts []dto.CollectionReceipt
	failWith error
}

func (q *fakeReceiptQueue) Enqueue(_ context.Context, receipt dto.CollectionReceipt) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.failWith != nil {
		return q.failWith
	}
	q.receipts = append(q.receipts, receipt)
	return nil
}

type fakeSummaryRepo struct {
	lastFilter repository.ListFilter
	rows       []repository.OrderCollectionSummary
}

func (r *fakeSummaryRepo) ListOrdersForCollection(_ context.Context, filter repository.ListFilter) ([]repository.OrderCollectionSummary, error) {
	r.lastFilter = filter
	return r.rows, nil
}

func (r *fakeSummaryRepo) PendingByClient(_ context.Context) ([]repository.PendingByClientRow, error) {
	return nil, nil
}

func (r *fakeSummaryRepo) PendingByProduct(_ context.Context) ([]repository.PendingByProductRow, error) {
	return nil, nil
}

// ── helpers comunes ──────────────────────────────────────────────────────────

func quietLogger() *logger.Logger {
	return logger.New(logger.Config{Env: "production", Level: "error"})
}

// Documentos con dígitos verificadores válidos (módulo 11).
const (
	docRetirante  = "52998224725"
	docConferente = "12345678909"
)
