package fulfillment_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grupoventas/pedidos-api/internal/application/dto"
	"github.com/grupoventas/pedidos-api/internal/application/fulfillment"
	"github.com/grupoventas/pedidos-api/internal/application/stock"
	"github.com/grupoventas/pedidos-api/internal/domain"
	"github.com/grupoventas/pedidos-api/internal/domain/entity"
)

// ──────────────────────────────────────────────────────────────────────────────
// Tests del coordinador de colectas. El arnés en memoria (fakes_test.go)
// reproduce la semántica commit/rollback del backend real, así que estos tests
// verifican los invariantes de verdad: atomicidad total, pendiente derivado
// del ledger, stock nunca negativo y el etiquetado por evento vs. acumulado.
// ──────────────────────────────────────────────────────────────────────────────

// seedOrder pedido colectable con dos líneas:
//
//	linea-a: producto-a, 10 unidades pedidas
//	linea-b: producto-b, 5 unidades pedidas
//
// Stock inicial: producto-a=20, producto-b=5.
func seedOrder(d *memData) {
	d.orders["pedido-1"] = &entity.Order{
		ID:         "pedido-1",
		ClientID:   "cliente-1",
		ClientName: "Comercial Andina",
		Status:     entity.OrderStatusPaymentApproved,
		CreatedAt:  time.Now().UTC(),
	}
	d.lines = append(d.lines,
		&entity.OrderLine{ID: "linea-a", OrderID: "pedido-1", ProductID: "producto-a", ProductName: "Tornillo M8", Quantity: 10},
		&entity.OrderLine{ID: "linea-b", OrderID: "pedido-1", ProductID: "producto-b", ProductName: "Tuerca M8", Quantity: 5},
	)
	d.stock["producto-a"] = &entity.Stock{ProductID: "producto-a", Quantity: 20}
	d.stock["producto-b"] = &entity.Stock{ProductID: "producto-b", Quantity: 5}
}

func newUseCase(runner *memTxRunner, queue fulfillment.ReceiptQueue, allowUnlocked bool) *fulfillment.ProcessCollectionUseCase {
	return fulfillment.NewProcessCollectionUseCase(runner, stock.NewLedger(), queue, quietLogger(), allowUnlocked)
}

func validRequest(items ...dto.CollectionItemRequest) dto.ProcessCollectionRequest {
	return dto.ProcessCollectionRequest{
		OrderID:           "pedido-1",
		CollectorName:     "María López",
		CollectorDocument: docRetirante,
		Items:             items,
	}
}

func TestProcessCollection_ColectaParcial(t *testing.T) {
	d := newMemData()
	seedOrder(d)
	runner := newMemTxRunner(d)
	queue := &fakeReceiptQueue{}
	uc := newUseCase(runner, queue, false)

	col, err := uc.ProcessCollection(context.Background(),
		validRequest(dto.CollectionItemRequest{OrderLineID: "linea-a", Quantity: 4}))

	require.NoError(t, err)
	require.NotNil(t, col)
	assert.Equal(t, entity.CollectionStatusPartiallyCollected, col.Status,
		"colectar 4 de 15 pendientes es un evento parcial")
	assert.Equal(t, entity.OrderStatusPartiallyCollected, d.orders["pedido-1"].Status)

	// Stock debitado y movimiento EXIT en el ledger
	assert.Equal(t, int64(16), d.stock["producto-a"].Quantity)
	require.Len(t, d.movements, 1)
	m := d.movements[0]
	assert.Equal(t, entity.MovementTypeExit, m.Type)
	assert.Equal(t, int64(20), m.QuantityBefore)
	assert.Equal(t, int64(-4), m.QuantityDelta)
	assert.Equal(t, int64(16), m.QuantityAfter)

	// Recibo encolado con documento formateado, nunca crudo en el payload
	require.Len(t, queue.receipts, 1)
	assert.Equal(t, col.ID, queue.receipts[0].CollectionID)
	assert.Equal(t, "529.982.247-25", queue.receipts[0].CollectorDocument)
}

// TestProcessCollection_CierreMultilinea una colecta que retira la última
// unidad pendiente del pedido queda FULLY_COLLECTED aunque toque una sola
// línea: la decisión compara lo solicitado contra el pendiente TOTAL.
func TestProcessCollection_CierreMultilinea(t *testing.T) {
	d := newMemData()
	seedOrder(d)
	runner := newMemTxRunner(d)
	uc := newUseCase(runner, nil, false)
	ctx := context.Background()

	// Primera colecta: todo producto-a y 4 de 5 de producto-b
	col1, err := uc.ProcessCollection(ctx, validRequest(
		dto.CollectionItemRequest{OrderLineID: "linea-a", Quantity: 10},
		dto.CollectionItemRequest{OrderLineID: "linea-b", Quantity: 4},
	))
	require.NoError(t, err)
	assert.Equal(t, entity.CollectionStatusPartiallyCollected, col1.Status)
	assert.Equal(t, entity.OrderStatusPartiallyCollected, d.orders["pedido-1"].Status)

	// Segunda colecta: la última unidad del pedido, en una sola línea
	col2, err := uc.ProcessCollection(ctx, validRequest(
		dto.CollectionItemRequest{OrderLineID: "linea-b", Quantity: 1},
	))
	require.NoError(t, err)
	assert.Equal(t, entity.CollectionStatusFullyCollected, col2.Status,
		"cerrar la última unidad marca el evento como completo")
	assert.Equal(t, entity.OrderStatusFullyCollected, d.orders["pedido-1"].Status)

	// El pedido ya no es colectable
	_, err = uc.ProcessCollection(ctx, validRequest(
		dto.CollectionItemRequest{OrderLineID: "linea-b", Quantity: 1},
	))
	assert.ErrorIs(t, err, domain.ErrOrderNotCollectable)
}

func TestProcessCollection_ExcedePendienteRollbackTotal(t *testing.T) {
	d := newMemData()
	seedOrder(d)
	runner := newMemTxRunner(d)
	uc := newUseCase(runner, nil, false)

	_, err := uc.ProcessCollection(context.Background(), validRequest(
		dto.CollectionItemRequest{OrderLineID: "linea-b", Quantity: 6}, // pedidas 5
	))

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInsufficientPending)
	var pendingErr *domain.InsufficientPendingError
	require.ErrorAs(t, err, &pendingErr)
	assert.Equal(t, "linea-b", pendingErr.OrderLineID)
	assert.Equal(t, int64(5), pendingErr.Pending)

	// Rollback total: nada quedó escrito
	assert.Empty(t, d.collections)
	assert.Empty(t, d.movements)
	assert.Equal(t, int64(5), d.stock["producto-b"].Quantity)
	assert.Equal(t, entity.OrderStatusPaymentApproved, d.orders["pedido-1"].Status)
}

func TestProcessCollection_StockInsuficiente(t *testing.T) {
	d := newMemData()
	seedOrder(d)
	d.stock["producto-a"].Quantity = 3 // menos que lo pendiente
	runner := newMemTxRunner(d)
	uc := newUseCase(runner, nil, false)

	_, err := uc.ProcessCollection(context.Background(), validRequest(
		dto.CollectionItemRequest{OrderLineID: "linea-a", Quantity: 4},
	))

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	var stockErr *domain.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, int64(3), stockErr.Available)
	assert.Empty(t, d.collections)
	assert.Empty(t, d.movements)
}

// TestProcessCollection_SobregiroAgregadoMismoProducto dos líneas del mismo
// producto que pasan la validación individual pero cuyo agregado sobregira el
// stock: el ledger lo detecta al segundo débito y toda la colecta se revierte.
func TestProcessCollection_SobregiroAgregadoMismoProducto(t *testing.T) {
	d := newMemData()
	d.orders["pedido-1"] = &entity.Order{
		ID: "pedido-1", ClientID: "cliente-1",
		Status: entity.OrderStatusPaymentApproved,
	}
	d.lines = append(d.lines,
		&entity.OrderLine{ID: "linea-a", OrderID: "pedido-1", ProductID: "producto-x", ProductName: "Cable 2m", Quantity: 4},
		&entity.OrderLine{ID: "linea-b", OrderID: "pedido-1", ProductID: "producto-x", ProductName: "Cable 2m", Quantity: 4},
	)
	d.stock["producto-x"] = &entity.Stock{ProductID: "producto-x", Quantity: 5}
	runner := newMemTxRunner(d)
	uc := newUseCase(runner, nil, false)

	_, err := uc.ProcessCollection(context.Background(), validRequest(
		dto.CollectionItemRequest{OrderLineID: "linea-a", Quantity: 3}, // 3 <= 5, pasa
		dto.CollectionItemRequest{OrderLineID: "linea-b", Quantity: 3}, // 3 <= 5, pasa; 6 > 5
	))

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrStockNegative)
	// Ni el primer débito sobrevive al rollback
	assert.Equal(t, int64(5), d.stock["producto-x"].Quantity)
	assert.Empty(t, d.movements)
	assert.Empty(t, d.collections)
}

func TestProcessCollection_PedidoNoColectable(t *testing.T) {
	d := newMemData()
	seedOrder(d)
	runner := newMemTxRunner(d)
	uc := newUseCase(runner, nil, false)
	ctx := context.Background()

	for _, status := range []entity.OrderStatus{
		entity.OrderStatusPending,
		entity.OrderStatusFullyCollected,
		entity.OrderStatusCancelled,
	} {
		d.orders["pedido-1"].Status = status
		_, err := uc.ProcessCollection(ctx, validRequest(
			dto.CollectionItemRequest{OrderLineID: "linea-a", Quantity: 1},
		))
		assert.ErrorIs(t, err, domain.ErrOrderNotCollectable, "estado %s", status)
	}

	// Pedido inexistente: misma respuesta, sin revelar si existe
	req := validRequest(dto.CollectionItemRequest{OrderLineID: "linea-a", Quantity: 1})
	req.OrderID = "no-existe"
	_, err := uc.ProcessCollection(ctx, req)
	assert.ErrorIs(t, err, domain.ErrOrderNotCollectable)
}

func TestProcessCollection_ValidacionesDeEntrada(t *testing.T) {
	d := newMemData()
	seedOrder(d)
	uc := newUseCase(newMemTxRunner(d), nil, false)
	ctx := context.Background()

	item := dto.CollectionItemRequest{OrderLineID: "linea-a", Quantity: 1}

	cases := []struct {
		name string
		mod  func(*dto.ProcessCollectionRequest)
	}{
		{"sin order_id", func(r *dto.ProcessCollectionRequest) { r.OrderID = "" }},
		{"sin items", func(r *dto.ProcessCollectionRequest) { r.Items = nil }},
		{"cantidad cero", func(r *dto.ProcessCollectionRequest) {
			r.Items = []dto.CollectionItemRequest{{OrderLineID: "linea-a", Quantity: 0}}
		}},
		{"cantidad negativa", func(r *dto.ProcessCollectionRequest) {
			r.Items = []dto.CollectionItemRequest{{OrderLineID: "linea-a", Quantity: -2}}
		}},
		{"línea repetida", func(r *dto.ProcessCollectionRequest) {
			r.Items = []dto.CollectionItemRequest{item, item}
		}},
		{"nombre muy corto", func(r *dto.ProcessCollectionRequest) { r.CollectorName = "Jo" }},
		{"nombre con dígitos", func(r *dto.ProcessCollectionRequest) { r.CollectorName = "Maria123" }},
		{"documento con dígito verificador inválido", func(r *dto.ProcessCollectionRequest) {
			r.CollectorDocument = "52998224724"
		}},
		{"documento repetido", func(r *dto.ProcessCollectionRequest) {
			r.CollectorDocument = "11111111111"
		}},
		{"conferente con documento inválido", func(r *dto.ProcessCollectionRequest) {
			r.VerifierName = "Pedro Gómez"
			r.VerifierDocument = "12345678900"
		}},
		{"conferente con nombre y sin documento", func(r *dto.ProcessCollectionRequest) {
			r.VerifierName = "Pedro Gómez"
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := validRequest(item)
			tc.mod(&req)
			_, err := uc.ProcessCollection(ctx, req)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}

	// Ningún rechazo de validación debe haber tocado el estado
	assert.Empty(t, d.collections)
	assert.Empty(t, d.movements)
}

func TestProcessCollection_ConferenteOpcionalNormalizado(t *testing.T) {
	d := newMemData()
	seedOrder(d)
	uc := newUseCase(newMemTxRunner(d), nil, false)

	req := validRequest(dto.CollectionItemRequest{OrderLineID: "linea-a", Quantity: 1})
	req.CollectorDocument = "529.982.247-25" // con puntuación
	req.VerifierName = "  Pedro Gómez  "
	req.VerifierDocument = "123.456.789-09"

	col, err := uc.ProcessCollection(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, docRetirante, col.CollectorDocument, "se persiste normalizado, solo dígitos")
	assert.Equal(t, docConferente, col.VerifierDocument)
	assert.Equal(t, "Pedro Gómez", col.VerifierName)
}

func TestProcessCollection_LineaDeOtroPedido(t *testing.T) {
	d := newMemData()
	seedOrder(d)
	d.orders["pedido-2"] = &entity.Order{ID: "pedido-2", Status: entity.OrderStatusPaymentApproved}
	d.lines = append(d.lines,
		&entity.OrderLine{ID: "linea-z", OrderID: "pedido-2", ProductID: "producto-a", Quantity: 1})
	uc := newUseCase(newMemTxRunner(d), nil, false)

	_, err := uc.ProcessCollection(context.Background(), validRequest(
		dto.CollectionItemRequest{OrderLineID: "linea-z", Quantity: 1},
	))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// TestProcessCollection_SinLocksFallaCerrado un backend sin bloqueo de filas
// rechaza la colecta, salvo que el modo degradado de tests esté habilitado
// explícitamente.
func TestProcessCollection_SinLocksFallaCerrado(t *testing.T) {
	d := newMemData()
	seedOrder(d)
	runner := newMemTxRunner(d)
	runner.rowLocking = false

	uc := newUseCase(runner, nil, false)
	_, err := uc.ProcessCollection(context.Background(), validRequest(
		dto.CollectionItemRequest{OrderLineID: "linea-a", Quantity: 1},
	))
	assert.ErrorIs(t, err, domain.ErrLockingUnavailable)
	assert.Empty(t, d.collections)

	ucDegradado := newUseCase(runner, nil, true)
	_, err = ucDegradado.ProcessCollection(context.Background(), validRequest(
		dto.CollectionItemRequest{OrderLineID: "linea-a", Quantity: 1},
	))
	assert.NoError(t, err, "el modo degradado explícito sí procesa")
}

// TestProcessCollection_ColectasConcurrentes tres retirantes compiten por el
// mismo pedido. El pendiente se deriva dentro de la sección crítica, así que
// solo caben dos colectas de 4 sobre 10 pendientes; la tercera ve pendiente 2
// y es rechazada. El stock nunca queda negativo y el ledger cuadra.
func TestProcessCollection_ColectasConcurrentes(t *testing.T) {
	d := newMemData()
	seedOrder(d)
	d.stock["producto-a"].Quantity = 10
	runner := newMemTxRunner(d)
	uc := newUseCase(runner, nil, false)

	const goroutines = 3
	errs := make([]error, goroutines)
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = uc.ProcessCollection(context.Background(), validRequest(
				dto.CollectionItemRequest{OrderLineID: "linea-a", Quantity: 4},
			))
		}(i)
	}
	wg.Wait()

	var ok, rejected int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, domain.ErrInsufficientPending):
			rejected++
		default:
			t.Fatalf("error inesperado: %v", err)
		}
	}
	assert.Equal(t, 2, ok, "solo dos colectas de 4 caben en 10 pendientes")
	assert.Equal(t, 1, rejected)

	// Invariantes tras la contienda
	assert.Equal(t, int64(2), d.stock["producto-a"].Quantity)
	assert.GreaterOrEqual(t, d.stock["producto-a"].Quantity, int64(0))
	var delta int64
	for _, m := range d.movements {
		delta += m.QuantityDelta
	}
	assert.Equal(t, int64(-8), delta, "el ledger reproduce exactamente lo debitado")
	assert.Len(t, d.collections, 2)
}

// TestProcessCollection_TresRetirantesPorTresPendientes tres retirantes de 2
// unidades compiten por un pedido con 3 pendientes y stock 3: exactamente uno
// entra; los otros dos ven pendiente 1 al tomar los locks y son rechazados.
func TestProcessCollection_TresRetirantesPorTresPendientes(t *testing.T) {
	d := newMemData()
	d.orders["pedido-1"] = &entity.Order{
		ID:       "pedido-1",
		ClientID: "cliente-1",
		Status:   entity.OrderStatusPaymentApproved,
	}
	d.lines = append(d.lines,
		&entity.OrderLine{ID: "linea-a", OrderID: "pedido-1", ProductID: "producto-a", ProductName: "Tornillo M8", Quantity: 3})
	d.stock["producto-a"] = &entity.Stock{ProductID: "producto-a", Quantity: 3}
	runner := newMemTxRunner(d)
	uc := newUseCase(runner, nil, false)

	const goroutines = 3
	errs := make([]error, goroutines)
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = uc.ProcessCollection(context.Background(), validRequest(
				dto.CollectionItemRequest{OrderLineID: "linea-a", Quantity: 2},
			))
		}(i)
	}
	wg.Wait()

	var ok, rejected int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, domain.ErrInsufficientPending):
			rejected++
		default:
			t.Fatalf("error inesperado: %v", err)
		}
	}
	assert.Equal(t, 1, ok, "solo una colecta de 2 cabe en 3 pendientes")
	assert.Equal(t, 2, rejected)

	assert.Equal(t, int64(1), d.stock["producto-a"].Quantity)
	assert.Len(t, d.collections, 1)
	assert.Equal(t, entity.OrderStatusPartiallyCollected, d.orders["pedido-1"].Status,
		"queda 1 unidad pendiente")
	var delta int64
	for _, m := range d.movements {
		delta += m.QuantityDelta
	}
	assert.Equal(t, int64(-2), delta)
}

// TestProcessCollection_ReciboFallidoNoRevierte el despacho del recibo es
// posterior al commit y best-effort: su fallo jamás deshace la colecta.
func TestProcessCollection_ReciboFallidoNoRevierte(t *testing.T) {
	d := newMemData()
	seedOrder(d)
	queue := &fakeReceiptQueue{failWith: errors.New("redis caído")}
	uc := newUseCase(newMemTxRunner(d), queue, false)

	col, err := uc.ProcessCollection(context.Background(), validRequest(
		dto.CollectionItemRequest{OrderLineID: "linea-a", Quantity: 2},
	))
	require.NoError(t, err)
	require.NotNil(t, col)
	assert.Len(t, d.collections, 1)
	assert.Equal(t, int64(18), d.stock["producto-a"].Quantity)
}

// TestProcessCollection_SinColaDeRecibos un queue nil se ignora sin error.
func TestProcessCollection_SinColaDeRecibos(t *testing.T) {
	d := newMemData()
	seedOrder(d)
	uc := newUseCase(newMemTxRunner(d), nil, false)

	_, err := uc.ProcessCollection(context.Background(), validRequest(
		dto.CollectionItemRequest{OrderLineID: "linea-a", Quantity: 2},
	))
	assert.NoError(t, err)
}
