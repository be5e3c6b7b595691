package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/grupoventas/pedidos-api/internal/application/dto"
	"github.com/grupoventas/pedidos-api/internal/application/fulfillment"
	"github.com/grupoventas/pedidos-api/internal/application/stock"
	"github.com/grupoventas/pedidos-api/internal/domain/repository"
	"github.com/grupoventas/pedidos-api/internal/infrastructure/postgres"
	"github.com/grupoventas/pedidos-api/internal/infrastructure/redisqueue"
	"github.com/grupoventas/pedidos-api/pkg/config"
	"github.com/grupoventas/pedidos-api/pkg/logger"
)

// CLI operativa del motor de colectas.
//
// Uso:
//
//	colector -listar pending             # pedidos con unidades pendientes
//	colector -pedido <id>                # detalle de pendientes por línea
//	colector -historial <id>             # colectas registradas del pedido
//	colector -procesar solicitud.json    # procesa una colecta
//
// solicitud.json sigue el contrato de ProcessCollectionRequest:
//
//	{"order_id": "...", "collector_name": "...", "collector_document": "...",
//	 "items": [{"order_line_id": "...", "quantity": 2}]}
func main() {
	listar := flag.String("listar", "", "listado de pedidos: pending, collected o all")
	pedido := flag.String("pedido", "", "detalle de pendientes de un pedido")
	historial := flag.String("historial", "", "historial de colectas de un pedido")
	procesar := flag.String("procesar", "", "archivo JSON con la solicitud de colecta")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	if err := postgres.EnsureSchema(ctx, pool); err != nil {
		log.Fatal().Err(err).Msg("verificar esquema")
	}

	queries := fulfillment.NewQueryUseCase(
		postgres.NewOrderRepository(pool),
		postgres.NewOrderLineRepository(pool),
		postgres.NewCollectionRepository(pool),
		postgres.NewStockRepository(pool),
		postgres.NewSummaryRepository(pool),
	)

	switch {
	case *listar != "":
		runListar(ctx, queries, *listar, log)
	case *pedido != "":
		runPendiente(ctx, queries, *pedido, log)
	case *historial != "":
		runHistorial(ctx, queries, *historial, log)
	case *procesar != "":
		runProcesar(ctx, cfg, pool, *procesar, log)
	default:
		flag.Usage()
		os.Exit(2)
	}
}

func runListar(ctx context.Context, queries *fulfillment.QueryUseCase, filter string, log *logger.Logger) {
	rows, err := queries.ListOrdersForCollection(ctx, repository.ListFilter(filter))
	if err != nil {
		log.Fatal().Err(err).Msg("listar pedidos")
	}
	for _, r := range rows {
		fmt.Printf("%s  %-25s  %-20s  pedidas=%d colectadas=%d pendientes=%d  $%s\n",
			r.OrderID, r.ClientName, r.Status, r.TotalUnits, r.CollectedUnits,
			r.PendingUnits, r.TotalSaleValue.StringFixed(2))
	}
	if len(rows) == 0 {
		fmt.Println("sin pedidos para el filtro", filter)
	}
}

func runPendiente(ctx context.Context, queries *fulfillment.QueryUseCase, orderID string, log *logger.Logger) {
	summary, err := queries.GetPendingSummary(ctx, orderID)
	if err != nil {
		log.Fatal().Err(err).Str("order_id", orderID).Msg("detalle de pendientes")
	}
	fmt.Printf("Pedido %s  cliente=%s  estado=%s\n", summary.Order.ID, summary.Order.ClientName, summary.Order.Status)
	for _, l := range summary.Lines {
		fmt.Printf("  %s  %-25s  pedidas=%d colectadas=%d pendientes=%d stock=%d max=%d\n",
			l.OrderLineID, l.ProductName, l.Ordered, l.Collected, l.Pending,
			l.AvailableStock, l.MaxCollectable)
	}
}

func runHistorial(ctx context.Context, queries *fulfillment.QueryUseCase, orderID string, log *logger.Logger) {
	history, err := queries.GetCollectionHistory(ctx, orderID)
	if err != nil {
		log.Fatal().Err(err).Str("order_id", orderID).Msg("historial de colectas")
	}
	for _, c := range history {
		fmt.Printf("%s  %s  %-20s  retirante=%s  ítems=%d\n",
			c.ID, c.CollectedAt.Format("2006-01-02 15:04"), c.Status, c.CollectorName, len(c.Items))
	}
	if len(history) == 0 {
		fmt.Println("el pedido no tiene colectas registradas")
	}
}

func runProcesar(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool, file string, log *logger.Logger) {
	raw, err := os.ReadFile(file)
	if err != nil {
		log.Fatal().Err(err).Str("file", file).Msg("leer solicitud")
	}
	var req dto.ProcessCollectionRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		log.Fatal().Err(err).Msg("solicitud JSON inválida")
	}

	var queue fulfillment.ReceiptQueue
	if cfg.Redis.Enabled() {
		rq, err := redisqueue.NewReceiptQueue(ctx, cfg.Redis)
		if err != nil {
			// Sin Redis la colecta procede igual; solo no hay recibo encolado
			log.Warn().Err(err).Msg("Redis no disponible: se omite el encolado de recibos")
		} else {
			defer rq.Close()
			queue = rq
		}
	}

	uc := fulfillment.NewProcessCollectionUseCase(
		postgres.NewTxRunner(pool),
		stock.NewLedger(),
		queue,
		log,
		cfg.Engine.AllowUnlockedStock,
	)

	collection, err := uc.ProcessCollection(ctx, req)
	if err != nil {
		log.Error().Err(err).Str("order_id", req.OrderID).Msg("colecta rechazada")
		os.Exit(1)
	}
	fmt.Printf("Colecta %s registrada (%s) sobre el pedido %s, %d ítems.\n",
		collection.ID, collection.Status, collection.OrderID, len(collection.Items))
}
