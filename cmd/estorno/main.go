package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/grupoventas/pedidos-api/internal/application/fulfillment"
	"github.com/grupoventas/pedidos-api/internal/application/stock"
	"github.com/grupoventas/pedidos-api/internal/infrastructure/postgres"
	"github.com/grupoventas/pedidos-api/pkg/config"
	"github.com/grupoventas/pedidos-api/pkg/logger"
)

// Herramienta administrativa de estorno de colectas. Por defecto corre en
// modo simulación (no toca nada); con --apply repone el stock vía el ledger,
// regresa los pedidos a PAYMENT_APPROVED y borra el historial de colectas.
//
// Uso:
//
//	estorno                # solo muestra qué se revertiría
//	estorno --apply --actor "maria.lopez"
func main() {
	apply := flag.Bool("apply", false, "ejecuta el estorno (por defecto solo simula)")
	actor := flag.String("actor", "", "quién ejecuta el estorno (obligatorio con --apply)")
	flag.Parse()

	// .env es opcional; las env vars reales tienen prioridad
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})

	if *apply && *actor == "" {
		log.Fatal().Msg("--apply requiere --actor")
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	if err := postgres.EnsureSchema(ctx, pool); err != nil {
		log.Fatal().Err(err).Msg("verificar esquema")
	}

	txRunner := postgres.NewTxRunner(pool)
	collectionRepo := postgres.NewCollectionRepository(pool)
	ledger := stock.NewLedger()
	reversal := fulfillment.NewReversalUseCase(txRunner, collectionRepo, ledger, log)

	summary, err := reversal.Summary(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("resumen de estorno")
	}

	fmt.Printf("Colectas registradas:  %d\n", summary.Collections)
	fmt.Printf("Ítems colectados:      %d\n", summary.CollectedItems)
	fmt.Printf("Pedidos afectados:     %d\n", summary.AffectedOrders)
	fmt.Println("Reposición de stock por producto:")
	for _, row := range summary.Restock {
		fmt.Printf("  %s  +%d\n", row.ProductID, row.Quantity)
	}

	if !*apply {
		fmt.Println("\nModo simulación: nada fue modificado. Use --apply para ejecutar.")
		return
	}

	if summary.Collections == 0 {
		fmt.Println("\nNo hay colectas que estornar.")
		return
	}

	applied, err := reversal.Apply(ctx, *actor)
	if err != nil {
		log.Error().Err(err).Msg("estorno falló; nada fue modificado")
		os.Exit(1)
	}

	fmt.Printf("\nEstorno aplicado: %d colectas y %d ítems eliminados, %d pedidos regresados a PAYMENT_APPROVED.\n",
		applied.Collections, applied.CollectedItems, applied.AffectedOrders)
}
