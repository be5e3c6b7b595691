package redisqueue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/grupoventas/pedidos-api/internal/application/dto"
	"github.com/grupoventas/pedidos-api/internal/application/fulfillment"
	"github.com/grupoventas/pedidos-api/pkg/config"
)

// DefaultReceiptQueue nombre de la lista Redis que consume el worker de recibos.
const DefaultReceiptQueue = "receipts"

var _ fulfillment.ReceiptQueue = (*ReceiptQueue)(nil)

// ReceiptQueue publica recibos de colecta como JSON en una lista Redis. El
// worker que genera el documento vive en otro proceso y trata el payload como
// entrada opaca; nunca escribe de vuelta al estado del motor.
type ReceiptQueue struct {
	client *redis.Client
	queue  string
}

// NewReceiptQueue conecta a Redis y verifica con un ping. Si Redis no está
// configurado, el llamador debe pasar un ReceiptQueue nil al caso de uso
// (la colecta se procesa igual, sin recibo encolado).
func NewReceiptQueue(ctx context.Context, cfg config.RedisConfig) (*ReceiptQueue, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	queue := cfg.ReceiptQueue
	if queue == "" {
		queue = DefaultReceiptQueue
	}
	return &ReceiptQueue{client: client, queue: queue}, nil
}

// Enqueue serializa el recibo y lo empuja a la lista. Best-effort: el llamador
// decide qué hacer ante un error, nunca revierte la colecta.
func (q *ReceiptQueue) Enqueue(ctx context.Context, receipt dto.CollectionReceipt) error {
	payload, err := json.Marshal(receipt)
	if err != nil {
		return fmt.Errorf("serializar recibo: %w", err)
	}
	if err := q.client.LPush(ctx, q.queue, payload).Err(); err != nil {
		return fmt.Errorf("encolar recibo: %w", err)
	}
	return nil
}

// Close cierra la conexión a Redis.
func (q *ReceiptQueue) Close() error {
	return q.client.Close()
}
