package fulfillment

import (
	"context"

	"github.com/grupoventas/pedidos-api/internal/application/dto"
	"github.com/grupoventas/pedidos-api/internal/domain/entity"
	"github.com/grupoventas/pedidos-api/internal/domain/identity"
)

// dispatchReceipt arma el contrato de datos del recibo y lo encola después
// del commit. Best-effort: un fallo de la cola se loguea y la colecta
// confirmada nunca se revierte por esto.
func (uc *ProcessCollectionUseCase) dispatchReceipt(
	ctx context.Context,
	order *entity.Order,
	collection *entity.Collection,
	lineByID map[string]*entity.OrderLine,
) {
	if uc.receiptQueue == nil {
		return
	}
	receipt := dto.CollectionReceipt{
		CollectionID:      collection.ID,
		OrderID:           order.ID,
		ClientName:        order.ClientName,
		CollectorName:     collection.CollectorName,
		CollectorDocument: identity.FormatDocument(collection.CollectorDocument),
		VerifierName:      collection.VerifierName,
		CollectedAt:       collection.CollectedAt,
	}
	if collection.VerifierDocument != "" {
		receipt.VerifierDocument = identity.FormatDocument(collection.VerifierDocument)
	}
	for _, item := range collection.Items {
		line := lineByID[item.OrderLineID]
		receipt.Items = append(receipt.Items, dto.ReceiptItem{
			ProductName: line.ProductName,
			Quantity:    item.Quantity,
		})
	}
	if err := uc.receiptQueue.Enqueue(ctx, receipt); err != nil {
		uc.log.Warn().Err(err).
			Str("collection_id", collection.ID).
			Msg("no se pudo encolar el recibo de colecta")
	}
}
