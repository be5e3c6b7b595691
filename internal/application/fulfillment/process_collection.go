package fulfillment

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/grupoventas/pedidos-api/internal/application/dto"
	"github.com/grupoventas/pedidos-api/internal/application/stock"
	"github.com/grupoventas/pedidos-api/internal/domain"
	"github.com/grupoventas/pedidos-api/internal/domain/entity"
	"github.com/grupoventas/pedidos-api/internal/domain/fulfillment"
	"github.com/grupoventas/pedidos-api/internal/domain/identity"
	"github.com/grupoventas/pedidos-api/internal/domain/repository"
	"github.com/grupoventas/pedidos-api/pkg/logger"
)

// ProcessCollectionUseCase coordina una colecta: valida la solicitud contra
// lo pendiente y el stock, adquiere los locks en orden fijo, escribe
// Collection + CollectedItems + movimientos de stock como una sola unidad
// atómica y recalcula el estado del pedido.
//
// Protocolo de bloqueo (orden total, requisito de correctitud y no una
// optimización): fila del pedido -> líneas del pedido (id ascendente) ->
// filas de stock (product_id ascendente). Toda validación se re-evalúa con
// los locks tomados; una lectura previa sin lock puede estar obsoleta.
type ProcessCollectionUseCase struct {
	txRunner     TxRunner
	ledger       *stock.Ledger
	receiptQueue ReceiptQueue
	log          *logger.Logger

	// allowUnlocked habilita el modo degradado SIN locks de fila. Solo para
	// arneses de test; en producción el motor falla cerrado.
	allowUnlocked bool
}

// NewProcessCollectionUseCase construye el coordinador. receiptQueue puede
// ser nil (sin despacho de recibos). allowUnlockedStock debe quedar en false
// fuera de tests.
func NewProcessCollectionUseCase(
	txRunner TxRunner,
	ledger *stock.Ledger,
	receiptQueue ReceiptQueue,
	log *logger.Logger,
	allowUnlockedStock bool,
) *ProcessCollectionUseCase {
	return &ProcessCollectionUseCase{
		txRunner:      txRunner,
		ledger:        ledger,
		receiptQueue:  receiptQueue,
		log:           log,
		allowUnlocked: allowUnlockedStock,
	}
}

// ProcessCollection procesa una colecta contra un pedido. En éxito la colecta
// queda como historial permanente; en fallo ninguna otra transacción ve
// estado parcial.
func (uc *ProcessCollectionUseCase) ProcessCollection(
	ctx context.Context,
	req dto.ProcessCollectionRequest,
) (*entity.Collection, error) {
	normalized, err := uc.validateRequest(req)
	if err != nil {
		return nil, err
	}

	if !uc.txRunner.SupportsRowLocking() {
		if !uc.allowUnlocked {
			return nil, domain.ErrLockingUnavailable
		}
		uc.log.Warn().
			Str("order_id", req.OrderID).
			Msg("backend sin bloqueo de filas: procesando colecta en modo degradado (solo tests)")
	}

	now := time.Now().UTC()
	var (
		collection *entity.Collection
		order      *entity.Order
		lineByID   map[string]*entity.OrderLine
	)

	err = uc.txRunner.Run(ctx, func(
		orderRepo repository.OrderRepository,
		lineRepo repository.OrderLineRepository,
		collectionRepo repository.CollectionRepository,
		stockRepo repository.StockRepository,
		movementRepo repository.StockMovementRepository,
	) error {
		// 1) Lock del pedido. A partir de acá, a lo sumo una colecta sobre
		// este pedido está en su sección crítica.
		var err error
		order, err = orderRepo.GetForUpdate(ctx, req.OrderID)
		if err != nil {
			return err
		}
		if order == nil || !order.Status.Collectable() {
			return domain.ErrOrderNotCollectable
		}

		// 2) Lock de TODAS las líneas del pedido, id ascendente.
		lines, err := lineRepo.ListByOrderForUpdate(ctx, req.OrderID)
		if err != nil {
			return err
		}
		lineByID = make(map[string]*entity.OrderLine, len(lines))
		for _, line := range lines {
			lineByID[line.ID] = line
		}

		// 3) Lock de las filas de stock de los productos solicitados,
		// product_id ascendente (cierra el orden total de adquisición).
		productIDs := make([]string, 0, len(req.Items))
		seen := make(map[string]bool, len(req.Items))
		for _, item := range req.Items {
			line, ok := lineByID[item.OrderLineID]
			if !ok {
				return fmt.Errorf("línea %s no pertenece al pedido %s: %w",
					item.OrderLineID, req.OrderID, domain.ErrNotFound)
			}
			if !seen[line.ProductID] {
				seen[line.ProductID] = true
				productIDs = append(productIDs, line.ProductID)
			}
		}
		sort.Strings(productIDs)
		stockByProduct := make(map[string]*entity.Stock, len(productIDs))
		for _, productID := range productIDs {
			st, err := stockRepo.GetForUpdate(ctx, productID)
			if err != nil {
				return err
			}
			stockByProduct[productID] = st
		}

		// 4) Re-validación con locks tomados. Lo ya colectado se deriva del
		// ledger de CollectedItem dentro de esta misma transacción; nunca de
		// un contador cacheado.
		collected, err := collectionRepo.CollectedByLine(ctx, req.OrderID)
		if err != nil {
			return err
		}
		for _, item := range req.Items {
			line := lineByID[item.OrderLineID]
			pending := line.Quantity - collected[line.ID]
			if item.Quantity > pending {
				return &domain.InsufficientPendingError{
					OrderLineID: line.ID,
					ProductName: line.ProductName,
					Requested:   item.Quantity,
					Pending:     pending,
				}
			}
			if st := stockByProduct[line.ProductID]; item.Quantity > st.Quantity {
				return &domain.InsufficientStockError{
					ProductID:   line.ProductID,
					ProductName: line.ProductName,
					Requested:   item.Quantity,
					Available:   st.Quantity,
				}
			}
		}

		// 5) Decidir estados. La colecta se etiqueta comparando lo solicitado
		// en ESTA llamada contra el pendiente total del pedido (todas las
		// líneas, no solo las tocadas): una colecta que cierra la última
		// unidad de un pedido multi-línea queda FullyCollected aunque haya
		// tocado una sola línea. La transición del pedido depende de esta
		// regla; cambiarla rompe el cierre de pedidos.
		var orderedTotal, collectedTotal, requestedTotal int64
		for _, line := range lines {
			orderedTotal += line.Quantity
			collectedTotal += collected[line.ID]
		}
		for _, item := range req.Items {
			requestedTotal += item.Quantity
		}
		totalPendingBefore := orderedTotal - collectedTotal

		eventProgress := fulfillment.ProgressPartial
		if requestedTotal >= totalPendingBefore {
			eventProgress = fulfillment.ProgressComplete
		}
		orderProgress := fulfillment.DetermineProgress(orderedTotal, collectedTotal+requestedTotal)

		// 6) Escribir colecta + ítems, debitar stock, actualizar pedido.
		collection = &entity.Collection{
			ID:                uuid.New().String(),
			OrderID:           order.ID,
			CollectedAt:       now,
			CollectorName:     normalized.collectorName,
			CollectorDocument: normalized.collectorDocument,
			VerifierName:      normalized.verifierName,
			VerifierDocument:  normalized.verifierDocument,
			Status:            fulfillment.CollectionStatusFor(eventProgress),
			Notes:             req.Notes,
		}
		for _, item := range req.Items {
			collection.Items = append(collection.Items, &entity.CollectedItem{
				CollectionID: collection.ID,
				OrderLineID:  item.OrderLineID,
				Quantity:     item.Quantity,
			})
		}
		if err := collectionRepo.Create(ctx, collection); err != nil {
			return err
		}

		reason := fmt.Sprintf("salida por colecta %s", collection.ID)
		for _, item := range req.Items {
			line := lineByID[item.OrderLineID]
			if err := uc.ledger.Debit(ctx, stockRepo, movementRepo,
				line.ProductID, item.Quantity, reason, normalized.collectorName, now); err != nil {
				return err
			}
		}

		newStatus := fulfillment.OrderStatusFor(orderProgress)
		if err := orderRepo.UpdateStatus(ctx, order.ID, newStatus); err != nil {
			return err
		}
		order.Status = newStatus
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.log.Info().
		Str("collection_id", collection.ID).
		Str("order_id", order.ID).
		Str("status", string(collection.Status)).
		Str("collector_document", identity.MaskDocument(collection.CollectorDocument)).
		Msg("colecta procesada")

	uc.dispatchReceipt(ctx, order, collection, lineByID)
	return collection, nil
}

// normalizedIdentity documentos ya normalizados (solo dígitos) y nombres
// recortados, listos para persistir.
type normalizedIdentity struct {
	collectorName     string
	collectorDocument string
	verifierName      string
	verifierDocument  string
}

// validateRequest valida forma de la solicitud e identidades ANTES de abrir
// la transacción; nada de esto depende de estado bloqueado.
func (uc *ProcessCollectionUseCase) validateRequest(req dto.ProcessCollectionRequest) (*normalizedIdentity, error) {
	if req.OrderID == "" {
		return nil, fmt.Errorf("order_id es obligatorio: %w", domain.ErrInvalidInput)
	}
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("seleccione al menos un ítem para la colecta: %w", domain.ErrInvalidInput)
	}
	seen := make(map[string]bool, len(req.Items))
	for _, item := range req.Items {
		if item.OrderLineID == "" || item.Quantity <= 0 {
			return nil, fmt.Errorf("ítem con línea o cantidad inválida: %w", domain.ErrInvalidInput)
		}
		if seen[item.OrderLineID] {
			return nil, fmt.Errorf("línea %s repetida en la solicitud: %w", item.OrderLineID, domain.ErrInvalidInput)
		}
		seen[item.OrderLineID] = true
	}

	if err := identity.ValidateName(req.CollectorName); err != nil {
		return nil, fmt.Errorf("retirante: %v: %w", err, domain.ErrInvalidInput)
	}
	collectorDoc, err := identity.NormalizeDocument(req.CollectorDocument)
	if err != nil {
		return nil, fmt.Errorf("retirante: %v: %w", err, domain.ErrInvalidInput)
	}

	normalized := &normalizedIdentity{
		collectorName:     trimName(req.CollectorName),
		collectorDocument: collectorDoc,
	}

	// Conferente opcional: si viene cualquiera de los dos campos, ambos se
	// validan con las mismas reglas del retirante.
	if req.VerifierName != "" || req.VerifierDocument != "" {
		if err := identity.ValidateName(req.VerifierName); err != nil {
			return nil, fmt.Errorf("conferente: %v: %w", err, domain.ErrInvalidInput)
		}
		verifierDoc, err := identity.NormalizeDocument(req.VerifierDocument)
		if err != nil {
			return nil, fmt.Errorf("conferente: %v: %w", err, domain.ErrInvalidInput)
		}
		normalized.verifierName = trimName(req.VerifierName)
		normalized.verifierDocument = verifierDoc
	}
	return normalized, nil
}

func trimName(s string) string {
	return strings.TrimSpace(s)
}
