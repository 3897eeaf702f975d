package inventory

import (
	"time"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// EventTypeStockMovement tipo de evento emitido por cada movimiento confirmado.
const EventTypeStockMovement = "stock_movement"

// StockEvent notificación de un movimiento confirmado (para WebSocket u otros suscriptores).
type StockEvent struct {
	Type             string           `json:"type"`
	EntryID          int64            `json:"entry_id"`
	ProductID        string           `json:"product_id"`
	Kind             entity.EntryKind `json:"kind"`
	Quantity         int64            `json:"quantity"`
	Balance          int64            `json:"balance"`
	SafetyStock      int64            `json:"safety_stock"`
	BelowSafetyStock bool             `json:"below_safety_stock"`
	OccurredAt       time.Time        `json:"occurred_at"`
}

func newStockEvent(entry entity.LedgerEntry, balance int64, product *entity.Product) StockEvent {
	return StockEvent{
		Type:             EventTypeStockMovement,
		EntryID:          entry.ID,
		ProductID:        entry.ProductID,
		Kind:             entry.Kind,
		Quantity:         entry.Quantity,
		Balance:          balance,
		SafetyStock:      product.SafetyStock,
		BelowSafetyStock: entity.IsBelowSafetyStock(balance, product.SafetyStock),
		OccurredAt:       entry.OccurredAt,
	}
}
