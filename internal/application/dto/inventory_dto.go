package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// MovementRequest body para POST /api/stocks/{productId}/inbound|outbound.
type MovementRequest struct {
	Quantity int64 `json:"quantity" validate:"required,gt=0"`
}

// BalanceResponse saldo tras una entrada.
type BalanceResponse struct {
	ProductID string    `json:"product_id"`
	Quantity  int64     `json:"quantity"`
	UpdatedAt time.Time `json:"updated_at"`
}

// OutboundResponse resultado de una salida.
type OutboundResponse struct {
	NewBalance       int64 `json:"new_balance"`
	BelowSafetyStock bool  `json:"below_safety_stock"`
}

// LedgerEntryResponse movimiento del historial.
type LedgerEntryResponse struct {
	ID         int64     `json:"id"`
	ProductID  string    `json:"product_id"`
	Kind       string    `json:"kind"`
	Quantity   int64     `json:"quantity"`
	OccurredAt time.Time `json:"occurred_at"`
}

// HistoryRequest parámetros opcionales de GET /api/stocks/{productId}/histories.
type HistoryRequest struct {
	Kind string `query:"kind"` // INBOUND | OUTBOUND
	From string `query:"from"` // RFC3339 o YYYY-MM-DD
	To   string `query:"to"`   // RFC3339 o YYYY-MM-DD
}

// StockStatusResponse estado de stock de un producto.
type StockStatusResponse struct {
	ProductID        string          `json:"product_id"`
	Name             string          `json:"name"`
	Category         string          `json:"category"`
	UnitPrice        decimal.Decimal `json:"unit_price"`
	SafetyStock      int64           `json:"safety_stock"`
	CurrentQuantity  int64           `json:"current_quantity"`
	BelowSafetyStock bool            `json:"below_safety_stock"`
}

// StatisticsRequest parámetros de GET /api/stocks/{productId}/statistics.
type StatisticsRequest struct {
	StartDate string `query:"start_date"` // RFC3339 o YYYY-MM-DD (inicio del día)
	EndDate   string `query:"end_date"`   // RFC3339 o YYYY-MM-DD (fin del día)
}

// InventoryStatisticsResponse estadísticas del período.
type InventoryStatisticsResponse struct {
	ProductID       string    `json:"product_id"`
	StartDate       time.Time `json:"start_date"`
	EndDate         time.Time `json:"end_date"`
	TotalInbound    int64     `json:"total_inbound"`
	TotalOutbound   int64     `json:"total_outbound"`
	CurrentQuantity int64     `json:"current_quantity"`
	TurnoverRate    float64   `json:"turnover_rate"`
}

// DeletableResponse resultado de la verificación de borrado.
type DeletableResponse struct {
	ProductID string `json:"product_id"`
	Deletable bool   `json:"deletable"`
}

// ReplenishmentSuggestionDTO sugerencia de reposición para un producto bajo su stock de seguridad.
type ReplenishmentSuggestionDTO struct {
	ProductID          string          `json:"product_id"`
	ProductName        string          `json:"product_name"`
	Category           string          `json:"category"`
	CurrentQuantity    int64           `json:"current_quantity"`
	SafetyStock        int64           `json:"safety_stock"`
	IdealStock         int64           `json:"ideal_stock"`          // ceil(SafetyStock * 1.5)
	SuggestedOrderQty  int64           `json:"suggested_order_qty"`  // IdealStock - CurrentQuantity
	UnitPrice          decimal.Decimal `json:"unit_price"`
	EstimatedOrderCost decimal.Decimal `json:"estimated_order_cost"` // SuggestedOrderQty * UnitPrice
	OutboundLast90Days int64           `json:"outbound_last_90d"`    // salidas recientes
	Priority           int             `json:"priority"`             // 1 = más urgente
}
