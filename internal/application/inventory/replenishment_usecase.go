package inventory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// replenishmentWindow período usado para medir el volumen de salidas reciente.
const replenishmentWindow = 90 * 24 * time.Hour

// stockAnalytics lo que la reposición necesita del motor de inventario.
type stockAnalytics interface {
	BelowSafetyStockList(ctx context.Context) ([]entity.StockStatus, error)
	Statistics(ctx context.Context, productID string, start, end time.Time) (*entity.InventoryStatistics, error)
}

// ReplenishmentUseCase genera la lista de reposición de los productos bajo su stock de seguridad.
// Prioriza por volumen de salidas reciente y luego por déficit.
type ReplenishmentUseCase struct {
	stock stockAnalytics
	now   func() time.Time
}

// NewReplenishmentUseCase construye el caso de uso de reposición.
func NewReplenishmentUseCase(stock stockAnalytics) *ReplenishmentUseCase {
	return &ReplenishmentUseCase{stock: stock, now: time.Now}
}

// GenerateReplenishmentList devuelve los productos bajo stock de seguridad con la cantidad
// sugerida de pedido (hasta 1.5 veces el stock de seguridad) y su prioridad.
func (uc *ReplenishmentUseCase) GenerateReplenishmentList(ctx context.Context) ([]dto.ReplenishmentSuggestionDTO, error) {
	// 1. Productos por debajo del stock de seguridad
	below, err := uc.stock.BelowSafetyStockList(ctx)
	if err != nil {
		return nil, err
	}
	if len(below) == 0 {
		return []dto.ReplenishmentSuggestionDTO{}, nil
	}

	end := uc.now().UTC()
	start := end.Add(-replenishmentWindow)

	suggestions := make([]dto.ReplenishmentSuggestionDTO, 0, len(below))
	for _, item := range below {
		// 2. Volumen de salidas del período (sin historial = 0)
		stats, err := uc.stock.Statistics(ctx, item.ProductID, start, end)
		if err != nil {
			return nil, fmt.Errorf("reposición: salidas de %s: %w", item.ProductID, err)
		}
		outbound := stats.TotalOutbound

		ideal := IdealStock(item.SafetyStock)
		suggested := ideal - item.CurrentQuantity
		if suggested < 0 {
			suggested = 0
		}

		suggestions = append(suggestions, dto.ReplenishmentSuggestionDTO{
			ProductID:          item.ProductID,
			ProductName:        item.Name,
			Category:           item.Category,
			CurrentQuantity:    item.CurrentQuantity,
			SafetyStock:        item.SafetyStock,
			IdealStock:         ideal,
			SuggestedOrderQty:  suggested,
			UnitPrice:          item.UnitPrice,
			EstimatedOrderCost: item.UnitPrice.Mul(decimal.NewFromInt(suggested)),
			OutboundLast90Days: outbound,
		})
	}

	// 3. Ordenar: mayor volumen de salidas primero, luego mayor déficit absoluto.
	sort.SliceStable(suggestions, func(i, j int) bool {
		a, b := suggestions[i], suggestions[j]
		if a.OutboundLast90Days != b.OutboundLast90Days {
			return a.OutboundLast90Days > b.OutboundLast90Days
		}
		return a.SafetyStock-a.CurrentQuantity > b.SafetyStock-b.CurrentQuantity
	})

	// 4. Asignar prioridad (1 = más urgente)
	for i := range suggestions {
		suggestions[i].Priority = i + 1
	}
	return suggestions, nil
}

// IdealStock = ceil(safetyStock * 1.5).
func IdealStock(safetyStock int64) int64 {
	return safetyStock + (safetyStock+1)/2
}
