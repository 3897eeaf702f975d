package entity

import "time"

// InventoryStatistics estadísticas de un producto en un período [StartDate, EndDate].
type InventoryStatistics struct {
	ProductID       string
	StartDate       time.Time
	EndDate         time.Time
	TotalInbound    int64
	TotalOutbound   int64
	CurrentQuantity int64
	TurnoverRate    float64 // TotalOutbound / CurrentQuantity; 0 si no hay stock
}
