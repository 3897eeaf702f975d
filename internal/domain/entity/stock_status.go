package entity

import "github.com/shopspring/decimal"

// StockStatus proyección de lectura: producto del catálogo + saldo actual (0 si nunca tuvo movimientos).
type StockStatus struct {
	ProductID        string
	Name             string
	Category         string
	UnitPrice        decimal.Decimal
	SafetyStock      int64
	CurrentQuantity  int64
	BelowSafetyStock bool
}

// NewStockStatus construye el estado de un producto. La comparación con el stock de seguridad es estricta (<).
func NewStockStatus(p *Product, currentQuantity int64) StockStatus {
	return StockStatus{
		ProductID:        p.ID,
		Name:             p.Name,
		Category:         p.Category,
		UnitPrice:        p.UnitPrice,
		SafetyStock:      p.SafetyStock,
		CurrentQuantity:  currentQuantity,
		BelowSafetyStock: IsBelowSafetyStock(currentQuantity, p.SafetyStock),
	}
}

// IsBelowSafetyStock true si la cantidad está estrictamente por debajo del umbral.
func IsBelowSafetyStock(quantity, safetyStock int64) bool {
	return quantity < safetyStock
}
