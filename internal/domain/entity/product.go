package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product representa un producto del catálogo.
// El motor de inventario solo consume ID y SafetyStock; el resto se copia a los reportes.
type Product struct {
	ID          string
	Name        string
	Category    string
	UnitPrice   decimal.Decimal // precio unitario de referencia
	SafetyStock int64           // umbral de stock de seguridad (>= 0)
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
