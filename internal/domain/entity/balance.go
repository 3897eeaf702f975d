package entity

import "time"

// Balance representa la cantidad disponible actual de un producto (una fila por producto con movimientos).
// Solo el motor de inventario la modifica; Quantity nunca es negativa.
type Balance struct {
	ProductID string
	Quantity  int64
	UpdatedAt time.Time
}
