package entity

import "time"

// EntryKind tipo de movimiento registrado en el libro de inventario.
type EntryKind string

// Tipos de movimiento.
const (
	EntryKindInbound  EntryKind = "INBOUND"  // entrada
	EntryKindOutbound EntryKind = "OUTBOUND" // salida
)

// Valid indica si el tipo es uno de los conocidos.
func (k EntryKind) Valid() bool {
	return k == EntryKindInbound || k == EntryKindOutbound
}

// Sign devuelve +1 para entradas y -1 para salidas.
func (k EntryKind) Sign() int64 {
	if k == EntryKindOutbound {
		return -1
	}
	return 1
}

// LedgerEntry registro inmutable de un movimiento de stock.
// ID lo asigna el almacén de forma monótona; Quantity siempre es positiva.
type LedgerEntry struct {
	ID         int64
	ProductID  string
	Kind       EntryKind
	Quantity   int64
	OccurredAt time.Time
}

// SignedQuantity devuelve la cantidad con signo según el tipo de movimiento.
func (e LedgerEntry) SignedQuantity() int64 {
	return e.Kind.Sign() * e.Quantity
}
