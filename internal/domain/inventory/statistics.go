package inventory

import "github.com/jhoicas/stock-ledger/internal/domain/entity"

// CalculateStatistics calcula totales del período y rotación (servicio de dominio, sin estado).
// entries ya debe venir filtrado a la ventana de tiempo; currentQuantity es el saldo actual.
// ProductID y las fechas del período los completa quien llama.
func CalculateStatistics(entries []entity.LedgerEntry, currentQuantity int64) entity.InventoryStatistics {
	var in, out int64
	for _, e := range entries {
		switch e.Kind {
		case entity.EntryKindInbound:
			in += e.Quantity
		case entity.EntryKindOutbound:
			out += e.Quantity
		}
	}
	return entity.InventoryStatistics{
		TotalInbound:    in,
		TotalOutbound:   out,
		CurrentQuantity: currentQuantity,
		TurnoverRate:    TurnoverRate(out, currentQuantity),
	}
}

// TurnoverRate = totalOutbound / currentQuantity. Con saldo 0 (o negativo) devuelve 0 para evitar división por cero.
func TurnoverRate(totalOutbound, currentQuantity int64) float64 {
	if currentQuantity <= 0 {
		return 0
	}
	return float64(totalOutbound) / float64(currentQuantity)
}

// Reconcile suma con signo todas las entradas; debe coincidir con el saldo del producto.
func Reconcile(entries []entity.LedgerEntry) int64 {
	var total int64
	for _, e := range entries {
		total += e.SignedQuantity()
	}
	return total
}
