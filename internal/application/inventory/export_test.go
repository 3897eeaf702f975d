package inventory

import "time"

// SetClock reemplaza el reloj del motor en tests.
func (uc *StockLedgerUseCase) SetClock(now func() time.Time) {
	uc.now = now
}
