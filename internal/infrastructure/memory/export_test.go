package memory

import "time"

// SetClock reemplaza el reloj del store de idempotencia en tests.
func (s *IdempotencyStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}
