package memory

import (
	"context"
	"sync"
	"time"
)

// IdempotencyStore implementa inventory.IdempotencyStore en memoria con expiración por llave.
type IdempotencyStore struct {
	mu        sync.Mutex
	ttl       time.Duration
	now       func() time.Time
	keys      map[string]idemRecord
	nextSweep time.Time
}

// sweepInterval cada cuánto Reserve recorre el mapa para borrar llaves vencidas.
const sweepInterval = time.Minute

type idemRecord struct {
	result    []byte
	done      bool
	expiresAt time.Time
}

// NewIdempotencyStore crea el store; ttl <= 0 equivale a 24h.
func NewIdempotencyStore(ttl time.Duration) *IdempotencyStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &IdempotencyStore{ttl: ttl, now: time.Now, keys: make(map[string]idemRecord)}
}

// Reserve marca la llave en curso; false si ya existe y no expiró.
func (s *IdempotencyStore) Reserve(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	s.sweepLocked(now)
	if rec, ok := s.keys[key]; ok && now.Before(rec.expiresAt) {
		return false, nil
	}
	s.keys[key] = idemRecord{expiresAt: now.Add(s.ttl)}
	return true, nil
}

// Lookup devuelve el resultado guardado; nil si la llave sigue en curso, expiró o no existe.
func (s *IdempotencyStore) Lookup(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.keys[key]
	if ok && !s.now().Before(rec.expiresAt) {
		delete(s.keys, key)
		return nil, nil
	}
	if !ok || !rec.done {
		return nil, nil
	}
	return append([]byte(nil), rec.result...), nil
}

// Complete guarda el resultado y renueva la expiración.
func (s *IdempotencyStore) Complete(_ context.Context, key string, result []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys[key] = idemRecord{
		result:    append([]byte(nil), result...),
		done:      true,
		expiresAt: s.now().Add(s.ttl),
	}
	return nil
}

// Release elimina la llave.
func (s *IdempotencyStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.keys, key)
	return nil
}

// Len número de llaves guardadas, vencidas o no.
func (s *IdempotencyStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.keys)
}

// sweepLocked borra las llaves vencidas como mucho una vez por sweepInterval.
func (s *IdempotencyStore) sweepLocked(now time.Time) {
	if now.Before(s.nextSweep) {
		return
	}
	for k, rec := range s.keys {
		if !now.Before(rec.expiresAt) {
			delete(s.keys, k)
		}
	}
	s.nextSweep = now.Add(sweepInterval)
}
