package memory

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// Store guarda catálogo, saldos y libro en memoria. Sirve para desarrollo y pruebas
// con la misma semántica transaccional que el adaptador Postgres:
// bloqueo por producto durante la tx y escrituras visibles solo tras el commit.
type Store struct {
	mu sync.RWMutex

	products map[string]*entity.Product
	balances map[string]*entity.Balance
	// entries por producto, en orden de inserción (ID ascendente).
	entries map[string][]entity.LedgerEntry

	seq   atomic.Int64
	locks *keyedLocks
}

// New crea un store vacío.
func New() *Store {
	return &Store{
		products: make(map[string]*entity.Product),
		balances: make(map[string]*entity.Balance),
		entries:  make(map[string][]entity.LedgerEntry),
		locks:    newKeyedLocks(),
	}
}

// Products repositorio del catálogo.
func (s *Store) Products() *ProductRepository {
	return &ProductRepository{store: s}
}

// Balances repositorio de saldos fuera de transacción.
func (s *Store) Balances() *BalanceRepository {
	return &BalanceRepository{store: s}
}

// Ledger repositorio del libro fuera de transacción.
func (s *Store) Ledger() *LedgerRepository {
	return &LedgerRepository{store: s}
}

// TxRunner runner transaccional sobre este store.
func (s *Store) TxRunner() *TxRunner {
	return &TxRunner{store: s}
}

func (s *Store) nextEntryID() int64 {
	return s.seq.Add(1)
}

// balanceLocked lee el saldo confirmado. Requiere s.mu tomado.
func (s *Store) balanceLocked(productID string) *entity.Balance {
	if b, ok := s.balances[productID]; ok {
		cp := *b
		return &cp
	}
	return &entity.Balance{ProductID: productID}
}

func (s *Store) listBalancesLocked() []*entity.Balance {
	out := make([]*entity.Balance, 0, len(s.balances))
	for _, b := range s.balances {
		cp := *b
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out
}

// keyedLocks mutex por llave (producto). Se adquiere respetando la cancelación del contexto.
type keyedLocks struct {
	mu sync.Mutex
	m  map[string]*keyLock
}

type keyLock struct {
	ch   chan struct{}
	refs int
}

func newKeyedLocks() *keyedLocks {
	return &keyedLocks{m: make(map[string]*keyLock)}
}

func (k *keyedLocks) lock(ctx context.Context, key string) error {
	k.mu.Lock()
	l, ok := k.m[key]
	if !ok {
		l = &keyLock{ch: make(chan struct{}, 1)}
		k.m[key] = l
	}
	l.refs++
	k.mu.Unlock()

	select {
	case l.ch <- struct{}{}:
		return nil
	case <-ctx.Done():
		k.mu.Lock()
		k.dropLocked(key, l)
		k.mu.Unlock()
		return ctx.Err()
	}
}

func (k *keyedLocks) unlock(key string) {
	k.mu.Lock()
	defer k.mu.Unlock()
	l, ok := k.m[key]
	if !ok {
		return
	}
	<-l.ch
	k.dropLocked(key, l)
}

func (k *keyedLocks) dropLocked(key string, l *keyLock) {
	l.refs--
	if l.refs == 0 {
		delete(k.m, key)
	}
}
