package memory

import (
	"context"
	"errors"
	"sort"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var errNoTx = errors.New("memory: GetForUpdate requiere una transacción")

// TxRunner implementa inventory.TxRunner sobre el Store.
type TxRunner struct {
	store *Store
}

// memTx escrituras pendientes y bloqueos de una transacción.
type memTx struct {
	store    *Store
	locked   []string
	isLocked map[string]bool
	balances map[string]entity.Balance
	entries  []entity.LedgerEntry
}

func (tx *memTx) lock(ctx context.Context, productID string) error {
	if tx.isLocked[productID] {
		return nil
	}
	if err := tx.store.locks.lock(ctx, productID); err != nil {
		return err
	}
	tx.isLocked[productID] = true
	tx.locked = append(tx.locked, productID)
	return nil
}

func (tx *memTx) release() {
	for _, id := range tx.locked {
		tx.store.locks.unlock(id)
	}
	tx.locked = nil
}

// Run ejecuta fn en una transacción. Si fn devuelve error nada de lo escrito es visible.
// Los bloqueos por producto se liberan después del commit o rollback.
func (r *TxRunner) Run(ctx context.Context, fn func(
	ledgerRepo repository.LedgerRepository,
	balanceRepo repository.BalanceRepository,
) error) error {
	tx := &memTx{
		store:    r.store,
		isLocked: make(map[string]bool),
		balances: make(map[string]entity.Balance),
	}
	defer tx.release()

	if err := fn(&LedgerRepository{store: r.store, tx: tx}, &BalanceRepository{store: r.store, tx: tx}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.commit(tx)
}

// RunReadOnly ejecuta fn con el store bloqueado en lectura: saldo y libro son una misma instantánea.
func (r *TxRunner) RunReadOnly(ctx context.Context, fn func(
	ledgerRepo repository.LedgerRepository,
	balanceRepo repository.BalanceRepository,
) error) error {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(&LedgerRepository{store: r.store, snapshot: true}, &BalanceRepository{store: r.store, snapshot: true})
}

func (r *TxRunner) commit(tx *memTx) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	// Equivale a la FK contra products: el producto pudo borrarse mientras la tx esperaba
	for id := range tx.balances {
		if _, ok := s.products[id]; !ok {
			return domain.ErrProductNotFound
		}
	}
	for _, e := range tx.entries {
		if _, ok := s.products[e.ProductID]; !ok {
			return domain.ErrProductNotFound
		}
	}

	for id, b := range tx.balances {
		cp := b
		s.balances[id] = &cp
	}
	for _, e := range tx.entries {
		s.entries[e.ProductID] = append(s.entries[e.ProductID], e)
	}
	return nil
}

// BalanceRepository implementa repository.BalanceRepository en memoria.
type BalanceRepository struct {
	store    *Store
	tx       *memTx
	snapshot bool
}

// Get devuelve el saldo (0 si el producto nunca se movió).
func (r *BalanceRepository) Get(_ context.Context, productID string) (*entity.Balance, error) {
	if r.tx != nil {
		if b, ok := r.tx.balances[productID]; ok {
			return &b, nil
		}
	}
	if r.snapshot {
		return r.store.balanceLocked(productID), nil
	}
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	return r.store.balanceLocked(productID), nil
}

// GetForUpdate bloquea el producto hasta el fin de la transacción y devuelve su saldo.
func (r *BalanceRepository) GetForUpdate(ctx context.Context, productID string) (*entity.Balance, error) {
	if r.tx == nil {
		return nil, errNoTx
	}
	if err := r.tx.lock(ctx, productID); err != nil {
		return nil, err
	}
	return r.Get(ctx, productID)
}

// Save guarda el saldo; dentro de una tx queda pendiente hasta el commit.
func (r *BalanceRepository) Save(_ context.Context, balance *entity.Balance) error {
	if r.tx != nil {
		r.tx.balances[balance.ProductID] = *balance
		return nil
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	cp := *balance
	r.store.balances[balance.ProductID] = &cp
	return nil
}

// List devuelve los saldos confirmados ordenados por producto.
func (r *BalanceRepository) List(_ context.Context) ([]*entity.Balance, error) {
	if r.snapshot {
		return r.store.listBalancesLocked(), nil
	}
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	return r.store.listBalancesLocked(), nil
}

// LedgerRepository implementa repository.LedgerRepository en memoria.
type LedgerRepository struct {
	store    *Store
	tx       *memTx
	snapshot bool
}

// Append asigna ID a la entrada y la registra (pendiente si hay tx).
func (r *LedgerRepository) Append(_ context.Context, entry *entity.LedgerEntry) error {
	entry.ID = r.store.nextEntryID()
	if r.tx != nil {
		r.tx.entries = append(r.tx.entries, *entry)
		return nil
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.entries[entry.ProductID] = append(r.store.entries[entry.ProductID], *entry)
	return nil
}

// List filtra por producto, tipo y rango inclusivo; orden OccurredAt DESC, ID DESC.
func (r *LedgerRepository) List(_ context.Context, filter repository.LedgerFilter) ([]entity.LedgerEntry, error) {
	var committed []entity.LedgerEntry
	if r.snapshot {
		committed = r.store.entries[filter.ProductID]
	} else {
		r.store.mu.RLock()
		committed = append([]entity.LedgerEntry(nil), r.store.entries[filter.ProductID]...)
		r.store.mu.RUnlock()
	}

	out := make([]entity.LedgerEntry, 0, len(committed))
	for _, e := range committed {
		if matches(e, filter) {
			out = append(out, e)
		}
	}
	if r.tx != nil {
		for _, e := range r.tx.entries {
			if e.ProductID == filter.ProductID && matches(e, filter) {
				out = append(out, e)
			}
		}
	}
	sortEntries(out)
	return out, nil
}

func matches(e entity.LedgerEntry, f repository.LedgerFilter) bool {
	if f.Kind != "" && e.Kind != f.Kind {
		return false
	}
	if f.From != nil && e.OccurredAt.Before(*f.From) {
		return false
	}
	if f.To != nil && e.OccurredAt.After(*f.To) {
		return false
	}
	return true
}

func sortEntries(entries []entity.LedgerEntry) {
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].OccurredAt.Equal(entries[j].OccurredAt) {
			return entries[i].OccurredAt.After(entries[j].OccurredAt)
		}
		return entries[i].ID > entries[j].ID
	})
}
