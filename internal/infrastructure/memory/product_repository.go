package memory

import (
	"context"
	"sort"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// ProductRepository implementa repository.ProductRepository en memoria.
type ProductRepository struct {
	store *Store
}

// Create inserta un producto; domain.ErrDuplicate si el ID ya existe.
func (r *ProductRepository) Create(_ context.Context, p *entity.Product) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, exists := r.store.products[p.ID]; exists {
		return domain.ErrDuplicate
	}
	cp := *p
	r.store.products[p.ID] = &cp
	return nil
}

// GetByID devuelve (nil, nil) si no existe.
func (r *ProductRepository) GetByID(_ context.Context, id string) (*entity.Product, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	p, ok := r.store.products[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

// List devuelve el catálogo ordenado por nombre.
func (r *ProductRepository) List(_ context.Context) ([]*entity.Product, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	out := make([]*entity.Product, 0, len(r.store.products))
	for _, p := range r.store.products {
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Update reemplaza los datos del producto; domain.ErrNotFound si no existe.
func (r *ProductRepository) Update(_ context.Context, p *entity.Product) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.products[p.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *p
	r.store.products[p.ID] = &cp
	return nil
}

// Delete borra el producto con su saldo e historial. Toma el bloqueo del producto,
// así ningún movimiento en curso puede dejar stock entre la verificación y el borrado.
func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	if err := r.store.locks.lock(ctx, id); err != nil {
		return err
	}
	defer r.store.locks.unlock(id)

	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.products[id]; !ok {
		return domain.ErrNotFound
	}
	if b, ok := r.store.balances[id]; ok && b.Quantity > 0 {
		return domain.ErrStockRemaining
	}
	delete(r.store.products, id)
	delete(r.store.balances, id)
	delete(r.store.entries, id)
	return nil
}
