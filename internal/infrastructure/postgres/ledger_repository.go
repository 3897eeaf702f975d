package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.LedgerRepository = (*LedgerRepo)(nil)

// LedgerRepo libro de movimientos sobre PostgreSQL (usable con pool o tx).
type LedgerRepo struct {
	q Querier
}

// NewLedgerRepository construye el adaptador. Pasar pool o tx (Querier).
func NewLedgerRepository(q Querier) *LedgerRepo {
	return &LedgerRepo{q: q}
}

// Append inserta el movimiento; el ID lo asigna la secuencia BIGSERIAL.
func (r *LedgerRepo) Append(ctx context.Context, entry *entity.LedgerEntry) error {
	query := `
		INSERT INTO stock_ledger (product_id, kind, quantity, occurred_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id`
	err := r.q.QueryRow(ctx, query,
		entry.ProductID, string(entry.Kind), entry.Quantity, entry.OccurredAt.UTC(),
	).Scan(&entry.ID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrProductNotFound
		}
		return fmt.Errorf("append ledger entry: %w", err)
	}
	return nil
}

// List lista movimientos del producto con filtros opcionales, más recientes primero.
func (r *LedgerRepo) List(ctx context.Context, f repository.LedgerFilter) ([]entity.LedgerEntry, error) {
	query := `
		SELECT id, product_id, kind, quantity, occurred_at
		FROM stock_ledger WHERE product_id = $1`
	args := []any{f.ProductID}
	pos := 2
	if f.Kind != "" {
		query += fmt.Sprintf(" AND kind = $%d", pos)
		args = append(args, string(f.Kind))
		pos++
	}
	if f.From != nil {
		query += fmt.Sprintf(" AND occurred_at >= $%d", pos)
		args = append(args, f.From.UTC())
		pos++
	}
	if f.To != nil {
		query += fmt.Sprintf(" AND occurred_at <= $%d", pos)
		args = append(args, f.To.UTC())
	}
	query += " ORDER BY occurred_at DESC, id DESC"

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list ledger: %w", err)
	}
	defer rows.Close()
	list := []entity.LedgerEntry{}
	for rows.Next() {
		var (
			e    entity.LedgerEntry
			kind string
		)
		if err := rows.Scan(&e.ID, &e.ProductID, &kind, &e.Quantity, &e.OccurredAt); err != nil {
			return nil, fmt.Errorf("scan ledger entry: %w", err)
		}
		e.Kind = entity.EntryKind(kind)
		e.OccurredAt = e.OccurredAt.UTC()
		list = append(list, e)
	}
	return list, rows.Err()
}
