package mysql

import (
	"context"
	"fmt"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.LedgerRepository = (*LedgerRepo)(nil)

// LedgerRepo libro de movimientos sobre MySQL.
type LedgerRepo struct {
	q execer
}

// NewLedgerRepository construye el adaptador.
func NewLedgerRepository(q execer) *LedgerRepo {
	return &LedgerRepo{q: q}
}

// Append inserta el movimiento y toma el ID de AUTO_INCREMENT.
func (r *LedgerRepo) Append(ctx context.Context, entry *entity.LedgerEntry) error {
	res, err := r.q.ExecContext(ctx, `
		INSERT INTO stock_ledger (product_id, kind, quantity, occurred_at)
		VALUES (?, ?, ?, ?)`,
		entry.ProductID, string(entry.Kind), entry.Quantity, entry.OccurredAt.UTC(),
	)
	if err != nil {
		if isMySQLError(err, errNoReferencedRow) {
			return domain.ErrProductNotFound
		}
		return fmt.Errorf("insert ledger entry: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("ledger entry id: %w", err)
	}
	entry.ID = id
	return nil
}

// List lista movimientos del producto con filtros opcionales, más recientes primero.
func (r *LedgerRepo) List(ctx context.Context, f repository.LedgerFilter) ([]entity.LedgerEntry, error) {
	query := `
		SELECT id, product_id, kind, quantity, occurred_at
		FROM stock_ledger WHERE product_id = ?`
	args := []any{f.ProductID}
	if f.Kind != "" {
		query += " AND kind = ?"
		args = append(args, string(f.Kind))
	}
	if f.From != nil {
		query += " AND occurred_at >= ?"
		args = append(args, f.From.UTC())
	}
	if f.To != nil {
		query += " AND occurred_at <= ?"
		args = append(args, f.To.UTC())
	}
	query += " ORDER BY occurred_at DESC, id DESC"

	rows, err := r.q.QueryContext(ctx, query, args...)
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
