package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.BalanceRepository = (*BalanceRepo)(nil)

// BalanceRepo saldos sobre MySQL (usable con *sql.DB o *sql.Tx).
type BalanceRepo struct {
	q execer
}

// NewBalanceRepository construye el adaptador de saldos.
func NewBalanceRepository(q execer) *BalanceRepo {
	return &BalanceRepo{q: q}
}

// Get obtiene el saldo; sin fila equivale a 0.
func (r *BalanceRepo) Get(ctx context.Context, productID string) (*entity.Balance, error) {
	var b entity.Balance
	err := r.q.QueryRowContext(ctx, `
		SELECT product_id, quantity, updated_at
		FROM stock_balances WHERE product_id = ?`, productID,
	).Scan(&b.ProductID, &b.Quantity, &b.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return &entity.Balance{ProductID: productID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query balance: %w", err)
	}
	return &b, nil
}

// GetForUpdate asegura la fila del saldo y la bloquea con SELECT ... FOR UPDATE.
// Se usa ON DUPLICATE KEY en lugar de INSERT IGNORE para no silenciar la violación de FK.
func (r *BalanceRepo) GetForUpdate(ctx context.Context, productID string) (*entity.Balance, error) {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO stock_balances (product_id, quantity, updated_at)
		VALUES (?, 0, ?)
		ON DUPLICATE KEY UPDATE product_id = product_id`,
		productID, time.Now().UTC(),
	)
	if err != nil {
		if isMySQLError(err, errNoReferencedRow) {
			return nil, domain.ErrProductNotFound
		}
		return nil, fmt.Errorf("ensure balance row: %w", err)
	}

	var b entity.Balance
	err = r.q.QueryRowContext(ctx, `
		SELECT product_id, quantity, updated_at
		FROM stock_balances WHERE product_id = ?
		FOR UPDATE`, productID,
	).Scan(&b.ProductID, &b.Quantity, &b.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("query balance for update: %w", err)
	}
	return &b, nil
}

// Save inserta o actualiza el saldo.
func (r *BalanceRepo) Save(ctx context.Context, balance *entity.Balance) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO stock_balances (product_id, quantity, updated_at)
		VALUES (?, ?, ?)
		ON DUPLICATE KEY UPDATE quantity = VALUES(quantity), updated_at = VALUES(updated_at)`,
		balance.ProductID, balance.Quantity, balance.UpdatedAt.UTC(),
	)
	if err != nil {
		if isMySQLError(err, errNoReferencedRow) {
			return domain.ErrProductNotFound
		}
		return fmt.Errorf("save balance: %w", err)
	}
	return nil
}

// List devuelve todos los saldos.
func (r *BalanceRepo) List(ctx context.Context) ([]*entity.Balance, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT product_id, quantity, updated_at FROM stock_balances ORDER BY product_id`)
	if err != nil {
		return nil, fmt.Errorf("list balances: %w", err)
	}
	defer rows.Close()
	var list []*entity.Balance
	for rows.Next() {
		var b entity.Balance
		if err := rows.Scan(&b.ProductID, &b.Quantity, &b.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan balance: %w", err)
		}
		list = append(list, &b)
	}
	return list, rows.Err()
}
