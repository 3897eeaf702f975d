package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.BalanceRepository = (*BalanceRepo)(nil)

// BalanceRepo implementación de BalanceRepository sobre PostgreSQL (usable con pool o tx).
type BalanceRepo struct {
	q Querier
}

// NewBalanceRepository construye el adaptador de saldos. Pasar pool o tx (Querier).
func NewBalanceRepository(q Querier) *BalanceRepo {
	return &BalanceRepo{q: q}
}

// Get obtiene el saldo actual; sin fila equivale a 0.
func (r *BalanceRepo) Get(ctx context.Context, productID string) (*entity.Balance, error) {
	query := `SELECT product_id, quantity, updated_at FROM stock_balances WHERE product_id = $1`
	var b entity.Balance
	err := r.q.QueryRow(ctx, query, productID).Scan(&b.ProductID, &b.Quantity, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &entity.Balance{ProductID: productID}, nil
		}
		return nil, fmt.Errorf("get balance: %w", err)
	}
	return &b, nil
}

// GetForUpdate asegura que exista la fila del saldo y la bloquea (SELECT FOR UPDATE).
// Sin la inserción previa, dos primeras entradas concurrentes no tendrían fila que bloquear.
func (r *BalanceRepo) GetForUpdate(ctx context.Context, productID string) (*entity.Balance, error) {
	ensure := `
		INSERT INTO stock_balances (product_id, quantity, updated_at)
		VALUES ($1, 0, now())
		ON CONFLICT (product_id) DO NOTHING`
	if _, err := r.q.Exec(ctx, ensure, productID); err != nil {
		if isForeignKeyViolation(err) {
			return nil, domain.ErrProductNotFound
		}
		return nil, fmt.Errorf("ensure balance row: %w", err)
	}

	query := `
		SELECT product_id, quantity, updated_at
		FROM stock_balances WHERE product_id = $1
		FOR UPDATE`
	var b entity.Balance
	if err := r.q.QueryRow(ctx, query, productID).Scan(&b.ProductID, &b.Quantity, &b.UpdatedAt); err != nil {
		return nil, fmt.Errorf("get balance for update: %w", err)
	}
	return &b, nil
}

// Save inserta o actualiza el saldo del producto.
func (r *BalanceRepo) Save(ctx context.Context, balance *entity.Balance) error {
	query := `
		INSERT INTO stock_balances (product_id, quantity, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (product_id)
		DO UPDATE SET quantity = EXCLUDED.quantity, updated_at = EXCLUDED.updated_at`
	_, err := r.q.Exec(ctx, query, balance.ProductID, balance.Quantity, balance.UpdatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrProductNotFound
		}
		return fmt.Errorf("save balance: %w", err)
	}
	return nil
}

// List devuelve todos los saldos.
func (r *BalanceRepo) List(ctx context.Context) ([]*entity.Balance, error) {
	query := `SELECT product_id, quantity, updated_at FROM stock_balances ORDER BY product_id`
	rows, err := r.q.Query(ctx, query)
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
