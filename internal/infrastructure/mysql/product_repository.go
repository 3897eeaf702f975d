package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

// ProductRepo catálogo sobre MySQL.
type ProductRepo struct {
	db *sql.DB
}

// NewProductRepository construye el adaptador. Delete abre su propia transacción.
func NewProductRepository(db *sql.DB) *ProductRepo {
	return &ProductRepo{db: db}
}

// Create persiste un nuevo producto.
func (r *ProductRepo) Create(ctx context.Context, p *entity.Product) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO products (id, name, category, unit_price, safety_stock, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Category, p.UnitPrice.String(), p.SafetyStock, p.CreatedAt.UTC(), p.UpdatedAt.UTC(),
	)
	if err != nil {
		if isMySQLError(err, errDuplicateEntry) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

// GetByID obtiene un producto; (nil, nil) si no existe.
func (r *ProductRepo) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	p, err := scanProduct(r.db.QueryRowContext(ctx, `
		SELECT id, name, category, unit_price, safety_stock, created_at, updated_at
		FROM products WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query product: %w", err)
	}
	return p, nil
}

// List devuelve el catálogo ordenado por nombre.
func (r *ProductRepo) List(ctx context.Context) ([]*entity.Product, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, category, unit_price, safety_stock, created_at, updated_at
		FROM products ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()
	var list []*entity.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

// Update actualiza datos del catálogo; domain.ErrNotFound si no existe.
func (r *ProductRepo) Update(ctx context.Context, p *entity.Product) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE products SET name = ?, category = ?, unit_price = ?, safety_stock = ?, updated_at = ?
		WHERE id = ?`,
		p.Name, p.Category, p.UnitPrice.String(), p.SafetyStock, p.UpdatedAt.UTC(), p.ID,
	)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	// Sin CLIENT_FOUND_ROWS, RowsAffected es 0 también cuando nada cambió
	if n, _ := res.RowsAffected(); n == 0 {
		exists, err := r.GetByID(ctx, p.ID)
		if err != nil {
			return err
		}
		if exists == nil {
			return domain.ErrNotFound
		}
	}
	return nil
}

// Delete elimina el producto si su saldo es 0 (saldo e historial por ON DELETE CASCADE).
func (r *ProductRepo) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	balance, err := NewBalanceRepository(tx).GetForUpdate(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			return domain.ErrNotFound
		}
		return err
	}
	if balance.Quantity > 0 {
		return domain.ErrStockRemaining
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return tx.Commit()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*entity.Product, error) {
	var (
		p     entity.Product
		price string
	)
	if err := row.Scan(&p.ID, &p.Name, &p.Category, &price, &p.SafetyStock, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	unitPrice, err := decimal.NewFromString(price)
	if err != nil {
		return nil, fmt.Errorf("unit_price: %w", err)
	}
	p.UnitPrice = unitPrice
	return &p, nil
}
