package postgres_test

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/postgres"
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

var balanceCols = []string{"product_id", "quantity", "updated_at"}

// ──────────────────────────────────────────────────────────────────────────────
// BalanceRepo
// ──────────────────────────────────────────────────────────────────────────────

func TestBalanceRepo_GetSinFilaEsCero(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta(`FROM stock_balances WHERE product_id = $1`)).
		WithArgs("p-1").
		WillReturnRows(pgxmock.NewRows(balanceCols))

	b, err := postgres.NewBalanceRepository(mock).Get(context.Background(), "p-1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), b.Quantity)
	assert.Equal(t, "p-1", b.ProductID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBalanceRepo_GetForUpdateAseguraFilaYBloquea(t *testing.T) {
	mock := newMock(t)
	now := time.Now().UTC()
	mock.ExpectExec(regexp.QuoteMeta(`ON CONFLICT (product_id) DO NOTHING`)).
		WithArgs("p-1").
		WillReturnResult(pgxmock.NewResult("INSERT", 0))
	mock.ExpectQuery(`FOR UPDATE`).
		WithArgs("p-1").
		WillReturnRows(pgxmock.NewRows(balanceCols).AddRow("p-1", int64(42), now))

	b, err := postgres.NewBalanceRepository(mock).GetForUpdate(context.Background(), "p-1")
	require.NoError(t, err)
	assert.Equal(t, int64(42), b.Quantity)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBalanceRepo_GetForUpdateProductoInexistente(t *testing.T) {
	mock := newMock(t)
	mock.ExpectExec(`INSERT INTO stock_balances`).
		WithArgs("nope").
		WillReturnError(&pgconn.PgError{Code: "23503"})

	_, err := postgres.NewBalanceRepository(mock).GetForUpdate(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestBalanceRepo_Save(t *testing.T) {
	mock := newMock(t)
	mock.ExpectExec(`DO UPDATE SET quantity = EXCLUDED.quantity`).
		WithArgs("p-1", int64(9), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := postgres.NewBalanceRepository(mock).Save(context.Background(), &entity.Balance{ProductID: "p-1", Quantity: 9, UpdatedAt: time.Now()})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ──────────────────────────────────────────────────────────────────────────────
// LedgerRepo
// ──────────────────────────────────────────────────────────────────────────────

func TestLedgerRepo_AppendAsignaID(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery(`INSERT INTO stock_ledger .* RETURNING id`).
		WithArgs("p-1", "INBOUND", int64(5), pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(77)))

	e := &entity.LedgerEntry{ProductID: "p-1", Kind: entity.EntryKindInbound, Quantity: 5, OccurredAt: time.Now()}
	require.NoError(t, postgres.NewLedgerRepository(mock).Append(context.Background(), e))
	assert.Equal(t, int64(77), e.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerRepo_ListConFiltros(t *testing.T) {
	mock := newMock(t)
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 1, 31, 23, 59, 59, 0, time.UTC)
	t1 := time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(
		`AND kind = $2 AND occurred_at >= $3 AND occurred_at <= $4 ORDER BY occurred_at DESC, id DESC`)).
		WithArgs("p-1", "OUTBOUND", from, to).
		WillReturnRows(pgxmock.NewRows([]string{"id", "product_id", "kind", "quantity", "occurred_at"}).
			AddRow(int64(3), "p-1", "OUTBOUND", int64(2), t1).
			AddRow(int64(1), "p-1", "OUTBOUND", int64(4), t1))

	list, err := postgres.NewLedgerRepository(mock).List(context.Background(), repository.LedgerFilter{
		ProductID: "p-1", Kind: entity.EntryKindOutbound, From: &from, To: &to,
	})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, entity.EntryKindOutbound, list[0].Kind)
	assert.Equal(t, int64(3), list[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerRepo_ListVacioNoEsNil(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery(`FROM stock_ledger WHERE product_id = \$1 ORDER BY`).
		WithArgs("p-1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "product_id", "kind", "quantity", "occurred_at"}))

	list, err := postgres.NewLedgerRepository(mock).List(context.Background(), repository.LedgerFilter{ProductID: "p-1"})
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

// ──────────────────────────────────────────────────────────────────────────────
// TxRunner
// ──────────────────────────────────────────────────────────────────────────────

func TestTxRunner_RunCommit(t *testing.T) {
	mock := newMock(t)
	mock.ExpectBeginTx(pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	mock.ExpectExec(`INSERT INTO stock_balances`).WithArgs("p-1").WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectQuery(`FOR UPDATE`).WithArgs("p-1").
		WillReturnRows(pgxmock.NewRows(balanceCols).AddRow("p-1", int64(0), time.Now()))
	mock.ExpectCommit()

	err := postgres.NewTxRunner(mock).Run(context.Background(), func(_ repository.LedgerRepository, balances repository.BalanceRepository) error {
		_, err := balances.GetForUpdate(context.Background(), "p-1")
		return err
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTxRunner_RunRollbackEnError(t *testing.T) {
	mock := newMock(t)
	mock.ExpectBeginTx(pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	mock.ExpectRollback()
	boom := errors.New("boom")

	err := postgres.NewTxRunner(mock).Run(context.Background(), func(repository.LedgerRepository, repository.BalanceRepository) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTxRunner_RunReadOnlyUsaRepeatableRead(t *testing.T) {
	mock := newMock(t)
	mock.ExpectBeginTx(pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	mock.ExpectQuery(`FROM stock_balances WHERE product_id`).WithArgs("p-1").
		WillReturnRows(pgxmock.NewRows(balanceCols).AddRow("p-1", int64(95), time.Now()))
	mock.ExpectCommit()

	var qty int64
	err := postgres.NewTxRunner(mock).RunReadOnly(context.Background(), func(_ repository.LedgerRepository, balances repository.BalanceRepository) error {
		b, err := balances.Get(context.Background(), "p-1")
		if err != nil {
			return err
		}
		qty = b.Quantity
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, int64(95), qty)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ──────────────────────────────────────────────────────────────────────────────
// ProductRepo
// ──────────────────────────────────────────────────────────────────────────────

func TestProductRepo_CreateDuplicado(t *testing.T) {
	mock := newMock(t)
	mock.ExpectExec(`INSERT INTO products`).
		WithArgs("p-1", "Tuerca", "ferretería", pgxmock.AnyArg(), int64(2), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	err := postgres.NewProductRepository(mock).Create(context.Background(), &entity.Product{
		ID: "p-1", Name: "Tuerca", Category: "ferretería", UnitPrice: decimal.NewFromInt(3), SafetyStock: 2,
	})
	assert.ErrorIs(t, err, domain.ErrDuplicate)
}

func TestProductRepo_GetByIDInexistente(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery(`FROM products WHERE id = \$1`).WithArgs("nope").
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "category", "unit_price", "safety_stock", "created_at", "updated_at"}))

	p, err := postgres.NewProductRepository(mock).GetByID(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestProductRepo_UpdateInexistente(t *testing.T) {
	mock := newMock(t)
	mock.ExpectExec(`UPDATE products SET`).
		WithArgs("nope", "x", "", pgxmock.AnyArg(), int64(0), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := postgres.NewProductRepository(mock).Update(context.Background(), &entity.Product{ID: "nope", Name: "x", UpdatedAt: time.Now()})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestProductRepo_DeleteConStockSeRechaza(t *testing.T) {
	mock := newMock(t)
	mock.ExpectBeginTx(pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	mock.ExpectExec(`INSERT INTO stock_balances`).WithArgs("p-1").WillReturnResult(pgxmock.NewResult("INSERT", 0))
	mock.ExpectQuery(`FOR UPDATE`).WithArgs("p-1").
		WillReturnRows(pgxmock.NewRows(balanceCols).AddRow("p-1", int64(3), time.Now()))
	mock.ExpectRollback()

	err := postgres.NewProductRepository(mock).Delete(context.Background(), "p-1")
	assert.ErrorIs(t, err, domain.ErrStockRemaining)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepo_DeleteSinStockBorraEnCascada(t *testing.T) {
	mock := newMock(t)
	mock.ExpectBeginTx(pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	mock.ExpectExec(`INSERT INTO stock_balances`).WithArgs("p-1").WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectQuery(`FOR UPDATE`).WithArgs("p-1").
		WillReturnRows(pgxmock.NewRows(balanceCols).AddRow("p-1", int64(0), time.Now()))
	mock.ExpectExec(`DELETE FROM products WHERE id = \$1`).WithArgs("p-1").WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectCommit()

	require.NoError(t, postgres.NewProductRepository(mock).Delete(context.Background(), "p-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepo_DeleteInexistente(t *testing.T) {
	mock := newMock(t)
	mock.ExpectBeginTx(pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	mock.ExpectExec(`INSERT INTO stock_balances`).WithArgs("nope").WillReturnError(&pgconn.PgError{Code: "23503"})
	mock.ExpectRollback()

	err := postgres.NewProductRepository(mock).Delete(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
