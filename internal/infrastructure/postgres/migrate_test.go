package postgres

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitStatements(t *testing.T) {
	script := "CREATE TABLE a (x INT);\n\n  CREATE INDEX i ON a (x);\nSELECT 1;"
	assert.Equal(t, []string{"CREATE TABLE a (x INT)", "CREATE INDEX i ON a (x)", "SELECT 1"}, splitStatements(script))
}

func TestMigrationsEmbebidas(t *testing.T) {
	body, err := migrationFS.ReadFile("migrations/0001_create_stock_ledger.sql")
	require.NoError(t, err)
	stmts := splitStatements(string(body))
	assert.Len(t, stmts, 5)
	assert.Contains(t, stmts[3], "stock_ledger")
}

func TestMigrate_VersionYaAplicada(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS schema_migrations`).WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectBeginTx(pgx.TxOptions{})
	mock.ExpectExec(`pg_advisory_xact_lock`).WithArgs(migrationLockID).WillReturnResult(pgxmock.NewResult("SELECT", 1))
	mock.ExpectQuery(`SELECT EXISTS`).WithArgs("0001_create_stock_ledger").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectRollback()

	require.NoError(t, Migrate(context.Background(), mock, zerolog.Nop()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
