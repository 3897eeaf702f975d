// Package storage arma los adaptadores de persistencia según STORE_DRIVER.
package storage

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/memory"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/mysql"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/postgres"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/redis"
	"github.com/jhoicas/stock-ledger/pkg/config"
)

// Stores repositorios y runner de transacciones de un mismo almacén.
type Stores struct {
	Driver      string
	TxRunner    inventory.TxRunner
	Products    repository.ProductRepository
	Balances    repository.BalanceRepository
	Ledger      repository.LedgerRepository
	Idempotency inventory.IdempotencyStore

	closers []func()
}

// Close libera conexiones en orden inverso a su apertura.
func (s *Stores) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// Open conecta el almacén configurado y, si DB.AutoMigrate, aplica las migraciones.
// Con Redis.Addr vacío las llaves de idempotencia viven en memoria del proceso.
func Open(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Stores, error) {
	s := &Stores{Driver: cfg.DB.Driver}

	switch cfg.DB.Driver {
	case config.DriverPostgres:
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			return nil, fmt.Errorf("conexión a PostgreSQL: %w", err)
		}
		s.closers = append(s.closers, pool.Close)
		if cfg.DB.AutoMigrate {
			if err := postgres.Migrate(ctx, pool, log); err != nil {
				s.Close()
				return nil, fmt.Errorf("migraciones PostgreSQL: %w", err)
			}
		}
		s.TxRunner = postgres.NewTxRunner(pool)
		s.Products = postgres.NewProductRepository(pool)
		s.Balances = postgres.NewBalanceRepository(pool)
		s.Ledger = postgres.NewLedgerRepository(pool)

	case config.DriverMySQL:
		db, err := mysql.Open(ctx, cfg.MySQL.DSN)
		if err != nil {
			return nil, fmt.Errorf("conexión a MySQL: %w", err)
		}
		s.closers = append(s.closers, func() { _ = db.Close() })
		if cfg.DB.AutoMigrate {
			if err := mysql.Migrate(ctx, db, log); err != nil {
				s.Close()
				return nil, fmt.Errorf("migraciones MySQL: %w", err)
			}
		}
		s.TxRunner = mysql.NewTxRunner(db)
		s.Products = mysql.NewProductRepository(db)
		s.Balances = mysql.NewBalanceRepository(db)
		s.Ledger = mysql.NewLedgerRepository(db)

	case config.DriverMemory:
		mem := memory.New()
		s.TxRunner = mem.TxRunner()
		s.Products = mem.Products()
		s.Balances = mem.Balances()
		s.Ledger = mem.Ledger()

	default:
		return nil, fmt.Errorf("driver de almacén desconocido: %q", cfg.DB.Driver)
	}

	if cfg.Redis.Addr != "" {
		client, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("conexión a Redis: %w", err)
		}
		s.closers = append(s.closers, func() { _ = client.Close() })
		s.Idempotency = redis.NewIdempotencyStore(client, cfg.Idempotency.TTL)
	} else {
		s.Idempotency = memory.NewIdempotencyStore(cfg.Idempotency.TTL)
	}

	log.Info().
		Str("driver", s.Driver).
		Bool("redis", cfg.Redis.Addr != "").
		Msg("almacén listo")
	return s, nil
}
