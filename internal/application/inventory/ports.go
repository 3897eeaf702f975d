package inventory

import (
	"context"
	"time"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Garantiza atomicidad para el motor de inventario: saldo y libro se confirman juntos o ninguno.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		ledgerRepo repository.LedgerRepository,
		balanceRepo repository.BalanceRepository,
	) error) error
	// RunReadOnly ejecuta fn sobre una instantánea consistente (sin bloqueos de escritura).
	RunReadOnly(ctx context.Context, fn func(
		ledgerRepo repository.LedgerRepository,
		balanceRepo repository.BalanceRepository,
	) error) error
}

// ProductReader es lo único que el motor consume del catálogo de productos.
// GetByID devuelve (nil, nil) si el producto no existe.
type ProductReader interface {
	GetByID(ctx context.Context, id string) (*entity.Product, error)
	List(ctx context.Context) ([]*entity.Product, error)
}

// EventPublisher recibe los movimientos ya confirmados. No debe bloquear.
type EventPublisher interface {
	Publish(event StockEvent)
}

// IdempotencyStore guarda el resultado de movimientos identificados por una llave del cliente.
type IdempotencyStore interface {
	// Reserve marca la llave como "en curso"; false si ya existía.
	Reserve(ctx context.Context, key string) (bool, error)
	// Lookup devuelve el resultado guardado, o nil si la llave sigue en curso o no existe.
	Lookup(ctx context.Context, key string) ([]byte, error)
	// Complete guarda el resultado final de la llave.
	Complete(ctx context.Context, key string, result []byte) error
	// Release libera la llave tras un fallo para permitir el reintento.
	Release(ctx context.Context, key string) error
}

// StockReportGenerator genera la representación PDF del estado de stock.
type StockReportGenerator interface {
	GenerateStatusReport(ctx context.Context, rows []entity.StockStatus, generatedAt time.Time) ([]byte, error)
}
