package repository

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// BalanceRepository define el puerto para consultar/actualizar el saldo por producto.
// Get y GetForUpdate nunca devuelven nil: un producto sin fila tiene saldo 0.
type BalanceRepository interface {
	Get(ctx context.Context, productID string) (*entity.Balance, error)
	// GetForUpdate bloquea el saldo del producto hasta el fin de la transacción.
	// Solo es válido dentro de TxRunner.Run.
	GetForUpdate(ctx context.Context, productID string) (*entity.Balance, error)
	Save(ctx context.Context, balance *entity.Balance) error
	List(ctx context.Context) ([]*entity.Balance, error)
}
