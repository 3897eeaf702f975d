package inventory

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

// StockLedgerUseCase es el motor de inventario: registra entradas/salidas de forma transaccional
// (saldo + libro en la misma tx, con bloqueo del saldo del producto) y calcula estadísticas.
// Movimientos sobre productos distintos no comparten bloqueo.
type StockLedgerUseCase struct {
	txRunner    TxRunner
	products    ProductReader
	balances    repository.BalanceRepository
	ledger      repository.LedgerRepository
	idempotency IdempotencyStore
	publisher   EventPublisher
	log         zerolog.Logger
	now         func() time.Time
}

// NewStockLedgerUseCase construye el motor. idempotency y publisher pueden ser nil.
// balances y ledger se usan para lecturas fuera de transacción (pool).
func NewStockLedgerUseCase(
	txRunner TxRunner,
	products ProductReader,
	balances repository.BalanceRepository,
	ledger repository.LedgerRepository,
	idempotency IdempotencyStore,
	publisher EventPublisher,
	log zerolog.Logger,
) *StockLedgerUseCase {
	return &StockLedgerUseCase{
		txRunner:    txRunner,
		products:    products,
		balances:    balances,
		ledger:      ledger,
		idempotency: idempotency,
		publisher:   publisher,
		log:         log.With().Str("component", "stock_ledger").Logger(),
		now:         time.Now,
	}
}

// MovementInput entrada para registrar una entrada o salida.
// IdempotencyKey es opcional; si viene, los reintentos con la misma llave devuelven el primer resultado.
type MovementInput struct {
	ProductID      string
	Quantity       int64
	IdempotencyKey string
}

// OutboundResult resultado de una salida.
type OutboundResult struct {
	NewBalance       int64
	BelowSafetyStock bool
}

// HistoryQuery filtros del historial. Solo ProductID es obligatorio.
type HistoryQuery struct {
	ProductID string
	Kind      entity.EntryKind
	From      *time.Time
	To        *time.Time
}

// Inbound suma quantity al saldo del producto y registra una entrada INBOUND en la misma transacción.
//
// Retorna:
//   - domain.ErrInvalidQuantity  si quantity <= 0.
//   - domain.ErrProductNotFound  si el producto no existe en el catálogo.
func (uc *StockLedgerUseCase) Inbound(ctx context.Context, in MovementInput) (*entity.Balance, error) {
	if in.Quantity <= 0 {
		return nil, domain.ErrInvalidQuantity
	}
	key := idempotencyScope("inbound", in)
	return runIdempotent(ctx, uc.idempotency, uc.log, key, func() (*entity.Balance, error) {
		return uc.inbound(ctx, in)
	})
}

func (uc *StockLedgerUseCase) inbound(ctx context.Context, in MovementInput) (*entity.Balance, error) {
	product, err := uc.requireProduct(ctx, in.ProductID)
	if err != nil {
		return nil, err
	}

	var (
		result *entity.Balance
		entry  entity.LedgerEntry
	)
	err = uc.txRunner.Run(ctx, func(
		ledgerRepo repository.LedgerRepository,
		balanceRepo repository.BalanceRepository,
	) error {
		// Bloquea el saldo del producto hasta Commit/Rollback
		balance, err := balanceRepo.GetForUpdate(ctx, in.ProductID)
		if err != nil {
			return err
		}
		// Sellado con el saldo ya bloqueado: OccurredAt sigue el orden de aplicación
		now := uc.now().UTC()
		if balance.Quantity > math.MaxInt64-in.Quantity {
			return domain.ErrInvalidQuantity
		}
		balance.Quantity += in.Quantity
		balance.UpdatedAt = now
		if err := balanceRepo.Save(ctx, balance); err != nil {
			return err
		}
		entry = entity.LedgerEntry{
			ProductID:  in.ProductID,
			Kind:       entity.EntryKindInbound,
			Quantity:   in.Quantity,
			OccurredAt: now,
		}
		if err := ledgerRepo.Append(ctx, &entry); err != nil {
			return err
		}
		result = balance
		return nil
	})
	if err != nil {
		uc.logFailure(err, "inbound", in)
		return nil, err
	}

	uc.afterCommit(entry, result.Quantity, product)
	return result, nil
}

// Outbound resta quantity del saldo y registra una salida OUTBOUND en la misma transacción.
// La verificación de stock suficiente ocurre con el saldo bloqueado.
//
// Retorna:
//   - domain.ErrInvalidQuantity   si quantity <= 0.
//   - domain.ErrProductNotFound   si el producto no existe.
//   - domain.ErrInsufficientStock si el saldo es menor que quantity (saldo y libro sin cambios).
func (uc *StockLedgerUseCase) Outbound(ctx context.Context, in MovementInput) (*OutboundResult, error) {
	if in.Quantity <= 0 {
		return nil, domain.ErrInvalidQuantity
	}
	key := idempotencyScope("outbound", in)
	return runIdempotent(ctx, uc.idempotency, uc.log, key, func() (*OutboundResult, error) {
		return uc.outbound(ctx, in)
	})
}

func (uc *StockLedgerUseCase) outbound(ctx context.Context, in MovementInput) (*OutboundResult, error) {
	product, err := uc.requireProduct(ctx, in.ProductID)
	if err != nil {
		return nil, err
	}

	var (
		newBalance int64
		entry      entity.LedgerEntry
	)
	err = uc.txRunner.Run(ctx, func(
		ledgerRepo repository.LedgerRepository,
		balanceRepo repository.BalanceRepository,
	) error {
		balance, err := balanceRepo.GetForUpdate(ctx, in.ProductID)
		if err != nil {
			return err
		}
		// Sellado con el saldo ya bloqueado: OccurredAt sigue el orden de aplicación
		now := uc.now().UTC()
		if balance.Quantity < in.Quantity {
			return fmt.Errorf("%w: disponible %d, solicitado %d",
				domain.ErrInsufficientStock, balance.Quantity, in.Quantity)
		}
		balance.Quantity -= in.Quantity
		balance.UpdatedAt = now
		if err := balanceRepo.Save(ctx, balance); err != nil {
			return err
		}
		entry = entity.LedgerEntry{
			ProductID:  in.ProductID,
			Kind:       entity.EntryKindOutbound,
			Quantity:   in.Quantity,
			OccurredAt: now,
		}
		if err := ledgerRepo.Append(ctx, &entry); err != nil {
			return err
		}
		newBalance = balance.Quantity
		return nil
	})
	if err != nil {
		uc.logFailure(err, "outbound", in)
		return nil, err
	}

	uc.afterCommit(entry, newBalance, product)
	return &OutboundResult{
		NewBalance:       newBalance,
		BelowSafetyStock: entity.IsBelowSafetyStock(newBalance, product.SafetyStock),
	}, nil
}

// History devuelve los movimientos del producto, más recientes primero (empates por ID descendente).
// Un producto desconocido devuelve una lista vacía.
func (uc *StockLedgerUseCase) History(ctx context.Context, q HistoryQuery) ([]entity.LedgerEntry, error) {
	if q.ProductID == "" {
		return nil, domain.ErrInvalidInput
	}
	if q.Kind != "" && !q.Kind.Valid() {
		return nil, domain.ErrInvalidInput
	}
	if q.From != nil && q.To != nil && q.From.After(*q.To) {
		return nil, domain.ErrInvalidRange
	}
	entries, err := uc.ledger.List(ctx, repository.LedgerFilter{
		ProductID: q.ProductID,
		Kind:      q.Kind,
		From:      q.From,
		To:        q.To,
	})
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []entity.LedgerEntry{}
	}
	return entries, nil
}

// StatusList devuelve el estado de stock de todos los productos del catálogo (saldo 0 si nunca se movió).
func (uc *StockLedgerUseCase) StatusList(ctx context.Context) ([]entity.StockStatus, error) {
	return uc.projectStatus(ctx, false)
}

// BelowSafetyStockList devuelve solo los productos con saldo estrictamente menor que su stock de seguridad.
func (uc *StockLedgerUseCase) BelowSafetyStockList(ctx context.Context) ([]entity.StockStatus, error) {
	return uc.projectStatus(ctx, true)
}

// projectStatus une catálogo y saldos en una sola pasada indexada por producto.
func (uc *StockLedgerUseCase) projectStatus(ctx context.Context, onlyBelow bool) ([]entity.StockStatus, error) {
	products, err := uc.products.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listar productos: %w", err)
	}
	balances, err := uc.balances.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listar saldos: %w", err)
	}

	qtyByProduct := make(map[string]int64, len(balances))
	for _, b := range balances {
		qtyByProduct[b.ProductID] = b.Quantity
	}

	out := make([]entity.StockStatus, 0, len(products))
	for _, p := range products {
		status := entity.NewStockStatus(p, qtyByProduct[p.ID])
		if onlyBelow && !status.BelowSafetyStock {
			continue
		}
		out = append(out, status)
	}
	return out, nil
}

// Statistics calcula totales de entradas/salidas en [start, end], saldo actual y rotación.
// Saldo y movimientos se leen de la misma instantánea.
//
// Retorna domain.ErrInvalidRange si start es posterior a end.
func (uc *StockLedgerUseCase) Statistics(ctx context.Context, productID string, start, end time.Time) (*entity.InventoryStatistics, error) {
	if productID == "" {
		return nil, domain.ErrInvalidInput
	}
	if start.After(end) {
		return nil, domain.ErrInvalidRange
	}

	var (
		entries []entity.LedgerEntry
		current int64
	)
	err := uc.txRunner.RunReadOnly(ctx, func(
		ledgerRepo repository.LedgerRepository,
		balanceRepo repository.BalanceRepository,
	) error {
		balance, err := balanceRepo.Get(ctx, productID)
		if err != nil {
			return err
		}
		current = balance.Quantity
		entries, err = ledgerRepo.List(ctx, repository.LedgerFilter{
			ProductID: productID,
			From:      &start,
			To:        &end,
		})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("estadísticas de inventario: %w", err)
	}

	stats := inventory.CalculateStatistics(entries, current)
	stats.ProductID = productID
	stats.StartDate = start
	stats.EndDate = end
	return &stats, nil
}

// CanDeleteProduct true si el saldo del producto es exactamente 0.
// El catálogo debe consultarlo antes de eliminar un producto.
func (uc *StockLedgerUseCase) CanDeleteProduct(ctx context.Context, productID string) (bool, error) {
	balance, err := uc.balances.Get(ctx, productID)
	if err != nil {
		return false, err
	}
	return balance.Quantity == 0, nil
}

func (uc *StockLedgerUseCase) requireProduct(ctx context.Context, productID string) (*entity.Product, error) {
	if productID == "" {
		return nil, domain.ErrProductNotFound
	}
	product, err := uc.products.GetByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("obtener producto: %w", err)
	}
	if product == nil {
		return nil, domain.ErrProductNotFound
	}
	return product, nil
}

// afterCommit registra el movimiento y lo publica. Nunca falla el movimiento.
func (uc *StockLedgerUseCase) afterCommit(entry entity.LedgerEntry, balance int64, product *entity.Product) {
	below := entity.IsBelowSafetyStock(balance, product.SafetyStock)
	uc.log.Debug().
		Int64("entry_id", entry.ID).
		Str("product_id", entry.ProductID).
		Str("kind", string(entry.Kind)).
		Int64("quantity", entry.Quantity).
		Int64("balance", balance).
		Msg("movimiento registrado")
	if below && entry.Kind == entity.EntryKindOutbound {
		uc.log.Warn().
			Str("product_id", entry.ProductID).
			Int64("balance", balance).
			Int64("safety_stock", product.SafetyStock).
			Msg("stock por debajo del stock de seguridad")
	}
	if uc.publisher != nil {
		uc.publisher.Publish(newStockEvent(entry, balance, product))
	}
}

// logFailure deja en nivel error solo lo que no es un rechazo de negocio.
func (uc *StockLedgerUseCase) logFailure(err error, op string, in MovementInput) {
	if domain.IsBadInput(err) || domain.IsStateConflict(err) || domain.IsNotFound(err) {
		return
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		uc.log.Warn().Err(err).Str("op", op).Str("product_id", in.ProductID).Msg("movimiento cancelado")
		return
	}
	uc.log.Error().Err(err).Str("op", op).Str("product_id", in.ProductID).Msg("movimiento fallido")
}
