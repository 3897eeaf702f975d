package memory_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/memory"
)

func seedProduct(t *testing.T, s *memory.Store, id string) {
	t.Helper()
	require.NoError(t, s.Products().Create(context.Background(), &entity.Product{ID: id, Name: id}))
}

func TestTxRunner_RollbackDescartaEscrituras(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	seedProduct(t, s, "p-1")
	boom := errors.New("boom")

	err := s.TxRunner().Run(ctx, func(ledger repository.LedgerRepository, balances repository.BalanceRepository) error {
		b, err := balances.GetForUpdate(ctx, "p-1")
		require.NoError(t, err)
		b.Quantity = 10
		require.NoError(t, balances.Save(ctx, b))
		require.NoError(t, ledger.Append(ctx, &entity.LedgerEntry{ProductID: "p-1", Kind: entity.EntryKindInbound, Quantity: 10, OccurredAt: time.Now()}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	b, err := s.Balances().Get(ctx, "p-1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), b.Quantity)
	entries, err := s.Ledger().List(ctx, repository.LedgerFilter{ProductID: "p-1"})
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestTxRunner_CommitHaceVisibleSaldoYLibro(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	seedProduct(t, s, "p-1")

	var entryID int64
	err := s.TxRunner().Run(ctx, func(ledger repository.LedgerRepository, balances repository.BalanceRepository) error {
		b, err := balances.GetForUpdate(ctx, "p-1")
		if err != nil {
			return err
		}
		b.Quantity += 7
		if err := balances.Save(ctx, b); err != nil {
			return err
		}
		e := &entity.LedgerEntry{ProductID: "p-1", Kind: entity.EntryKindInbound, Quantity: 7, OccurredAt: time.Now()}
		if err := ledger.Append(ctx, e); err != nil {
			return err
		}
		entryID = e.ID
		return nil
	})
	require.NoError(t, err)
	assert.Positive(t, entryID)

	b, _ := s.Balances().Get(ctx, "p-1")
	assert.Equal(t, int64(7), b.Quantity)
	entries, _ := s.Ledger().List(ctx, repository.LedgerFilter{ProductID: "p-1"})
	require.Len(t, entries, 1)
	assert.Equal(t, entryID, entries[0].ID)
}

func TestTxRunner_BloqueoPorProductoSerializa(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	seedProduct(t, s, "p-1")

	const workers = 40
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.TxRunner().Run(ctx, func(_ repository.LedgerRepository, balances repository.BalanceRepository) error {
				b, err := balances.GetForUpdate(ctx, "p-1")
				if err != nil {
					return err
				}
				b.Quantity++
				return balances.Save(ctx, b)
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	b, _ := s.Balances().Get(ctx, "p-1")
	assert.Equal(t, int64(workers), b.Quantity, "ningún incremento debe perderse")
}

func TestTxRunner_GetForUpdateRespetaCancelacion(t *testing.T) {
	s := memory.New()
	seedProduct(t, s, "p-1")
	holding := make(chan struct{})
	done := make(chan struct{})

	go func() {
		_ = s.TxRunner().Run(context.Background(), func(_ repository.LedgerRepository, balances repository.BalanceRepository) error {
			_, err := balances.GetForUpdate(context.Background(), "p-1")
			close(holding)
			<-done
			return err
		})
	}()
	<-holding

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := s.TxRunner().Run(ctx, func(_ repository.LedgerRepository, balances repository.BalanceRepository) error {
		_, err := balances.GetForUpdate(ctx, "p-1")
		return err
	})
	close(done)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestGetForUpdate_FueraDeTransaccionFalla(t *testing.T) {
	s := memory.New()
	_, err := s.Balances().GetForUpdate(context.Background(), "p-1")
	assert.Error(t, err)
}

func TestLedgerList_OrdenYFiltros(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	ledger := s.Ledger()
	t0 := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	// Dos entradas con el mismo instante: desempata el ID
	e1 := &entity.LedgerEntry{ProductID: "p-1", Kind: entity.EntryKindInbound, Quantity: 5, OccurredAt: t0}
	e2 := &entity.LedgerEntry{ProductID: "p-1", Kind: entity.EntryKindOutbound, Quantity: 2, OccurredAt: t0}
	e3 := &entity.LedgerEntry{ProductID: "p-1", Kind: entity.EntryKindInbound, Quantity: 1, OccurredAt: t0.Add(time.Hour)}
	other := &entity.LedgerEntry{ProductID: "p-2", Kind: entity.EntryKindInbound, Quantity: 9, OccurredAt: t0}
	for _, e := range []*entity.LedgerEntry{e1, e2, e3, other} {
		require.NoError(t, ledger.Append(ctx, e))
	}

	all, err := ledger.List(ctx, repository.LedgerFilter{ProductID: "p-1"})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []int64{e3.ID, e2.ID, e1.ID}, []int64{all[0].ID, all[1].ID, all[2].ID})

	inbound, _ := ledger.List(ctx, repository.LedgerFilter{ProductID: "p-1", Kind: entity.EntryKindInbound})
	assert.Len(t, inbound, 2)

	// Límites inclusivos
	from, to := t0, t0
	window, _ := ledger.List(ctx, repository.LedgerFilter{ProductID: "p-1", From: &from, To: &to})
	assert.Len(t, window, 2)

	unknown, _ := ledger.List(ctx, repository.LedgerFilter{ProductID: "nope"})
	assert.Empty(t, unknown)
}

func TestProductDelete_ConStockYEnCascada(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	seedProduct(t, s, "p-1")
	require.NoError(t, s.Balances().Save(ctx, &entity.Balance{ProductID: "p-1", Quantity: 3}))
	require.NoError(t, s.Ledger().Append(ctx, &entity.LedgerEntry{ProductID: "p-1", Kind: entity.EntryKindInbound, Quantity: 3, OccurredAt: time.Now()}))

	assert.ErrorIs(t, s.Products().Delete(ctx, "p-1"), domain.ErrStockRemaining)

	require.NoError(t, s.Balances().Save(ctx, &entity.Balance{ProductID: "p-1", Quantity: 0}))
	require.NoError(t, s.Products().Delete(ctx, "p-1"))

	p, err := s.Products().GetByID(ctx, "p-1")
	require.NoError(t, err)
	assert.Nil(t, p)
	entries, _ := s.Ledger().List(ctx, repository.LedgerFilter{ProductID: "p-1"})
	assert.Empty(t, entries)
	balances, _ := s.Balances().List(ctx)
	assert.Empty(t, balances)

	assert.ErrorIs(t, s.Products().Delete(ctx, "p-1"), domain.ErrNotFound)
}

func TestProductDelete_EsperaLaTransaccionEnCurso(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	seedProduct(t, s, "p-1")
	deleted := make(chan error, 1)

	err := s.TxRunner().Run(ctx, func(_ repository.LedgerRepository, balances repository.BalanceRepository) error {
		b, err := balances.GetForUpdate(ctx, "p-1")
		if err != nil {
			return err
		}
		// El borrado concurrente queda esperando el bloqueo del producto
		go func() { deleted <- s.Products().Delete(context.Background(), "p-1") }()
		b.Quantity = 4
		return balances.Save(ctx, b)
	})
	require.NoError(t, err)

	assert.ErrorIs(t, <-deleted, domain.ErrStockRemaining)
	p, _ := s.Products().GetByID(ctx, "p-1")
	assert.NotNil(t, p)
}

func TestProductRepository_CRUD(t *testing.T) {
	ctx := context.Background()
	repo := memory.New().Products()

	require.NoError(t, repo.Create(ctx, &entity.Product{ID: "b", Name: "Tornillo"}))
	require.NoError(t, repo.Create(ctx, &entity.Product{ID: "a", Name: "Arandela"}))
	assert.ErrorIs(t, repo.Create(ctx, &entity.Product{ID: "a"}), domain.ErrDuplicate)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Arandela", list[0].Name)

	require.NoError(t, repo.Update(ctx, &entity.Product{ID: "a", Name: "Arandela 3/8", SafetyStock: 5}))
	p, _ := repo.GetByID(ctx, "a")
	assert.Equal(t, int64(5), p.SafetyStock)
	assert.ErrorIs(t, repo.Update(ctx, &entity.Product{ID: "x"}), domain.ErrNotFound)
}

func TestIdempotencyStore_CicloDeVida(t *testing.T) {
	ctx := context.Background()
	s := memory.NewIdempotencyStore(time.Hour)

	ok, err := s.Reserve(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, _ = s.Reserve(ctx, "k")
	assert.False(t, ok, "segunda reserva debe fallar")
	res, _ := s.Lookup(ctx, "k")
	assert.Nil(t, res, "en curso no tiene resultado")

	require.NoError(t, s.Complete(ctx, "k", []byte(`{"x":1}`)))
	res, _ = s.Lookup(ctx, "k")
	assert.JSONEq(t, `{"x":1}`, string(res))

	require.NoError(t, s.Release(ctx, "k"))
	ok, _ = s.Reserve(ctx, "k")
	assert.True(t, ok)
}

func TestIdempotencyStore_BorraLlavesVencidas(t *testing.T) {
	ctx := context.Background()
	s := memory.NewIdempotencyStore(time.Hour)
	now := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	s.SetClock(func() time.Time { return now })

	for _, k := range []string{"a", "b", "c"} {
		ok, err := s.Reserve(ctx, k)
		require.NoError(t, err)
		require.True(t, ok)
	}
	require.NoError(t, s.Complete(ctx, "a", []byte(`{}`)))
	assert.Equal(t, 3, s.Len())

	now = now.Add(2 * time.Hour)
	res, err := s.Lookup(ctx, "a")
	require.NoError(t, err)
	assert.Nil(t, res, "vencida no devuelve resultado")

	ok, err := s.Reserve(ctx, "d")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, s.Len(), "solo queda la llave nueva")
}
