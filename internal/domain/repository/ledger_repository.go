package repository

import (
	"context"
	"time"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// LedgerFilter criterios de consulta del libro. ProductID es obligatorio;
// Kind, From y To son opcionales (From/To inclusivos).
type LedgerFilter struct {
	ProductID string
	Kind      entity.EntryKind
	From      *time.Time
	To        *time.Time
}

// LedgerRepository define el puerto de persistencia append-only del libro de movimientos.
type LedgerRepository interface {
	// Append persiste la entrada y le asigna ID.
	Append(ctx context.Context, entry *entity.LedgerEntry) error
	// List devuelve las entradas ordenadas por OccurredAt DESC, ID DESC.
	List(ctx context.Context, filter LedgerFilter) ([]entity.LedgerEntry, error)
}
