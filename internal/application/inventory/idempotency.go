package inventory

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/jhoicas/stock-ledger/internal/domain"
)

// idempotencyScope acota la llave del cliente a la operación, el producto y la cantidad.
// Reusar la llave con otra cantidad es otra solicitud y no repite el resultado anterior.
func idempotencyScope(op string, in MovementInput) string {
	if in.IdempotencyKey == "" {
		return ""
	}
	return fmt.Sprintf("stock:%s:%s:%d:%s", op, in.ProductID, in.Quantity, in.IdempotencyKey)
}

// runIdempotent ejecuta fn a lo sumo una vez por llave mientras la llave viva en el store.
//   - Primera llamada: reserva, ejecuta y guarda el resultado (o libera la llave si falla).
//   - Llamada repetida con resultado guardado: devuelve ese resultado sin ejecutar fn.
//   - Llamada repetida mientras la primera sigue en curso: domain.ErrRequestInProgress.
func runIdempotent[T any](
	ctx context.Context,
	store IdempotencyStore,
	log zerolog.Logger,
	key string,
	fn func() (T, error),
) (T, error) {
	var zero T
	if store == nil || key == "" {
		return fn()
	}

	reserved, err := store.Reserve(ctx, key)
	if err != nil {
		return zero, fmt.Errorf("idempotencia: reservar llave: %w", err)
	}
	if !reserved {
		cached, err := store.Lookup(ctx, key)
		if err != nil {
			return zero, fmt.Errorf("idempotencia: consultar llave: %w", err)
		}
		if cached == nil {
			return zero, domain.ErrRequestInProgress
		}
		var out T
		if err := json.Unmarshal(cached, &out); err != nil {
			return zero, fmt.Errorf("idempotencia: decodificar resultado: %w", err)
		}
		log.Debug().Str("key", key).Msg("resultado idempotente reutilizado")
		return out, nil
	}

	// La liberación/registro no debe depender de la cancelación del request
	detached := context.WithoutCancel(ctx)

	out, err := fn()
	if err != nil {
		if relErr := store.Release(detached, key); relErr != nil {
			log.Error().Err(relErr).Str("key", key).Msg("idempotencia: liberar llave")
		}
		return zero, err
	}

	payload, err := json.Marshal(out)
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("idempotencia: codificar resultado")
		return out, nil
	}
	if err := store.Complete(detached, key, payload); err != nil {
		log.Error().Err(err).Str("key", key).Msg("idempotencia: guardar resultado")
	}
	return out, nil
}
