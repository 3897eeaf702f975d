package redis

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	idempotencyKeyPrefix = "idem:"
	pendingMarker        = "PENDING"
	donePrefix           = "DONE:"
	defaultTTL           = 24 * time.Hour
)

// IdempotencyStore guarda las llaves de idempotencia en Redis para que varias instancias del API
// compartan el mismo registro. La reserva usa SETNX.
type IdempotencyStore struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewIdempotencyStore construye el store; ttl <= 0 equivale a 24h.
func NewIdempotencyStore(client redis.UniversalClient, ttl time.Duration) *IdempotencyStore {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &IdempotencyStore{client: client, ttl: ttl}
}

// NewClient crea el cliente y verifica la conexión.
func NewClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
		PoolSize: 50,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

// Reserve marca la llave como en curso; false si ya existía.
func (s *IdempotencyStore) Reserve(ctx context.Context, key string) (bool, error) {
	return s.client.SetNX(ctx, idempotencyKeyPrefix+key, pendingMarker, s.ttl).Result()
}

// Lookup devuelve el resultado guardado; nil si la llave está en curso o no existe.
func (s *IdempotencyStore) Lookup(ctx context.Context, key string) ([]byte, error) {
	val, err := s.client.Get(ctx, idempotencyKeyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !strings.HasPrefix(val, donePrefix) {
		return nil, nil
	}
	return []byte(strings.TrimPrefix(val, donePrefix)), nil
}

// Complete reemplaza la marca por el resultado y renueva el TTL.
func (s *IdempotencyStore) Complete(ctx context.Context, key string, result []byte) error {
	return s.client.Set(ctx, idempotencyKeyPrefix+key, donePrefix+string(result), s.ttl).Err()
}

// Release borra la llave para permitir el reintento.
func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	return s.client.Del(ctx, idempotencyKeyPrefix+key).Err()
}
