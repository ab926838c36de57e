// Package redisstate implements ports.StateStore over go-redis, letting
// a restarted engine recover its smoothing/hysteresis state instead of
// re-running STARTUP_ITERATIONS cold (REDIS_ADDR, optional).
package redisstate

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rotem-industrial/pump-pdm/ports"
)

const keyPrefix = "pump-pdm:state:"
const ttl = 24 * time.Hour

// Store persists serialized predictor state keyed by pump ID.
type Store struct {
	client *redis.Client
}

// New connects to addr and verifies reachability with a PING.
func New(ctx context.Context, addr string) (*Store, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("connect redis state store: %w", err)
	}
	return &Store{client: client}, nil
}

// SaveState implements ports.StateStore.
func (s *Store) SaveState(ctx context.Context, pumpID string, state []byte) error {
	if err := s.client.Set(ctx, keyPrefix+pumpID, state, ttl).Err(); err != nil {
		return fmt.Errorf("save predictor state for %s: %w", pumpID, err)
	}
	return nil
}

// LoadState implements ports.StateStore. A missing key is not an error:
// it just means a cold start.
func (s *Store) LoadState(ctx context.Context, pumpID string) ([]byte, bool, error) {
	val, err := s.client.Get(ctx, keyPrefix+pumpID).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load predictor state for %s: %w", pumpID, err)
	}
	return val, true, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.client.Close()
}

var _ ports.StateStore = (*Store)(nil)
