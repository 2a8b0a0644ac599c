package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"shopify-auth-layer/internal/domain"
	"shopify-auth-layer/internal/ports"

	"github.com/jonboulle/clockwork"
	goredis "github.com/redis/go-redis/v9"
)

const installStateKeyPrefix = "shopify:install:"

// RedisInstallStateRepository stores pending OAuth handshakes in Redis.
// Keys expire with the state so abandoned installs clean themselves up.
type RedisInstallStateRepository struct {
	rdb   goredis.Cmdable
	clock clockwork.Clock
}

// NewRedisInstallStateRepository creates a new Redis install state repository
func NewRedisInstallStateRepository(rdb goredis.Cmdable, clock clockwork.Clock) *RedisInstallStateRepository {
	return &RedisInstallStateRepository{rdb: rdb, clock: clock}
}

var _ ports.InstallStateRepository = (*RedisInstallStateRepository)(nil)

func installStateKey(state string) string {
	return installStateKeyPrefix + state
}

// Save stores the state until its ExpiresAt
func (r *RedisInstallStateRepository) Save(ctx context.Context, state *domain.InstallState) error {
	ttl := state.ExpiresAt.Sub(r.clock.Now())
	if ttl <= 0 {
		return fmt.Errorf("install state for %s already expired", state.Shop)
	}

	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal install state: %w", err)
	}

	if err := r.rdb.Set(ctx, installStateKey(state.State), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to save install state: %w", err)
	}
	return nil
}

// Consume fetches and deletes the state atomically
func (r *RedisInstallStateRepository) Consume(ctx context.Context, state string) (*domain.InstallState, error) {
	data, err := r.rdb.GetDel(ctx, installStateKey(state)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to consume install state: %w", err)
	}

	var installState domain.InstallState
	if err := json.Unmarshal(data, &installState); err != nil {
		return nil, fmt.Errorf("failed to unmarshal install state: %w", err)
	}
	return &installState, nil
}
