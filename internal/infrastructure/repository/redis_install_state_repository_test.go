package repository

import (
	"context"
	"testing"
	"time"

	"shopify-auth-layer/internal/domain"

	"github.com/jonboulle/clockwork"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRedis implements the two commands the repository uses
type fakeRedis struct {
	goredis.Cmdable
	values map[string]string
	ttls   map[string]time.Duration
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeRedis) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *goredis.StatusCmd {
	cmd := goredis.NewStatusCmd(ctx)
	f.values[key] = string(value.([]byte))
	f.ttls[key] = expiration
	cmd.SetVal("OK")
	return cmd
}

func (f *fakeRedis) GetDel(ctx context.Context, key string) *goredis.StringCmd {
	cmd := goredis.NewStringCmd(ctx)
	v, ok := f.values[key]
	if !ok {
		cmd.SetErr(goredis.Nil)
		return cmd
	}
	delete(f.values, key)
	cmd.SetVal(v)
	return cmd
}

func TestRedisInstallStateRepository_SaveConsume(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	rdb := newFakeRedis()
	repo := NewRedisInstallStateRepository(rdb, clockwork.NewFakeClockAt(now))

	state := &domain.InstallState{
		Shop:      "acme.myshopify.com",
		State:     "abc123",
		Scopes:    []string{"read_products"},
		ReturnURL: "https://admin.example.com",
		ExpiresAt: now.Add(domain.InstallStateTTL),
		CreatedAt: now,
	}
	require.NoError(t, repo.Save(ctx, state))
	assert.Equal(t, domain.InstallStateTTL, rdb.ttls["shopify:install:abc123"])

	got, err := repo.Consume(ctx, "abc123")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, state.Shop, got.Shop)
	assert.Equal(t, state.Scopes, got.Scopes)
	assert.True(t, state.ExpiresAt.Equal(got.ExpiresAt))

	again, err := repo.Consume(ctx, "abc123")
	require.NoError(t, err)
	assert.Nil(t, again)
}

func TestRedisInstallStateRepository_SaveExpired(t *testing.T) {
	clock := clockwork.NewFakeClock()
	repo := NewRedisInstallStateRepository(newFakeRedis(), clock)
	state := &domain.InstallState{State: "x", ExpiresAt: clock.Now().Add(time.Minute)}

	clock.Advance(time.Minute)
	err := repo.Save(context.Background(), state)
	assert.Error(t, err)
}
