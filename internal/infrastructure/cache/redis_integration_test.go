//go:build integration

package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/erp/wholesale/internal/domain/bookkeeping"
	"github.com/erp/wholesale/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func newRedis(t *testing.T) *redis.Client {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err, "Failed to start Redis container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	addr, err := container.Endpoint(ctx, "")
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Ping(ctx).Err())
	return client
}

func TestRedisSequencer_Integration(t *testing.T) {
	client := newRedis(t)
	seq := NewRedisSequencer(client, trade.DefaultNumberFormat())
	ctx := context.Background()
	scope := trade.OrderNumberScope(uuid.New())

	const workers = 20
	numbers := make(chan string, workers)
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := seq.NextNumber(ctx, scope)
			assert.NoError(t, err)
			numbers <- n
		}()
	}
	wg.Wait()
	close(numbers)

	seen := make(map[string]bool)
	for n := range numbers {
		assert.False(t, seen[n], "duplicate number %s", n)
		seen[n] = true
	}
	assert.Len(t, seen, workers)
	assert.True(t, seen["SO-000020"])

	require.NoError(t, seq.Seed(ctx, scope, 100))
	require.NoError(t, seq.Seed(ctx, scope, 50))
	next, err := seq.NextNumber(ctx, scope)
	require.NoError(t, err)
	assert.Equal(t, "SO-000101", next)
}

func TestRedisChartCache_Integration(t *testing.T) {
	client := newRedis(t)
	storeID := uuid.New()
	source := new(mockMappingSource)
	source.On("FindByStore", mock.Anything, storeID).Return(storeMappings(storeID), nil).Once()

	chart := NewRedisChartCache(client, source, time.Minute, nil)
	ctx := context.Background()

	for range 3 {
		code, err := chart.ResolveMerchantAccount(ctx, storeID, "ach")
		require.NoError(t, err)
		assert.Equal(t, "1010", code)
	}
	source.AssertNumberOfCalls(t, "FindByStore", 1)

	ttl, err := client.TTL(ctx, chartKey(storeID)).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, 50*time.Second)

	require.NoError(t, chart.Invalidate(ctx, storeID))
	source.On("FindByStore", mock.Anything, storeID).Return([]bookkeeping.AccountMapping{
		{ID: uuid.New(), StoreID: storeID, Role: bookkeeping.RoleMerchant, AccountCode: "1011"},
	}, nil).Once()

	code, err := chart.ResolveMerchantAccount(ctx, storeID, "ach")
	require.NoError(t, err)
	assert.Equal(t, "1011", code)
}
