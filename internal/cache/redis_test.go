//go:build integration

package cache_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"agriconnect_back_end/internal/cache"
	"agriconnect_back_end/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
)

func setupRedis(t *testing.T) *redis.Client {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("failed to start redis container: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: fmt.Sprintf("%s:%s", host, port.Port())})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRedisLocker(t *testing.T) {
	client := setupRedis(t)
	locker := cache.NewRedisLocker(client)
	ctx := context.Background()

	release, err := locker.Acquire(ctx, "order-status", time.Minute)
	require.NoError(t, err)

	_, err = locker.Acquire(ctx, "order-status", time.Minute)
	assert.ErrorIs(t, err, cache.ErrLockHeld)

	require.NoError(t, release(ctx))

	release2, err := locker.Acquire(ctx, "order-status", time.Minute)
	require.NoError(t, err)

	// une libération tardive du premier détenteur ne touche pas au verrou courant
	require.NoError(t, release(ctx))
	_, err = locker.Acquire(ctx, "order-status", time.Minute)
	assert.ErrorIs(t, err, cache.ErrLockHeld)

	require.NoError(t, release2(ctx))
}

func TestRedisLocker_Expires(t *testing.T) {
	client := setupRedis(t)
	locker := cache.NewRedisLocker(client)
	ctx := context.Background()

	_, err := locker.Acquire(ctx, "short", 100*time.Millisecond)
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		release, err := locker.Acquire(ctx, "short", time.Minute)
		if err != nil {
			return false
		}
		_ = release(ctx)
		return true
	}, 2*time.Second, 50*time.Millisecond)
}

func TestProductCatalog_ServesFromRedis(t *testing.T) {
	client := setupRedis(t)
	ctx := context.Background()

	require.NoError(t, client.Set(ctx, "product_summary:p1", `{"id":"p1","name":"Tomates","image":"https://img/p1.jpg"}`, time.Minute).Err())

	catalog := cache.NewProductCatalog(nil, client, zap.NewNop())
	got := catalog.Products(ctx, []string{"p1", "p2"})

	assert.Equal(t, map[string]models.ProductSummary{
		"p1": {ID: "p1", Name: "Tomates", Image: "https://img/p1.jpg"},
	}, got)

}

type mongoProductsStub map[string]models.ProductSummary

func (m mongoProductsStub) ProductsByIDs(_ context.Context, ids []string) (map[string]models.ProductSummary, error) {
	out := make(map[string]models.ProductSummary)
	for _, id := range ids {
		if p, ok := m[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func TestProductCatalog_CachesLegacyProducts(t *testing.T) {
	client := setupRedis(t)
	ctx := context.Background()

	id := "64b7f0c2a1e4d93f1c2b3a4d"
	catalog := cache.NewProductCatalog(nil, client, zap.NewNop(),
		cache.WithLegacySource(mongoProductsStub{id: {ID: id, Name: "Riz basmati"}}))

	got := catalog.Products(ctx, []string{id})
	assert.Equal(t, "Riz basmati", got[id].Name)

	cached, err := client.Get(ctx, "product_summary:"+id).Result()
	require.NoError(t, err)
	assert.Contains(t, cached, "Riz basmati")
}
