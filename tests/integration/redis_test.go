package integration

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/carttalk/carttalk-server/internal/adapter/cache"
	"github.com/carttalk/carttalk-server/internal/domain"
	"github.com/carttalk/carttalk-server/internal/mocks"
	"github.com/carttalk/carttalk-server/internal/service/inventory"
)

// TestRedisCache_Operations exercises the cache adapter against a real Redis.
func TestRedisCache_Operations(t *testing.T) {
	env := SetupTestEnvironment(t)
	if env == nil || env.Redis == nil {
		t.Skip("Redis not available")
	}

	FlushRedis(t, env.Redis)
	ctx := context.Background()

	logger, _ := zap.NewDevelopment()
	c, err := cache.NewRedisCache(env.RedisURL, cache.Options{PoolSize: 5, DialTimeout: 5 * time.Second}, logger)
	if err != nil {
		t.Fatalf("Failed to connect cache: %v", err)
	}

	t.Run("SetGet", func(t *testing.T) {
		if err := c.Set(ctx, "test:key", "test-value", time.Minute); err != nil {
			t.Fatalf("Failed to set key: %v", err)
		}

		val, err := c.Get(ctx, "test:key")
		if err != nil {
			t.Fatalf("Failed to get key: %v", err)
		}
		if val != "test-value" {
			t.Errorf("Expected 'test-value', got '%s'", val)
		}
	})

	t.Run("MissIsNotAnError", func(t *testing.T) {
		val, err := c.Get(ctx, "test:absent")
		if err != nil {
			t.Fatalf("Cache miss must not error: %v", err)
		}
		if val != "" {
			t.Errorf("Expected empty value on miss, got '%s'", val)
		}
	})

	t.Run("Expiration", func(t *testing.T) {
		if err := c.Set(ctx, "test:expiring", "value", 100*time.Millisecond); err != nil {
			t.Fatalf("Failed to set key: %v", err)
		}

		time.Sleep(150 * time.Millisecond)

		val, err := c.Get(ctx, "test:expiring")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if val != "" {
			t.Error("Key should have expired")
		}
	})

	t.Run("Delete", func(t *testing.T) {
		c.Set(ctx, "test:delete", "value", time.Minute)

		if err := c.Delete(ctx, "test:delete"); err != nil {
			t.Fatalf("Failed to delete key: %v", err)
		}

		_, err := env.Redis.Get(ctx, "test:delete").Result()
		if err != redis.Nil {
			t.Error("Key should have been deleted")
		}
	})
}

// TestInventoryContext_RedisCaching verifies the rendered inventory context is
// cached in Redis between turns and invalidated on restock.
func TestInventoryContext_RedisCaching(t *testing.T) {
	env := SetupTestEnvironment(t)
	if env == nil || env.Redis == nil {
		t.Skip("Redis not available")
	}

	FlushRedis(t, env.Redis)
	ctx := context.Background()

	logger, _ := zap.NewDevelopment()
	c, err := cache.NewRedisCache(env.RedisURL, cache.Options{}, logger)
	if err != nil {
		t.Fatalf("Failed to connect cache: %v", err)
	}

	reads := 0
	repo := &mocks.MockProductRepository{
		FindAllFunc: func(ctx context.Context) ([]domain.Product, error) {
			reads++
			return []domain.Product{
				{ID: 1, NameEN: "Basmati Rice", NameML: "അരി", Category: "Grains", Price: 80, Stock: 50},
			}, nil
		},
		FindByIDFunc: func(ctx context.Context, id int) (*domain.Product, error) {
			return &domain.Product{ID: id, Stock: 99}, nil
		},
	}
	svc := inventory.NewService(repo, c, time.Minute, logger)

	// Act: two renders, one store read.
	first, err := svc.Context(ctx)
	if err != nil {
		t.Fatalf("Failed to render context: %v", err)
	}
	second, err := svc.Context(ctx)
	if err != nil {
		t.Fatalf("Failed to render cached context: %v", err)
	}

	// Assert
	if first != second {
		t.Errorf("cached render differs:\n%q\n%q", first, second)
	}
	if reads != 1 {
		t.Errorf("expected 1 store read, got %d", reads)
	}

	cached, err := env.Redis.Get(ctx, "inventory:context").Result()
	if err != nil {
		t.Fatalf("expected context key in Redis: %v", err)
	}
	if cached != first {
		t.Errorf("Redis holds a different render: %q", cached)
	}

	// Act: restock invalidates.
	if _, err := svc.Restock(ctx, 1, 99); err != nil {
		t.Fatalf("Restock failed: %v", err)
	}

	// Assert
	if err := env.Redis.Get(ctx, "inventory:context").Err(); err != redis.Nil {
		t.Error("expected context key evicted after restock")
	}
}
