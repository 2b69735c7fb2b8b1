package service_test

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nutrisnap/backend/internal/service"
)

func TestScanCache(t *testing.T) {
	// Skip this test if no Redis is available
	if os.Getenv("REDIS_HOST") == "" {
		t.Skip("Skipping Redis-dependent test - REDIS_HOST not set")
	}

	client := redis.NewClient(&redis.Options{
		Addr: fmt.Sprintf("%s:%s", os.Getenv("REDIS_HOST"), "6379"),
	})
	cache := service.NewScanCache(client)
	ctx := context.Background()

	scan := &service.ScanResult{
		UserID:   "user-1",
		Filename: "1700000000_meal.jpg",
		PhotoURL: "http://localhost:8080/api/v1/food/files/1700000000_meal.jpg",
		FoodData: "|Name|Weight, g|Kcal|Protein, g|Fat, g|Carbs, g|",
	}

	t.Run("should save and retrieve a scan", func(t *testing.T) {
		require.NoError(t, cache.SaveScan(ctx, scan))
		assert.NotEmpty(t, scan.ID)
		assert.False(t, scan.CreatedAt.IsZero())

		got, err := cache.GetScan(ctx, scan.ID)
		require.NoError(t, err)
		assert.Equal(t, scan.UserID, got.UserID)
		assert.Equal(t, scan.FoodData, got.FoodData)
	})

	t.Run("should update a scan in place", func(t *testing.T) {
		scan.FoodData = "updated table"
		require.NoError(t, cache.UpdateScan(ctx, scan))

		got, err := cache.GetScan(ctx, scan.ID)
		require.NoError(t, err)
		assert.Equal(t, "updated table", got.FoodData)
	})

	t.Run("should miss on an unknown id", func(t *testing.T) {
		_, err := cache.GetScan(ctx, "does-not-exist")
		assert.Error(t, err)
	})
}
