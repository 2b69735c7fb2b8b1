package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Scans stay revisable for a day; after that the client re-scans the photo.
const scanTTL = 24 * time.Hour

// ScanResult is a cached scan: the raw table text plus where the photo came
// from, so revisions and advice can run without re-uploading.
type ScanResult struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Filename  string    `json:"filename"`
	PhotoURL  string    `json:"photo_url"`
	FoodData  string    `json:"food_data"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ScanCache stores scan results in Redis keyed by scan id.
type ScanCache struct {
	redis *redis.Client
}

func NewScanCache(redisClient *redis.Client) *ScanCache {
	return &ScanCache{
		redis: redisClient,
	}
}

// SaveScan assigns an id and stores the scan with a 24h TTL.
func (c *ScanCache) SaveScan(ctx context.Context, scan *ScanResult) error {
	scan.ID = uuid.New().String()
	scan.CreatedAt = time.Now()
	scan.UpdatedAt = time.Now()

	data, err := json.Marshal(scan)
	if err != nil {
		return fmt.Errorf("failed to marshal scan: %w", err)
	}

	key := fmt.Sprintf("food:scan:%s", scan.ID)
	if err := c.redis.Set(ctx, key, data, scanTTL).Err(); err != nil {
		return fmt.Errorf("failed to save scan to Redis: %w", err)
	}
	return nil
}

// GetScan retrieves a scan by id.
func (c *ScanCache) GetScan(ctx context.Context, id string) (*ScanResult, error) {
	key := fmt.Sprintf("food:scan:%s", id)
	data, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		return nil, fmt.Errorf("failed to get scan from Redis: %w", err)
	}

	var scan ScanResult
	if err := json.Unmarshal(data, &scan); err != nil {
		return nil, fmt.Errorf("failed to unmarshal scan: %w", err)
	}
	return &scan, nil
}

// UpdateScan rewrites a scan in place, refreshing its TTL.
func (c *ScanCache) UpdateScan(ctx context.Context, scan *ScanResult) error {
	scan.UpdatedAt = time.Now()

	data, err := json.Marshal(scan)
	if err != nil {
		return fmt.Errorf("failed to marshal scan: %w", err)
	}

	key := fmt.Sprintf("food:scan:%s", scan.ID)
	if err := c.redis.Set(ctx, key, data, scanTTL).Err(); err != nil {
		return fmt.Errorf("failed to update scan in Redis: %w", err)
	}
	return nil
}
