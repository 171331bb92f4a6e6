package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/stn-analytics/stn-dashboard/internal/config"
)

const (
	reportKeyPrefix = "reports:"
	scanBatchSize   = 100
)

// ReportCache keeps rendered dashboard query payloads for a short TTL so a
// dashboard refresh does not re-run every aggregate query. Invalidated
// wholesale after each ingestion run.
type ReportCache interface {
	Get(ctx context.Context, name string, params []string, dest interface{}) (bool, error)
	Set(ctx context.Context, name string, params []string, payload interface{}) error
	InvalidateAll(ctx context.Context) error
}

type redisReportCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopReportCache struct{}

func NewReportCache(cfg config.CacheConfig) (ReportCache, error) {
	if !cfg.Enabled {
		return &noopReportCache{}, nil
	}
	client, ttl, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}
	return &redisReportCache{client: client, ttl: ttl}, nil
}

func NewNoopReportCache() ReportCache {
	return &noopReportCache{}
}

func (c *redisReportCache) Get(ctx context.Context, name string, params []string, dest interface{}) (bool, error) {
	payload, err := c.client.Get(ctx, buildReportKey(name, params)).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis get failed: %w", err)
	}
	if err := json.Unmarshal(payload, dest); err != nil {
		return false, fmt.Errorf("decode report cache: %w", err)
	}
	return true, nil
}

func (c *redisReportCache) Set(ctx context.Context, name string, params []string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode report cache: %w", err)
	}
	if err := c.client.Set(ctx, buildReportKey(name, params), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *redisReportCache) InvalidateAll(ctx context.Context) error {
	return deleteKeysWithPrefix(ctx, c.client, reportKeyPrefix, scanBatchSize)
}

func (c *noopReportCache) Get(ctx context.Context, name string, params []string, dest interface{}) (bool, error) {
	return false, nil
}

func (c *noopReportCache) Set(ctx context.Context, name string, params []string, payload interface{}) error {
	return nil
}

func (c *noopReportCache) InvalidateAll(ctx context.Context) error {
	return nil
}

func buildReportKey(name string, params []string) string {
	sum := sha1.Sum([]byte(strings.Join(params, "|")))
	return reportKeyPrefix + name + ":" + hex.EncodeToString(sum[:])
}
