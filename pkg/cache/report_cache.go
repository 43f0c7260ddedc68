// Package cache stores computed cross-project reports so repeated reads do
// not re-walk every detection payload.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Report cache keys.
const (
	KeyCodeSmellDistribution = "reports:code_smell_distribution"
	KeyProjectOverview       = "reports:project_overview"
)

// AllReportKeys lists every key invalidated when projects or detections
// change.
var AllReportKeys = []string{KeyCodeSmellDistribution, KeyProjectOverview}

const generationKey = "reports:generation"

// ReportCache stores JSON-encodable report values by key.
//
// Every Invalidate bumps a generation counter. Readers take the generation
// before computing a report and hand it back to Set, which drops the value
// if an invalidation happened in between.
type ReportCache interface {
	// Generation returns the current invalidation counter.
	Generation(ctx context.Context) (int64, error)
	// Get decodes the cached value into dest. It returns false on a miss.
	Get(ctx context.Context, key string, dest any) (bool, error)
	// Set stores value unless the generation has moved past gen.
	Set(ctx context.Context, gen int64, key string, value any) error
	// Invalidate removes the given keys and bumps the generation.
	Invalidate(ctx context.Context, keys ...string) error
}

type redisReportCache struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
	logger *zap.Logger
}

// NewRedisReportCache returns a ReportCache backed by Redis. Keys are
// namespaced with prefix.
func NewRedisReportCache(client *redis.Client, prefix string, ttl time.Duration, logger *zap.Logger) ReportCache {
	return &redisReportCache{
		client: client,
		ttl:    ttl,
		prefix: prefix,
		logger: logger.Named("report-cache"),
	}
}

var _ ReportCache = (*redisReportCache)(nil)

func (c *redisReportCache) key(k string) string {
	if c.prefix == "" {
		return k
	}
	return c.prefix + ":" + k
}

func (c *redisReportCache) Generation(ctx context.Context) (int64, error) {
	gen, err := c.client.Get(ctx, c.key(generationKey)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read report generation: %w", err)
	}
	return gen, nil
}

func (c *redisReportCache) Get(ctx context.Context, key string, dest any) (bool, error) {
	raw, err := c.client.Get(ctx, c.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read cached report %s: %w", key, err)
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		// a value we cannot decode is as good as absent
		c.logger.Warn("Discarding undecodable cached report", zap.String("key", key), zap.Error(err))
		_ = c.client.Del(ctx, c.key(key)).Err()
		return false, nil
	}
	return true, nil
}

func (c *redisReportCache) Set(ctx context.Context, gen int64, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode report %s: %w", key, err)
	}

	genKey := c.key(generationKey)
	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, genKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != gen {
			c.logger.Debug("Dropping report computed before invalidation",
				zap.String("key", key),
				zap.Int64("generation", gen),
				zap.Int64("current", current))
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, c.key(key), raw, c.ttl)
			return nil
		})
		return err
	}, genKey)
	if errors.Is(err, redis.TxFailedErr) {
		// generation moved while writing
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to cache report %s: %w", key, err)
	}
	return nil
}

func (c *redisReportCache) Invalidate(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.key(k)
	}
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, c.key(generationKey))
		pipe.Del(ctx, full...)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to invalidate reports: %w", err)
	}
	return nil
}

type noopReportCache struct{}

// NewNoopReportCache returns a ReportCache that never stores anything.
// Used when Redis is not configured.
func NewNoopReportCache() ReportCache {
	return noopReportCache{}
}

func (noopReportCache) Generation(context.Context) (int64, error)      { return 0, nil }
func (noopReportCache) Get(context.Context, string, any) (bool, error) { return false, nil }
func (noopReportCache) Set(context.Context, int64, string, any) error  { return nil }
func (noopReportCache) Invalidate(context.Context, ...string) error    { return nil }
