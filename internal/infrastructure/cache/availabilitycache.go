package cache

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bookwell-inc/bookwell/internal/domain/shared/events"
	"github.com/bookwell-inc/bookwell/internal/shared/logger"
)

const (
	availabilityKeyPrefix = "bookwell:availability:"
	generationKeyPrefix   = "bookwell:availability:gen:"
	baseAvailabilityTTL   = 60 * time.Second
	availabilityTTLJitter = 15 * time.Second
)

// RedisAvailabilityCache keeps one hash per professional and generation, one
// field per (start, duration) question. Any booking change for the
// professional bumps the generation, so answers computed before the change
// land in a hash nobody reads and expire with it.
type RedisAvailabilityCache struct {
	client *redis.Client
	logger logger.Interface
}

func NewRedisAvailabilityCache(client *redis.Client, logger logger.Interface) *RedisAvailabilityCache {
	return &RedisAvailabilityCache{
		client: client,
		logger: logger,
	}
}

func (c *RedisAvailabilityCache) key(professionalID string, generation int64) string {
	return fmt.Sprintf("%s%s:%d", availabilityKeyPrefix, professionalID, generation)
}

func (c *RedisAvailabilityCache) generationKey(professionalID string) string {
	return generationKeyPrefix + professionalID
}

func (c *RedisAvailabilityCache) generation(ctx context.Context, professionalID string) (int64, error) {
	gen, err := c.client.Get(ctx, c.generationKey(professionalID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read availability generation: %w", err)
	}
	return gen, nil
}

func field(start time.Time, durationMinutes int) string {
	return fmt.Sprintf("%d:%d", start.UTC().Unix(), durationMinutes)
}

// Get returns the cached answer and the generation it was looked up in. A
// miss still reports the generation to pass to Set.
func (c *RedisAvailabilityCache) Get(ctx context.Context, professionalID string, start time.Time, durationMinutes int) (bool, bool, int64, error) {
	gen, err := c.generation(ctx, professionalID)
	if err != nil {
		return false, false, 0, err
	}
	val, err := c.client.HGet(ctx, c.key(professionalID, gen), field(start, durationMinutes)).Result()
	if errors.Is(err, redis.Nil) {
		return false, false, gen, nil
	}
	if err != nil {
		return false, false, 0, fmt.Errorf("failed to read availability cache: %w", err)
	}
	return val == "1", true, gen, nil
}

// Set stores an answer under the generation observed before it was computed.
func (c *RedisAvailabilityCache) Set(ctx context.Context, professionalID string, generation int64, start time.Time, durationMinutes int, available bool) error {
	val := "0"
	if available {
		val = "1"
	}
	key := c.key(professionalID, generation)
	ttl := baseAvailabilityTTL + rand.N(availabilityTTLJitter)

	pipe := c.client.TxPipeline()
	pipe.HSet(ctx, key, field(start, durationMinutes), val)
	pipe.Expire(ctx, key, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to write availability cache: %w", err)
	}
	return nil
}

func (c *RedisAvailabilityCache) Invalidate(ctx context.Context, professionalID string) error {
	if err := c.client.Incr(ctx, c.generationKey(professionalID)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate availability cache: %w", err)
	}
	return nil
}

// Name, CanHandle and Handle let the cache subscribe to booking signals.
func (c *RedisAvailabilityCache) Name() string { return "availability-cache" }

func (c *RedisAvailabilityCache) CanHandle(eventType string) bool {
	return strings.HasPrefix(eventType, "booking.")
}

func (c *RedisAvailabilityCache) Handle(ctx context.Context, event events.DomainEvent) error {
	e, ok := event.(events.BookingEvent)
	if !ok {
		return nil
	}
	if err := c.Invalidate(ctx, e.ProfessionalID); err != nil {
		return err
	}
	c.logger.Debugw("availability cache invalidated",
		"professional_id", e.ProfessionalID,
		"event_type", e.EventType,
	)
	return nil
}
