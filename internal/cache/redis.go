package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Robson16/daily-diet-api/internal/model"
)

const (
	// KeyPrefix namespaces metrics entries in Redis.
	KeyPrefix = "daily-diet:metrics:"

	// GenerationPrefix namespaces the per-owner generation counters.
	GenerationPrefix = "daily-diet:metrics-gen:"

	// GenerationTTL is how long a generation counter survives without a
	// write. It outlives the 7-day identity cookie, so an owner's counter
	// cannot expire and restart at zero while that owner can still read.
	GenerationTTL = 8 * 24 * time.Hour
)

// Redis is a MetricsCache backed by a Redis server.
//
// KEY LAYOUT:
//
//	daily-diet:metrics-gen:<owner>        → INCR counter, missing means 0
//	daily-diet:metrics:<owner>:<gen>      → JSON model.Metrics, expires after ttl
//
// Entries for old generations are never deleted explicitly; they expire.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

var _ MetricsCache = (*Redis)(nil)

// NewRedis connects to the server at redisURL (redis://host:port/db) and
// verifies it with a PING.
//
// ttl must be positive and shorter than GenerationTTL. go-redis treats a zero
// expiration as "never expire" and -1 as "keep the current TTL", and neither
// is acceptable for a derived value.
func NewRedis(ctx context.Context, redisURL string, ttl time.Duration) (*Redis, error) {
	if ttl <= 0 || ttl >= GenerationTTL {
		return nil, fmt.Errorf("cache: ttl %s out of range (0, %s)", ttl, GenerationTTL)
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("cache: parsing redis url: %w", err)
	}

	opt.PoolSize = 10
	opt.MinIdleConns = 2
	opt.DialTimeout = 5 * time.Second
	opt.ReadTimeout = 3 * time.Second
	opt.WriteTimeout = 3 * time.Second
	opt.ConnMaxIdleTime = 5 * time.Minute

	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("cache: pinging redis: %w", err)
	}

	return &Redis{client: client, ttl: ttl}, nil
}

func key(ownerID string, gen int64) string {
	return KeyPrefix + ownerID + ":" + strconv.FormatInt(gen, 10)
}

func generationKey(ownerID string) string {
	return GenerationPrefix + ownerID
}

// Get reads the owner's generation and then the entry stored for it.
func (c *Redis) Get(ctx context.Context, ownerID string) (model.Metrics, int64, bool, error) {
	gen, err := c.client.Get(ctx, generationKey(ownerID)).Int64()
	if errors.Is(err, redis.Nil) {
		gen, err = 0, nil
	}
	if err != nil {
		return model.Metrics{}, 0, false, fmt.Errorf("cache: get generation: %w", err)
	}

	val, err := c.client.Get(ctx, key(ownerID, gen)).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.Metrics{}, gen, false, nil
	}
	if err != nil {
		return model.Metrics{}, gen, false, fmt.Errorf("cache: get: %w", err)
	}

	var m model.Metrics
	if err := json.Unmarshal(val, &m); err != nil {
		return model.Metrics{}, gen, false, fmt.Errorf("cache: decoding metrics: %w", err)
	}
	return m, gen, true, nil
}

// Set stores m as JSON under generation gen with the configured TTL.
func (c *Redis) Set(ctx context.Context, ownerID string, gen int64, m model.Metrics) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("cache: encoding metrics: %w", err)
	}
	if err := c.client.Set(ctx, key(ownerID, gen), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache: set: %w", err)
	}
	return nil
}

// Invalidate increments the owner's generation and refreshes its expiry in a
// single MULTI/EXEC transaction.
func (c *Redis) Invalidate(ctx context.Context, ownerID string) error {
	gk := generationKey(ownerID)
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, gk)
		pipe.Expire(ctx, gk, GenerationTTL)
		return nil
	})
	if err != nil {
		return fmt.Errorf("cache: invalidate: %w", err)
	}
	return nil
}

// Close closes the client's connection pool.
func (c *Redis) Close() error {
	return c.client.Close()
}
