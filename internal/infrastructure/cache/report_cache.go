package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ReportCache stores rendered report payloads per tenant.
// Every read reports the tenant generation it saw and a write is kept only
// while that generation is current. A report computed before a ledger write
// committed is therefore dropped once Invalidate bumps the generation.
type ReportCache interface {
	// Generation returns the current generation of the tenant
	Generation(ctx context.Context, tenantID uuid.UUID) (int64, error)
	// Get returns the cached value and the generation observed, also on a miss
	Get(ctx context.Context, tenantID uuid.UUID, key string) (value []byte, gen int64, hit bool, err error)
	// Set stores value under gen. It is a no-op when gen is no longer current.
	Set(ctx context.Context, tenantID uuid.UUID, gen int64, key string, value []byte, ttl time.Duration) error
	Invalidate(ctx context.Context, tenantID uuid.UUID) error
}

const reportKeyPrefix = "retailpos:report:"

var errStaleGeneration = errors.New("report cache generation moved")

// RedisReportCache implements ReportCache with a generation counter per tenant.
// Keys of one tenant share a hash tag so the guarded write works on a cluster.
type RedisReportCache struct {
	client redis.UniversalClient
}

func NewRedisReportCache(client redis.UniversalClient) *RedisReportCache {
	return &RedisReportCache{client: client}
}

func generationKey(tenantID uuid.UUID) string {
	return reportKeyPrefix + "{" + tenantID.String() + "}:gen"
}

func (c *RedisReportCache) dataKey(tenantID uuid.UUID, gen int64, key string) string {
	return fmt.Sprintf("%s{%s}:%d:%s", reportKeyPrefix, tenantID, gen, key)
}

func readGeneration(ctx context.Context, cmd redis.Cmdable, tenantID uuid.UUID) (int64, error) {
	raw, err := cmd.Get(ctx, generationKey(tenantID)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read report cache generation: %w", err)
	}
	return strconv.ParseInt(raw, 10, 64)
}

func (c *RedisReportCache) Generation(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	return readGeneration(ctx, c.client, tenantID)
}

func (c *RedisReportCache) Get(ctx context.Context, tenantID uuid.UUID, key string) ([]byte, int64, bool, error) {
	gen, err := readGeneration(ctx, c.client, tenantID)
	if err != nil {
		return nil, 0, false, err
	}
	val, err := c.client.Get(ctx, c.dataKey(tenantID, gen, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, gen, false, nil
	}
	if err != nil {
		return nil, gen, false, fmt.Errorf("failed to read report cache: %w", err)
	}
	return val, gen, true, nil
}

// Set watches the generation key, so an Invalidate racing the write aborts it
func (c *RedisReportCache) Set(ctx context.Context, tenantID uuid.UUID, gen int64, key string, value []byte, ttl time.Duration) error {
	err := c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := readGeneration(ctx, tx, tenantID)
		if err != nil {
			return err
		}
		if current != gen {
			return errStaleGeneration
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, c.dataKey(tenantID, gen, key), value, ttl)
			return nil
		})
		return err
	}, generationKey(tenantID))
	switch {
	case err == nil, errors.Is(err, errStaleGeneration), errors.Is(err, redis.TxFailedErr):
		return nil
	default:
		return fmt.Errorf("failed to write report cache: %w", err)
	}
}

func (c *RedisReportCache) Invalidate(ctx context.Context, tenantID uuid.UUID) error {
	if err := c.client.Incr(ctx, generationKey(tenantID)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate report cache: %w", err)
	}
	return nil
}

var _ ReportCache = (*RedisReportCache)(nil)

type cachedReport struct {
	gen       int64
	value     []byte
	expiresAt time.Time
}

// InMemoryReportCache implements ReportCache for single-node deployments and tests
type InMemoryReportCache struct {
	mu          sync.Mutex
	generations map[uuid.UUID]int64
	entries     map[uuid.UUID]map[string]cachedReport
}

func NewInMemoryReportCache() *InMemoryReportCache {
	return &InMemoryReportCache{
		generations: make(map[uuid.UUID]int64),
		entries:     make(map[uuid.UUID]map[string]cachedReport),
	}
}

func (c *InMemoryReportCache) Generation(_ context.Context, tenantID uuid.UUID) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generations[tenantID], nil
}

func (c *InMemoryReportCache) Get(_ context.Context, tenantID uuid.UUID, key string) ([]byte, int64, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	gen := c.generations[tenantID]
	e, ok := c.entries[tenantID][key]
	if !ok || e.gen != gen || time.Now().After(e.expiresAt) {
		return nil, gen, false, nil
	}
	return e.value, gen, true, nil
}

func (c *InMemoryReportCache) Set(_ context.Context, tenantID uuid.UUID, gen int64, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generations[tenantID] {
		return nil
	}
	if c.entries[tenantID] == nil {
		c.entries[tenantID] = make(map[string]cachedReport)
	}
	c.entries[tenantID][key] = cachedReport{
		gen:       gen,
		value:     value,
		expiresAt: time.Now().Add(ttl),
	}
	return nil
}

// Invalidate drops the tenant's entries and bumps its generation
func (c *InMemoryReportCache) Invalidate(_ context.Context, tenantID uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generations[tenantID]++
	delete(c.entries, tenantID)
	return nil
}

var _ ReportCache = (*InMemoryReportCache)(nil)
