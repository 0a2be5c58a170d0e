package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/erp/wholesale/internal/domain/bookkeeping"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// DefaultChartTTL bounds how long a store's cached mappings are trusted
const DefaultChartTTL = 10 * time.Minute

// MappingSource loads a store's account mappings
type MappingSource interface {
	FindByStore(ctx context.Context, storeID uuid.UUID) ([]bookkeeping.AccountMapping, error)
}

// RedisChartCache is a read-through ChartOfAccounts. A store's whole
// mapping set is cached under one key; Redis failures fall back to the
// source so posting never depends on the cache being up.
type RedisChartCache struct {
	client redis.Cmdable
	source MappingSource
	ttl    time.Duration
	logger *zap.Logger
}

type cachedMapping struct {
	ID            uuid.UUID               `json:"id"`
	Role          bookkeeping.AccountRole `json:"role"`
	PaymentMethod string                  `json:"payment_method,omitempty"`
	AccountCode   string                  `json:"account_code"`
}

// NewRedisChartCache creates a chart cache in front of source
func NewRedisChartCache(client redis.Cmdable, source MappingSource, ttl time.Duration, log *zap.Logger) *RedisChartCache {
	if ttl <= 0 {
		ttl = DefaultChartTTL
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &RedisChartCache{client: client, source: source, ttl: ttl, logger: log.Named("chart_cache")}
}

// ResolveAccount implements bookkeeping.ChartOfAccounts
func (c *RedisChartCache) ResolveAccount(ctx context.Context, storeID uuid.UUID, role bookkeeping.AccountRole) (string, error) {
	mappings, err := c.mappings(ctx, storeID)
	if err != nil {
		return "", err
	}
	return bookkeeping.ResolveFromMappings(mappings, role, "")
}

// ResolveMerchantAccount implements bookkeeping.ChartOfAccounts
func (c *RedisChartCache) ResolveMerchantAccount(ctx context.Context, storeID uuid.UUID, method string) (string, error) {
	mappings, err := c.mappings(ctx, storeID)
	if err != nil {
		return "", err
	}
	return bookkeeping.ResolveFromMappings(mappings, bookkeeping.RoleMerchant, method)
}

// Invalidate drops the cached mappings of a store
func (c *RedisChartCache) Invalidate(ctx context.Context, storeID uuid.UUID) error {
	return c.client.Del(ctx, chartKey(storeID)).Err()
}

func (c *RedisChartCache) mappings(ctx context.Context, storeID uuid.UUID) ([]bookkeeping.AccountMapping, error) {
	key := chartKey(storeID)

	raw, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		if mappings, decodeErr := decodeMappings(storeID, raw); decodeErr == nil {
			return mappings, nil
		}
		c.logger.Warn("discarding unreadable chart cache entry", zap.String("store_id", storeID.String()))
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("chart cache read failed", zap.String("store_id", storeID.String()), zap.Error(err))
	}

	mappings, err := c.source.FindByStore(ctx, storeID)
	if err != nil {
		return nil, err
	}

	// An empty chart is not cached so a store being set up sees its first mappings at once
	if len(mappings) == 0 {
		return mappings, nil
	}
	if payload, encodeErr := encodeMappings(mappings); encodeErr == nil {
		if setErr := c.client.Set(ctx, key, payload, c.ttl).Err(); setErr != nil {
			c.logger.Warn("chart cache write failed", zap.String("store_id", storeID.String()), zap.Error(setErr))
		}
	}
	return mappings, nil
}

func encodeMappings(mappings []bookkeeping.AccountMapping) ([]byte, error) {
	rows := make([]cachedMapping, len(mappings))
	for i, m := range mappings {
		rows[i] = cachedMapping{ID: m.ID, Role: m.Role, PaymentMethod: m.PaymentMethod, AccountCode: m.AccountCode}
	}
	return json.Marshal(rows)
}

func decodeMappings(storeID uuid.UUID, raw []byte) ([]bookkeeping.AccountMapping, error) {
	var rows []cachedMapping
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, err
	}
	mappings := make([]bookkeeping.AccountMapping, len(rows))
	for i, r := range rows {
		mappings[i] = bookkeeping.AccountMapping{
			ID:            r.ID,
			StoreID:       storeID,
			Role:          r.Role,
			PaymentMethod: r.PaymentMethod,
			AccountCode:   r.AccountCode,
		}
	}
	return mappings, nil
}

func chartKey(storeID uuid.UUID) string {
	return keyPrefix + "chart:" + storeID.String()
}

// Ensure RedisChartCache implements ChartOfAccounts
var _ bookkeeping.ChartOfAccounts = (*RedisChartCache)(nil)
