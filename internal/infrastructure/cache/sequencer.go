package cache

import (
	"context"
	"fmt"

	"github.com/erp/wholesale/internal/domain/trade"
	"github.com/redis/go-redis/v9"
)

// RedisSequencer issues document numbers with one INCR per scope key.
// Counters live only as long as Redis keeps them; after a flush the
// unique indexes on document numbers reject reused values and the
// services retry with the next number.
type RedisSequencer struct {
	client redis.Cmdable
	format trade.NumberFormat
}

// NewRedisSequencer creates a sequencer using format
func NewRedisSequencer(client redis.Cmdable, format trade.NumberFormat) *RedisSequencer {
	return &RedisSequencer{client: client, format: format}
}

// NextNumber returns the next number of scope
func (s *RedisSequencer) NextNumber(ctx context.Context, scope trade.NumberScope) (string, error) {
	value, err := s.client.Incr(ctx, sequenceKey(scope)).Result()
	if err != nil {
		return "", fmt.Errorf("next %s number: %w", scope.Kind, err)
	}
	return s.format.Format(scope.Kind, value), nil
}

// Seed raises the counter of scope to at least value, so numbering can
// continue after counters were lost. Lower values leave it unchanged.
func (s *RedisSequencer) Seed(ctx context.Context, scope trade.NumberScope, value int64) error {
	if err := seedScript.Run(ctx, s.client, []string{sequenceKey(scope)}, value).Err(); err != nil {
		return fmt.Errorf("seed %s counter: %w", scope.Kind, err)
	}
	return nil
}

var seedScript = redis.NewScript(`
local current = tonumber(redis.call("GET", KEYS[1]) or "0")
local target = tonumber(ARGV[1])
if target > current then
	redis.call("SET", KEYS[1], target)
	return target
end
return current
`)

func sequenceKey(scope trade.NumberScope) string {
	return keyPrefix + "seq:" + scope.Key()
}
