package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// INCR and PEXPIRE run atomically so a crash between them cannot leave a key
// without expiry.
var fixedWindowScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
return {current, ttl}
`)

// RedisCounter keeps window counters in Redis so every instance of the API
// shares the same budget.
type RedisCounter struct {
	redis *redis.Client
}

func NewRedisCounter(client *redis.Client) *RedisCounter {
	return &RedisCounter{redis: client}
}

func (c *RedisCounter) Incr(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	ms := window.Milliseconds()
	if ms <= 0 {
		ms = int64(time.Minute / time.Millisecond)
	}

	res, err := fixedWindowScript.Run(ctx, c.redis, []string{key}, ms).Slice()
	if err != nil {
		return 0, 0, errors.Wrap(err, "fixed window script failed")
	}
	if len(res) != 2 {
		return 0, 0, fmt.Errorf("unexpected fixed window script result length %d", len(res))
	}

	count, err := toInt64(res[0])
	if err != nil {
		return 0, 0, err
	}
	ttl, err := toInt64(res[1])
	if err != nil {
		return 0, 0, err
	}
	return count, time.Duration(ttl) * time.Millisecond, nil
}

func toInt64(v interface{}) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case string:
		return strconv.ParseInt(n, 10, 64)
	default:
		return 0, fmt.Errorf("unexpected redis script value type %T", v)
	}
}
