package ratelimit

import (
	"context"
	"errors"
	"time"

	redis "github.com/redis/go-redis/v9"
)

const fixedWindowScript = `
local count = redis.call("INCR", KEYS[1])
if count == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
local ttl = redis.call("PTTL", KEYS[1])
local allowed = 0
if count <= tonumber(ARGV[1]) then
  allowed = 1
end
return {allowed, count, ttl}
`

// FixedWindow counts events per key within a fixed window.
type FixedWindow struct {
	client *redis.Client
	script *redis.Script
}

type Result struct {
	Allowed    bool
	Count      int64
	RetryAfter time.Duration
}

func NewFixedWindow(client *redis.Client) *FixedWindow {
	if client == nil {
		return nil
	}
	return &FixedWindow{
		client: client,
		script: redis.NewScript(fixedWindowScript),
	}
}

// Allow records one event against key and reports whether it fits within
// rate events per window. A nil limiter always allows.
func (w *FixedWindow) Allow(ctx context.Context, key string, rate int, window time.Duration) (*Result, error) {
	if w == nil || w.client == nil {
		return &Result{Allowed: true}, nil
	}
	if key == "" {
		return nil, errors.New("rate limiter key is empty")
	}
	if rate <= 0 || window <= 0 {
		return nil, errors.New("rate limiter rate and window must be positive")
	}

	res, err := w.script.Run(ctx, w.client, []string{key}, rate, int64(window/time.Millisecond)).Slice()
	if err != nil {
		return nil, err
	}
	if len(res) < 3 {
		return nil, errors.New("invalid rate limit script response")
	}

	allowed := castToInt(res[0]) == 1
	count := castToInt(res[1])
	ttl := time.Duration(castToInt(res[2])) * time.Millisecond
	if ttl < 0 {
		ttl = 0
	}

	result := &Result{Allowed: allowed, Count: count}
	if !allowed {
		result.RetryAfter = ttl
	}
	return result, nil
}

func castToInt(v interface{}) int64 {
	switch typed := v.(type) {
	case int64:
		return typed
	case int:
		return int64(typed)
	case string:
		var out int64
		for _, r := range typed {
			if r < '0' || r > '9' {
				break
			}
			out = out*10 + int64(r-'0')
		}
		return out
	default:
		return 0
	}
}
