package service

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// The window opens on the first attempt and is re-armed if the key lost its
// expiry. Replies {attempts, remaining window in ms}.
const redisResetWindowScript = `
local current = redis.call("INCR", KEYS[1])
local ttl = redis.call("PTTL", KEYS[1])
if current == 1 or ttl < 0 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
  ttl = tonumber(ARGV[1])
end
return {current, ttl}
`

const resetKeyPrefix = "auth:reset:rl:"

// ResetDecision is the outcome of one forgot-password attempt.
type ResetDecision struct {
	Allowed bool
	// Remaining is the number of attempts left in the current window.
	Remaining int
	// RetryAfter is set on denials to the time until the window closes.
	RetryAfter time.Duration
}

// ResetLimiter throttles forgot-password requests per email address.
type ResetLimiter interface {
	Allow(ctx context.Context, email string) ResetDecision
	// Clear closes the window once the account has chosen a new password.
	Clear(ctx context.Context, email string)
}

type redisScripter interface {
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

type redisResetLimiter struct {
	client  redisScripter
	window  time.Duration
	max     int
	timeout time.Duration
}

// NewRedisResetLimiter returns a fixed-window limiter, or nil without a client.
func NewRedisResetLimiter(client *redis.Client, window time.Duration, max int) ResetLimiter {
	if client == nil {
		return nil
	}
	return newRedisResetLimiter(client, window, max)
}

func newRedisResetLimiter(client redisScripter, window time.Duration, max int) *redisResetLimiter {
	if window < time.Second {
		window = time.Hour
	}
	if max <= 0 {
		max = 1
	}
	return &redisResetLimiter{client: client, window: window, max: max, timeout: 500 * time.Millisecond}
}

func resetKey(email string) string {
	return resetKeyPrefix + strings.ToLower(strings.TrimSpace(email))
}

// Allow fails open when redis is unreachable or replies unexpectedly.
func (l *redisResetLimiter) Allow(ctx context.Context, email string) ResetDecision {
	if l == nil || l.client == nil {
		return ResetDecision{Allowed: true}
	}
	if strings.TrimSpace(email) == "" {
		return ResetDecision{RetryAfter: l.window}
	}
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	reply, err := l.client.Eval(ctx, redisResetWindowScript, []string{resetKey(email)}, l.window.Milliseconds()).Int64Slice()
	if err != nil || len(reply) != 2 {
		return ResetDecision{Allowed: true}
	}
	count, ttl := int(reply[0]), time.Duration(reply[1])*time.Millisecond

	if count > l.max {
		if ttl <= 0 || ttl > l.window {
			ttl = l.window
		}
		return ResetDecision{RetryAfter: ttl}
	}
	return ResetDecision{Allowed: true, Remaining: l.max - count}
}

func (l *redisResetLimiter) Clear(ctx context.Context, email string) {
	if l == nil || l.client == nil || strings.TrimSpace(email) == "" {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()
	_ = l.client.Del(ctx, resetKey(email)).Err()
}
