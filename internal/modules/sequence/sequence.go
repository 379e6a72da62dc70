// Package sequence issues day-scoped human-readable reference numbers
// such as QT-20260829-0001. The counter lives in Redis and is advanced
// with INCR, so concurrent callers can never observe the same value.
package sequence

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix = "seq"
	// keyTTL keeps stale day counters from accumulating; anything past
	// the day boundary is dead weight once the date rolls over.
	keyTTL = 48 * time.Hour
)

type Generator struct {
	redis *redis.Client
	now   func() time.Time
}

func NewGenerator(client *redis.Client) *Generator {
	return &Generator{redis: client, now: time.Now}
}

// Next returns the next number for the given prefix, scoped to the
// current UTC calendar day. Sequences restart at 1 each day.
func (g *Generator) Next(ctx context.Context, prefix string) (string, error) {
	day := g.now().UTC().Format("20060102")
	key := fmt.Sprintf("%s:%s:%s", keyPrefix, prefix, day)

	n, err := g.redis.Incr(ctx, key).Result()
	if err != nil {
		return "", fmt.Errorf("sequence incr %s: %w", key, err)
	}
	if n == 1 {
		// First issue of the day; expiry is best-effort.
		g.redis.Expire(ctx, key, keyTTL)
	}
	return fmt.Sprintf("%s-%s-%04d", prefix, day, n), nil
}
