package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultThrottleWindow = 10 * time.Minute

// ResetThrottle rate-limits password reset emails per address, backed by
// Redis. Key format: pwreset:<email>
type ResetThrottle struct {
	client *redis.Client
	window time.Duration
}

// NewResetThrottle creates a ResetThrottle wrapping the given Redis client.
// If window <= 0, defaultThrottleWindow is used.
func NewResetThrottle(client *redis.Client, window time.Duration) *ResetThrottle {
	if window <= 0 {
		window = defaultThrottleWindow
	}
	return &ResetThrottle{client: client, window: window}
}

// Allow reports whether a reset email may be sent to this address. The first
// call within the window claims the slot (SETNX); repeat calls are denied
// until the key expires.
func (t *ResetThrottle) Allow(ctx context.Context, email string) (bool, error) {
	ok, err := t.client.SetNX(ctx, t.key(email), "1", t.window).Result()
	if err != nil {
		return false, fmt.Errorf("reset throttle: %w", err)
	}
	return ok, nil
}

// Release frees the slot so a retry can send immediately. Called when the
// email could not be delivered after the slot was claimed.
func (t *ResetThrottle) Release(ctx context.Context, email string) error {
	if err := t.client.Del(ctx, t.key(email)).Err(); err != nil {
		return fmt.Errorf("reset throttle release: %w", err)
	}
	return nil
}

func (t *ResetThrottle) key(email string) string {
	return "pwreset:" + strings.ToLower(strings.TrimSpace(email))
}
