// Package dedupe answers "have we seen this key recently?" with a Redis
// SET NX and a TTL. It throttles repeat owner alerts for the same visitor.
package dedupe

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "portfolio:seen:"

// Window reports whether a key is new within a rolling TTL. A nil *Window
// reports every key as new, so callers need no Redis in development.
type Window struct {
	client *redis.Client
	ttl    time.Duration
}

// NewWindow returns a dedupe window. It returns nil when client is nil.
func NewWindow(client *redis.Client, ttl time.Duration) *Window {
	if client == nil {
		return nil
	}
	return &Window{client: client, ttl: ttl}
}

// First marks key as seen and reports whether it was unseen before. On
// Redis errors it reports true together with the error so the caller can
// fail open.
func (w *Window) First(ctx context.Context, parts ...string) (bool, error) {
	if w == nil || w.ttl <= 0 {
		return true, nil
	}
	ok, err := w.client.SetNX(ctx, Key(parts...), 1, w.ttl).Result()
	if err != nil {
		return true, fmt.Errorf("dedupe setnx: %w", err)
	}
	return ok, nil
}

// Key hashes parts into a fixed-length Redis key.
func Key(parts ...string) string {
	h := sha1.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return keyPrefix + hex.EncodeToString(h.Sum(nil))
}
