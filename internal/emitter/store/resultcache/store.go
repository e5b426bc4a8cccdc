// Package resultcache replays completed emission results under an
// idempotency key so a host retrying a delivered request does not send the
// event twice.
package resultcache

import (
	"context"
	"time"

	"setforge/internal/emitter"
)

// Store caches completed results by idempotency key.
type Store interface {
	Get(ctx context.Context, key string) (*emitter.Result, bool, error)
	Put(ctx context.Context, key string, res *emitter.Result, ttl time.Duration) error
}
