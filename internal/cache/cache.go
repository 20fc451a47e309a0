package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"time"
)

// Cache stores serialized graph payloads keyed by request parameters. Both
// backends are best-effort: a miss or a backend error just means the caller
// fetches fresh.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
	Kind() string
	Close() error
}

// Key derives a stable cache key from the request parameters. faccaoID is
// rendered as "nil" when absent so filtered and unfiltered requests never
// collide.
func Key(fn string, faccaoID *int, includeCo bool, maxPairs int) string {
	id := "nil"
	if faccaoID != nil {
		id = fmt.Sprintf("%d", *faccaoID)
	}
	sum := sha1.Sum([]byte(fmt.Sprintf("%s|%s|%t|%d", fn, id, includeCo, maxPairs)))
	return "kg:" + hex.EncodeToString(sum[:])
}
