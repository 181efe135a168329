// Package cache defines the optional response cache consulted before the
// routing engine does any work.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// ResponseCache stores serialized responses keyed by question and persona.
// A miss is (nil, false, nil); errors are reserved for backend failures.
type ResponseCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Key derives a stable cache key from the question and persona. Hashing keeps
// keys short and avoids delimiter collisions in user text.
func Key(question, persona string) string {
	sum := sha256.Sum256([]byte(persona + "\x00" + question))
	return "ragalytics:response:" + hex.EncodeToString(sum[:])
}

// Noop is the cache used when no backend is configured: every lookup misses
// and writes are discarded.
type Noop struct{}

var _ ResponseCache = Noop{}

func (Noop) Get(ctx context.Context, key string) ([]byte, bool, error) { return nil, false, nil }

func (Noop) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error { return nil }
