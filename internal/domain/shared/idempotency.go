package shared

import (
	"context"
	"time"
)

// ReplayStore remembers the outcome of requests carrying an idempotency key,
// so a retried request returns the first outcome instead of being applied twice.
type ReplayStore interface {
	// Remember stores payload under key if the key is new.
	// Returns true if the key was newly stored, false if it already existed.
	Remember(ctx context.Context, key string, payload []byte, ttl time.Duration) (bool, error)

	// Store overwrites the payload under key and restarts its TTL.
	Store(ctx context.Context, key string, payload []byte, ttl time.Duration) error

	// Forget removes key so the request it guards can be applied again.
	Forget(ctx context.Context, key string) error

	// Recall returns the payload stored under key, or found=false.
	Recall(ctx context.Context, key string) (payload []byte, found bool, err error)

	// Close closes the store and releases resources
	Close() error
}

// ReplayConfig holds configuration for idempotent request handling
type ReplayConfig struct {
	// TTL is how long an idempotency key is remembered. Default: 24 hours
	TTL time.Duration
	// Enabled determines whether idempotency keys are honoured. Default: true
	Enabled bool
}

// DefaultReplayConfig returns the default replay configuration
func DefaultReplayConfig() ReplayConfig {
	return ReplayConfig{
		TTL:     24 * time.Hour,
		Enabled: true,
	}
}
