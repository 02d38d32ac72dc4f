package domain

import "context"

// StateStore is the string-keyed, JSON-valued store the workspace commits to.
// Each bucket is overwritten wholesale; there is no cross-bucket transaction.
type StateStore interface {
	// Load returns the payload stored under bucket. A missing bucket is
	// reported as (nil, false, nil).
	Load(ctx context.Context, bucket string) ([]byte, bool, error)
	// Save replaces the payload stored under bucket.
	Save(ctx context.Context, bucket string, payload []byte) error
	// Close releases backend resources.
	Close() error
}
