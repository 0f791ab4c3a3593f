package dedup

import (
	"context"
	"time"
)

// Store records fingerprints of successfully processed images. A missing
// entry only means the content was not seen within the retention window,
// so re-processing an expired duplicate is acceptable.
type Store interface {
	Exists(ctx context.Context, fingerprint string) (bool, error)
	Mark(ctx context.Context, fingerprint string) error
}

const (
	keyPrefix = "img_hash_"

	// DefaultTTL is the dedup retention window.
	DefaultTTL = 7 * 24 * time.Hour
)

// NopStore never sees anything and never remembers anything. Used where a
// registry is required but deduplication is not wanted.
type NopStore struct{}

func (NopStore) Exists(ctx context.Context, fingerprint string) (bool, error) { return false, nil }

func (NopStore) Mark(ctx context.Context, fingerprint string) error { return nil }
