package pipeline

import "context"

type dedupStore interface {
	Exists(ctx context.Context, fingerprint string) (bool, error)
	Mark(ctx context.Context, fingerprint string) error
}
