package storage

import "context"

// Storage is a keyed store with insertion-ordered listing. The trainer uses
// it to keep the per-epoch history served over the HTTP status API.
type Storage interface {
	Create(ctx context.Context, key string, value any) error
	Get(ctx context.Context, key string) (any, error)
	Update(ctx context.Context, key string, value any) error
	List(ctx context.Context, offset, limit uint64) ([]any, uint64, error)
	Delete(ctx context.Context, key string) error
}
