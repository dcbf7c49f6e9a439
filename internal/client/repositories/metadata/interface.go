package metadata

import (
	"context"
)

// Repository is the key/value view of the local metadata table.
// Get returns (nil, nil) for a missing key; List is meant for diagnostics.
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	GetMany(ctx context.Context, keys ...string) (map[string][]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, keys ...string) error
	List(ctx context.Context) (map[string][]byte, error)
}
