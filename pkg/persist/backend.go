package persist

import "context"

// Backend stores one opaque payload per key. Implementations make no
// assumptions about the payload beyond it being a byte slice; envelope and
// TTL handling belong to the Adapter.
type Backend interface {
	Get(ctx context.Context, key string) (payload []byte, ok bool, err error)
	Put(ctx context.Context, key string, payload []byte) error
	Delete(ctx context.Context, key string) error
}
