// Package localstate provides durable client-side key/value storage for
// session tokens and the persisted cart. Values survive process restarts and
// are readable without a remote call.
package localstate

import (
	"context"

	"github.com/go-faster/errors"
)

// Well-known entry names. Each is a distinct named entry in the store.
const (
	KeyAccessToken  = "access_token"
	KeyRefreshToken = "refresh_token"
	KeyCartItems    = "cart_items"
)

// Sentinel errors for store construction and use.
var (
	ErrInvalidDriver = errors.New("unknown localstate driver")
	ErrInvalidConfig = errors.New("invalid localstate configuration")
)

// Store is a small durable key/value store. Get reports ok=false for a
// missing key rather than an error. Implementations must be safe for
// concurrent use.
type Store interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}
