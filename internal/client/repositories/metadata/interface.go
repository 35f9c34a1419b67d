// Package metadata is the client's persisted key/value storage: the place
// where the session token, refresh token and serialised user live between
// runs. SQLite is the default backend; Redis can be used instead when
// several terminals should share one session.
package metadata

import (
	"context"
)

// Repository stores opaque byte values by key. Get returns (nil, nil) for a
// missing key. SetMany and Delete with several keys are all-or-nothing.
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetMany(ctx context.Context, values map[string][]byte) error
	Delete(ctx context.Context, keys ...string) error
}
