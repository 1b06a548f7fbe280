// Package storage is the durable key/value port behind the cart. It plays the
// role of browser local storage: one string key, one serialized value.
package storage

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("storage: key not found")

type Storage interface {
	// Get returns ErrNotFound when the key was never written.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}
