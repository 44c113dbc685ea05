// Package storage pins report files to a content-addressed gateway and
// returns the hash that identifies them.
package storage

import (
	"context"
	"errors"
)

// ErrEmptyHash is returned when the gateway accepted a file but named no hash
var ErrEmptyHash = errors.New("gateway returned no content hash")

// Gateway stores a blob and returns its content hash
type Gateway interface {
	Pin(ctx context.Context, name string, data []byte) (string, error)
}
