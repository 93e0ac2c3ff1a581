// Package cache stores derived artifacts, such as rendered graph images,
// keyed by a hash of the input they were derived from.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
)

// Cache is a byte store keyed by content hashes.
type Cache interface {
	// Get returns the entry for key. A miss is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
}

// Key derives a cache key from a namespace and the input bytes.
func Key(namespace string, input []byte) string {
	return namespace + ":" + Hash(input)
}

// Hash returns the hex SHA-256 of data.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Null never stores anything.
type Null struct{}

func (Null) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }
func (Null) Set(context.Context, string, []byte) error         { return nil }
func (Null) Delete(context.Context, string) error              { return nil }

var _ Cache = Null{}
