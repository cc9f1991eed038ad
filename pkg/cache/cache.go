// Package cache provides caching for computed layouts and rendered
// artifacts so an unchanged tree is never laid out or rendered twice.
//
// Keys are derived from a SHA-256 hash of the tree snapshot plus the
// options that influence the result. Backends:
//   - FileCache: local disk, used by the CLI
//   - RedisCache: shared cache for multi-instance server deployments
//   - NullCache: disabled caching
package cache

import (
	"context"
	"time"
)

// DefaultTTL is how long cached layouts and artifacts are kept.
// Entries are content-addressed, so expiry only reclaims space.
const DefaultTTL = 7 * 24 * time.Hour

// Cache is the interface all cache backends implement.
type Cache interface {
	// Get retrieves a value. The second return reports whether the key
	// was present and unexpired.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value with the given TTL. A zero TTL means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Removing an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// LayoutKeyOpts are the options that change a computed layout.
type LayoutKeyOpts struct {
	RootID    string
	Direction string
	SpacingX  float64
	SpacingY  float64
}

// LayoutKey builds the cache key for a layout computed over the tree
// with the given content hash.
func LayoutKey(treeHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", treeHash, opts)
}

// ArtifactKeyOpts are the options that change a rendered artifact.
type ArtifactKeyOpts struct {
	Format  string
	Width   int
	Height  int
	Quality int
}

// ArtifactKey builds the cache key for an artifact rendered from the
// tree with the given content hash.
func ArtifactKey(treeHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", treeHash, opts)
}
