// Package cache stores rendered drawings so that redrawing an unchanged
// tree skips Graphviz.
//
// Entries are keyed by a hash of the DOT text and the output format (see
// [ArtifactKey]); the key therefore changes whenever the tree, its
// attributes or the drawing options change.
//
// # Implementations
//
//   - [FileCache]: one JSON file per entry under a directory, for the CLI
//   - [NullCache]: stores nothing, used when caching is disabled
package cache

import (
	"context"
	"os"
	"path/filepath"
	"time"
)

// Cache is a byte store with optional expiry.
type Cache interface {
	// Get returns the stored value and whether it was found. Expired or
	// unreadable entries count as misses.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data under key. A ttl of zero never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	Close() error
}

// ArtifactKey returns the key of a drawing of dot in the given format.
func ArtifactKey(dot []byte, format string) string {
	return hashKey("artifact", format, Hash(dot))
}

// DefaultDir returns the directory used by the CLI:
// $XDG_CACHE_HOME/plastic, or the platform cache directory.
func DefaultDir() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "plastic"), nil
}
