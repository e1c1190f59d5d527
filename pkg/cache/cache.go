// Package cache provides byte caches used to memoize rendered graph
// artifacts. Rendering a large DOT document through Graphviz is the slow
// part of the pipeline, so `logweave render` and the HTTP server key the
// output by a content hash of the DOT text and reuse it when the graph has
// not changed.
package cache

import (
	"context"
	"time"
)

// Cache stores opaque byte values under string keys.
type Cache interface {
	// Get retrieves a value. The second return is false on a miss.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value. A zero ttl means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}
