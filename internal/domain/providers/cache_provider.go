package providers

import "context"

// CacheProvider is the read-through cache in front of agency lookups.
// Values are opaque JSON blobs; entries expire on their own, so the
// contract is just read and write.
type CacheProvider interface {
	// Get retrieves a value from cache
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value in cache with an expiration in seconds
	Set(ctx context.Context, key string, value []byte, expirationSeconds int) error
}
