package cache

import (
	"context"
	"time"
)

// DefaultContactTTL bounds how long a cached contact id is trusted before
// the remote is consulted again.
const DefaultContactTTL = 24 * time.Hour

// ContactCache maps an external customer id to an accounting contact id,
// scoped per company. The cache is advisory: a miss or a failed lookup must
// fall through to the remote contact search, never to an error surfaced to
// the webhook caller.
type ContactCache interface {
	// Get returns the cached contact id and whether it was present.
	Get(ctx context.Context, companySlug, externalID string) (int64, bool, error)

	// Set records a contact id with a TTL.
	Set(ctx context.Context, companySlug, externalID string, contactID int64, ttl time.Duration) error

	// Close releases any resources held by the cache.
	Close() error
}
