package tenant

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrShopNotFound = errors.New("tenant: shop not found")

// ShopConnection links one storefront shop (identified by its domain) to
// one accounting company. Token fields hold sealed values only; they are
// always either both present or both absent. The record is created on OAuth
// completion and mutated on every token refresh, exclusively by the token
// lifecycle manager.
type ShopConnection struct {
	ID                 uuid.UUID
	Domain             string
	SealedAccessToken  string
	SealedRefreshToken string
	// ExpiresAtMs is the access-token expiry as epoch milliseconds,
	// computed once from the remote "expires in seconds" value.
	ExpiresAtMs int64
	CompanySlug string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewShopConnection creates a linked shop record.
func NewShopConnection(domain, sealedAccess, sealedRefresh string, expiresAtMs int64, companySlug string) *ShopConnection {
	return &ShopConnection{
		ID:                 uuid.New(),
		Domain:             domain,
		SealedAccessToken:  sealedAccess,
		SealedRefreshToken: sealedRefresh,
		ExpiresAtMs:        expiresAtMs,
		CompanySlug:        companySlug,
	}
}

// HasTokens reports whether the connection holds a sealed token pair.
func (s *ShopConnection) HasTokens() bool {
	return s.SealedAccessToken != "" && s.SealedRefreshToken != ""
}

// ExpiresWithin reports whether the access token expires before now+buffer.
// The buffer guards against clock skew and in-flight request latency.
func (s *ShopConnection) ExpiresWithin(now time.Time, buffer time.Duration) bool {
	return now.UnixMilli() >= s.ExpiresAtMs-buffer.Milliseconds()
}

// ShopRepository persists shop connections keyed by domain. Reads and
// upserts are atomic per shop; there is no cross-request locking beyond
// that.
type ShopRepository interface {
	// FindByDomain returns the connection for a shop domain, or
	// ErrShopNotFound.
	FindByDomain(ctx context.Context, domain string) (*ShopConnection, error)

	// Upsert creates the connection or replaces the existing record for
	// the same domain.
	Upsert(ctx context.Context, conn *ShopConnection) error

	// UpdateTokens atomically replaces the sealed token pair and expiry
	// for a shop.
	UpdateTokens(ctx context.Context, domain, sealedAccess, sealedRefresh string, expiresAtMs int64) error
}
