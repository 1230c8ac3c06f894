package tokens

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/shopsync/backend/internal/domain/tenant"
	"github.com/shopsync/backend/internal/infrastructure/fiken"
	"github.com/shopsync/backend/internal/infrastructure/vault"
)

// RefreshBuffer is how long before the stored expiry a token is treated as
// expiring. It absorbs clock skew and the latency of the request the token
// is about to be used for.
const RefreshBuffer = 5 * time.Minute

var (
	// ErrNotConnected means the shop has no stored connection or no token
	// pair; the merchant has to run the authorization flow.
	ErrNotConnected = errors.New("tokens: shop is not connected")
	// ErrReauthorizationRequired means the refresh grant was rejected.
	// Retrying cannot help; the merchant has to re-authorize.
	ErrReauthorizationRequired = errors.New("tokens: shop must re-authorize")
)

// TokenRefresher exchanges a refresh token for a fresh token set.
type TokenRefresher interface {
	Refresh(ctx context.Context, refreshToken string) (*fiken.TokenSet, error)
}

// Manager owns the token lifecycle for shop connections: sealing tokens at
// rest, deciding when a stored token is still usable, and refreshing it
// when it is not. All other components obtain access tokens exclusively
// through the manager and never see sealed values.
type Manager struct {
	repo      tenant.ShopRepository
	vault     *vault.Vault
	refresher TokenRefresher
	logger    *zap.Logger
	now       func() time.Time
}

// NewManager creates a token lifecycle manager.
func NewManager(repo tenant.ShopRepository, v *vault.Vault, refresher TokenRefresher, logger *zap.Logger) *Manager {
	return &Manager{
		repo:      repo,
		vault:     v,
		refresher: refresher,
		logger:    logger,
		now:       time.Now,
	}
}

// SaveConnection seals a freshly exchanged token set and stores it for the
// shop, replacing any previous connection for the same domain. The relative
// expiry is converted to an absolute epoch-milliseconds instant here,
// exactly once. A missing refresh token is stored as the empty string, not
// as a sealed empty string, so the connection reads as not connected
// instead of attempting a refresh grant that can never succeed.
func (m *Manager) SaveConnection(ctx context.Context, domain string, tokens *fiken.TokenSet, companySlug string) error {
	sealedAccess, err := m.vault.Seal(tokens.AccessToken)
	if err != nil {
		return fmt.Errorf("tokens: failed to seal access token: %w", err)
	}
	sealedRefresh := ""
	if tokens.RefreshToken != "" {
		sealedRefresh, err = m.vault.Seal(tokens.RefreshToken)
		if err != nil {
			return fmt.Errorf("tokens: failed to seal refresh token: %w", err)
		}
	}

	conn := tenant.NewShopConnection(domain, sealedAccess, sealedRefresh, tokens.ExpiresAtMs(m.now()), companySlug)
	if err := m.repo.Upsert(ctx, conn); err != nil {
		return fmt.Errorf("tokens: failed to persist connection: %w", err)
	}

	m.logger.Info("shop connection saved",
		zap.String("domain", domain),
		zap.String("company_slug", companySlug),
	)
	return nil
}

// GetConnection returns the stored connection for a shop domain.
func (m *Manager) GetConnection(ctx context.Context, domain string) (*tenant.ShopConnection, error) {
	conn, err := m.repo.FindByDomain(ctx, domain)
	if err != nil {
		if errors.Is(err, tenant.ErrShopNotFound) {
			return nil, ErrNotConnected
		}
		return nil, err
	}
	return conn, nil
}

// GetValidAccessToken returns a plaintext access token guaranteed usable
// for at least RefreshBuffer. When the stored token expires inside the
// buffer it is refreshed, resealed, and persisted before being returned;
// otherwise no network call is made. The connection is returned alongside
// so callers can read the company slug without a second lookup.
func (m *Manager) GetValidAccessToken(ctx context.Context, domain string) (string, *tenant.ShopConnection, error) {
	conn, err := m.GetConnection(ctx, domain)
	if err != nil {
		return "", nil, err
	}
	if !conn.HasTokens() {
		return "", nil, ErrNotConnected
	}

	if !conn.ExpiresWithin(m.now(), RefreshBuffer) {
		access, err := m.vault.Unseal(conn.SealedAccessToken)
		if err != nil {
			return "", nil, fmt.Errorf("tokens: failed to unseal access token: %w", err)
		}
		return access, conn, nil
	}

	access, err := m.refresh(ctx, conn)
	if err != nil {
		return "", nil, err
	}
	return access, conn, nil
}

// refresh performs the refresh grant and persists the resealed pair. When
// the provider does not rotate the refresh token, the previously stored one
// is kept.
func (m *Manager) refresh(ctx context.Context, conn *tenant.ShopConnection) (string, error) {
	refreshToken, err := m.vault.Unseal(conn.SealedRefreshToken)
	if err != nil {
		return "", fmt.Errorf("tokens: failed to unseal refresh token: %w", err)
	}

	tokens, err := m.refresher.Refresh(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, fiken.ErrRefreshFailed) {
			m.logger.Warn("token refresh rejected",
				zap.String("domain", conn.Domain),
				zap.Error(err),
			)
			return "", fmt.Errorf("%w: %v", ErrReauthorizationRequired, err)
		}
		return "", fmt.Errorf("tokens: refresh failed: %w", err)
	}

	sealedAccess, err := m.vault.Seal(tokens.AccessToken)
	if err != nil {
		return "", fmt.Errorf("tokens: failed to seal access token: %w", err)
	}

	sealedRefresh := conn.SealedRefreshToken
	if tokens.RefreshToken != "" {
		sealedRefresh, err = m.vault.Seal(tokens.RefreshToken)
		if err != nil {
			return "", fmt.Errorf("tokens: failed to seal refresh token: %w", err)
		}
	}

	expiresAtMs := tokens.ExpiresAtMs(m.now())
	if err := m.repo.UpdateTokens(ctx, conn.Domain, sealedAccess, sealedRefresh, expiresAtMs); err != nil {
		return "", fmt.Errorf("tokens: failed to persist refreshed tokens: %w", err)
	}

	conn.SealedAccessToken = sealedAccess
	conn.SealedRefreshToken = sealedRefresh
	conn.ExpiresAtMs = expiresAtMs

	m.logger.Info("access token refreshed",
		zap.String("domain", conn.Domain),
		zap.Int64("expires_at_ms", expiresAtMs),
	)
	return tokens.AccessToken, nil
}
