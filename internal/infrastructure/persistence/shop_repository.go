package persistence

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/shopsync/backend/internal/domain/tenant"
	"github.com/shopsync/backend/internal/infrastructure/persistence/models"
)

// GormShopRepository implements tenant.ShopRepository using GORM
type GormShopRepository struct {
	db *gorm.DB
}

// NewGormShopRepository creates a new GormShopRepository
func NewGormShopRepository(db *gorm.DB) *GormShopRepository {
	return &GormShopRepository{db: db}
}

// FindByDomain finds a shop connection by its domain
func (r *GormShopRepository) FindByDomain(ctx context.Context, domain string) (*tenant.ShopConnection, error) {
	var model models.ShopConnectionModel
	if err := r.db.WithContext(ctx).
		Where("domain = ?", domain).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, tenant.ErrShopNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Upsert creates or replaces the connection for the model's domain
func (r *GormShopRepository) Upsert(ctx context.Context, conn *tenant.ShopConnection) error {
	model := models.ShopConnectionModelFromDomain(conn)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "domain"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"sealed_access_token", "sealed_refresh_token", "expires_at_ms", "company_slug", "updated_at",
			}),
		}).
		Create(model).Error
}

// UpdateTokens atomically replaces the sealed token pair and expiry for a shop
func (r *GormShopRepository) UpdateTokens(ctx context.Context, domain, sealedAccess, sealedRefresh string, expiresAtMs int64) error {
	result := r.db.WithContext(ctx).
		Model(&models.ShopConnectionModel{}).
		Where("domain = ?", domain).
		Updates(map[string]any{
			"sealed_access_token":  sealedAccess,
			"sealed_refresh_token": sealedRefresh,
			"expires_at_ms":        expiresAtMs,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return tenant.ErrShopNotFound
	}
	return nil
}

// Ensure GormShopRepository implements ShopRepository
var _ tenant.ShopRepository = (*GormShopRepository)(nil)
