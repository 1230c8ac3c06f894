package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/shopsync/backend/internal/domain/tenant"
)

// ShopConnectionModel is the persistence model for the ShopConnection
// domain entity. The shop domain is the tenant key and carries a unique
// index; tokens are stored sealed only.
type ShopConnectionModel struct {
	ID                 uuid.UUID `gorm:"type:uuid;primary_key"`
	Domain             string    `gorm:"type:varchar(255);not null;uniqueIndex"`
	SealedAccessToken  string    `gorm:"type:text;not null"`
	SealedRefreshToken string    `gorm:"type:text;not null"`
	ExpiresAtMs        int64     `gorm:"not null"`
	CompanySlug        string    `gorm:"type:varchar(200);not null"`
	CreatedAt          time.Time `gorm:"not null"`
	UpdatedAt          time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ShopConnectionModel) TableName() string {
	return "shop_connections"
}

// ToDomain converts the persistence model to a domain ShopConnection.
func (m *ShopConnectionModel) ToDomain() *tenant.ShopConnection {
	return &tenant.ShopConnection{
		ID:                 m.ID,
		Domain:             m.Domain,
		SealedAccessToken:  m.SealedAccessToken,
		SealedRefreshToken: m.SealedRefreshToken,
		ExpiresAtMs:        m.ExpiresAtMs,
		CompanySlug:        m.CompanySlug,
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}
}

// ShopConnectionModelFromDomain builds a persistence model from a domain
// ShopConnection.
func ShopConnectionModelFromDomain(c *tenant.ShopConnection) *ShopConnectionModel {
	return &ShopConnectionModel{
		ID:                 c.ID,
		Domain:             c.Domain,
		SealedAccessToken:  c.SealedAccessToken,
		SealedRefreshToken: c.SealedRefreshToken,
		ExpiresAtMs:        c.ExpiresAtMs,
		CompanySlug:        c.CompanySlug,
		CreatedAt:          c.CreatedAt,
		UpdatedAt:          c.UpdatedAt,
	}
}
