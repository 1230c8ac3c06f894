package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/shopsync/backend/internal/infrastructure/fiken"
	"github.com/shopsync/backend/internal/infrastructure/logger"
)

// ConnectionStore persists a shop's token set and company choice.
type ConnectionStore interface {
	SaveConnection(ctx context.Context, domain string, tokens *fiken.TokenSet, companySlug string) error
}

// SaveConfigRequest is the configuration submitted by the company-selection
// page after the OAuth flow. Field names follow the token endpoint's wire
// format because the page passes them through unchanged.
type SaveConfigRequest struct {
	ShopDomain   string `json:"shopDomain" binding:"required"`
	AccessToken  string `json:"access_token" binding:"required"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	CompanySlug  string `json:"company_slug" binding:"required"`
}

// ConfigHandler stores the shop-to-company linkage that completes
// onboarding.
type ConfigHandler struct {
	BaseHandler
	store ConnectionStore
}

// NewConfigHandler creates a config handler.
func NewConfigHandler(store ConnectionStore) *ConfigHandler {
	return &ConfigHandler{store: store}
}

// RegisterRoutes registers config routes
func (h *ConfigHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/config", h.SaveConfig)
}

// SaveConfig seals and stores the submitted token set for the shop.
func (h *ConfigHandler) SaveConfig(c *gin.Context) {
	log := logger.GetGinLogger(c)

	var req SaveConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Missing required fields")
		return
	}

	tokens := &fiken.TokenSet{
		AccessToken:  req.AccessToken,
		RefreshToken: req.RefreshToken,
		ExpiresIn:    req.ExpiresIn,
	}

	if err := h.store.SaveConnection(c.Request.Context(), req.ShopDomain, tokens, req.CompanySlug); err != nil {
		log.Error("failed to save shop configuration",
			zap.String("domain", req.ShopDomain),
			zap.Error(err),
		)
		h.InternalError(c, "Failed to save configuration")
		return
	}

	h.Success(c, gin.H{"domain": req.ShopDomain, "company_slug": req.CompanySlug})
}
