package handler

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/shopsync/backend/internal/domain/accounting"
	"github.com/shopsync/backend/internal/infrastructure/logger"
	"github.com/shopsync/backend/internal/interfaces/http/dto"
)

// CompanyLister fetches the companies a bearer token may access.
type CompanyLister interface {
	Companies(ctx context.Context, token string) ([]accounting.Company, error)
}

// CompaniesHandler proxies the company listing for the company-selection
// page. The page holds a bare token at this point in onboarding; nothing is
// persisted yet, so the token travels in the Authorization header.
type CompaniesHandler struct {
	BaseHandler
	client CompanyLister
}

// NewCompaniesHandler creates a companies handler.
func NewCompaniesHandler(client CompanyLister) *CompaniesHandler {
	return &CompaniesHandler{client: client}
}

// RegisterRoutes registers company routes
func (h *CompaniesHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/companies", h.ListCompanies)
}

// ListCompanies returns the accounting companies the caller's token may
// book against.
func (h *CompaniesHandler) ListCompanies(c *gin.Context) {
	log := logger.GetGinLogger(c)

	token := bearerToken(c.GetHeader("Authorization"))
	if token == "" {
		h.Unauthorized(c, "No token provided")
		return
	}

	companies, err := h.client.Companies(c.Request.Context(), token)
	if err != nil {
		log.Error("company listing failed", zap.Error(err))
		h.ErrorWithCode(c, dto.ErrCodeUpstream, "Failed to fetch companies")
		return
	}

	h.Success(c, companies)
}

func bearerToken(header string) string {
	if header == "" {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}
