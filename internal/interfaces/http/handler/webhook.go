package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appsync "github.com/shopsync/backend/internal/application/sync"
	"github.com/shopsync/backend/internal/domain/storefront"
	"github.com/shopsync/backend/internal/infrastructure/logger"
	"github.com/shopsync/backend/internal/interfaces/http/dto"
)

// OrderSyncer processes one parsed order for a shop domain.
type OrderSyncer interface {
	SyncOrder(ctx context.Context, shopDomain string, order *storefront.Order) (*appsync.Result, error)
}

// WebhookHandler receives storefront order webhooks. Verification runs over
// the raw body before any parsing; nothing downstream executes on a bad
// signature.
type WebhookHandler struct {
	BaseHandler
	service OrderSyncer
	secret  string
}

// NewWebhookHandler creates a webhook handler.
func NewWebhookHandler(service OrderSyncer, webhookSecret string) *WebhookHandler {
	return &WebhookHandler{
		service: service,
		secret:  webhookSecret,
	}
}

// RegisterRoutes registers webhook routes
func (h *WebhookHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/webhooks/orders", h.HandleOrderWebhook)
}

// HandleOrderWebhook processes an order-created webhook delivery.
func (h *WebhookHandler) HandleOrderWebhook(c *gin.Context) {
	log := logger.GetGinLogger(c)

	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.InternalError(c, "Failed to read request body")
		return
	}

	signature := c.GetHeader(storefront.HmacHeader)
	if !storefront.VerifySignature(h.secret, raw, signature) {
		log.Warn("webhook signature verification failed")
		h.Error(c, http.StatusUnauthorized, dto.ErrCodeSignatureInvalid, "Unauthorized")
		return
	}

	shopDomain := c.GetHeader(storefront.ShopDomainHeader)
	if shopDomain == "" {
		h.BadRequest(c, "Missing shop domain header")
		return
	}

	order, err := storefront.ParseOrder(raw)
	if err != nil {
		log.Warn("rejecting malformed order document",
			zap.String("domain", shopDomain),
			zap.Error(err),
		)
		h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidJSON, "Malformed order document")
		return
	}

	result, err := h.service.SyncOrder(c.Request.Context(), shopDomain, order)
	if err != nil {
		if errors.Is(err, appsync.ErrConfigMissing) {
			h.NotFound(c, "Configuration lost")
			return
		}
		log.Error("order sync failed",
			zap.String("domain", shopDomain),
			zap.String("order", order.Name),
			zap.Error(err),
		)
		h.InternalError(c, "Internal Server Error")
		return
	}

	switch result.Status {
	case appsync.StatusSkippedNoCustomer:
		h.Message(c, "No customer data")
	case appsync.StatusShopNotAuthorized:
		h.Message(c, "Shop not authorized")
	case appsync.StatusSaleRejected:
		// Answered 200 so the sender stops redelivering; the rejection
		// detail travels in the body and the log for operator follow-up.
		c.JSON(http.StatusOK, dto.Response{
			Success: false,
			Error: &dto.ErrorInfo{
				Code:    dto.ErrCodeUpstream,
				Message: "Failed to create sale in accounting system",
				Details: result.Detail,
			},
		})
	default:
		h.Success(c, gin.H{
			"order":      result.OrderName,
			"contact_id": result.ContactID,
		})
	}
}
