package sync

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/shopsync/backend/internal/application/tokens"
	"github.com/shopsync/backend/internal/domain/accounting"
	"github.com/shopsync/backend/internal/domain/storefront"
	"github.com/shopsync/backend/internal/domain/tenant"
	"github.com/shopsync/backend/internal/infrastructure/fiken"
)

// ErrConfigMissing means a connection record exists but carries no company
// slug, so there is nowhere to book against.
var ErrConfigMissing = errors.New("sync: shop connection has no company slug")

// Status classifies the outcome of one sync attempt. All statuses except a
// hard error answer the webhook with a success code, so the sender does not
// retry deliveries that can never succeed.
type Status string

const (
	// StatusSynced means the sales document was accepted.
	StatusSynced Status = "synced"
	// StatusSkippedNoCustomer means the order has no customer reference
	// and is intentionally not synced.
	StatusSkippedNoCustomer Status = "skipped_no_customer"
	// StatusShopNotAuthorized means no usable token exists for the shop.
	// The merchant has to (re-)authorize; retrying the delivery cannot
	// help.
	StatusShopNotAuthorized Status = "shop_not_authorized"
	// StatusSaleRejected means the accounting API rejected the payload.
	// The rejection detail is logged and returned for operator follow-up.
	StatusSaleRejected Status = "sale_rejected"
)

// Result is the outcome of one order sync attempt.
type Result struct {
	Status    Status
	OrderName string
	ContactID int64
	Detail    string
}

// TokenSource yields a usable access token plus the connection it belongs
// to.
type TokenSource interface {
	GetValidAccessToken(ctx context.Context, domain string) (string, *tenant.ShopConnection, error)
}

// SaleSubmitter submits a sales document to the accounting API.
type SaleSubmitter interface {
	CreateSale(ctx context.Context, token, companySlug string, sale *accounting.Sale) error
}

// OrderSyncService turns an authenticated order webhook into a booked sales
// document: obtain a token, resolve the contact, build the document, submit
// it. Benign skips and remote rejections come back as a Result; only faults
// that a redelivery could plausibly fix come back as an error.
type OrderSyncService struct {
	tokens    TokenSource
	resolver  *ContactResolver
	submitter SaleSubmitter
	logger    *zap.Logger
}

// NewOrderSyncService creates an order sync service.
func NewOrderSyncService(tokenSource TokenSource, resolver *ContactResolver, submitter SaleSubmitter, logger *zap.Logger) *OrderSyncService {
	return &OrderSyncService{
		tokens:    tokenSource,
		resolver:  resolver,
		submitter: submitter,
		logger:    logger,
	}
}

// SyncOrder processes one parsed order for the given shop domain.
func (s *OrderSyncService) SyncOrder(ctx context.Context, shopDomain string, order *storefront.Order) (*Result, error) {
	token, conn, err := s.tokens.GetValidAccessToken(ctx, shopDomain)
	if err != nil {
		if errors.Is(err, tokens.ErrNotConnected) || errors.Is(err, tokens.ErrReauthorizationRequired) {
			s.logger.Warn("order received for unauthorized shop",
				zap.String("domain", shopDomain),
				zap.Error(err),
			)
			return &Result{Status: StatusShopNotAuthorized, OrderName: order.Name}, nil
		}
		return nil, err
	}

	if conn.CompanySlug == "" {
		return nil, ErrConfigMissing
	}

	if !order.HasCustomer() {
		s.logger.Info("order has no customer, skipping sync",
			zap.String("domain", shopDomain),
			zap.String("order", order.Name),
		)
		return &Result{Status: StatusSkippedNoCustomer, OrderName: order.Name}, nil
	}

	contactID, err := s.resolver.Resolve(ctx, token, conn.CompanySlug, order.Customer)
	if err != nil {
		return nil, err
	}

	sale, err := accounting.BuildSale(order, contactID)
	if err != nil {
		return nil, err
	}

	if err := s.submitter.CreateSale(ctx, token, conn.CompanySlug, sale); err != nil {
		if errors.Is(err, fiken.ErrSaleSubmissionFailed) {
			s.logger.Error("sales document rejected",
				zap.String("domain", shopDomain),
				zap.String("order", order.Name),
				zap.Error(err),
			)
			return &Result{
				Status:    StatusSaleRejected,
				OrderName: order.Name,
				ContactID: contactID,
				Detail:    err.Error(),
			}, nil
		}
		return nil, err
	}

	s.logger.Info("order synced",
		zap.String("domain", shopDomain),
		zap.String("order", order.Name),
		zap.Int64("contact_id", contactID),
	)
	return &Result{Status: StatusSynced, OrderName: order.Name, ContactID: contactID}, nil
}
