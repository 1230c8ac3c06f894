package sync

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/shopsync/backend/internal/domain/accounting"
	"github.com/shopsync/backend/internal/domain/storefront"
	"github.com/shopsync/backend/internal/infrastructure/cache"
)

// ContactDirectory is the remote contact API surface used by the resolver.
type ContactDirectory interface {
	FindContactByExternalID(ctx context.Context, token, companySlug, externalID string) (*accounting.Contact, error)
	CreateContact(ctx context.Context, token, companySlug string, contact *accounting.Contact) (*accounting.Contact, error)
}

// ContactResolver maps a storefront customer to an accounting contact id,
// creating the contact on first sight. Resolution order is cache, then
// remote search on the external-id link, then creation. Two concurrent
// webhooks for the same new customer can race past the search and create
// duplicate contacts; the stored external id keeps both findable, so the
// race is accepted rather than locked around.
type ContactResolver struct {
	directory ContactDirectory
	cache     cache.ContactCache
	logger    *zap.Logger
}

// NewContactResolver creates a contact resolver.
func NewContactResolver(directory ContactDirectory, contactCache cache.ContactCache, logger *zap.Logger) *ContactResolver {
	return &ContactResolver{
		directory: directory,
		cache:     contactCache,
		logger:    logger,
	}
}

// Resolve returns the accounting contact id for the given customer.
func (r *ContactResolver) Resolve(ctx context.Context, token, companySlug string, customer *storefront.Customer) (int64, error) {
	externalID := customer.ExternalCustomerID()

	if id, ok, err := r.cache.Get(ctx, companySlug, externalID); err == nil && ok {
		return id, nil
	} else if err != nil {
		r.logger.Warn("contact cache read failed",
			zap.String("external_id", externalID),
			zap.Error(err),
		)
	}

	contact, err := r.directory.FindContactByExternalID(ctx, token, companySlug, externalID)
	if err != nil {
		return 0, fmt.Errorf("sync: contact lookup failed: %w", err)
	}

	if contact == nil {
		r.logger.Info("creating accounting contact",
			zap.String("external_id", externalID),
			zap.String("company_slug", companySlug),
		)
		contact, err = r.directory.CreateContact(ctx, token, companySlug, contactFromCustomer(customer))
		if err != nil {
			return 0, err
		}
	}

	if err := r.cache.Set(ctx, companySlug, externalID, contact.ContactID, cache.DefaultContactTTL); err != nil {
		r.logger.Warn("contact cache write failed",
			zap.String("external_id", externalID),
			zap.Error(err),
		)
	}

	return contact.ContactID, nil
}

// contactFromCustomer maps the storefront customer to a new contact record.
// The external customer id goes into the member-number link field; that
// field is what makes the contact findable on the next order.
func contactFromCustomer(customer *storefront.Customer) *accounting.Contact {
	contact := &accounting.Contact{
		Name:               customer.DisplayName(),
		Email:              customer.Email,
		MemberNumberString: customer.ExternalCustomerID(),
		Customer:           true,
	}
	if addr := customer.DefaultAddress; addr != nil {
		contact.Address = &accounting.ContactAddress{
			Address1:    addr.Address1,
			PostalCode:  addr.Zip,
			PostalPlace: addr.City,
			Country:     addr.Country,
		}
	}
	return contact
}
