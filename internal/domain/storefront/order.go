package storefront

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
)

// ---------------------------------------------------------------------------
// Errors
// ---------------------------------------------------------------------------

var (
	ErrOrderMalformed = errors.New("storefront: malformed order document")
	ErrOrderInvalid   = errors.New("storefront: order document failed validation")
)

var validate = validator.New()

// ---------------------------------------------------------------------------
// Order Document
// ---------------------------------------------------------------------------

// Order is the storefront order document delivered by the webhook.
// It is immutable once parsed; amounts stay as decimal strings until the
// invoice builder converts them to minor units.
type Order struct {
	ID            int64          `json:"id" validate:"required"`
	Name          string         `json:"name" validate:"required"`
	Email         string         `json:"email"`
	TotalPrice    string         `json:"total_price" validate:"required"`
	TotalTax      string         `json:"total_tax"`
	Currency      string         `json:"currency" validate:"required,len=3"`
	CreatedAt     string         `json:"created_at"`
	Customer      *Customer      `json:"customer"`
	LineItems     []LineItem     `json:"line_items" validate:"dive"`
	ShippingLines []ShippingLine `json:"shipping_lines" validate:"dive"`
}

// Customer is the order's customer reference. A nil Customer on an order
// means the order is not synced.
type Customer struct {
	ID             int64    `json:"id" validate:"required"`
	Email          string   `json:"email"`
	FirstName      string   `json:"first_name"`
	LastName       string   `json:"last_name"`
	DefaultAddress *Address `json:"default_address"`
}

// Address is the customer's postal address as supplied by the storefront.
type Address struct {
	Address1 string `json:"address1"`
	City     string `json:"city"`
	Zip      string `json:"zip"`
	Country  string `json:"country"`
}

// LineItem is a single merchandise line on the order. A zero quantity is
// valid input; the line totals to zero and the invoice builder drops it.
type LineItem struct {
	Title    string `json:"title" validate:"required"`
	Quantity int    `json:"quantity" validate:"min=0"`
	Price    string `json:"price" validate:"required"`
	Taxable  bool   `json:"taxable"`
}

// ShippingLine is a shipping charge on the order. Shipping lines carry no
// per-line taxable flag; taxability is inferred from the order's tax total.
type ShippingLine struct {
	Title string `json:"title"`
	Price string `json:"price" validate:"required"`
}

// ---------------------------------------------------------------------------
// Parsing
// ---------------------------------------------------------------------------

// ParseOrder decodes and validates a raw webhook body into an Order.
// Malformed JSON and documents missing required fields are rejected with a
// typed error rather than propagating undefined fields downstream.
func ParseOrder(raw []byte) (*Order, error) {
	var order Order
	if err := json.Unmarshal(raw, &order); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOrderMalformed, err)
	}
	if err := validate.Struct(&order); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOrderInvalid, err)
	}
	return &order, nil
}

// HasCustomer reports whether the order carries a customer reference.
// Orders without one are intentionally not synced.
func (o *Order) HasCustomer() bool {
	return o.Customer != nil && o.Customer.ID != 0
}

// CreatedDate returns the order's creation timestamp truncated to the
// calendar day (YYYY-MM-DD). Falls back to today when the storefront omits
// or mangles the timestamp.
func (o *Order) CreatedDate() string {
	if t, err := time.Parse(time.RFC3339, o.CreatedAt); err == nil {
		return t.Format("2006-01-02")
	}
	if len(o.CreatedAt) >= 10 {
		if _, err := time.Parse("2006-01-02", o.CreatedAt[:10]); err == nil {
			return o.CreatedAt[:10]
		}
	}
	return time.Now().Format("2006-01-02")
}

// ExternalCustomerID returns the stringified storefront customer id. This is
// the sole deduplication key for counterparty lookup and must never be blank
// for a real customer.
func (c *Customer) ExternalCustomerID() string {
	return strconv.FormatInt(c.ID, 10)
}

// DisplayName returns the contact display name: first and last name when
// present, otherwise the customer's email.
func (c *Customer) DisplayName() string {
	if c.FirstName != "" {
		return c.FirstName + " " + c.LastName
	}
	return c.Email
}
