package accounting

// SaleKindExternalInvoice is the sale kind submitted for synced orders.
const SaleKindExternalInvoice = "external_invoice"

// Contact is a counterparty record in the accounting system. The
// MemberNumberString field holds the storefront customer id and is the sole
// deduplication key; it is never left blank for a real customer. Contacts
// are created lazily on the first order from a customer and never updated
// by this system afterwards.
type Contact struct {
	ContactID          int64           `json:"contactId,omitempty"`
	Name               string          `json:"name"`
	Email              string          `json:"email,omitempty"`
	MemberNumberString string          `json:"memberNumberString,omitempty"`
	Customer           bool            `json:"customer,omitempty"`
	Address            *ContactAddress `json:"address,omitempty"`
}

// ContactAddress is a counterparty postal address.
type ContactAddress struct {
	Address1    string `json:"address1,omitempty"`
	PostalCode  string `json:"postalCode,omitempty"`
	PostalPlace string `json:"postalPlace,omitempty"`
	Country     string `json:"country,omitempty"`
}

// Company is an accounting company the authorized user may book against.
type Company struct {
	Name               string `json:"name"`
	Slug               string `json:"slug"`
	OrganizationNumber string `json:"organizationNumber"`
	VatType            string `json:"vatType"`
}

// SaleLine is one line of a sales document. Net amounts are integer minor
// units: NetPrice in the base currency, NetPriceInCurrency in the order's
// native currency. The VAT fields are present only for domestic taxable
// lines; foreign lines must omit them entirely to pass remote validation.
type SaleLine struct {
	Description        string   `json:"description"`
	NetPrice           int64    `json:"netPrice"`
	NetPriceInCurrency int64    `json:"netPriceInCurrency"`
	VatType            VatClass `json:"vatType"`
	Account            string   `json:"account"`
	Vat                *int64   `json:"vat,omitempty"`
	VatInCurrency      *int64   `json:"vatInCurrency,omitempty"`
}

// Sale is the sales-document payload submitted to the accounting API. It is
// sent once per order; Identifier carries the order's human-readable
// reference and is not a strict idempotency key.
type Sale struct {
	Kind                string     `json:"kind"`
	Date                string     `json:"date"`
	CustomerID          int64      `json:"customerId"`
	TotalPaid           int64      `json:"totalPaid"`
	TotalPaidInCurrency int64      `json:"totalPaidInCurrency"`
	Currency            string     `json:"currency"`
	Lines               []SaleLine `json:"lines"`
	Identifier          string     `json:"identifier"`
}
