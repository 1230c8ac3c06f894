package fiken

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopsync/backend/internal/domain/accounting"
)

// maxResponseSize limits the response body size to prevent memory exhaustion
const maxResponseSize = 2 * 1024 * 1024 // 2MB max response

// ---------------------------------------------------------------------------
// Errors
// ---------------------------------------------------------------------------

var (
	// ErrAuthExchangeFailed means the remote rejected an
	// authorization-code grant.
	ErrAuthExchangeFailed = errors.New("fiken: authorization code exchange failed")
	// ErrRefreshFailed means the remote rejected a refresh grant. Callers
	// must treat this as "tenant requires re-authorization", not as a
	// transient error.
	ErrRefreshFailed = errors.New("fiken: token refresh rejected")
	// ErrContactCreationFailed means contact creation failed or the
	// created contact could not be retrieved.
	ErrContactCreationFailed = errors.New("fiken: contact creation failed")
	// ErrSaleSubmissionFailed means the sales-document endpoint rejected
	// the payload.
	ErrSaleSubmissionFailed = errors.New("fiken: sale submission failed")
	// ErrCompanyListFailed means the companies collection could not be
	// fetched.
	ErrCompanyListFailed = errors.New("fiken: company listing failed")
	// ErrUnavailable means the remote could not be reached at all.
	ErrUnavailable = errors.New("fiken: remote unavailable")
)

// TokenSet is the token endpoint response. ExpiresIn is relative seconds;
// it is converted to an absolute epoch-milliseconds expiry exactly once, at
// the moment of exchange. RefreshToken is present only when the provider
// rotates it.
type TokenSet struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresIn    int64  `json:"expires_in"`
	Scope        string `json:"scope,omitempty"`
}

// ExpiresAtMs converts the relative expiry to epoch milliseconds from now.
func (t *TokenSet) ExpiresAtMs(now time.Time) int64 {
	return now.UnixMilli() + t.ExpiresIn*1000
}

// Client is an HTTP client for the Fiken OAuth and REST APIs. All calls are
// blocking from the caller's perspective; timeouts come from the configured
// http.Client.
type Client struct {
	config     *Config
	httpClient *http.Client
}

// NewClient creates a new Fiken client with the given configuration
func NewClient(config *Config) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: time.Duration(config.TimeoutSeconds) * time.Second,
		},
	}, nil
}

// ---------------------------------------------------------------------------
// OAuth
// ---------------------------------------------------------------------------

// AuthorizeURL builds the OAuth authorization URL for the given redirect
// URI and opaque state value.
func (c *Client) AuthorizeURL(redirectURI, state string) string {
	q := url.Values{}
	q.Set("client_id", c.config.ClientID)
	q.Set("redirect_uri", redirectURI)
	q.Set("response_type", "code")
	q.Set("state", state)
	return c.config.BaseURL + "/oauth/authorize?" + q.Encode()
}

// ExchangeAuthorizationCode trades an authorization code for a token set.
func (c *Client) ExchangeAuthorizationCode(ctx context.Context, code, redirectURI string) (*TokenSet, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("redirect_uri", redirectURI)
	form.Set("client_id", c.config.ClientID)
	form.Set("client_secret", c.config.ClientSecret)

	tokens, err := c.postTokenForm(ctx, form)
	if err != nil {
		if errors.Is(err, errTokenEndpointRejected) {
			return nil, fmt.Errorf("%w: %s", ErrAuthExchangeFailed, errRemoteBody(err))
		}
		return nil, err
	}
	return tokens, nil
}

// Refresh trades a refresh token for a fresh token set.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*TokenSet, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)
	form.Set("client_id", c.config.ClientID)
	form.Set("client_secret", c.config.ClientSecret)

	tokens, err := c.postTokenForm(ctx, form)
	if err != nil {
		if errors.Is(err, errTokenEndpointRejected) {
			return nil, fmt.Errorf("%w: %s", ErrRefreshFailed, errRemoteBody(err))
		}
		return nil, err
	}
	return tokens, nil
}

// errTokenEndpointRejected carries the remote error body through the shared
// form-post helper so the caller can wrap it in the grant-specific error.
var errTokenEndpointRejected = errors.New("fiken: token endpoint rejected request")

type remoteBodyError struct {
	body string
}

func (e *remoteBodyError) Error() string { return e.body }

func errRemoteBody(err error) string {
	var rb *remoteBodyError
	if errors.As(err, &rb) {
		return rb.body
	}
	return err.Error()
}

func (c *Client) postTokenForm(ctx context.Context, form url.Values) (*TokenSet, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.config.BaseURL+"/oauth/token", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("fiken: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("fiken: failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: %w", errTokenEndpointRejected, &remoteBodyError{body: string(body)})
	}

	var tokens TokenSet
	if err := json.Unmarshal(body, &tokens); err != nil {
		return nil, fmt.Errorf("fiken: failed to parse token response: %w", err)
	}
	return &tokens, nil
}

// ---------------------------------------------------------------------------
// Companies
// ---------------------------------------------------------------------------

// Companies lists the accounting companies the bearer token may access.
func (c *Client) Companies(ctx context.Context, token string) ([]accounting.Company, error) {
	body, status, err := c.get(ctx, token, c.config.APIBaseURL+"/companies")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCompanyListFailed, err)
	}
	if status < 200 || status >= 300 {
		return nil, fmt.Errorf("%w: %s", ErrCompanyListFailed, string(body))
	}

	var companies []accounting.Company
	if err := json.Unmarshal(body, &companies); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCompanyListFailed, err)
	}
	return companies, nil
}

// ---------------------------------------------------------------------------
// Contacts
// ---------------------------------------------------------------------------

// FindContactByExternalID queries the contacts collection filtered on the
// external-link field. Returns nil when no contact matches; a failed lookup
// is also treated as no match so the caller falls through to creation.
func (c *Client) FindContactByExternalID(ctx context.Context, token, companySlug, externalID string) (*accounting.Contact, error) {
	endpoint := fmt.Sprintf("%s/companies/%s/contacts?memberNumberString=%s",
		c.config.APIBaseURL, companySlug, url.QueryEscape(externalID))

	body, status, err := c.get(ctx, token, endpoint)
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		return nil, nil
	}

	var contacts []accounting.Contact
	if err := json.Unmarshal(body, &contacts); err != nil {
		return nil, nil
	}
	if len(contacts) == 0 {
		return nil, nil
	}
	return &contacts[0], nil
}

// CreateContact submits a new contact and returns the canonical created
// record. The remote normally answers with a Location header pointing at
// the new resource, which is fetched for the canonical fields; a body
// carrying the created object is accepted as fallback.
func (c *Client) CreateContact(ctx context.Context, token, companySlug string, contact *accounting.Contact) (*accounting.Contact, error) {
	endpoint := fmt.Sprintf("%s/companies/%s/contacts", c.config.APIBaseURL, companySlug)

	payload, err := json.Marshal(contact)
	if err != nil {
		return nil, fmt.Errorf("fiken: failed to marshal contact: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("fiken: failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("fiken: failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: %s", ErrContactCreationFailed, string(body))
	}

	// Preferred path: follow the Location header to the created resource.
	if location := resp.Header.Get("Location"); location != "" {
		created, err := c.fetchContact(ctx, token, location)
		if err != nil {
			return nil, fmt.Errorf("%w: created but not retrievable: %v", ErrContactCreationFailed, err)
		}
		return created, nil
	}

	// Fallback path: some responses carry the created object directly.
	var created accounting.Contact
	if err := json.Unmarshal(body, &created); err != nil || created.ContactID == 0 {
		return nil, fmt.Errorf("%w: created but no id available", ErrContactCreationFailed)
	}
	return &created, nil
}

func (c *Client) fetchContact(ctx context.Context, token, contactURL string) (*accounting.Contact, error) {
	body, status, err := c.get(ctx, token, contactURL)
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		return nil, fmt.Errorf("HTTP %d", status)
	}
	var contact accounting.Contact
	if err := json.Unmarshal(body, &contact); err != nil {
		return nil, err
	}
	return &contact, nil
}

// ---------------------------------------------------------------------------
// Sales
// ---------------------------------------------------------------------------

// CreateSale submits a sales-document payload. The remote error body is
// surfaced in the wrapped error for operator follow-up.
func (c *Client) CreateSale(ctx context.Context, token, companySlug string, sale *accounting.Sale) error {
	endpoint := fmt.Sprintf("%s/companies/%s/sales", c.config.APIBaseURL, companySlug)

	payload, err := json.Marshal(sale)
	if err != nil {
		return fmt.Errorf("fiken: failed to marshal sale: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("fiken: failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("fiken: failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: %s", ErrSaleSubmissionFailed, string(body))
	}
	return nil
}

// ---------------------------------------------------------------------------
// Internal Helpers
// ---------------------------------------------------------------------------

// get performs a bearer-authenticated GET and returns the body and status.
// Transport failures return an error; HTTP-level failures do not, so each
// endpoint can decide how a non-2xx status maps to its semantics.
func (c *Client) get(ctx context.Context, token, endpoint string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("fiken: failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, 0, fmt.Errorf("fiken: failed to read response: %w", err)
	}
	return body, resp.StatusCode, nil
}
