package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appsync "github.com/shopsync/backend/internal/application/sync"
	"github.com/shopsync/backend/internal/domain/accounting"
	"github.com/shopsync/backend/internal/domain/storefront"
	"github.com/shopsync/backend/internal/domain/tenant"
	"github.com/shopsync/backend/internal/infrastructure/cache"
)

const webhookSecret = "test-webhook-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

// stubSyncer records whether it was called and returns a fixed outcome.
type stubSyncer struct {
	called bool
	result *appsync.Result
	err    error
}

func (s *stubSyncer) SyncOrder(ctx context.Context, shopDomain string, order *storefront.Order) (*appsync.Result, error) {
	s.called = true
	return s.result, s.err
}

func newWebhookRouter(syncer OrderSyncer) *gin.Engine {
	router := gin.New()
	handler := NewWebhookHandler(syncer, webhookSecret)
	handler.RegisterRoutes(router.Group("/api/v1"))
	return router
}

func signedRequest(t *testing.T, body []byte, shopDomain string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/orders", bytes.NewReader(body))
	req.Header.Set(storefront.HmacHeader, storefront.ComputeSignature(webhookSecret, body))
	if shopDomain != "" {
		req.Header.Set(storefront.ShopDomainHeader, shopDomain)
	}
	return req
}

func orderBody(t *testing.T, order map[string]any) []byte {
	t.Helper()
	body, err := json.Marshal(order)
	require.NoError(t, err)
	return body
}

func validOrder() map[string]any {
	return map[string]any{
		"id":          int64(5001),
		"name":        "#5001",
		"total_price": "100.00",
		"total_tax":   "20.00",
		"currency":    "NOK",
		"created_at":  "2026-08-20T09:00:00Z",
		"customer": map[string]any{
			"id":         int64(7001),
			"email":      "kari@example.com",
			"first_name": "Kari",
			"last_name":  "Nordmann",
		},
		"line_items": []map[string]any{
			{"title": "Wool Sweater", "quantity": 2, "price": "50.00", "taxable": true},
		},
	}
}

func TestWebhook_TamperedBodyRejected(t *testing.T) {
	syncer := &stubSyncer{}
	router := newWebhookRouter(syncer)

	// Sign the original body, then deliver a tampered one.
	body := orderBody(t, validOrder())
	signature := storefront.ComputeSignature(webhookSecret, body)
	tampered := bytes.Replace(body, []byte("100.00"), []byte("999.00"), 1)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/orders", bytes.NewReader(tampered))
	req.Header.Set(storefront.HmacHeader, signature)
	req.Header.Set(storefront.ShopDomainHeader, "demo.myshopify.com")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, syncer.called, "no downstream calls may happen on a bad signature")
}

func TestWebhook_MissingSignatureRejected(t *testing.T) {
	syncer := &stubSyncer{}
	router := newWebhookRouter(syncer)

	body := orderBody(t, validOrder())
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/orders", bytes.NewReader(body))
	req.Header.Set(storefront.ShopDomainHeader, "demo.myshopify.com")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, syncer.called)
}

func TestWebhook_MissingShopHeader(t *testing.T) {
	syncer := &stubSyncer{}
	router := newWebhookRouter(syncer)

	req := signedRequest(t, orderBody(t, validOrder()), "")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, syncer.called)
}

func TestWebhook_MalformedOrder(t *testing.T) {
	syncer := &stubSyncer{}
	router := newWebhookRouter(syncer)

	req := signedRequest(t, []byte(`{"name": "#1", "garbage":`), "demo.myshopify.com")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, syncer.called)
}

func TestWebhook_NoCustomerSoftSuccess(t *testing.T) {
	order := validOrder()
	delete(order, "customer")

	syncer := &stubSyncer{result: &appsync.Result{Status: appsync.StatusSkippedNoCustomer, OrderName: "#5001"}}
	router := newWebhookRouter(syncer)

	req := signedRequest(t, orderBody(t, order), "demo.myshopify.com")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "No customer data")
}

func TestWebhook_UnauthorizedShopSoftSuccess(t *testing.T) {
	syncer := &stubSyncer{result: &appsync.Result{Status: appsync.StatusShopNotAuthorized, OrderName: "#5001"}}
	router := newWebhookRouter(syncer)

	req := signedRequest(t, orderBody(t, validOrder()), "ghost.myshopify.com")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Shop not authorized")
}

func TestWebhook_ConfigMissing(t *testing.T) {
	syncer := &stubSyncer{err: appsync.ErrConfigMissing}
	router := newWebhookRouter(syncer)

	req := signedRequest(t, orderBody(t, validOrder()), "demo.myshopify.com")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestWebhook_SaleRejectedSoftSuccess(t *testing.T) {
	syncer := &stubSyncer{result: &appsync.Result{
		Status:    appsync.StatusSaleRejected,
		OrderName: "#5001",
		Detail:    "duplicate identifier",
	}}
	router := newWebhookRouter(syncer)

	req := signedRequest(t, orderBody(t, validOrder()), "demo.myshopify.com")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "duplicate identifier")

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, false, resp["success"])
}

// ---------------------------------------------------------------------------
// Full-pipeline test with the real sync service behind the handler
// ---------------------------------------------------------------------------

type stubTokenSource struct {
	conn *tenant.ShopConnection
}

func (s *stubTokenSource) GetValidAccessToken(ctx context.Context, domain string) (string, *tenant.ShopConnection, error) {
	return "tok", s.conn, nil
}

type recordingDirectory struct {
	creates int
	nextID  int64
}

func (d *recordingDirectory) FindContactByExternalID(ctx context.Context, token, companySlug, externalID string) (*accounting.Contact, error) {
	return nil, nil
}

func (d *recordingDirectory) CreateContact(ctx context.Context, token, companySlug string, contact *accounting.Contact) (*accounting.Contact, error) {
	d.creates++
	return &accounting.Contact{ContactID: d.nextID, MemberNumberString: contact.MemberNumberString}, nil
}

type recordingSubmitter struct {
	sale *accounting.Sale
}

func (s *recordingSubmitter) CreateSale(ctx context.Context, token, companySlug string, sale *accounting.Sale) error {
	s.sale = sale
	return nil
}

func TestWebhook_DomesticOrderFullPipeline(t *testing.T) {
	contactCache := cache.NewInMemoryContactCache()
	t.Cleanup(func() { contactCache.Close() })

	conn := tenant.NewShopConnection("demo.myshopify.com", "sealed-a", "sealed-r", time.Now().UnixMilli()+3_600_000, "acme-as")
	directory := &recordingDirectory{nextID: 42}
	submitter := &recordingSubmitter{}

	resolver := appsync.NewContactResolver(directory, contactCache, zap.NewNop())
	service := appsync.NewOrderSyncService(&stubTokenSource{conn: conn}, resolver, submitter, zap.NewNop())

	router := newWebhookRouter(service)
	req := signedRequest(t, orderBody(t, validOrder()), "demo.myshopify.com")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["success"])

	assert.Equal(t, 1, directory.creates, "exactly one contact creation for a new customer")

	require.NotNil(t, submitter.sale)
	sale := submitter.sale
	assert.Equal(t, "external_invoice", sale.Kind)
	assert.Equal(t, "2026-08-20", sale.Date)
	assert.Equal(t, int64(42), sale.CustomerID)
	assert.Equal(t, "#5001", sale.Identifier)
	assert.Equal(t, int64(10000), sale.TotalPaid)

	require.Len(t, sale.Lines, 1)
	line := sale.Lines[0]
	assert.Equal(t, "2 x Wool Sweater", line.Description)
	assert.Equal(t, int64(10000), line.NetPrice)
	assert.Equal(t, accounting.VatHigh, line.VatType)
	assert.Equal(t, accounting.AccountSalesTaxable, line.Account)
	require.NotNil(t, line.Vat)
	assert.Equal(t, int64(2500), *line.Vat)
}

func TestWebhook_ZeroQuantityLineSkippedNotRejected(t *testing.T) {
	contactCache := cache.NewInMemoryContactCache()
	t.Cleanup(func() { contactCache.Close() })

	conn := tenant.NewShopConnection("demo.myshopify.com", "sealed-a", "sealed-r", time.Now().UnixMilli()+3_600_000, "acme-as")
	directory := &recordingDirectory{nextID: 42}
	submitter := &recordingSubmitter{}

	resolver := appsync.NewContactResolver(directory, contactCache, zap.NewNop())
	service := appsync.NewOrderSyncService(&stubTokenSource{conn: conn}, resolver, submitter, zap.NewNop())

	order := validOrder()
	order["line_items"] = []map[string]any{
		{"title": "Backordered", "quantity": 0, "price": "75.00", "taxable": true},
		{"title": "Wool Sweater", "quantity": 2, "price": "50.00", "taxable": true},
	}

	router := newWebhookRouter(service)
	req := signedRequest(t, orderBody(t, order), "demo.myshopify.com")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	// The zero-quantity line must not fail the delivery; it is dropped and
	// the rest of the order is synced.
	require.Equal(t, http.StatusOK, w.Code)

	require.NotNil(t, submitter.sale)
	require.Len(t, submitter.sale.Lines, 1)
	assert.Equal(t, "2 x Wool Sweater", submitter.sale.Lines[0].Description)
}
