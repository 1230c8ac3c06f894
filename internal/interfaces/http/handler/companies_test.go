package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/shopsync/backend/internal/domain/accounting"
)

type stubCompanyLister struct {
	companies []accounting.Company
	err       error
	token     string
}

func (s *stubCompanyLister) Companies(ctx context.Context, token string) ([]accounting.Company, error) {
	s.token = token
	return s.companies, s.err
}

func newCompaniesRouter(client CompanyLister) *gin.Engine {
	router := gin.New()
	handler := NewCompaniesHandler(client)
	handler.RegisterRoutes(router.Group("/api/v1"))
	return router
}

func TestListCompanies_ForwardsBearerToken(t *testing.T) {
	client := &stubCompanyLister{
		companies: []accounting.Company{{Name: "Acme AS", Slug: "acme-as"}},
	}
	router := newCompaniesRouter(client)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/companies", nil)
	req.Header.Set("Authorization", "Bearer tok-123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "tok-123", client.token)
	assert.Contains(t, w.Body.String(), "acme-as")
}

func TestListCompanies_MissingToken(t *testing.T) {
	router := newCompaniesRouter(&stubCompanyLister{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/companies", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestListCompanies_UpstreamFailure(t *testing.T) {
	router := newCompaniesRouter(&stubCompanyLister{err: assert.AnError})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/companies", nil)
	req.Header.Set("Authorization", "Bearer tok-123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadGateway, w.Code)
}
