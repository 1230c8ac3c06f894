package fiken

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopsync/backend/internal/domain/accounting"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(&Config{
		ClientID:     "cid",
		ClientSecret: "csecret",
		BaseURL:      server.URL,
		APIBaseURL:   server.URL + "/api/v2",
	})
	require.NoError(t, err)
	return client, server
}

func TestNewClient_ConfigValidation(t *testing.T) {
	_, err := NewClient(&Config{ClientSecret: "s"})
	assert.ErrorIs(t, err, ErrConfigMissingClientID)

	_, err = NewClient(&Config{ClientID: "c"})
	assert.ErrorIs(t, err, ErrConfigMissingClientSecret)
}

func TestClient_AuthorizeURL(t *testing.T) {
	client, err := NewClient(&Config{ClientID: "cid", ClientSecret: "cs"})
	require.NoError(t, err)

	u := client.AuthorizeURL("https://app.example.com/callback", "state123")
	assert.Contains(t, u, ProductionBaseURL+"/oauth/authorize?")
	assert.Contains(t, u, "client_id=cid")
	assert.Contains(t, u, "response_type=code")
	assert.Contains(t, u, "state=state123")
}

func TestClient_ExchangeAuthorizationCode(t *testing.T) {
	var gotForm map[string]string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/oauth/token", r.URL.Path)
		require.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		require.NoError(t, r.ParseForm())
		gotForm = map[string]string{
			"grant_type":   r.PostForm.Get("grant_type"),
			"code":         r.PostForm.Get("code"),
			"redirect_uri": r.PostForm.Get("redirect_uri"),
			"client_id":    r.PostForm.Get("client_id"),
		}
		_ = json.NewEncoder(w).Encode(TokenSet{
			AccessToken:  "acc",
			RefreshToken: "ref",
			ExpiresIn:    3600,
		})
	}))

	tokens, err := client.ExchangeAuthorizationCode(context.Background(), "the-code", "https://app/callback")
	require.NoError(t, err)
	assert.Equal(t, "acc", tokens.AccessToken)
	assert.Equal(t, "ref", tokens.RefreshToken)
	assert.Equal(t, int64(3600), tokens.ExpiresIn)

	assert.Equal(t, "authorization_code", gotForm["grant_type"])
	assert.Equal(t, "the-code", gotForm["code"])
	assert.Equal(t, "https://app/callback", gotForm["redirect_uri"])
	assert.Equal(t, "cid", gotForm["client_id"])
}

func TestClient_ExchangeAuthorizationCode_Rejected(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
	}))

	_, err := client.ExchangeAuthorizationCode(context.Background(), "bad", "https://app/callback")
	assert.ErrorIs(t, err, ErrAuthExchangeFailed)
	assert.Contains(t, err.Error(), "invalid_grant")
}

func TestClient_Refresh(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "refresh_token", r.PostForm.Get("grant_type"))
		assert.Equal(t, "old-refresh", r.PostForm.Get("refresh_token"))
		_ = json.NewEncoder(w).Encode(TokenSet{AccessToken: "new-acc", ExpiresIn: 3600})
	}))

	tokens, err := client.Refresh(context.Background(), "old-refresh")
	require.NoError(t, err)
	assert.Equal(t, "new-acc", tokens.AccessToken)
	assert.Empty(t, tokens.RefreshToken)
}

func TestClient_Refresh_Rejected(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"invalid_token"}`))
	}))

	_, err := client.Refresh(context.Background(), "stale")
	assert.ErrorIs(t, err, ErrRefreshFailed)
}

func TestTokenSet_ExpiresAtMs(t *testing.T) {
	tokens := &TokenSet{ExpiresIn: 3600}
	now := time.UnixMilli(1_000_000)
	assert.Equal(t, int64(1_000_000+3_600_000), tokens.ExpiresAtMs(now))
}

func TestClient_Companies(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v2/companies", r.URL.Path)
		require.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`[{"name":"Acme AS","slug":"acme-as","organizationNumber":"912345678","vatType":"HIGH"}]`))
	}))

	companies, err := client.Companies(context.Background(), "tok")
	require.NoError(t, err)
	require.Len(t, companies, 1)
	assert.Equal(t, "acme-as", companies[0].Slug)
}

func TestClient_Companies_Rejected(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))

	_, err := client.Companies(context.Background(), "tok")
	assert.ErrorIs(t, err, ErrCompanyListFailed)
}

func TestClient_FindContactByExternalID(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v2/companies/acme-as/contacts", r.URL.Path)
		require.Equal(t, "7001", r.URL.Query().Get("memberNumberString"))
		_, _ = w.Write([]byte(`[{"contactId":42,"name":"Kari Nordmann","memberNumberString":"7001"}]`))
	}))

	contact, err := client.FindContactByExternalID(context.Background(), "tok", "acme-as", "7001")
	require.NoError(t, err)
	require.NotNil(t, contact)
	assert.Equal(t, int64(42), contact.ContactID)
}

func TestClient_FindContactByExternalID_NoMatch(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))

	contact, err := client.FindContactByExternalID(context.Background(), "tok", "acme-as", "7001")
	require.NoError(t, err)
	assert.Nil(t, contact)
}

func TestClient_FindContactByExternalID_LookupFailureIsNoMatch(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	// A failed lookup falls through to creation rather than erroring.
	contact, err := client.FindContactByExternalID(context.Background(), "tok", "acme-as", "7001")
	require.NoError(t, err)
	assert.Nil(t, contact)
}

func TestClient_CreateContact_FollowsLocation(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v2/companies/acme-as/contacts", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		var contact accounting.Contact
		require.NoError(t, json.NewDecoder(r.Body).Decode(&contact))
		assert.Equal(t, "7001", contact.MemberNumberString)
		assert.True(t, contact.Customer)

		w.Header().Set("Location", "http://"+r.Host+"/api/v2/companies/acme-as/contacts/42")
		w.WriteHeader(http.StatusCreated)
	})
	mux.HandleFunc("/api/v2/companies/acme-as/contacts/42", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"contactId":42,"name":"Kari Nordmann","memberNumberString":"7001"}`))
	})

	client, _ := newTestClient(t, mux)

	created, err := client.CreateContact(context.Background(), "tok", "acme-as", &accounting.Contact{
		Name:               "Kari Nordmann",
		MemberNumberString: "7001",
		Customer:           true,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(42), created.ContactID)
}

func TestClient_CreateContact_BodyFallback(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"contactId":43,"name":"Kari Nordmann"}`))
	}))

	created, err := client.CreateContact(context.Background(), "tok", "acme-as", &accounting.Contact{Name: "Kari Nordmann"})
	require.NoError(t, err)
	assert.Equal(t, int64(43), created.ContactID)
}

func TestClient_CreateContact_NoIDAvailable(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	_, err := client.CreateContact(context.Background(), "tok", "acme-as", &accounting.Contact{Name: "X"})
	assert.ErrorIs(t, err, ErrContactCreationFailed)
}

func TestClient_CreateContact_Rejected(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"error":"email invalid"}`))
	}))

	_, err := client.CreateContact(context.Background(), "tok", "acme-as", &accounting.Contact{Name: "X"})
	assert.ErrorIs(t, err, ErrContactCreationFailed)
	assert.Contains(t, err.Error(), "email invalid")
}

func TestClient_CreateSale(t *testing.T) {
	var gotSale accounting.Sale
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v2/companies/acme-as/sales", r.URL.Path)
		require.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotSale))
		w.WriteHeader(http.StatusCreated)
	}))

	sale := &accounting.Sale{Kind: "external_invoice", Identifier: "#1001", CustomerID: 42}
	require.NoError(t, client.CreateSale(context.Background(), "tok", "acme-as", sale))
	assert.Equal(t, "#1001", gotSale.Identifier)
}

func TestClient_CreateSale_Rejected(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"lines must not be empty"}`))
	}))

	err := client.CreateSale(context.Background(), "tok", "acme-as", &accounting.Sale{})
	assert.ErrorIs(t, err, ErrSaleSubmissionFailed)
	assert.Contains(t, err.Error(), "lines must not be empty")
}
