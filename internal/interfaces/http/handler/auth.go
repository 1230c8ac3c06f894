package handler

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/shopsync/backend/internal/infrastructure/fiken"
	"github.com/shopsync/backend/internal/infrastructure/logger"
)

// OAuthClient is the accounting OAuth surface used by the auth flow.
type OAuthClient interface {
	AuthorizeURL(redirectURI, state string) string
	ExchangeAuthorizationCode(ctx context.Context, code, redirectURI string) (*fiken.TokenSet, error)
}

// oauthState is the round-tripped authorization state. It carries the shop
// domain through the provider redirect; the nonce keeps the value unique
// per attempt.
type oauthState struct {
	Shop  string `json:"shop"`
	Nonce string `json:"nonce"`
}

// AuthHandler runs the accounting-system OAuth flow for a shop: Login
// redirects the merchant to the provider, Callback exchanges the returned
// code and forwards the token set to the company-selection page.
type AuthHandler struct {
	BaseHandler
	client            OAuthClient
	redirectURI       string
	companySelectPath string
}

// NewAuthHandler creates an auth handler. redirectURI is the absolute
// callback URL registered with the provider; companySelectPath is where the
// merchant picks the company to book against after authorization.
func NewAuthHandler(client OAuthClient, redirectURI, companySelectPath string) *AuthHandler {
	return &AuthHandler{
		client:            client,
		redirectURI:       redirectURI,
		companySelectPath: companySelectPath,
	}
}

// RegisterRoutes registers auth routes
func (h *AuthHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/auth/login", h.Login)
	rg.GET("/auth/callback", h.Callback)
}

// Login redirects the merchant to the provider's authorization page.
func (h *AuthHandler) Login(c *gin.Context) {
	shop := c.Query("shop")
	if shop == "" {
		h.BadRequest(c, "Missing 'shop' parameter. Please launch this app from your store admin.")
		return
	}

	payload, err := json.Marshal(oauthState{Shop: shop, Nonce: uuid.NewString()})
	if err != nil {
		h.InternalError(c, "Failed to build authorization state")
		return
	}
	state := base64.StdEncoding.EncodeToString(payload)

	c.Redirect(http.StatusTemporaryRedirect, h.client.AuthorizeURL(h.redirectURI, state))
}

// Callback handles the provider redirect: it decodes the state to recover
// the shop, exchanges the code, and forwards the merchant to the
// company-selection page with the token set in the query string.
func (h *AuthHandler) Callback(c *gin.Context) {
	log := logger.GetGinLogger(c)

	if authErr := c.Query("error"); authErr != "" {
		h.BadRequest(c, "Authorization error: "+authErr)
		return
	}

	code := c.Query("code")
	if code == "" {
		h.BadRequest(c, "No code provided")
		return
	}

	shop, err := decodeState(c.Query("state"))
	if err != nil {
		h.BadRequest(c, "Invalid state parameter")
		return
	}
	if shop == "" {
		h.BadRequest(c, "Shop parameter lost during OAuth flow")
		return
	}

	tokens, err := h.client.ExchangeAuthorizationCode(c.Request.Context(), code, h.redirectURI)
	if err != nil {
		log.Error("authorization code exchange failed",
			zap.String("shop", shop),
			zap.Error(err),
		)
		h.InternalError(c, "Failed to exchange token")
		return
	}

	c.Redirect(http.StatusTemporaryRedirect, h.selectCompanyURL(shop, tokens))
}

func decodeState(state string) (string, error) {
	if state == "" {
		return "", nil
	}
	raw, err := base64.StdEncoding.DecodeString(state)
	if err != nil {
		return "", err
	}
	var decoded oauthState
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return "", err
	}
	return decoded.Shop, nil
}

func (h *AuthHandler) selectCompanyURL(shop string, tokens *fiken.TokenSet) string {
	q := url.Values{}
	q.Set("token", tokens.AccessToken)
	if tokens.RefreshToken != "" {
		q.Set("refresh_token", tokens.RefreshToken)
	}
	if tokens.ExpiresIn > 0 {
		q.Set("expires_in", strconv.FormatInt(tokens.ExpiresIn, 10))
	}
	q.Set("shop", shop)
	return h.companySelectPath + "?" + q.Encode()
}
