package storefront

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
)

// HmacHeader is the webhook header carrying the base64 HMAC-SHA256 of the
// raw request body.
const HmacHeader = "X-Shopify-Hmac-Sha256"

// ShopDomainHeader is the webhook header identifying the tenant.
const ShopDomainHeader = "X-Shopify-Shop-Domain"

// ComputeSignature returns the base64-encoded HMAC-SHA256 of body under the
// shared webhook secret.
func ComputeSignature(secret string, body []byte) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(body)
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}

// VerifySignature checks a header-supplied signature against the raw body.
// It fails closed: an empty secret or an empty signature never verifies.
// The body must be the verbatim request bytes; any re-serialization would
// invalidate the signature.
func VerifySignature(secret string, body []byte, signature string) bool {
	if secret == "" || signature == "" {
		return false
	}
	expected := ComputeSignature(secret, body)
	return hmac.Equal([]byte(expected), []byte(signature))
}
