package storefront

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVerifySignature_Roundtrip(t *testing.T) {
	bodies := [][]byte{
		[]byte(`{"id":1}`),
		[]byte(""),
		[]byte(`{"name":"#1001","total_price":"100.00"}`),
	}
	secrets := []string{"secret", "another-much-longer-webhook-secret-value"}

	for _, secret := range secrets {
		for _, body := range bodies {
			sig := ComputeSignature(secret, body)
			assert.True(t, VerifySignature(secret, body, sig))
		}
	}
}

func TestVerifySignature_BodyBitFlip(t *testing.T) {
	body := []byte(`{"id":1,"total_price":"100.00"}`)
	sig := ComputeSignature("secret", body)

	for i := range body {
		flipped := append([]byte(nil), body...)
		flipped[i] ^= 0x01
		assert.False(t, VerifySignature("secret", flipped, sig), "flip at byte %d", i)
	}
}

func TestVerifySignature_WrongSecret(t *testing.T) {
	body := []byte(`{"id":1}`)
	sig := ComputeSignature("secret", body)

	assert.False(t, VerifySignature("other-secret", body, sig))
}

func TestVerifySignature_FailsClosed(t *testing.T) {
	body := []byte(`{"id":1}`)

	assert.False(t, VerifySignature("", body, ComputeSignature("", body)),
		"empty secret never verifies")
	assert.False(t, VerifySignature("secret", body, ""),
		"empty signature never verifies")
	assert.False(t, VerifySignature("secret", body, "not-base64-at-all"))
}
