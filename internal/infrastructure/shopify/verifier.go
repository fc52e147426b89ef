package shopify

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
)

// VerifyWebhook checks a Shopify webhook signature: the X-Shopify-Hmac-Sha256
// header carries base64(HMAC-SHA256(secret, body)).
//
// body must be the exact raw request bytes. Any re-serialization of the
// payload before hashing (parse then re-stringify) changes the bytes and
// breaks the signature. Returns false on mismatch, never an error.
func VerifyWebhook(body []byte, signature, secret string) bool {
	if signature == "" || secret == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// ComputeWebhookSignature returns the signature Shopify would send for the
// given body and secret. Used by tests and local tooling.
func ComputeWebhookSignature(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
