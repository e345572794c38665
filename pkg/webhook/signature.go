package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// Sign computes the hex-encoded HMAC-SHA256 of payload under secret. The
// gateway signs webhook deliveries this way; tests and the checkout flow
// reuse it.
func Sign(secret string, payload []byte) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil))
}

// VerifySignature checks that signature matches the HMAC of the raw body
// under secret. Comparison is constant-time to prevent timing
// side-channels.
func VerifySignature(secret string, body []byte, signature string) error {
	if secret == "" {
		return ErrMissingSecret
	}
	if signature == "" {
		return ErrMissingSignature
	}

	expected := Sign(secret, body)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return ErrSignatureMismatch
	}
	return nil
}

// VerifyCheckoutSignature validates the client-supplied checkout signature
// computed over "orderID|paymentID", the gateway's documented scheme for
// browser payment verification.
func VerifyCheckoutSignature(secret, orderID, paymentID, signature string) error {
	return VerifySignature(secret, []byte(orderID+"|"+paymentID), signature)
}

// SafePrefix truncates a signature for security-event logs. Full claimed
// signatures never appear in logs, and computed expected signatures never
// leave the process at all.
func SafePrefix(signature string) string {
	const keep = 8
	if len(signature) <= keep {
		return signature
	}
	return signature[:keep] + "..."
}
