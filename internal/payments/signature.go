package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
)

// ErrSignatureMismatch is returned when a confirmation signature fails verification.
var ErrSignatureMismatch = errors.New("payments: signature mismatch")

// SignatureVerifier validates HMAC-SHA256 confirmation signatures sent by the
// client after a gateway checkout completes. The digest covers the gateway
// order id and the gateway payment id joined with a pipe.
type SignatureVerifier struct {
	secret []byte
}

// NewSignatureVerifier builds a verifier from the shared gateway secret.
func NewSignatureVerifier(secret string) (*SignatureVerifier, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, errors.New("payments: signature secret is required")
	}
	return &SignatureVerifier{secret: []byte(secret)}, nil
}

// Sign computes the expected hex digest for the given identifiers.
func (v *SignatureVerifier) Sign(gatewayOrderID, paymentID string) string {
	mac := hmac.New(sha256.New, v.secret)
	mac.Write([]byte(gatewayOrderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify checks the supplied signature in constant time.
func (v *SignatureVerifier) Verify(gatewayOrderID, paymentID, signature string) error {
	if v == nil {
		return errors.New("payments: verifier is nil")
	}
	if gatewayOrderID == "" || paymentID == "" || signature == "" {
		return ErrSignatureMismatch
	}
	expected := v.Sign(gatewayOrderID, paymentID)
	if !hmac.Equal([]byte(expected), []byte(strings.ToLower(strings.TrimSpace(signature)))) {
		return ErrSignatureMismatch
	}
	return nil
}
