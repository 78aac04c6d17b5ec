package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"testing"

	billingdomain "github.com/closebytel/closeby/internal/billing/domain"
	"github.com/stretchr/testify/assert"
)

func signPayload(secret, timestamp string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write([]byte(fmt.Sprintf("%s.%s", timestamp, string(payload))))
	return hex.EncodeToString(mac.Sum(nil))
}

func signatureHeader(secret, timestamp string, payload []byte) http.Header {
	headers := http.Header{}
	headers.Set("Stripe-Signature", fmt.Sprintf("t=%s,v1=%s", timestamp, signPayload(secret, timestamp, payload)))
	return headers
}

func TestVerifyAcceptsValidSignature(t *testing.T) {
	payload := []byte(`{"id":"evt_1"}`)
	v := NewWebhookVerifier("whsec_test")

	assert.NoError(t, v.Verify(payload, signatureHeader("whsec_test", "1717200000", payload)))
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	payload := []byte(`{"id":"evt_1"}`)
	v := NewWebhookVerifier("whsec_test")

	err := v.Verify(payload, signatureHeader("whsec_other", "1717200000", payload))
	assert.ErrorIs(t, err, billingdomain.ErrInvalidSignature)
}

func TestVerifyRejectsMissingOrMalformedHeader(t *testing.T) {
	v := NewWebhookVerifier("whsec_test")

	assert.ErrorIs(t, v.Verify([]byte("{}"), http.Header{}), billingdomain.ErrInvalidSignature)

	headers := http.Header{}
	headers.Set("Stripe-Signature", "garbage")
	assert.ErrorIs(t, v.Verify([]byte("{}"), headers), billingdomain.ErrInvalidSignature)
}

func TestVerifyDisabledWithoutSecret(t *testing.T) {
	v := NewWebhookVerifier("")
	assert.NoError(t, v.Verify([]byte("{}"), http.Header{}))
}
