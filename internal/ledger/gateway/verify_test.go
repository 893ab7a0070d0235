package gateway_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"ws-booking/internal/config"
	"ws-booking/internal/ledger/gateway"
)

func verifyServer(t *testing.T, txStatus string, amountMinor float64) *gateway.Verifier {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer sk_test_123", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"status":true,"data":{"status":%q,"amount":%.0f}}`, txStatus, amountMinor)
	}))
	t.Cleanup(srv.Close)

	cfg := config.GatewayConfig{BaseURL: srv.URL, SecretKey: "sk_test_123"}
	return gateway.NewVerifier(http.DefaultClient, cfg)
}

func TestVerifyReferenceSuccess(t *testing.T) {
	v := verifyServer(t, "success", 100000)

	assert.NoError(t, v.VerifyReference("ref-1", 1000))
}

func TestVerifyReferenceFailedTransaction(t *testing.T) {
	v := verifyServer(t, "abandoned", 100000)

	err := v.VerifyReference("ref-1", 1000)
	assert.ErrorContains(t, err, "not successful")
}

func TestVerifyReferenceAmountMismatch(t *testing.T) {
	// Gateway reports 500.00 in minor units against an expected 1000.
	v := verifyServer(t, "success", 50000)

	err := v.VerifyReference("ref-1", 1000)
	assert.ErrorContains(t, err, "below expected")
}

func TestVerifyReferenceBadStatusCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)

	v := gateway.NewVerifier(http.DefaultClient, config.GatewayConfig{BaseURL: srv.URL})
	err := v.VerifyReference("ref-unknown", 1000)
	assert.ErrorContains(t, err, "status: 404")
}
