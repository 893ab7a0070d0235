package gateway

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"ws-booking/internal/config"
	"ws-booking/internal/logger"
)

// Verifier re-checks a gateway reference against the gateway's REST API
// before the ledger records the payment. The gateway widget itself runs
// client-side; the ledger only ever sees the callback reference, and this
// verification is the server's one chance to distrust it.
type Verifier struct {
	client *http.Client
	cfg    config.GatewayConfig
	logger *logger.Logger
}

func NewVerifier(client *http.Client, cfg config.GatewayConfig) *Verifier {
	return &Verifier{
		client: client,
		cfg:    cfg,
		logger: logger.NewLogger(),
	}
}

type verifyResponse struct {
	Status bool `json:"status"`
	Data   struct {
		Status string  `json:"status"`
		Amount float64 `json:"amount"`
	} `json:"data"`
}

// VerifyReference confirms the reference exists, succeeded, and covers
// the expected amount. Gateway amounts are in the currency's minor unit.
func (v *Verifier) VerifyReference(reference string, amount float64) error {
	baseURL := strings.TrimSuffix(v.cfg.BaseURL, "/")

	url := fmt.Sprintf("%s/transaction/verify/%s", baseURL, reference)
	v.logger.Debug("GATEWAY", fmt.Sprintf("Verifying reference: %s", url))

	req, err := http.NewRequest("GET", url, nil)
	if err != nil {
		v.logger.Error("GATEWAY", fmt.Sprintf("Failed to create verify request: %v", err))
		return fmt.Errorf("failed to create verify request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+v.cfg.SecretKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := v.client.Do(req)
	if err != nil {
		v.logger.Error("GATEWAY", fmt.Sprintf("Gateway verify error: %v", err))
		return fmt.Errorf("gateway verify error: %w", err)
	}
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			v.logger.Error("GATEWAY", fmt.Sprintf("Failed to close verify response body: %v", err))
		}
	}(resp.Body)

	if resp.StatusCode != http.StatusOK {
		v.logger.Error("GATEWAY", fmt.Sprintf("Gateway verify returned status: %d", resp.StatusCode))
		return fmt.Errorf("gateway verify returned status: %d", resp.StatusCode)
	}

	var body verifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		v.logger.Error("GATEWAY", fmt.Sprintf("Failed to decode verify response: %v", err))
		return fmt.Errorf("failed to decode verify response: %w", err)
	}

	if !body.Status || body.Data.Status != "success" {
		return fmt.Errorf("gateway reference %s not successful (status %s)", reference, body.Data.Status)
	}
	if body.Data.Amount/100 < amount {
		return fmt.Errorf("gateway reference %s amount %.2f below expected %.2f", reference, body.Data.Amount/100, amount)
	}

	v.logger.Info("GATEWAY", fmt.Sprintf("Reference verified: %s", reference))
	return nil
}
