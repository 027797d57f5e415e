package chapa

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/zewdu444/takethestage/pkg/config"
)

// Client calls the Chapa transaction-verify endpoint. The gateway itself
// (checkout, redirects, webhooks) lives outside this service; all the
// allocation flow needs is the settled/failed answer for a tx_ref.
type Client struct {
	baseURL string
	secret  string
	http    *http.Client
	logger  *zap.Logger
}

// NewClient constructs a gateway client.
func NewClient(cfg config.ChapaConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: cfg.BaseURL,
		secret:  cfg.Secret,
		http:    &http.Client{Timeout: cfg.Timeout},
		logger:  logger,
	}
}

type verifyResponse struct {
	Status string `json:"status"`
	Data   struct {
		Status string `json:"status"`
	} `json:"data"`
}

// VerifyTransaction asks the gateway whether the transaction settled. A
// reachable gateway that reports anything but success yields (false, nil);
// transport failures yield an error so callers can retry later.
func (c *Client) VerifyTransaction(ctx context.Context, txRef string) (bool, error) {
	endpoint := fmt.Sprintf("%s/transaction/verify/%s", c.baseURL, url.PathEscape(txRef))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false, fmt.Errorf("build verify request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return false, fmt.Errorf("verify transaction %s: %w", txRef, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	var body verifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return false, fmt.Errorf("decode verify response for %s: %w", txRef, err)
	}

	settled := resp.StatusCode == http.StatusOK && body.Status == "success" && body.Data.Status == "success"
	if !settled {
		c.logger.Info("transaction not settled",
			zap.String("tx_ref", txRef),
			zap.Int("http_status", resp.StatusCode),
			zap.String("gateway_status", body.Status),
		)
	}
	return settled, nil
}
