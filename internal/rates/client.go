// Package rates provides the client for the external currency-rate provider.
package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Client encapsulates HTTP interaction with the rate provider. A nil or
// unconfigured client makes every lookup fail, which callers treat as "fall
// back to the stored rate".
type Client struct {
	baseURL    string
	httpClient *http.Client
}

type rateResponse struct {
	Success bool `json:"success"`
	Data    struct {
		CurrencyCode string          `json:"currency_code"`
		Rate         decimal.Decimal `json:"rate"`
	} `json:"data"`
	Message string `json:"message"`
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

// GetRate fetches the current rate for a currency code. Business failures
// (success=false) surface the provider's message verbatim; that message is
// shown to the user. No retries, matching the rest of the call sites.
func (c *Client) GetRate(ctx context.Context, currencyCode string) (decimal.Decimal, error) {
	if c == nil || c.baseURL == "" {
		return decimal.Zero, fmt.Errorf("rate provider not configured")
	}

	url := fmt.Sprintf("%s/api/rates/%s", c.baseURL, currencyCode)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var result rateResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return decimal.Zero, fmt.Errorf("decode response: %w", err)
	}

	if !result.Success {
		if result.Message == "" {
			result.Message = "rate lookup failed"
		}
		return decimal.Zero, fmt.Errorf("%s", result.Message)
	}
	return result.Data.Rate, nil
}
