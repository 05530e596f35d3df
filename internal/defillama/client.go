// Package defillama reads chain-level TVL from the DefiLlama API.
package defillama

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const DefaultBaseURL = "https://api.llama.fi"

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

type Chain struct {
	Name        string          `json:"name"`
	TokenSymbol string          `json:"tokenSymbol"`
	GeckoID     string          `json:"gecko_id"`
	TVL         decimal.Decimal `json:"tvl"`
}

// Chains lists every chain DefiLlama tracks with its current TVL in USD.
func (c *Client) Chains(ctx context.Context) ([]Chain, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v2/chains", nil)
	if err != nil {
		return nil, fmt.Errorf("create defillama request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch defillama chains: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("defillama status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var chains []Chain
	if err := json.NewDecoder(resp.Body).Decode(&chains); err != nil {
		return nil, fmt.Errorf("decode defillama chains: %w", err)
	}
	return chains, nil
}
