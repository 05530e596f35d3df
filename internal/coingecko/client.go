// Package coingecko is a minimal client for the CoinGecko public API.
package coingecko

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const DefaultBaseURL = "https://api.coingecko.com/api/v3"

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

// Market is one row of /coins/markets.
type Market struct {
	ID        string              `json:"id"`
	Symbol    string              `json:"symbol"`
	Name      string              `json:"name"`
	Price     decimal.NullDecimal `json:"current_price"`
	MarketCap decimal.NullDecimal `json:"market_cap"`
	Volume    decimal.NullDecimal `json:"total_volume"`
	Change24h decimal.NullDecimal `json:"price_change_percentage_24h_in_currency"`
	Change7d  decimal.NullDecimal `json:"price_change_percentage_7d_in_currency"`
	Change30d decimal.NullDecimal `json:"price_change_percentage_30d_in_currency"`
}

// Coin is one row of /coins/list.
type Coin struct {
	ID     string `json:"id"`
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
}

// Markets returns USD market data for the given CoinGecko ids, keyed by id.
func (c *Client) Markets(ctx context.Context, ids []string) (map[string]Market, error) {
	values := url.Values{}
	values.Set("vs_currency", "usd")
	values.Set("ids", strings.Join(ids, ","))
	values.Set("price_change_percentage", "24h,7d,30d")
	values.Set("per_page", "250")

	var rows []Market
	if err := c.get(ctx, "/coins/markets?"+values.Encode(), &rows); err != nil {
		return nil, err
	}
	out := make(map[string]Market, len(rows))
	for _, m := range rows {
		out[m.ID] = m
	}
	return out, nil
}

// CoinsList returns the full asset catalog in provider order.
func (c *Client) CoinsList(ctx context.Context) ([]Coin, error) {
	var coins []Coin
	if err := c.get(ctx, "/coins/list", &coins); err != nil {
		return nil, err
	}
	return coins, nil
}

func (c *Client) get(ctx context.Context, path string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create coingecko request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("coingecko request %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("coingecko status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decode coingecko response: %w", err)
	}
	return nil
}
