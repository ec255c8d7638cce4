// Package venue is the signed-REST client for the trading venue. The venue
// is treated as opaque: orders in, balance and positions out. Every request
// carries key/signature/timestamp headers where the signature covers the
// canonical message timestamp+method+path+body.
package venue

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

type Client struct {
	baseURL       string
	apiKey        string
	privateKeyPEM string
	httpClient    *http.Client
}

func NewClient(baseURL, apiKey, privateKeyPEM string, timeout time.Duration) *Client {
	return &Client{
		baseURL:       baseURL,
		apiKey:        apiKey,
		privateKeyPEM: privateKeyPEM,
		httpClient:    &http.Client{Timeout: timeout},
	}
}

// OrderRequest is a sized, priced limit order for one game market.
type OrderRequest struct {
	ClientOrderID string          `json:"client_order_id"`
	Market        string          `json:"market"`
	Side          string          `json:"side"` // OVER or UNDER
	Count         int64           `json:"count"`
	LimitPrice    decimal.Decimal `json:"limit_price"`
}

// OrderResult is the venue's acknowledgement.
type OrderResult struct {
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
}

// Position is one open position reported by the venue.
type Position struct {
	Market string          `json:"market"`
	Side   string          `json:"side"`
	Count  int64           `json:"count"`
	Cost   decimal.Decimal `json:"cost"`
}

// PlaceOrder submits a signed limit order.
func (c *Client) PlaceOrder(ctx context.Context, req OrderRequest) (*OrderResult, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	respBody, err := c.signedDo(ctx, http.MethodPost, "/orders", body)
	if err != nil {
		return nil, err
	}

	var result OrderResult
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("decode order response: %w", err)
	}
	return &result, nil
}

// Balance returns the account's available balance.
func (c *Client) Balance(ctx context.Context) (decimal.Decimal, error) {
	body, err := c.signedDo(ctx, http.MethodGet, "/balance", nil)
	if err != nil {
		return decimal.Zero, err
	}
	var resp struct {
		Balance decimal.Decimal `json:"balance"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return decimal.Zero, fmt.Errorf("decode balance response: %w", err)
	}
	return resp.Balance, nil
}

// Positions returns all currently open positions.
func (c *Client) Positions(ctx context.Context) ([]Position, error) {
	body, err := c.signedDo(ctx, http.MethodGet, "/positions", nil)
	if err != nil {
		return nil, err
	}
	var resp struct {
		Positions []Position `json:"positions"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode positions response: %w", err)
	}
	return resp.Positions, nil
}

// signedDo signs and executes one request. Venue errors surface as plain
// errors; callers decide whether they abort anything.
func (c *Client) signedDo(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	timestamp := strconv.FormatInt(time.Now().UnixMilli(), 10)
	signature, err := Sign(c.privateKeyPEM, timestamp, method, path, string(body))
	if err != nil {
		return nil, fmt.Errorf("sign request: %w", err)
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("key", c.apiKey)
	req.Header.Set("signature", signature)
	req.Header.Set("timestamp", timestamp)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("venue returned %d: %s", resp.StatusCode, truncate(respBody, 200))
	}
	return respBody, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
