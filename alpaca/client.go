// Package alpaca implements the broker contract against Alpaca's trading
// REST API. Credentials come from the APCA_API_* environment variables, the
// same surface the paper and live environments share.
package alpaca

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rustyeddy/autopilot/broker"
)

const (
	// PaperURL is the paper-trading environment.
	PaperURL = "https://paper-api.alpaca.markets"
	// LiveURL is the live trading environment.
	LiveURL = "https://api.alpaca.markets"

	envKeyID     = "APCA_API_KEY_ID"
	envSecretKey = "APCA_API_SECRET_KEY"
	envBaseURL   = "APCA_API_BASE_URL"
)

// Client is an Alpaca REST client. It satisfies broker.Broker.
type Client struct {
	baseURL    string
	keyID      string
	secretKey  string
	httpClient *http.Client
}

var _ broker.Broker = (*Client)(nil)

// NewClient creates a client for the paper or live environment.
func NewClient(keyID, secretKey string, paper bool) *Client {
	baseURL := LiveURL
	if paper {
		baseURL = PaperURL
	}

	return &Client{
		baseURL:   baseURL,
		keyID:     keyID,
		secretKey: secretKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// NewClientFromEnv builds a client from APCA_API_KEY_ID, APCA_API_SECRET_KEY
// and optionally APCA_API_BASE_URL. The paper flag picks the default base
// URL when the environment does not override it.
func NewClientFromEnv(paper bool) (*Client, error) {
	keyID := os.Getenv(envKeyID)
	secretKey := os.Getenv(envSecretKey)
	if keyID == "" || secretKey == "" {
		return nil, fmt.Errorf("%s and %s must be set", envKeyID, envSecretKey)
	}

	c := NewClient(keyID, secretKey, paper)
	if base := os.Getenv(envBaseURL); base != "" {
		c.baseURL = base
	}
	return c, nil
}

type apiAccount struct {
	Equity      string `json:"equity"`
	Cash        string `json:"cash"`
	BuyingPower string `json:"buying_power"`
}

// GetAccount fetches the current account snapshot.
func (c *Client) GetAccount(ctx context.Context) (broker.AccountSnapshot, error) {
	var acct apiAccount
	if err := c.get(ctx, "/v2/account", &acct); err != nil {
		return broker.AccountSnapshot{}, err
	}

	equity, err := decimal.NewFromString(acct.Equity)
	if err != nil {
		return broker.AccountSnapshot{}, fmt.Errorf("parse equity %q: %w", acct.Equity, err)
	}
	cash, err := decimal.NewFromString(acct.Cash)
	if err != nil {
		return broker.AccountSnapshot{}, fmt.Errorf("parse cash %q: %w", acct.Cash, err)
	}
	bp, err := decimal.NewFromString(acct.BuyingPower)
	if err != nil {
		return broker.AccountSnapshot{}, fmt.Errorf("parse buying_power %q: %w", acct.BuyingPower, err)
	}

	return broker.AccountSnapshot{Equity: equity, Cash: cash, BuyingPower: bp}, nil
}

type apiPosition struct {
	Symbol        string `json:"symbol"`
	Qty           string `json:"qty"`
	MarketValue   string `json:"market_value"`
	AvgEntryPrice string `json:"avg_entry_price"`
}

// GetPositions fetches all open positions.
func (c *Client) GetPositions(ctx context.Context) ([]broker.Position, error) {
	var raw []apiPosition
	if err := c.get(ctx, "/v2/positions", &raw); err != nil {
		return nil, err
	}

	positions := make([]broker.Position, 0, len(raw))
	for _, p := range raw {
		qty, err := decimal.NewFromString(p.Qty)
		if err != nil {
			return nil, fmt.Errorf("parse qty for %s: %w", p.Symbol, err)
		}
		mv, err := decimal.NewFromString(p.MarketValue)
		if err != nil {
			return nil, fmt.Errorf("parse market_value for %s: %w", p.Symbol, err)
		}
		avg, err := decimal.NewFromString(p.AvgEntryPrice)
		if err != nil {
			return nil, fmt.Errorf("parse avg_entry_price for %s: %w", p.Symbol, err)
		}
		positions = append(positions, broker.Position{
			Symbol:        p.Symbol,
			Qty:           qty,
			MarketValue:   mv,
			AvgEntryPrice: avg,
		})
	}
	return positions, nil
}

type apiClock struct {
	Timestamp string `json:"timestamp"`
	IsOpen    bool   `json:"is_open"`
	NextOpen  string `json:"next_open"`
	NextClose string `json:"next_close"`
}

// GetClock fetches the market calendar clock.
func (c *Client) GetClock(ctx context.Context) (broker.Clock, error) {
	var raw apiClock
	if err := c.get(ctx, "/v2/clock", &raw); err != nil {
		return broker.Clock{}, err
	}

	ts, err := time.Parse(time.RFC3339, raw.Timestamp)
	if err != nil {
		return broker.Clock{}, fmt.Errorf("parse clock timestamp: %w", err)
	}
	nextOpen, err := time.Parse(time.RFC3339, raw.NextOpen)
	if err != nil {
		return broker.Clock{}, fmt.Errorf("parse next_open: %w", err)
	}
	nextClose, err := time.Parse(time.RFC3339, raw.NextClose)
	if err != nil {
		return broker.Clock{}, fmt.Errorf("parse next_close: %w", err)
	}

	return broker.Clock{
		Timestamp: ts,
		IsOpen:    raw.IsOpen,
		NextOpen:  nextOpen,
		NextClose: nextClose,
	}, nil
}

type apiOrderRequest struct {
	Symbol        string `json:"symbol"`
	Notional      string `json:"notional"`
	Side          string `json:"side"`
	Type          string `json:"type"`
	TimeInForce   string `json:"time_in_force"`
	ClientOrderID string `json:"client_order_id,omitempty"`
}

type apiOrder struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type apiError struct {
	Message string `json:"message"`
}

// SubmitOrder places a notional market day order. An order the API turns
// away with a client error (insufficient funds, unknown symbol) comes back
// as a rejected outcome, not an error; rate limits, 5xx and network trouble
// come back as TransientError so the caller's retry policy can decide.
//
// An accepted order books its full requested notional: day market orders
// fill at market or are cancelled at close, and counting the spend up front
// is the conservative side of that race.
func (c *Client) SubmitOrder(ctx context.Context, req broker.OrderRequest) (broker.OrderOutcome, error) {
	body, err := json.Marshal(apiOrderRequest{
		Symbol:        req.Symbol,
		Notional:      req.Notional.String(),
		Side:          string(req.Side),
		Type:          "market",
		TimeInForce:   "day",
		ClientOrderID: req.ClientOrderID,
	})
	if err != nil {
		return broker.OrderOutcome{}, fmt.Errorf("marshal order: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v2/orders", bytes.NewReader(body))
	if err != nil {
		return broker.OrderOutcome{}, fmt.Errorf("create request: %w", err)
	}
	c.setAuth(httpReq)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return broker.OrderOutcome{}, &broker.TransientError{Op: "submit order", Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK, resp.StatusCode == http.StatusCreated:
		var order apiOrder
		if err := json.NewDecoder(resp.Body).Decode(&order); err != nil {
			return broker.OrderOutcome{}, fmt.Errorf("decode order response: %w", err)
		}
		return broker.OrderOutcome{
			OrderID:        order.ID,
			Accepted:       true,
			FilledNotional: req.Notional,
		}, nil

	case resp.StatusCode == http.StatusTooManyRequests, resp.StatusCode >= 500:
		return broker.OrderOutcome{}, &broker.TransientError{
			Op:  "submit order",
			Err: fmt.Errorf("API status %d", resp.StatusCode),
		}

	default:
		raw, _ := io.ReadAll(resp.Body)
		var apiErr apiError
		reason := fmt.Sprintf("API status %d", resp.StatusCode)
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Message != "" {
			reason = apiErr.Message
		}
		return broker.OrderOutcome{
			Accepted:       false,
			FilledNotional: decimal.Zero,
			Reason:         reason,
		}, nil
	}
}

func (c *Client) setAuth(req *http.Request) {
	req.Header.Set("APCA-API-KEY-ID", c.keyID)
	req.Header.Set("APCA-API-SECRET-KEY", c.secretKey)
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	c.setAuth(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return &broker.TransientError{Op: "GET " + path, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return &broker.TransientError{
			Op:  "GET " + path,
			Err: fmt.Errorf("API status %d", resp.StatusCode),
		}
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
