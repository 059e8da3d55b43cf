package gateway

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/wonny/momentum/backend/internal/contracts"
	"github.com/wonny/momentum/backend/internal/execution"
	"github.com/wonny/momentum/backend/pkg/config"
	"github.com/wonny/momentum/backend/pkg/httputil"
	"github.com/wonny/momentum/backend/pkg/logger"
)

// Client routes orders to an HTTP order gateway in front of the brokerage
// ⭐ SSOT: 실주문 API 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	baseURL    string
	account    string
	logger     *logger.Logger
}

// orderResponse is the gateway's reply to POST /orders
type orderResponse struct {
	OrderID        string  `json:"order_id"`
	Status         string  `json:"status"` // FILLED, SUBMITTED, REJECTED
	FilledQuantity int     `json:"filled_quantity"`
	AvgPrice       float64 `json:"avg_price"`
	FilledAt       string  `json:"filled_at"`
	Message        string  `json:"message"`
}

type orderPayload struct {
	execution.OrderRequest
	Account string `json:"account,omitempty"`
	SecType string `json:"sec_type"`
	Venue   string `json:"exchange"`
	Ccy     string `json:"currency"`
}

// NewClient creates a gateway client
// 주문은 중복 실행 위험이 있으므로 재시도 비활성
func NewClient(cfg config.BrokerConfig, log *logger.Logger) *Client {
	httpClient := httputil.NewWithTimeout(log, 15*time.Second).
		DisableRetry().
		WithRateLimit(5, 1)
	if cfg.APIKey != "" {
		httpClient.WithHeader("X-API-Key", cfg.APIKey)
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(cfg.GatewayURL, "/"),
		account:    cfg.Account,
		logger:     log.WithField("module", "gateway"),
	}
}

// Name returns "gateway"
func (c *Client) Name() string { return "gateway" }

// Live returns true: fills change the brokerage account
func (c *Client) Live() bool { return true }

// SubmitOrder posts the order and waits for the gateway's fill report
func (c *Client) SubmitOrder(ctx context.Context, req execution.OrderRequest) (*contracts.Fill, error) {
	payload := orderPayload{
		OrderRequest: req,
		Account:      c.account,
		SecType:      "STK",
		Venue:        "SMART",
		Ccy:          "USD",
	}

	resp, err := c.httpClient.PostJSON(ctx, c.baseURL+"/orders", payload)
	if err != nil {
		return nil, fmt.Errorf("submit order %s: %w", req.Ticker, err)
	}

	var result orderResponse
	if err := httputil.DecodeJSON(resp, &result); err != nil {
		return nil, fmt.Errorf("submit order %s: %w", req.Ticker, err)
	}

	c.logger.WithFields(map[string]interface{}{
		"ticker":   req.Ticker,
		"action":   req.Action,
		"quantity": req.Quantity,
		"order_id": result.OrderID,
		"status":   result.Status,
	}).Debug("Gateway order response")

	if !strings.EqualFold(result.Status, string(contracts.StatusFilled)) || result.FilledQuantity <= 0 {
		return nil, fmt.Errorf("order %s not filled: status=%s %s", req.Ticker, result.Status, result.Message)
	}
	// 부분 체결은 체결된 수량만 반영
	if result.FilledQuantity != req.Quantity {
		c.logger.WithFields(map[string]interface{}{
			"ticker":    req.Ticker,
			"filled":    result.FilledQuantity,
			"requested": req.Quantity,
		}).Warn("Order partially filled")
	}
	// 체결가 누락이어도 확정 체결은 상태에 반영 (지정가 → 사이클 시세 순)
	price := result.AvgPrice
	if price <= 0 {
		price = fallbackPrice(req)
		if price <= 0 {
			c.logger.WithFields(map[string]interface{}{
				"ticker":   req.Ticker,
				"filled":   result.FilledQuantity,
				"order_id": result.OrderID,
			}).Error("Filled order without any price, state will drift")
			return nil, fmt.Errorf("order %s filled without price: %w", req.Ticker, contracts.ErrNoPrice)
		}
		c.logger.WithFields(map[string]interface{}{
			"ticker":   req.Ticker,
			"order_id": result.OrderID,
			"price":    price,
		}).Warn("Gateway fill has no average price, using reference price")
	}

	filledAt := time.Now()
	if result.FilledAt != "" {
		if t, err := time.Parse(time.RFC3339, result.FilledAt); err == nil {
			filledAt = t
		}
	}

	orderID := result.OrderID
	if orderID == "" {
		orderID = req.OrderID
	}
	return &contracts.Fill{
		OrderID:  orderID,
		Ticker:   req.Ticker,
		Action:   req.Action,
		Quantity: result.FilledQuantity,
		Price:    price,
		FilledAt: filledAt,
	}, nil
}

func fallbackPrice(req execution.OrderRequest) float64 {
	if req.LimitPrice > 0 {
		return req.LimitPrice
	}
	return req.RefPrice
}
