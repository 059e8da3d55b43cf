package execution

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/momentum/backend/internal/contracts"
)

// Broker defines the order-submission collaborator
// ⭐ SSOT: 주문 전송 인터페이스는 여기서만 정의
type Broker interface {
	// Name identifies the broker in logs and run records
	Name() string

	// Live reports whether fills move real (or broker-side paper) positions
	Live() bool

	// SubmitOrder submits one order and returns its fill
	SubmitOrder(ctx context.Context, req OrderRequest) (*contracts.Fill, error)
}

// OrderRequest is what the broker receives for one order
type OrderRequest struct {
	OrderID    string              `json:"order_id"`
	Ticker     string              `json:"ticker"`
	Action     contracts.Action    `json:"action"`
	Quantity   int                 `json:"quantity"`
	OrderType  contracts.OrderType `json:"order_type"`
	LimitPrice float64             `json:"limit_price,omitempty"`
	RefPrice   float64             `json:"-"`
	OutsideRTH bool                `json:"outside_rth"`
}

// RequestFor converts a planned order into a broker request
func RequestFor(o contracts.Order) OrderRequest {
	return OrderRequest{
		OrderID:    o.ID,
		Ticker:     o.Ticker,
		Action:     o.Action,
		Quantity:   o.Quantity,
		OrderType:  o.OrderType,
		LimitPrice: o.LimitPrice,
		RefPrice:   o.RefPrice,
		OutsideRTH: o.OutsideRTH,
	}
}

// PaperBroker fills every order immediately at the quoted price
// ⭐ 실제 운영 주문은 gateway.Client 사용
type PaperBroker struct {
	quotes contracts.QuoteProvider
	now    func() time.Time
}

// NewPaperBroker creates a paper broker backed by quotes
func NewPaperBroker(quotes contracts.QuoteProvider) *PaperBroker {
	return &PaperBroker{quotes: quotes, now: time.Now}
}

// Name returns "paper"
func (b *PaperBroker) Name() string { return "paper" }

// Live returns false: paper fills are simulated locally
func (b *PaperBroker) Live() bool { return false }

// SubmitOrder fills at the limit price for LMT, else at the current quote
func (b *PaperBroker) SubmitOrder(ctx context.Context, req OrderRequest) (*contracts.Fill, error) {
	if req.Quantity <= 0 {
		return nil, fmt.Errorf("%s: invalid quantity %d", req.Ticker, req.Quantity)
	}

	price := req.LimitPrice
	if req.OrderType != contracts.OrderTypeLimit || price <= 0 {
		q, err := b.quotes.Quote(ctx, req.Ticker)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", req.Ticker, err)
		}
		price = q
	}

	return &contracts.Fill{
		OrderID:  req.OrderID,
		Ticker:   req.Ticker,
		Action:   req.Action,
		Quantity: req.Quantity,
		Price:    price,
		FilledAt: b.now(),
	}, nil
}

// StaticQuotes serves a fixed price map as a QuoteProvider
// 사이클 시작 시 조회한 시세로 모의 체결할 때 사용
type StaticQuotes map[string]float64

// Quote returns the stored price or ErrNoPrice
func (q StaticQuotes) Quote(_ context.Context, ticker string) (float64, error) {
	if p, ok := q[ticker]; ok && p > 0 {
		return p, nil
	}
	return 0, fmt.Errorf("%s: %w", ticker, contracts.ErrNoPrice)
}
