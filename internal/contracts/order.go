package contracts

import "time"

// Order represents a rebalance order passed from S6 to broker
// ⭐ SSOT: S6 → Broker 주문 정보 전달
// 상태 파일에 직접 저장되지 않음 (체결 효과만 Position Book에 반영)
type Order struct {
	ID         string    `json:"id"`
	Ticker     string    `json:"ticker"`
	Action     Action    `json:"action"`
	Quantity   int       `json:"quantity"` // 항상 양수
	OrderType  OrderType `json:"order_type"`
	LimitPrice float64   `json:"limit_price,omitempty"` // LMT 전용
	RefPrice   float64   `json:"ref_price,omitempty"`   // 사이클 시세 (체결가 누락 시 대체)
	OutsideRTH bool      `json:"outside_rth"`
	Status     Status    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}

// Action represents the order direction
type Action string

const (
	ActionBuy       Action = "BUY"
	ActionSell      Action = "SELL"       // 롱 청산/축소
	ActionShortSell Action = "SHORT-SELL" // 숏 진입/확대
)

// Sign returns the position delta sign of the action
func (a Action) Sign() int {
	if a == ActionBuy {
		return 1
	}
	return -1
}

// OrderType represents market or limit order
type OrderType string

const (
	OrderTypeMarket OrderType = "MKT"
	OrderTypeLimit  OrderType = "LMT"
)

// Status represents order status
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusSubmitted Status = "SUBMITTED"
	StatusFilled    Status = "FILLED"
	StatusRejected  Status = "REJECTED"
	StatusSkipped   Status = "SKIPPED"
)

// IsMarketOrder checks if the order is a market order
func (o *Order) IsMarketOrder() bool {
	return o.OrderType == OrderTypeMarket
}

// SignedQuantity returns the position delta of the order
func (o *Order) SignedQuantity() int {
	return o.Action.Sign() * o.Quantity
}

// Fill is an execution confirmation for one order
type Fill struct {
	OrderID  string    `json:"order_id"`
	Ticker   string    `json:"ticker"`
	Action   Action    `json:"action"`
	Quantity int       `json:"quantity"`
	Price    float64   `json:"price"`
	FilledAt time.Time `json:"filled_at"`
}

// Order converts the fill back into the order it confirms
func (f Fill) Order() Order {
	return Order{ID: f.OrderID, Ticker: f.Ticker, Action: f.Action, Quantity: f.Quantity, Status: StatusFilled}
}
