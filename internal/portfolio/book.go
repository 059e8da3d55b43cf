package portfolio

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/wonny/momentum/backend/internal/contracts"
)

// Book is the Position Book: cash plus signed share quantities
// ⭐ 계약: 수량 0인 종목은 보관하지 않음
// 현금은 음수 가능 (마진/공매도 대금)
type Book struct {
	cash      decimal.Decimal
	positions map[string]int
}

// NewBook creates a book with the given cash and positions
func NewBook(cash float64, positions map[string]int) *Book {
	b := &Book{
		cash:      decimal.NewFromFloat(cash),
		positions: make(map[string]int, len(positions)),
	}
	for t, q := range positions {
		if q != 0 {
			b.positions[t] = q
		}
	}
	return b
}

// Cash returns the cash balance
func (b *Book) Cash() float64 {
	return b.cash.InexactFloat64()
}

// CashDecimal returns the exact cash balance
func (b *Book) CashDecimal() decimal.Decimal {
	return b.cash
}

// Quantity returns the signed quantity held in ticker
func (b *Book) Quantity(ticker string) int {
	return b.positions[ticker]
}

// Positions returns a copy of the position map
func (b *Book) Positions() map[string]int {
	out := make(map[string]int, len(b.positions))
	for t, q := range b.positions {
		out[t] = q
	}
	return out
}

// Tickers returns held tickers in sorted order
func (b *Book) Tickers() []string {
	out := make([]string, 0, len(b.positions))
	for t := range b.positions {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Clone returns an independent copy
func (b *Book) Clone() *Book {
	return &Book{cash: b.cash, positions: b.Positions()}
}

// Apply books one executed order at price
// BUY: 현금 감소, SELL/SHORT-SELL: 현금 증가
// 가격이 없으면 아무것도 반영하지 않고 ErrNoPrice 반환
func (b *Book) Apply(order contracts.Order, price float64) error {
	if price <= 0 {
		return fmt.Errorf("%s: %w", order.Ticker, contracts.ErrNoPrice)
	}
	if order.Quantity <= 0 {
		return fmt.Errorf("%s: invalid quantity %d", order.Ticker, order.Quantity)
	}

	value := decimal.NewFromFloat(price).Mul(decimal.NewFromInt(int64(order.Quantity)))
	switch order.Action {
	case contracts.ActionBuy:
		b.cash = b.cash.Sub(value)
	case contracts.ActionSell, contracts.ActionShortSell:
		b.cash = b.cash.Add(value)
	default:
		return fmt.Errorf("%s: unknown action %q", order.Ticker, order.Action)
	}

	qty := b.positions[order.Ticker] + order.SignedQuantity()
	if qty == 0 {
		delete(b.positions, order.Ticker)
	} else {
		b.positions[order.Ticker] = qty
	}
	return nil
}

// ApplyFill books a broker fill at its execution price
func (b *Book) ApplyFill(fill contracts.Fill) error {
	return b.Apply(fill.Order(), fill.Price)
}

// ApplyAll simulates orders at prices, skipping orders without a price
// 반환: 종목별 실패 사유
func (b *Book) ApplyAll(orders []contracts.Order, prices map[string]float64) map[string]error {
	failed := make(map[string]error)
	for _, o := range orders {
		if err := b.Apply(o, prices[o.Ticker]); err != nil {
			failed[o.Ticker] = err
		}
	}
	return failed
}

// TotalValue returns cash + Σ qty×price and the tickers left unpriced
func (b *Book) TotalValue(prices map[string]float64) (float64, []string) {
	total := b.cash
	var unpriced []string
	for _, t := range b.Tickers() {
		price, ok := prices[t]
		if !ok || price <= 0 {
			unpriced = append(unpriced, t)
			continue
		}
		total = total.Add(decimal.NewFromFloat(price).Mul(decimal.NewFromInt(int64(b.positions[t]))))
	}
	return total.InexactFloat64(), unpriced
}
