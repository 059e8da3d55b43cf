package contracts

import "context"

// ⭐ SSOT: 외부 협력자 인터페이스 정의는 여기서만

// PriceHistoryProvider returns daily bars for a ticker over a span ("2y")
type PriceHistoryProvider interface {
	History(ctx context.Context, ticker, period string) ([]PriceBar, error)
}

// FundamentalsProvider returns market capitalization (nil if unknown)
// 섹터는 정적 유니버스 CSV에서 제공
type FundamentalsProvider interface {
	MarketCap(ctx context.Context, ticker string) (*float64, error)
}

// QuoteProvider returns a current tradable price
// 가격 없음은 ErrNoPrice
type QuoteProvider interface {
	Quote(ctx context.Context, ticker string) (float64, error)
}

// MarketDataProvider combines history and fundamentals
type MarketDataProvider interface {
	PriceHistoryProvider
	FundamentalsProvider
}
