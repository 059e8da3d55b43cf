package portfolio

import (
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/wonny/momentum/backend/internal/contracts"
	"github.com/wonny/momentum/backend/pkg/logger"
)

// Rebalancer implements S6: equal-weight order diffing
// ⭐ SSOT: 목표 수량 계산 및 주문 생성은 여기서만
type Rebalancer struct {
	logger *logger.Logger
	now    func() time.Time
}

// NewRebalancer creates a new rebalancer
func NewRebalancer(log *logger.Logger) *Rebalancer {
	return &Rebalancer{
		logger: log.WithField("module", "rebalance"),
		now:    time.Now,
	}
}

// DollarsPerSlot splits total value equally across every long and short slot
func DollarsPerSlot(target *contracts.TargetPortfolio, totalValue float64) float64 {
	slots := target.Count()
	if slots == 0 {
		return 0
	}
	return totalValue / float64(slots)
}

// TargetQuantities returns signed share targets (long +, short -)
// 가격이 없거나 0 이하인 종목은 결과에서 제외
func TargetQuantities(target *contracts.TargetPortfolio, totalValue float64, prices map[string]float64) map[string]int {
	dps := DollarsPerSlot(target, totalValue)
	out := make(map[string]int, target.Count())

	for _, t := range target.Longs {
		if price, ok := prices[t]; ok && price > 0 {
			out[t] = int(math.Floor(dps / price))
		}
	}
	for _, t := range target.Shorts {
		if price, ok := prices[t]; ok && price > 0 {
			out[t] = -int(math.Floor(dps / price))
		}
	}
	return out
}

// Diff turns current vs target quantities into orders, sorted by ticker
// 가격 없는 종목은 신규 주문 없음, 기존 포지션 유지
func Diff(current, target map[string]int, prices map[string]float64) []contracts.Order {
	tickers := make(map[string]struct{}, len(current)+len(target))
	for t := range current {
		tickers[t] = struct{}{}
	}
	for t := range target {
		tickers[t] = struct{}{}
	}

	sorted := make([]string, 0, len(tickers))
	for t := range tickers {
		sorted = append(sorted, t)
	}
	sort.Strings(sorted)

	var orders []contracts.Order
	for _, t := range sorted {
		if price, ok := prices[t]; !ok || price <= 0 {
			continue
		}
		cur := current[t]
		want := target[t]
		if cur == want {
			continue
		}

		diff := want - cur
		action := contracts.ActionBuy
		if diff < 0 {
			if cur > 0 {
				action = contracts.ActionSell
			} else {
				action = contracts.ActionShortSell
			}
		}
		orders = append(orders, contracts.Order{
			Ticker:   t,
			Action:   action,
			Quantity: absInt(diff),
		})
	}
	return orders
}

// Calculate produces the rebalance orders for one cycle
func (r *Rebalancer) Calculate(target *contracts.TargetPortfolio, positions map[string]int, totalValue float64, prices map[string]float64) []contracts.Order {
	targets := TargetQuantities(target, totalValue, prices)

	for _, t := range target.Tickers() {
		if _, ok := targets[t]; !ok {
			r.logger.WithField("ticker", t).Warn("No live price for target, no order")
		}
	}
	for t := range positions {
		if price, ok := prices[t]; !ok || price <= 0 {
			r.logger.WithField("ticker", t).Warn("No live price for held position, left untouched")
		}
	}

	orders := Diff(positions, targets, prices)
	now := r.now()
	for i := range orders {
		orders[i].ID = uuid.NewString()
		orders[i].Status = contracts.StatusPending
		orders[i].CreatedAt = now
	}

	r.logger.WithFields(map[string]interface{}{
		"total_value":      totalValue,
		"dollars_per_slot": DollarsPerSlot(target, totalValue),
		"targets":          len(targets),
		"orders":           len(orders),
	}).Info("Rebalance orders calculated")
	return orders
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
