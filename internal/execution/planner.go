package execution

import (
	"sort"

	"github.com/wonny/momentum/backend/internal/contracts"
	"github.com/wonny/momentum/backend/pkg/logger"
)

// Planner implements S6: execution planning
// ⭐ SSOT: S6 주문 계획 로직은 여기서만
type Planner struct {
	config PlanConfig
	logger *logger.Logger
}

// PlanConfig defines execution parameters
type PlanConfig struct {
	OrderType  contracts.OrderType // MKT or LMT
	OutsideRTH bool                // 정규장 외 체결 허용
}

// NewPlanner creates a new execution planner
func NewPlanner(config PlanConfig, log *logger.Logger) *Planner {
	return &Planner{
		config: config,
		logger: log.WithField("module", "planner"),
	}
}

// actionPriority: 매도 먼저 (자금 확보), 공매도, 매수 순
var actionPriority = map[contracts.Action]int{
	contracts.ActionSell:      0,
	contracts.ActionShortSell: 1,
	contracts.ActionBuy:       2,
}

// Plan orders calculated orders for submission and stamps the order type
// LMT 주문은 현재가를 지정가로 사용, 가격 없는 LMT 주문은 제외
// 모든 주문에 사이클 시세를 RefPrice로 기록
func (p *Planner) Plan(orders []contracts.Order, prices map[string]float64) []contracts.Order {
	planned := make([]contracts.Order, 0, len(orders))
	for _, o := range orders {
		o.OrderType = p.config.OrderType
		o.OutsideRTH = p.config.OutsideRTH
		o.LimitPrice = 0
		o.RefPrice = 0

		price, ok := prices[o.Ticker]
		if ok && price > 0 {
			o.RefPrice = price
		}
		if o.OrderType == contracts.OrderTypeLimit {
			if !ok || price <= 0 {
				p.logger.WithField("ticker", o.Ticker).Warn("No price for limit order, skipped")
				continue
			}
			o.LimitPrice = price
		}
		planned = append(planned, o)
	}

	sort.SliceStable(planned, func(i, j int) bool {
		pi, pj := actionPriority[planned[i].Action], actionPriority[planned[j].Action]
		if pi != pj {
			return pi < pj
		}
		return planned[i].Ticker < planned[j].Ticker
	})

	p.logger.WithFields(map[string]interface{}{
		"total_orders": len(planned),
		"sell_orders":  countOrders(planned, contracts.ActionSell),
		"short_orders": countOrders(planned, contracts.ActionShortSell),
		"buy_orders":   countOrders(planned, contracts.ActionBuy),
		"order_type":   p.config.OrderType,
	}).Info("Execution plan created")

	return planned
}

func countOrders(orders []contracts.Order, action contracts.Action) int {
	n := 0
	for _, o := range orders {
		if o.Action == action {
			n++
		}
	}
	return n
}
