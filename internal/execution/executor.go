package execution

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wonny/momentum/backend/internal/contracts"
	"github.com/wonny/momentum/backend/pkg/logger"
)

// Executor submits planned orders one at a time
// ⭐ SSOT: 주문 전송 루프는 여기서만
type Executor struct {
	broker        Broker
	delay         time.Duration
	submitTimeout time.Duration
	logger        *logger.Logger
}

// Result summarizes one execution pass
type Result struct {
	Fills     []contracts.Fill `json:"fills"`
	Failed    map[string]error `json:"-"`
	Submitted int              `json:"submitted"`
	Aborted   bool             `json:"aborted"`
}

// FillHandler is called after every fill, before the next submission
// 에러를 반환하면 이후 주문 전송을 중단
type FillHandler func(fill contracts.Fill) error

// NewExecutor creates an executor
// delay: 주문 간 대기, submitTimeout: 주문별 제한 시간 (0이면 제한 없음)
func NewExecutor(broker Broker, delay, submitTimeout time.Duration, log *logger.Logger) *Executor {
	return &Executor{
		broker:        broker,
		delay:         delay,
		submitTimeout: submitTimeout,
		logger:        log.WithField("module", "executor").WithField("broker", broker.Name()),
	}
}

// Execute submits orders in order
// 실패한 주문은 기록 후 건너뜀, ctx 취소 시 ErrAborted와 지금까지의 체결 반환
func (e *Executor) Execute(ctx context.Context, orders []contracts.Order, onFill FillHandler) (*Result, error) {
	result := &Result{Failed: make(map[string]error)}

	for i, o := range orders {
		if i > 0 && e.delay > 0 {
			select {
			case <-ctx.Done():
				return e.abort(result, ctx.Err())
			case <-time.After(e.delay):
			}
		}
		if err := ctx.Err(); err != nil {
			return e.abort(result, err)
		}

		fill, err := e.submit(ctx, o)
		result.Submitted++
		if err != nil {
			if ctx.Err() != nil {
				result.Failed[o.Ticker] = err
				return e.abort(result, ctx.Err())
			}
			result.Failed[o.Ticker] = err
			e.logger.WithError(err).WithFields(map[string]interface{}{
				"ticker":   o.Ticker,
				"action":   o.Action,
				"quantity": o.Quantity,
			}).Error("Order failed")
			continue
		}

		result.Fills = append(result.Fills, *fill)
		e.logger.WithFields(map[string]interface{}{
			"ticker":   fill.Ticker,
			"action":   fill.Action,
			"quantity": fill.Quantity,
			"price":    fill.Price,
		}).Info("Order filled")

		if onFill != nil {
			if err := onFill(*fill); err != nil {
				return result, fmt.Errorf("fill handler for %s: %w", fill.Ticker, err)
			}
		}
	}

	e.logger.WithFields(map[string]interface{}{
		"submitted": result.Submitted,
		"filled":    len(result.Fills),
		"failed":    len(result.Failed),
	}).Info("Execution completed")
	return result, nil
}

func (e *Executor) submit(ctx context.Context, o contracts.Order) (*contracts.Fill, error) {
	if e.submitTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.submitTimeout)
		defer cancel()
	}
	fill, err := e.broker.SubmitOrder(ctx, RequestFor(o))
	if err != nil {
		return nil, err
	}
	if fill == nil {
		return nil, errors.New("broker returned no fill")
	}
	if fill.OrderID == "" {
		fill.OrderID = o.ID
	}
	return fill, nil
}

func (e *Executor) abort(result *Result, cause error) (*Result, error) {
	result.Aborted = true
	e.logger.WithFields(map[string]interface{}{
		"submitted": result.Submitted,
		"filled":    len(result.Fills),
	}).Warn("Execution aborted")
	return result, fmt.Errorf("%w: %v", contracts.ErrAborted, cause)
}
