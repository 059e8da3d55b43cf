package brain

import (
	"time"

	"github.com/wonny/momentum/backend/internal/contracts"
)

// EventType names a cycle lifecycle event
type EventType string

const (
	EventCycleStarted     EventType = "cycle_started"
	EventOrdersCalculated EventType = "orders_calculated"
	EventOrderFilled      EventType = "order_filled"
	EventCycleFinished    EventType = "cycle_finished"
)

// Event is pushed to subscribers (websocket hub)
type Event struct {
	Type      EventType              `json:"type"`
	RunID     string                 `json:"run_id"`
	Strategy  contracts.StrategyName `json:"strategy"`
	Timeframe contracts.Timeframe    `json:"timeframe"`
	Time      time.Time              `json:"time"`
	Data      interface{}            `json:"data,omitempty"`
}

// Publisher receives cycle events; Publish must not block
type Publisher interface {
	Publish(event Event)
}

type nopPublisher struct{}

func (nopPublisher) Publish(Event) {}
