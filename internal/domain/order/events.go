package order

import "time"

// OrderPlacedEvent is emitted after the placement transaction commits.
// It carries a snapshot so subscribers never read the order back.
type OrderPlacedEvent struct {
	Order      Order
	OccurredAt time.Time
}

func (OrderPlacedEvent) EventName() string { return "order.placed" }

func NewOrderPlacedEvent(o *Order) OrderPlacedEvent {
	return OrderPlacedEvent{
		Order:      *o.Clone(),
		OccurredAt: time.Now().UTC(),
	}
}
