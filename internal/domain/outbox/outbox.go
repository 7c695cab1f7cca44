package outbox

import "context"

// Event is a named domain fact published after its transaction committed.
type Event interface {
	EventName() string
}

// Handler processes a published event. Returned errors are logged, never retried.
type Handler func(ctx context.Context, e Event) error

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

type Subscriber interface {
	Subscribe(eventName string, h Handler)
}

// Bus is both ends of the in-process event channel.
type Bus interface {
	Publisher
	Subscriber
}
