package port

import "context"

// Handler receives one payload published on a subscribed channel.
// Handlers are invoked sequentially per subscription, in receipt order.
type Handler func(ctx context.Context, channel string, payload []byte)

// Publisher writes a payload to a named channel shared by every backend instance.
// Delivery is at-most-once: a subscriber that is not connected when the
// payload is published never sees it.
type Publisher interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

// Subscriber registers a handler for a named channel. Subscribe returns once
// the subscription is active; the handler keeps running until ctx is canceled
// or the subscriber is closed.
type Subscriber interface {
	Subscribe(ctx context.Context, channel string, h Handler) error
}

// Bus is both ends of the fan-out channel.
type Bus interface {
	Publisher
	Subscriber
	Close() error
}
