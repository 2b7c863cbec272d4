package adapter

import (
	"context"
	"errors"
	"fmt"
	"sync"

	redis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/chaan32/StudyPing/internal/infrastructure/pubsub/port"
)

// RedisPubSub implements port.Bus on top of Redis PUBLISH/SUBSCRIBE.
// Every backend instance holds one of these against the same Redis server, so a
// payload published by any instance reaches the handlers of all instances.
type RedisPubSub struct {
	client *redis.Client
	log    *zap.Logger

	mu     sync.Mutex
	subs   []*redis.PubSub
	wg     sync.WaitGroup
	closed bool
}

// NewRedisPubSub wraps an existing go-redis client. The client is not closed by Close.
func NewRedisPubSub(client *redis.Client, log *zap.Logger) *RedisPubSub {
	if log == nil {
		log = zap.NewNop()
	}
	return &RedisPubSub{client: client, log: log.Named("pubsub")}
}

// Ensure interface compliance at compile time
var _ port.Bus = (*RedisPubSub)(nil)

func (r *RedisPubSub) Publish(ctx context.Context, channel string, payload []byte) error {
	if channel == "" {
		return errors.New("pubsub: channel is required")
	}
	if err := r.client.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("pubsub: publish %s: %w", channel, err)
	}
	return nil
}

// Subscribe confirms the SUBSCRIBE with Redis before returning, so a publish
// issued after Subscribe returns is guaranteed to reach h.
func (r *RedisPubSub) Subscribe(ctx context.Context, channel string, h port.Handler) error {
	if channel == "" {
		return errors.New("pubsub: channel is required")
	}
	if h == nil {
		return errors.New("pubsub: handler is required")
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return errors.New("pubsub: closed")
	}
	r.mu.Unlock()

	ps := r.client.Subscribe(ctx, channel)
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return fmt.Errorf("pubsub: subscribe %s: %w", channel, err)
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		_ = ps.Close()
		return errors.New("pubsub: closed")
	}
	r.subs = append(r.subs, ps)
	r.wg.Add(1)
	r.mu.Unlock()

	r.log.Info("subscribed", zap.String("channel", channel))

	msgs := ps.Channel()
	go func() {
		defer r.wg.Done()
		for {
			select {
			case <-ctx.Done():
				_ = ps.Close()
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				h(ctx, msg.Channel, []byte(msg.Payload))
			}
		}
	}()
	return nil
}

// Close unsubscribes every channel and waits for the receive loops to exit.
func (r *RedisPubSub) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	subs := r.subs
	r.subs = nil
	r.mu.Unlock()

	var errs []error
	for _, ps := range subs {
		// Loops whose ctx ended already closed their PubSub.
		if err := ps.Close(); err != nil && !errors.Is(err, redis.ErrClosed) {
			errs = append(errs, err)
		}
	}
	r.wg.Wait()
	return errors.Join(errs...)
}
