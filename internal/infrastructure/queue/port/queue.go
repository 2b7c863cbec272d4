package port

import (
	"context"
	"errors"
	"time"
)

// ErrSkipRetry marks a handler failure that must not be retried, such as a
// malformed payload or a rejected message. Wrap it with fmt.Errorf("%w").
var ErrSkipRetry = errors.New("queue: skip retry")

// Task is a background job: a stable type name plus an opaque payload.
type Task struct {
	Type    string
	Payload []byte
}

// Handler processes a Task. A non-nil error is retried by the adapter unless
// it wraps ErrSkipRetry.
type Handler func(ctx context.Context, task Task) error

// EnqueueOption controls where and how a task runs. Zero values leave the
// backend default in place.
type EnqueueOption struct {
	Queue    string
	MaxRetry int
	Timeout  time.Duration // per attempt
}

// Client enqueues tasks for background processing.
type Client interface {
	Enqueue(ctx context.Context, t Task, opts ...EnqueueOption) (id string, err error)
	Close() error
}

// Server runs workers. Run blocks until ctx is canceled, then drains in-flight
// tasks before returning.
type Server interface {
	Register(taskType string, h Handler)
	Run(ctx context.Context) error
}
