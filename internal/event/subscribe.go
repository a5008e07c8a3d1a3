package event

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Handler receives payloads published on a Channel.
type Handler[T any] func(ctx context.Context, payload T) error

// Route selects where a subscriber runs.
type Route int

const (
	// RouteContext posts delivery to the aggregator's dispatch context.
	RouteContext Route = iota

	// RoutePublisher runs the subscriber on the publishing goroutine.
	RoutePublisher

	// RouteBackground runs each delivery on its own goroutine.
	RouteBackground
)

// String returns a human-readable route name.
func (r Route) String() string {
	switch r {
	case RouteContext:
		return "context"
	case RoutePublisher:
		return "publisher"
	case RouteBackground:
		return "background"
	default:
		return "unknown"
	}
}

type subscribeConfig struct {
	route    Route
	filter   any
	once     bool
	observed bool
	timeout  time.Duration
}

// SubscribeOption configures a subscription.
type SubscribeOption func(*subscribeConfig)

// OnPublisher runs the subscriber on the publishing goroutine.
func OnPublisher() SubscribeOption {
	return func(c *subscribeConfig) {
		c.route = RoutePublisher
	}
}

// OnBackground runs the subscriber on a new goroutine per delivery.
func OnBackground() SubscribeOption {
	return func(c *subscribeConfig) {
		c.route = RouteBackground
	}
}

// WithFilter delivers only payloads for which pred returns true. T must be
// the payload type of the channel being subscribed to.
func WithFilter[T any](pred func(T) bool) SubscribeOption {
	return func(c *subscribeConfig) {
		c.filter = pred
	}
}

// Once cancels the subscription after its first delivery.
func Once() SubscribeOption {
	return func(c *subscribeConfig) {
		c.once = true
	}
}

// AsObserved immediately delivers the channel's last published payload,
// if there is one, to the new subscriber. The replay is dropped if a newer
// payload reaches the subscriber first.
func AsObserved() SubscribeOption {
	return func(c *subscribeConfig) {
		c.observed = true
	}
}

// WithHandlerTimeout cancels the context passed to the subscriber after d.
// The subscriber must honor ctx for the limit to take effect; a deadline
// error it returns is logged like any other subscriber error.
func WithHandlerTimeout(d time.Duration) SubscribeOption {
	return func(c *subscribeConfig) {
		c.timeout = d
	}
}

// Subscription is a handle to a channel subscriber.
type Subscription struct {
	id       string
	route    Route
	active   atomic.Bool
	onCancel func(*Subscription)
}

func newSubscription(route Route, onCancel func(*Subscription)) *Subscription {
	s := &Subscription{
		id:       uuid.NewString(),
		route:    route,
		onCancel: onCancel,
	}
	s.active.Store(true)
	return s
}

// ID returns the unique subscription identifier.
func (s *Subscription) ID() string {
	return s.id
}

// Route returns where the subscriber runs.
func (s *Subscription) Route() Route {
	return s.route
}

// IsActive returns true until the subscription is cancelled.
func (s *Subscription) IsActive() bool {
	return s.active.Load()
}

// Cancel stops delivery to the subscriber. Deliveries already posted to a
// dispatch context are skipped. Cancel is idempotent.
func (s *Subscription) Cancel() {
	if s.active.CompareAndSwap(true, false) && s.onCancel != nil {
		s.onCancel(s)
	}
}
