package event

import (
	"context"
	"fmt"
	"reflect"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dshills/reactor/internal/event/dispatch"
)

// EventBase is the type-erased view of a Channel held by the aggregator.
type EventBase interface {
	// PayloadType returns the channel's payload type.
	PayloadType() reflect.Type

	// Count returns the number of active subscribers.
	Count() int

	receive(typeName string, raw []byte)
}

type origin int

const (
	originLocal origin = iota
	originBridge
)

type subscriber[T any] struct {
	sub    *Subscription
	fn     Handler[T]
	filter  func(T) bool
	once    bool
	timeout time.Duration

	// seen is the sequence number of the newest payload delivered.
	seen atomic.Uint64
}

// observe records that the payload with sequence seq was delivered.
func (s *subscriber[T]) observe(seq uint64) {
	for {
		cur := s.seen.Load()
		if cur >= seq || s.seen.CompareAndSwap(cur, seq) {
			return
		}
	}
}

// Channel is the pub/sub line for payload type T. Obtain it with
// ChannelFor; there is exactly one per type per aggregator.
type Channel[T any] struct {
	agg      *Aggregator
	typ      reflect.Type
	dispatch dispatch.Context
	executor *dispatch.Executor

	mu      sync.RWMutex
	subs    []*subscriber[T]
	seq     uint64
	last    T
	hasLast bool
}

func newChannel[T any](a *Aggregator) *Channel[T] {
	return &Channel[T]{
		agg:      a,
		typ:      reflect.TypeFor[T](),
		dispatch: a.dispatch,
		executor: dispatch.NewExecutor(),
	}
}

// PayloadType returns the channel's payload type.
func (c *Channel[T]) PayloadType() reflect.Type {
	return c.typ
}

// Count returns the number of active subscribers.
func (c *Channel[T]) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.subs)
}

// Subscribe registers fn for payloads published on the channel.
func (c *Channel[T]) Subscribe(fn Handler[T], opts ...SubscribeOption) *Subscription {
	var cfg subscribeConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	s := &subscriber[T]{fn: fn, once: cfg.once, timeout: cfg.timeout}
	if cfg.filter != nil {
		pred, ok := cfg.filter.(func(T) bool)
		if !ok {
			panic(fmt.Sprintf("event: filter %T does not accept %s", cfg.filter, c.typ))
		}
		s.filter = pred
	}
	s.sub = newSubscription(cfg.route, c.remove)

	c.mu.Lock()
	c.subs = append(c.subs, s)
	last, seq, replay := c.last, c.seq, cfg.observed && c.hasLast
	c.mu.Unlock()

	// A publish racing with the replay may be delivered first. The replay is
	// then skipped, so the subscriber never sees an older payload after a
	// newer one.
	if replay {
		c.deliver(context.Background(), s, last, delivery{seq: seq, replay: true})
	}
	return s.sub
}

// Unsubscribe cancels sub. It reports whether sub was active on this
// channel.
func (c *Channel[T]) Unsubscribe(sub *Subscription) bool {
	if sub == nil || !sub.IsActive() {
		return false
	}
	c.mu.RLock()
	found := slices.ContainsFunc(c.subs, func(s *subscriber[T]) bool { return s.sub == sub })
	c.mu.RUnlock()
	if !found {
		return false
	}
	sub.Cancel()
	return true
}

func (c *Channel[T]) remove(sub *Subscription) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subs = slices.DeleteFunc(c.subs, func(s *subscriber[T]) bool { return s.sub == sub })
}

// Last returns the most recently published payload.
func (c *Channel[T]) Last() (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.last, c.hasLast
}

// Publish delivers payload to every subscriber in subscription order, then
// forwards it across the bridge if its type has a bridge name. Publish
// never fails; subscriber errors are logged.
func (c *Channel[T]) Publish(ctx context.Context, payload T) {
	c.publish(ctx, payload, originLocal, "", nil)
}

func (c *Channel[T]) publish(ctx context.Context, payload T, from origin, typeName string, raw []byte) {
	c.mu.Lock()
	c.seq++
	d := delivery{seq: c.seq, from: from, typeName: typeName, raw: raw}
	c.last, c.hasLast = payload, true
	subs := slices.Clone(c.subs)
	c.mu.Unlock()

	for _, s := range subs {
		c.deliver(ctx, s, payload, d)
	}

	if from == originLocal {
		c.agg.forward(ctx, c.typ, payload)
	}
}

func (c *Channel[T]) receive(typeName string, raw []byte) {
	if isNullPayload(raw) {
		return
	}

	var payload T
	if err := c.agg.codec.Unmarshal(raw, &payload); err != nil {
		c.agg.bridgeFailed(&BridgeDispatchError{TypeName: typeName, Payload: raw, Stage: StageDecode, Err: err})
		return
	}
	if isNil(payload) {
		return
	}

	c.agg.stats.delivered.Add(1)
	c.publish(context.Background(), payload, originBridge, typeName, raw)
}

// delivery describes one payload on its way to a subscriber.
type delivery struct {
	seq      uint64
	replay   bool
	from     origin
	typeName string
	raw      []byte
}

func (c *Channel[T]) deliver(ctx context.Context, s *subscriber[T], payload T, d delivery) {
	if !s.sub.IsActive() {
		return
	}

	task := func(ctx context.Context) error {
		if !s.sub.IsActive() {
			return nil
		}
		if d.replay && s.seen.Load() >= d.seq {
			return nil
		}
		s.observe(d.seq)
		if s.filter != nil && !s.filter(payload) {
			return nil
		}
		if s.once {
			if !s.sub.active.CompareAndSwap(true, false) {
				return nil
			}
			c.remove(s.sub)
		}
		return s.fn(ctx, payload)
	}

	run := func(ctx context.Context) error {
		result := c.executor.ExecuteWithTimeout(ctx, task, s.timeout)
		if !result.IsSuccess() && !result.Skipped {
			c.failed(s.sub, result, d.from, d.typeName, d.raw)
		}
		return nil
	}

	ctx = context.WithoutCancel(ctx)
	switch s.sub.route {
	case RoutePublisher:
		_ = run(ctx)
	case RouteBackground:
		go func() { _ = run(ctx) }()
	default:
		if err := c.dispatch.Post(ctx, run); err != nil {
			c.failed(s.sub, dispatch.Result{Error: err}, d.from, d.typeName, d.raw)
		}
	}
}

func (c *Channel[T]) failed(sub *Subscription, result dispatch.Result, from origin, typeName string, raw []byte) {
	var err error
	switch {
	case result.IsPanic():
		err = &PanicError{Value: result.PanicValue, Stack: result.PanicStack}
	case result.IsError():
		err = result.Error
	default:
		return
	}

	if from == originBridge {
		c.agg.bridgeFailed(&BridgeDispatchError{TypeName: typeName, Payload: raw, Stage: StageDeliver, Err: err})
		return
	}
	c.agg.stats.subscriberErrors.Add(1)
	c.agg.logger.Error("subscriber failed",
		"payload_type", c.typ.String(),
		"subscription", sub.ID(),
		"route", sub.Route().String(),
		"error", err,
	)
}

func isNil[T any](v T) bool {
	rv := reflect.ValueOf(&v).Elem()
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}
