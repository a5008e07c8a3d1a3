package event

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/dshills/reactor/internal/event/dispatch"
)

// Aggregator owns the channel for every payload type and the bridge to the
// script runtime. It is safe for concurrent use.
type Aggregator struct {
	types     TypeRegistry
	connector Connector
	dispatch  dispatch.Context
	logger    *slog.Logger
	codec     Codec
	policy    ConnectPolicy
	ctx       context.Context

	mu       sync.Mutex
	channels map[reflect.Type]EventBase

	connectOnce sync.Once
	proxy       atomic.Pointer[proxyRef]
	ready       chan struct{}
	connectErr  error

	stats aggregatorStats
}

type proxyRef struct {
	Proxy
}

type aggregatorStats struct {
	received         atomic.Uint64
	delivered        atomic.Uint64
	unknown          atomic.Uint64
	bridgeFailures   atomic.Uint64
	subscriberErrors atomic.Uint64
	forwarded        atomic.Uint64
	unbound          atomic.Uint64
	notConnected     atomic.Uint64
	sendFailures     atomic.Uint64
}

// New creates an aggregator. types maps payload types to bridge names;
// connector may be nil, in which case the aggregator is local only.
func New(types TypeRegistry, connector Connector, opts ...Option) *Aggregator {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	if types == nil {
		types = NewTypes()
	}

	a := &Aggregator{
		types:     types,
		connector: connector,
		dispatch:  cfg.dispatch,
		logger:    cfg.logger.With("component", "event"),
		codec:     cfg.codec,
		policy:    cfg.policy,
		ctx:       cfg.ctx,
		channels:  make(map[reflect.Type]EventBase),
		ready:     make(chan struct{}),
	}

	if a.policy == ConnectOnConstruct {
		a.Connect()
	}
	return a
}

// ChannelFor returns the channel for payload type T, creating it on first
// use. Concurrent callers always receive the same instance.
func ChannelFor[T any](a *Aggregator) *Channel[T] {
	t := reflect.TypeFor[T]()

	a.mu.Lock()
	defer a.mu.Unlock()

	if ch, ok := a.channels[t]; ok {
		return ch.(*Channel[T])
	}
	ch := newChannel[T](a)
	a.channels[t] = ch
	return ch
}

// Publish is shorthand for ChannelFor[T](a).Publish(ctx, payload).
func Publish[T any](ctx context.Context, a *Aggregator, payload T) {
	ChannelFor[T](a).Publish(ctx, payload)
}

// channelForType returns the channel for t, constructing it through the
// registry's factory if no Go code has asked for it yet.
func (a *Aggregator) channelForType(t reflect.Type) (EventBase, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if ch, ok := a.channels[t]; ok {
		return ch, true
	}
	factory, ok := a.types.(ChannelFactory)
	if !ok {
		return nil, false
	}
	ch, ok := factory.newChannel(t, a)
	if !ok {
		return nil, false
	}
	a.channels[t] = ch
	return ch, true
}

// Receive implements Receiver. It decodes payload into the type bound to
// typeName and delivers it to local subscribers. Receive never panics and
// never forwards the message back across the bridge.
func (a *Aggregator) Receive(typeName string, payload []byte) {
	a.stats.received.Add(1)

	defer func() {
		if r := recover(); r != nil {
			a.bridgeFailed(&BridgeDispatchError{
				TypeName: typeName,
				Payload:  payload,
				Stage:    StageDeliver,
				Err:      &PanicError{Value: r, Stack: debug.Stack()},
			})
		}
	}()

	t, ok := a.types.TypeForName(typeName)
	if !ok {
		a.stats.unknown.Add(1)
		a.logger.Warn("inbound event type not registered", "type", typeName, "payload", string(payload))
		return
	}

	ch, ok := a.channelForType(t)
	if !ok {
		a.stats.unknown.Add(1)
		a.logger.Warn("no channel for inbound event type", "type", typeName, "payload_type", t.String())
		return
	}
	ch.receive(typeName, payload)
}

func (a *Aggregator) bridgeFailed(err *BridgeDispatchError) {
	a.stats.bridgeFailures.Add(1)
	a.logger.Error("bridge dispatch failed",
		"type", err.TypeName,
		"stage", string(err.Stage),
		"payload", string(err.Payload),
		"error", err.Err,
	)
}

// forward sends a locally published payload across the bridge.
func (a *Aggregator) forward(_ context.Context, t reflect.Type, payload any) {
	name, ok := a.types.NameForType(t)
	if !ok {
		a.stats.unbound.Add(1)
		return
	}

	if a.policy == ConnectOnFirstPublish {
		a.Connect()
	}
	ref := a.proxy.Load()
	if ref == nil {
		a.stats.notConnected.Add(1)
		a.logger.Debug("bridge not connected, event delivered locally only", "type", name)
		return
	}

	data, err := a.codec.Marshal(payload)
	if err != nil {
		a.stats.sendFailures.Add(1)
		a.logger.Error("encode outbound event", "type", name, "error", err)
		return
	}
	if err := ref.Send(name, data); err != nil {
		a.stats.sendFailures.Add(1)
		a.logger.Error("forward event", "type", name, "error", err)
		return
	}
	a.stats.forwarded.Add(1)
}

// Connect starts the bridge handshake on a background goroutine. Only the
// first call has any effect.
func (a *Aggregator) Connect() {
	a.connectOnce.Do(func() {
		if a.connector == nil {
			a.connectErr = ErrNoBridge
			close(a.ready)
			return
		}
		go a.handshake()
	})
}

func (a *Aggregator) handshake() {
	defer close(a.ready)

	defer func() {
		if r := recover(); r != nil {
			a.connectErr = fmt.Errorf("bridge handshake panicked: %v", r)
			a.logger.Error("bridge handshake failed", "error", a.connectErr)
		}
	}()

	proxy, err := a.connector.Connect(a.ctx, a)
	if err != nil {
		a.connectErr = err
		a.logger.Error("bridge handshake failed", "error", err)
		return
	}
	if proxy == nil {
		a.connectErr = fmt.Errorf("bridge handshake returned no proxy")
		a.logger.Error("bridge handshake failed", "error", a.connectErr)
		return
	}
	a.proxy.Store(&proxyRef{Proxy: proxy})
	a.logger.Info("bridge connected")
}

// Connected reports whether the bridge handshake has completed
// successfully.
func (a *Aggregator) Connected() bool {
	return a.proxy.Load() != nil
}

// WaitConnected blocks until the handshake finishes and returns its error.
// It does not start the handshake.
func (a *Aggregator) WaitConnected(ctx context.Context) error {
	select {
	case <-a.ready:
		return a.connectErr
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stats returns aggregator statistics.
func (a *Aggregator) Stats() Stats {
	a.mu.Lock()
	channels := len(a.channels)
	a.mu.Unlock()

	return Stats{
		Channels:         channels,
		Connected:        a.Connected(),
		Received:         a.stats.received.Load(),
		Delivered:        a.stats.delivered.Load(),
		Unknown:          a.stats.unknown.Load(),
		BridgeFailures:   a.stats.bridgeFailures.Load(),
		SubscriberErrors: a.stats.subscriberErrors.Load(),
		Forwarded:        a.stats.forwarded.Load(),
		Unbound:          a.stats.unbound.Load(),
		NotConnected:     a.stats.notConnected.Load(),
		SendFailures:     a.stats.sendFailures.Load(),
	}
}

// Stats contains aggregator statistics.
type Stats struct {
	// Channels is the number of channels created so far.
	Channels int

	// Connected reports whether the bridge proxy is available.
	Connected bool

	// Received counts inbound bridge messages.
	Received uint64

	// Delivered counts inbound messages decoded and handed to a channel.
	Delivered uint64

	// Unknown counts inbound messages with an unbound type name.
	Unknown uint64

	// BridgeFailures counts inbound decode and delivery failures.
	BridgeFailures uint64

	// SubscriberErrors counts failed deliveries of local publishes.
	SubscriberErrors uint64

	// Forwarded counts payloads handed to the proxy.
	Forwarded uint64

	// Unbound counts local publishes of types with no bridge name.
	Unbound uint64

	// NotConnected counts bound publishes made before the handshake
	// completed.
	NotConnected uint64

	// SendFailures counts outbound encode or send failures.
	SendFailures uint64
}
