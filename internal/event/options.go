package event

import (
	"context"
	"log/slog"

	"github.com/dshills/reactor/internal/event/dispatch"
)

// Option configures an Aggregator.
type Option func(*config)

type config struct {
	dispatch dispatch.Context
	logger   *slog.Logger
	codec    Codec
	policy   ConnectPolicy
	ctx      context.Context
}

func defaultConfig() config {
	return config{
		dispatch: dispatch.NewInline(),
		logger:   slog.Default(),
		codec:    CamelCodec{},
		policy:   ConnectOnConstruct,
		ctx:      context.Background(),
	}
}

// WithDispatch sets the dispatch context captured by every channel.
func WithDispatch(d dispatch.Context) Option {
	return func(c *config) {
		if d != nil {
			c.dispatch = d
		}
	}
}

// WithLogger sets the aggregator logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithCodec overrides the bridge payload codec.
func WithCodec(codec Codec) Option {
	return func(c *config) {
		if codec != nil {
			c.codec = codec
		}
	}
}

// WithConnectPolicy selects when the bridge handshake starts.
func WithConnectPolicy(p ConnectPolicy) Option {
	return func(c *config) {
		c.policy = p
	}
}

// WithContext sets the context passed to the bridge handshake.
func WithContext(ctx context.Context) Option {
	return func(c *config) {
		if ctx != nil {
			c.ctx = ctx
		}
	}
}
