// Package event provides the cross-runtime event aggregator.
//
// The aggregator owns exactly one Channel per payload type. Publishing on a
// channel delivers the payload to local subscribers and, when the payload
// type has a bridge name, forwards it to the script runtime. Messages
// arriving from the script runtime are decoded into the bound Go type and
// delivered to local subscribers only.
//
// # Architecture
//
//	   Go publisher                          script runtime
//	        │                                      ▲   │
//	        ▼                                      │   │ Receive(name, json)
//	┌───────────────┐  forward(name, json)  ┌──────┴───────┐
//	│  Channel[T]   │ ─────────────────────▶│    Proxy     │
//	│ (per type T)  │                       └──────────────┘
//	└───────┬───────┘ ◀────────────── Aggregator.Receive
//	        │ Post
//	        ▼
//	 dispatch.Context ──▶ subscribers
//
// # Bridge Names
//
// A payload type crosses the bridge only if it is bound to a name:
//
//	types := event.NewTypes()
//	event.Bind[CustomerSelected](types, "CustomerSelected")
//
// Publishing an unbound type is not an error; it is delivered locally only.
// An inbound message with an unbound name is logged and dropped.
//
// # Delivery
//
// Subscribers run on the dispatch context captured when the aggregator was
// created, unless they ask for OnPublisher or OnBackground delivery.
// Handler errors and panics are logged and never reach the publisher.
//
// # Wire Format
//
// Payloads are JSON with camelCase object keys (CamelCodec). Decoding
// matches keys case-insensitively, so a field named CustomerID reads the
// key "customerId".
//
// # Usage
//
//	agg := event.New(types, runtime,
//	    event.WithDispatch(loop),
//	    event.WithLogger(logger),
//	)
//
//	selected := event.ChannelFor[CustomerSelected](agg)
//	selected.Subscribe(func(ctx context.Context, e CustomerSelected) error {
//	    return view.Show(e.CustomerID)
//	})
//	selected.Publish(ctx, CustomerSelected{CustomerID: 42})
package event
