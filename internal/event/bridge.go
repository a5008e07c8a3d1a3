package event

import "context"

// Proxy is the outbound side of the bridge.
//
// Send must not block on the other runtime; implementations queue the
// message and return. The returned error reports only that the message
// could not be queued.
type Proxy interface {
	Send(typeName string, payload []byte) error
}

// Receiver is the inbound side of the bridge. The other runtime calls
// Receive for every message it raises. Receive never fails.
type Receiver interface {
	Receive(typeName string, payload []byte)
}

// Connector performs the bridge handshake. It hands the receiver to the
// other runtime and returns the proxy used for outbound messages.
type Connector interface {
	Connect(ctx context.Context, receiver Receiver) (Proxy, error)
}

// ConnectorFunc adapts a function to Connector.
type ConnectorFunc func(ctx context.Context, receiver Receiver) (Proxy, error)

// Connect implements Connector.
func (f ConnectorFunc) Connect(ctx context.Context, receiver Receiver) (Proxy, error) {
	return f(ctx, receiver)
}

// ConnectPolicy selects when the bridge handshake starts.
type ConnectPolicy int

const (
	// ConnectOnConstruct starts the handshake when the aggregator is created.
	ConnectOnConstruct ConnectPolicy = iota

	// ConnectOnFirstPublish starts the handshake on the first local publish.
	ConnectOnFirstPublish
)

// String returns a human-readable policy name.
func (p ConnectPolicy) String() string {
	switch p {
	case ConnectOnConstruct:
		return "construct"
	case ConnectOnFirstPublish:
		return "first-publish"
	default:
		return "unknown"
	}
}

// ParseConnectPolicy parses the names returned by ConnectPolicy.String.
func ParseConnectPolicy(s string) (ConnectPolicy, bool) {
	switch s {
	case "", "construct":
		return ConnectOnConstruct, true
	case "first-publish":
		return ConnectOnFirstPublish, true
	default:
		return ConnectOnConstruct, false
	}
}
