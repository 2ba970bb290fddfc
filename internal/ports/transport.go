package ports

import (
	"context"

	"github.com/mikey/pwned-relay/internal/core"
)

// Dispatcher processes inbound messages on behalf of a transport
type Dispatcher interface {
	// Dispatch handles one message and replies through it when needed
	Dispatch(ctx context.Context, msg core.InboundMessage) *core.DispatchOutcome
}

// Transport defines the interface for chat transports feeding the dispatcher
type Transport interface {
	// Name returns the transport type
	Name() string

	// Start starts receiving messages
	Start() error

	// Stop stops receiving messages and waits for in-flight dispatches
	Stop() error
}
