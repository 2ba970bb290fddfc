//go:generate go run go.uber.org/mock/mockgen -source=ports.go -destination=../mocks/mock_ports.go -package=mocks
package core

import (
	"context"
)

// BreachLookup defines the interface for querying the breach-count service
type BreachLookup interface {
	// LookupBreaches returns the number of breaches recorded for an email address
	LookupBreaches(ctx context.Context, email string) (BreachCount, error)
}

// InboundMessage is a single message handed over by a transport.
// It is only valid for the duration of one dispatch.
type InboundMessage interface {
	// Kind reports whether the message carries text
	Kind() MessageKind

	// Text returns the text payload
	Text() string

	// Reply sends text back to the conversation the message came from
	Reply(ctx context.Context, reply Reply) error
}
