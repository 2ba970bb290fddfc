package core

import (
	"fmt"
)

// MessageKind classifies an inbound message
type MessageKind int

const (
	// MessageKindText is a plain text message
	MessageKindText MessageKind = iota
	// MessageKindOther covers stickers, photos, service messages and anything else
	MessageKindOther
)

// String returns the kind name used in logs
func (k MessageKind) String() string {
	switch k {
	case MessageKindText:
		return "text"
	default:
		return "other"
	}
}

// BreachCount is the number of breaches the lookup service knows for an address
type BreachCount int

// Reply is the text sent back to the originating conversation
type Reply struct {
	Text           string
	DisablePreview bool
}

// OutcomeStatus is the terminal state of one dispatch
type OutcomeStatus int

const (
	// OutcomeIgnored means the message was not a command and nothing was sent
	OutcomeIgnored OutcomeStatus = iota
	// OutcomeReplied means the lookup succeeded and the result was sent
	OutcomeReplied
	// OutcomeFailed means extraction or lookup failed and the error was sent
	OutcomeFailed
)

// String returns the status name used in logs and metrics
func (s OutcomeStatus) String() string {
	switch s {
	case OutcomeIgnored:
		return "ignored"
	case OutcomeReplied:
		return "replied"
	case OutcomeFailed:
		return "failed"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// DispatchOutcome represents the result of dispatching one inbound message
type DispatchOutcome struct {
	ID     string
	Status OutcomeStatus
	Text   string
	Email  string
	Count  BreachCount
	Err    error
}

// Ignored reports whether the message was silently skipped
func (o *DispatchOutcome) Ignored() bool {
	return o.Status == OutcomeIgnored
}
