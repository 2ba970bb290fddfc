package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mikey/pwned-relay/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

const (
	// CommandPrefix is the only command the dispatcher reacts to
	CommandPrefix = "/pwned"

	// InfoURL is the page users are pointed at for details
	InfoURL = "https://haveibeenpwned.com"
)

// Dispatcher is the core service turning one inbound message into one reply.
// It keeps no state between messages and is safe for concurrent use.
type Dispatcher struct {
	lookup    BreachLookup
	logger    *zap.Logger
	telemetry *telemetry.Instrumentation
}

// NewDispatcher creates a new dispatcher
func NewDispatcher(
	lookup BreachLookup,
	logger *zap.Logger,
	instrumentation *telemetry.Instrumentation,
) *Dispatcher {
	if instrumentation == nil {
		instrumentation = telemetry.NewNoop()
	}
	return &Dispatcher{
		lookup:    lookup,
		logger:    logger,
		telemetry: instrumentation,
	}
}

// IsCommand reports whether text triggers the dispatcher
func IsCommand(text string) bool {
	return strings.HasPrefix(text, CommandPrefix)
}

// FormatBreachReply renders the success reply for an address
func FormatBreachReply(email string, count BreachCount) string {
	return fmt.Sprintf("The email %s has been breached %d times!\nVisit %s for more information.", email, count, InfoURL)
}

// Dispatch processes one inbound message. Messages that are not text or do
// not start with the command prefix are ignored without a reply. Every other
// message gets exactly one reply, either the lookup result or the error.
func (d *Dispatcher) Dispatch(ctx context.Context, msg InboundMessage) *DispatchOutcome {
	if msg.Kind() != MessageKindText || !IsCommand(msg.Text()) {
		return &DispatchOutcome{Status: OutcomeIgnored}
	}

	id := uuid.NewString()
	ctx, span := d.telemetry.StartDispatch(ctx, id)
	defer span.End()

	logger := d.logger.With(zap.String("dispatch_id", id))
	outcome := d.run(ctx, logger, msg.Text())
	outcome.ID = id

	reply := Reply{
		Text:           outcome.Text,
		DisablePreview: outcome.Status == OutcomeReplied,
	}
	if err := msg.Reply(ctx, reply); err != nil {
		// Delivery is best effort, the outcome stands
		logger.Error("Failed to deliver reply", zap.Error(err))
		span.RecordError(err)
	}

	span.SetAttributes(attribute.String("pwned.outcome", outcome.Status.String()))
	if outcome.Err != nil {
		span.SetStatus(codes.Error, outcome.Err.Error())
	}
	d.telemetry.RecordDispatch(ctx, outcome.Status.String())

	return outcome
}

func (d *Dispatcher) run(ctx context.Context, logger *zap.Logger, text string) *DispatchOutcome {
	email, err := ExtractEmail(text)
	if err != nil {
		logger.Info("No email address in command", zap.String("action", "extract"))
		return failed(err)
	}

	lookupCtx, lookupSpan := d.telemetry.StartLookup(ctx)
	start := time.Now()
	count, err := d.lookup.LookupBreaches(lookupCtx, email)
	d.telemetry.EndLookup(lookupCtx, lookupSpan, time.Since(start), err)
	if err != nil {
		// Lookup errors carry the address, keep them at debug
		status := 0
		var lookupErr *LookupError
		if errors.As(err, &lookupErr) {
			status = lookupErr.StatusCode
		}
		logger.Error("Breach lookup failed",
			zap.Int("status", status),
			zap.Duration("elapsed", time.Since(start)))
		logger.Debug("Breach lookup error",
			zap.String("email", email),
			zap.Error(err))
		outcome := failed(err)
		outcome.Email = email
		return outcome
	}

	logger.Info("Breach lookup completed",
		zap.Int("breaches", int(count)),
		zap.Duration("elapsed", time.Since(start)))
	logger.Debug("Breach lookup address", zap.String("email", email))

	return &DispatchOutcome{
		Status: OutcomeReplied,
		Text:   FormatBreachReply(email, count),
		Email:  email,
		Count:  count,
	}
}

func failed(err error) *DispatchOutcome {
	return &DispatchOutcome{
		Status: OutcomeFailed,
		Text:   err.Error(),
		Err:    err,
	}
}
