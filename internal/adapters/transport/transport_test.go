package transport

import (
	"context"
	"testing"

	"github.com/mikey/pwned-relay/internal/core"
	"github.com/mikey/pwned-relay/internal/mocks"
	"github.com/mikey/pwned-relay/internal/telemetry"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
)

// newTestDispatcher wires a real dispatcher to a mocked lookup that reports
// count breaches for every address
func newTestDispatcher(t *testing.T, count core.BreachCount) *core.Dispatcher {
	ctrl := gomock.NewController(t)
	lookup := mocks.NewMockBreachLookup(ctrl)
	lookup.EXPECT().LookupBreaches(gomock.Any(), gomock.Any()).Return(count, nil).AnyTimes()
	return core.NewDispatcher(lookup, zap.NewNop(), telemetry.NewNoop())
}

type panickingDispatcher struct {
	calls chan struct{}
}

func (d *panickingDispatcher) Dispatch(_ context.Context, _ core.InboundMessage) *core.DispatchOutcome {
	d.calls <- struct{}{}
	panic("boom")
}
