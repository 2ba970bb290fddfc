package transport

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/mikey/pwned-relay/internal/core"
	"github.com/mikey/pwned-relay/internal/ports"
	"go.uber.org/zap"
)

// ConsoleTransport reads one message per input line and prints replies.
// It is meant for local use and scripting.
type ConsoleTransport struct {
	dispatcher ports.Dispatcher
	logger     *zap.Logger
	in         io.Reader
	out        io.Writer
	prompt     string

	writeMu    sync.Mutex
	dispatchMu sync.Mutex
	cancel     context.CancelFunc
}

// NewConsoleTransport creates a new console transport
func NewConsoleTransport(dispatcher ports.Dispatcher, logger *zap.Logger, in io.Reader, out io.Writer, prompt string) *ConsoleTransport {
	return &ConsoleTransport{
		dispatcher: dispatcher,
		logger:     logger,
		in:         in,
		out:        out,
		prompt:     prompt,
	}
}

// Name returns the transport type
func (t *ConsoleTransport) Name() string {
	return "console"
}

// Start reads input in the background until EOF or Stop
func (t *ConsoleTransport) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	t.cancel = cancel

	go func() {
		if err := t.Run(ctx); err != nil {
			t.logger.Error("Console transport stopped", zap.Error(err))
		}
	}()
	return nil
}

// Stop stops reading input once the current dispatch, if any, is done
func (t *ConsoleTransport) Stop() error {
	if t.cancel != nil {
		t.cancel()
	}
	t.dispatchMu.Lock()
	defer t.dispatchMu.Unlock()
	return nil
}

// Run dispatches every input line in order and returns at EOF
func (t *ConsoleTransport) Run(ctx context.Context) error {
	return t.RunReader(ctx, t.in)
}

// RunReader is Run over another input, such as a file of messages
func (t *ConsoleTransport) RunReader(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	t.showPrompt()
	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		t.ProcessText(ctx, scanner.Text())
		t.showPrompt()
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}
	return nil
}

// ProcessText dispatches a single text message
func (t *ConsoleTransport) ProcessText(ctx context.Context, text string) *core.DispatchOutcome {
	t.dispatchMu.Lock()
	defer t.dispatchMu.Unlock()

	t.logger.Debug("Processing console input", zap.Int("length", len(text)))
	return t.dispatcher.Dispatch(ctx, &consoleMessage{transport: t, text: text})
}

func (t *ConsoleTransport) showPrompt() {
	if t.prompt == "" {
		return
	}
	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	fmt.Fprint(t.out, t.prompt)
}

func (t *ConsoleTransport) write(text string) error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	_, err := fmt.Fprintln(t.out, text)
	return err
}

// consoleMessage is an InboundMessage read from the console
type consoleMessage struct {
	transport *ConsoleTransport
	text      string
}

func (m *consoleMessage) Kind() core.MessageKind {
	return core.MessageKindText
}

func (m *consoleMessage) Text() string {
	return m.text
}

func (m *consoleMessage) Reply(_ context.Context, reply core.Reply) error {
	return m.transport.write(reply.Text)
}
