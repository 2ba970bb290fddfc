package transport

import (
	"context"
	"fmt"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/mikey/pwned-relay/internal/core"
	"github.com/mikey/pwned-relay/internal/ports"
	"github.com/mikey/pwned-relay/internal/utils"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// telegramMaxMessageSize is the Bot API limit for a message text
const telegramMaxMessageSize = 4096

// botAPI is the subset of *tgbotapi.BotAPI used by the transport
type botAPI interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramTransport long-polls the Bot API and dispatches every message
// in its own goroutine
type TelegramTransport struct {
	bot           botAPI
	dispatcher    ports.Dispatcher
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
	pollTimeout   int

	mu       sync.Mutex
	cancel   context.CancelFunc
	done     chan struct{}
	inflight *errgroup.Group
}

// NewTelegramTransport creates a new Telegram transport
func NewTelegramTransport(
	bot botAPI,
	dispatcher ports.Dispatcher,
	logger *zap.Logger,
	textProcessor *utils.TextProcessor,
	pollTimeout int,
) *TelegramTransport {
	return &TelegramTransport{
		bot:           bot,
		dispatcher:    dispatcher,
		logger:        logger,
		textProcessor: textProcessor,
		pollTimeout:   pollTimeout,
	}
}

// Name returns the transport type
func (t *TelegramTransport) Name() string {
	return "telegram"
}

// Start starts fetching updates via long polling
func (t *TelegramTransport) Start() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.cancel != nil {
		return fmt.Errorf("telegram transport already started")
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.cancel = cancel
	t.done = make(chan struct{})
	t.inflight = &errgroup.Group{}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = t.pollTimeout
	updates := t.bot.GetUpdatesChan(u)

	t.logger.Info("Telegram transport started", zap.Int("poll_timeout", t.pollTimeout))

	go t.loop(ctx, updates)
	return nil
}

// Stop stops polling and waits for in-flight dispatches to finish
func (t *TelegramTransport) Stop() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.cancel == nil {
		return nil
	}

	t.bot.StopReceivingUpdates()
	t.cancel()
	<-t.done
	err := t.inflight.Wait()
	t.cancel = nil
	return err
}

func (t *TelegramTransport) loop(ctx context.Context, updates tgbotapi.UpdatesChannel) {
	defer close(t.done)

	// In-flight dispatches outlive Stop's cancellation so they can finish
	dispatchCtx := context.WithoutCancel(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			msg := t.newMessage(update)
			if msg == nil {
				continue
			}
			t.inflight.Go(func() error {
				t.handle(dispatchCtx, msg)
				return nil
			})
		}
	}
}

func (t *TelegramTransport) handle(ctx context.Context, msg *telegramMessage) {
	defer func() {
		if r := recover(); r != nil {
			t.logger.Error("Recovered from panic while dispatching update",
				zap.Any("panic", r),
				zap.Int64("chat_id", msg.chatID))
		}
	}()

	outcome := t.dispatcher.Dispatch(ctx, msg)
	if outcome.Ignored() {
		return
	}
	t.logger.Info("Processed command",
		zap.Int64("chat_id", msg.chatID),
		zap.Int("message_id", msg.messageID),
		zap.String("outcome", outcome.Status.String()),
		zap.String("dispatch_id", outcome.ID))
}

// newMessage converts an update; updates without a message are skipped
func (t *TelegramTransport) newMessage(update tgbotapi.Update) *telegramMessage {
	if update.Message == nil || update.Message.Chat == nil {
		return nil
	}

	kind := core.MessageKindText
	if update.Message.Text == "" {
		kind = core.MessageKindOther
	}

	return &telegramMessage{
		transport: t,
		kind:      kind,
		text:      update.Message.Text,
		chatID:    update.Message.Chat.ID,
		messageID: update.Message.MessageID,
	}
}

// telegramMessage is an InboundMessage backed by a Bot API message
type telegramMessage struct {
	transport *TelegramTransport
	kind      core.MessageKind
	text      string
	chatID    int64
	messageID int
}

func (m *telegramMessage) Kind() core.MessageKind {
	return m.kind
}

func (m *telegramMessage) Text() string {
	return m.text
}

// Reply answers the originating message in the same chat
func (m *telegramMessage) Reply(_ context.Context, reply core.Reply) error {
	out := tgbotapi.NewMessage(m.chatID, m.transport.textProcessor.TruncateText(reply.Text, telegramMaxMessageSize))
	out.ReplyToMessageID = m.messageID
	out.DisableWebPagePreview = reply.DisablePreview

	if _, err := m.transport.bot.Send(out); err != nil {
		return fmt.Errorf("failed to send telegram reply: %w", err)
	}
	return nil
}
