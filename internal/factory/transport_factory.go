package factory

import (
	"fmt"
	"net/http"
	"os"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/mikey/pwned-relay/internal/adapters/transport"
	"github.com/mikey/pwned-relay/internal/config"
	"github.com/mikey/pwned-relay/internal/core"
	"github.com/mikey/pwned-relay/internal/ports"
	"github.com/mikey/pwned-relay/internal/utils"
	"github.com/mikey/pwned-relay/internal/whitelist"
	"go.uber.org/zap"
)

// TransportFactory creates message transports based on configuration
type TransportFactory struct {
	cfg           *config.Config
	logger        *zap.Logger
	dispatcher    *core.Dispatcher
	textProcessor *utils.TextProcessor
}

// NewTransportFactory creates a new transport factory
func NewTransportFactory(
	cfg *config.Config,
	logger *zap.Logger,
	dispatcher *core.Dispatcher,
	textProcessor *utils.TextProcessor,
) *TransportFactory {
	return &TransportFactory{
		cfg:           cfg,
		logger:        logger,
		dispatcher:    dispatcher,
		textProcessor: textProcessor,
	}
}

// CreateTransport creates a transport based on the configuration
func (f *TransportFactory) CreateTransport() (ports.Transport, error) {
	transportType := f.cfg.GetTransport().Type

	switch transportType {
	case config.TransportTelegram:
		return f.createTelegramTransport()
	case config.TransportSMTP:
		smtpCfg := f.cfg.GetSMTP()
		return transport.NewSMTPTransport(
			f.dispatcher,
			f.logger.Named("smtp"),
			f.textProcessor,
			whitelist.NewChecker(smtpCfg.AcceptedDomains, f.logger),
			smtpCfg.ListenAddress,
			smtpCfg.Domain,
			smtpCfg.RelayAddress,
			smtpCfg.RelayPort,
			smtpCfg.FromAddress,
		), nil
	case config.TransportConsole:
		return f.CreateConsoleTransport(), nil
	default:
		return nil, fmt.Errorf("unsupported transport type: %s", transportType)
	}
}

// CreateConsoleTransport creates a transport reading stdin and writing stdout
func (f *TransportFactory) CreateConsoleTransport() *transport.ConsoleTransport {
	return transport.NewConsoleTransport(
		f.dispatcher,
		f.logger.Named("console"),
		os.Stdin,
		os.Stdout,
		f.cfg.GetConsole().Prompt,
	)
}

func (f *TransportFactory) createTelegramTransport() (ports.Transport, error) {
	telegramCfg := f.cfg.GetTelegram()
	if telegramCfg.Token == "" {
		return nil, &config.StartupError{Field: "telegram.token", Err: config.ErrMissingToken}
	}

	bot, err := tgbotapi.NewBotAPIWithClient(telegramCfg.Token, telegramCfg.APIEndpoint, &http.Client{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Telegram: %w", err)
	}
	bot.Debug = telegramCfg.Debug

	f.logger.Info("Authorized on Telegram", zap.String("account", bot.Self.UserName))

	return transport.NewTelegramTransport(
		bot,
		f.dispatcher,
		f.logger.Named("telegram"),
		f.textProcessor,
		telegramCfg.PollTimeout,
	), nil
}
