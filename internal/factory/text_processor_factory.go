package factory

import (
	"github.com/mikey/pwned-relay/internal/utils"
	"go.uber.org/zap"
)

// TextProcessorFactory creates the text processor shared by the transports
type TextProcessorFactory struct {
	logger *zap.Logger
}

// NewTextProcessorFactory creates a new TextProcessorFactory
func NewTextProcessorFactory(logger *zap.Logger) *TextProcessorFactory {
	return &TextProcessorFactory{
		logger: logger.Named("text"),
	}
}

// CreateTextProcessor creates the processor used to sanitise inbound mail
// and to fit replies into transport size limits
func (f *TextProcessorFactory) CreateTextProcessor() *utils.TextProcessor {
	return utils.NewTextProcessor(f.logger)
}
