package chat

import (
	"AapdaMitra/internal/models"
	"AapdaMitra/pkg/errors"
	"AapdaMitra/pkg/llm"
	"AapdaMitra/pkg/logger"
	"context"
	"strings"

	"go.uber.org/zap"
)

const (
	GreetingText = "Hello! I am Aapda Mitra. How can I help you today regarding disaster safety and preparedness?"
	FallbackText = "I'm sorry, I'm having trouble connecting right now. Please try again later."
)

// Service answers chat messages through the text oracle.
type Service struct {
	oracle llm.TextGenerator
}

func NewService(oracle llm.TextGenerator) *Service {
	return &Service{oracle: oracle}
}

// Greeting is the bot message a conversation opens with.
func (s *Service) Greeting() models.ChatMessage {
	return models.ChatMessage{Sender: models.SenderBot, Text: GreetingText}
}

// Reply answers message given the earlier history. Oracle failures are
// answered with FallbackText instead of an error.
func (s *Service) Reply(ctx context.Context, history []models.ChatMessage, message string) (models.ChatMessage, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return models.ChatMessage{}, errors.Validation("message is required")
	}

	turns := make([]llm.Turn, 0, len(history))
	for _, m := range history {
		turns = append(turns, llm.Turn{Sender: string(m.Sender), Text: m.Text})
	}

	text, err := s.oracle.ChatResponse(ctx, turns, message)
	if err != nil {
		logger.Warn("chat response failed", zap.Int("history", len(history)), zap.Error(err))
		text = FallbackText
	}
	return models.ChatMessage{Sender: models.SenderBot, Text: text}, nil
}
