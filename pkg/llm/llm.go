package llm

import (
	"AapdaMitra/pkg/errors"
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"

	DefaultGeminiModel = "gemini-2.5-flash"
	DefaultOpenAIModel = "gpt-4o-mini"
)

// TextGenerator is the opaque text oracle behind survival guides and chat.
// Every failure, including an empty reply, is a GenerationError.
type TextGenerator interface {
	GenerateSurvivalGuide(ctx context.Context, disasterType string) (string, error)
	ChatResponse(ctx context.Context, history []Turn, message string) (string, error)
}

// Turn is one earlier chat message.
type Turn struct {
	Sender string // "user" or "bot"
	Text   string
}

type Config struct {
	Provider string
	APIKey   string
	BaseURL  string
	Model    string
}

// New builds the generator for cfg.Provider.
func New(ctx context.Context, cfg Config, logger *logrus.Logger) (TextGenerator, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	switch strings.ToLower(cfg.Provider) {
	case "", ProviderGemini:
		if cfg.Model == "" {
			cfg.Model = DefaultGeminiModel
		}
		return NewGeminiHandler(ctx, cfg.APIKey, cfg.BaseURL, cfg.Model, logger)
	case ProviderOpenAI:
		if cfg.Model == "" {
			cfg.Model = DefaultOpenAIModel
		}
		return NewOpenAIHandler(cfg.APIKey, cfg.BaseURL, cfg.Model, logger), nil
	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", cfg.Provider)
	}
}

// Offline is used when no provider can be reached at startup. Every call
// fails, so guides come from the store and chat answers with its fallback.
type Offline struct{}

func (Offline) GenerateSurvivalGuide(ctx context.Context, disasterType string) (string, error) {
	return "", errors.Generation(nil, "text generation is offline")
}

func (Offline) ChatResponse(ctx context.Context, history []Turn, message string) (string, error) {
	return "", errors.Generation(nil, "text generation is offline")
}
