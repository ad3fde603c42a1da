package llm

import (
	"AapdaMitra/pkg/errors"
	"context"
	"strings"

	"github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
)

// OpenAIHandler talks to any OpenAI-compatible chat completions endpoint.
type OpenAIHandler struct {
	client *openai.Client
	model  string
	logger *logrus.Logger
}

func NewOpenAIHandler(apiKey, baseURL, model string, logger *logrus.Logger) *OpenAIHandler {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = strings.TrimRight(baseURL, "/")
	}
	return &OpenAIHandler{
		client: openai.NewClientWithConfig(config),
		model:  model,
		logger: logger,
	}
}

func (h *OpenAIHandler) GenerateSurvivalGuide(ctx context.Context, disasterType string) (string, error) {
	text, err := h.complete(ctx, []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleUser, Content: GuidePrompt(disasterType)},
	})
	if err != nil {
		h.logger.WithError(err).WithField("disasterType", disasterType).Error("Error generating survival guide")
		return "", errors.Generation(err, "failed to generate survival guide")
	}
	return text, nil
}

func (h *OpenAIHandler) ChatResponse(ctx context.Context, history []Turn, message string) (string, error) {
	text, err := h.complete(ctx, []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: ChatSystemInstruction},
		{Role: openai.ChatMessageRoleUser, Content: ChatPrompt(history, message)},
	})
	if err != nil {
		h.logger.WithError(err).Error("Error getting chatbot response")
		return "", errors.Generation(err, "failed to get chat response")
	}
	return text, nil
}

func (h *OpenAIHandler) complete(ctx context.Context, messages []openai.ChatCompletionMessage) (string, error) {
	h.logger.WithField("model", h.model).Debug("openai chat completion")
	resp, err := h.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       h.model,
		Messages:    messages,
		Temperature: Temperature,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.Generation(nil, "no choices in response")
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", errors.Generation(nil, "empty response")
	}
	return text, nil
}
