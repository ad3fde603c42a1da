package llm

import (
	"AapdaMitra/pkg/errors"
	"context"
	"strings"

	"github.com/sirupsen/logrus"
	"google.golang.org/genai"
)

// GeminiHandler calls the Gemini API through the genai SDK.
type GeminiHandler struct {
	client *genai.Client
	model  string
	logger *logrus.Logger
}

func NewGeminiHandler(ctx context.Context, apiKey, baseURL, model string, logger *logrus.Logger) (*GeminiHandler, error) {
	cc := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, errors.Generation(err, "failed to create Gemini client")
	}
	return &GeminiHandler{client: client, model: model, logger: logger}, nil
}

func (h *GeminiHandler) GenerateSurvivalGuide(ctx context.Context, disasterType string) (string, error) {
	text, err := h.generate(ctx, GuidePrompt(disasterType), nil)
	if err != nil {
		h.logger.WithError(err).WithField("disasterType", disasterType).Error("Error generating survival guide")
		return "", errors.Generation(err, "failed to generate survival guide from Gemini API")
	}
	return text, nil
}

func (h *GeminiHandler) ChatResponse(ctx context.Context, history []Turn, message string) (string, error) {
	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(ChatSystemInstruction, genai.RoleUser),
		Temperature:       genai.Ptr[float32](Temperature),
	}
	text, err := h.generate(ctx, ChatPrompt(history, message), config)
	if err != nil {
		h.logger.WithError(err).Error("Error getting chatbot response")
		return "", errors.Generation(err, "failed to get chat response from Gemini API")
	}
	return text, nil
}

func (h *GeminiHandler) generate(ctx context.Context, prompt string, config *genai.GenerateContentConfig) (string, error) {
	h.logger.WithField("model", h.model).Debug("gemini generate")
	resp, err := h.client.Models.GenerateContent(ctx, h.model, genai.Text(prompt), config)
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", errors.Generation(nil, "empty response")
	}
	return text, nil
}
