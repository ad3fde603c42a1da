package llm

import (
	"AapdaMitra/pkg/errors"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestChatPrompt(t *testing.T) {
	history := []Turn{{Sender: "bot", Text: "Hello"}, {Sender: "user", Text: "Flood nearby"}}
	assert.Equal(t, "bot: Hello\nuser: Flood nearby\nuser: What now?", ChatPrompt(history, "What now?"))
	assert.Equal(t, "user: hi", ChatPrompt(nil, "hi"))
	assert.Contains(t, GuidePrompt("Flood"), "### Before the Flood")
}

func TestNewUnknownProvider(t *testing.T) {
	_, err := New(context.Background(), Config{Provider: "carrier-pigeon"}, nil)
	assert.Error(t, err)
}

func TestOfflineAlwaysFails(t *testing.T) {
	var g TextGenerator = Offline{}
	_, err := g.GenerateSurvivalGuide(context.Background(), "Flood")
	assert.True(t, errors.IsGeneration(err))
	_, err = g.ChatResponse(context.Background(), nil, "hi")
	assert.True(t, errors.IsGeneration(err))
}

type chatRequest struct {
	Model       string  `json:"model"`
	Temperature float32 `json:"temperature"`
	Messages    []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func openAIServer(t *testing.T, status int, content string, seen *chatRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		if seen != nil {
			require.NoError(t, json.NewDecoder(r.Body).Decode(seen))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = io.WriteString(w, `{"error":{"message":"upstream down","type":"server_error"}}`)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"id":     "chatcmpl-1",
			"object": "chat.completion",
			"model":  "test-model",
			"choices": []map[string]interface{}{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]string{"role": "assistant", "content": content},
			}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestOpenAIHandlerChat(t *testing.T) {
	var seen chatRequest
	srv := openAIServer(t, http.StatusOK, "Move to higher ground.", &seen)

	gen, err := New(context.Background(), Config{Provider: "openai", APIKey: "k", BaseURL: srv.URL + "/v1/", Model: "test-model"}, quietLogger())
	require.NoError(t, err)

	reply, err := gen.ChatResponse(context.Background(), []Turn{{Sender: "bot", Text: "Hi"}}, "Flood?")
	require.NoError(t, err)
	assert.Equal(t, "Move to higher ground.", reply)

	assert.Equal(t, "test-model", seen.Model)
	assert.InDelta(t, Temperature, seen.Temperature, 0.001)
	require.Len(t, seen.Messages, 2)
	assert.Equal(t, "system", seen.Messages[0].Role)
	assert.Equal(t, ChatSystemInstruction, seen.Messages[0].Content)
	assert.Equal(t, "bot: Hi\nuser: Flood?", seen.Messages[1].Content)
}

func TestOpenAIHandlerFailures(t *testing.T) {
	t.Run("server error", func(t *testing.T) {
		srv := openAIServer(t, http.StatusInternalServerError, "", nil)
		h := NewOpenAIHandler("k", srv.URL+"/v1", "m", quietLogger())
		_, err := h.GenerateSurvivalGuide(context.Background(), "Cyclone")
		assert.True(t, errors.IsGeneration(err))
	})
	t.Run("empty reply", func(t *testing.T) {
		srv := openAIServer(t, http.StatusOK, "   ", nil)
		h := NewOpenAIHandler("k", srv.URL+"/v1", "m", quietLogger())
		_, err := h.GenerateSurvivalGuide(context.Background(), "Cyclone")
		assert.True(t, errors.IsGeneration(err))
	})
}

func TestGeminiHandlerGuide(t *testing.T) {
	var prompt string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Contents []struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"contents"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if len(body.Contents) > 0 && len(body.Contents[0].Parts) > 0 {
			prompt = body.Contents[0].Parts[0].Text
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"candidates":[{"content":{"role":"model","parts":[{"text":"### Before the Flood\n- Pack a kit"}]},"finishReason":"STOP"}]}`)
	}))
	defer srv.Close()

	gen, err := New(context.Background(), Config{Provider: "gemini", APIKey: "k", BaseURL: srv.URL}, quietLogger())
	require.NoError(t, err)

	guide, err := gen.GenerateSurvivalGuide(context.Background(), "Flood")
	require.NoError(t, err)
	assert.Equal(t, "### Before the Flood\n- Pack a kit", guide)
	assert.Equal(t, GuidePrompt("Flood"), prompt)
}

func TestGeminiHandlerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = io.WriteString(w, `{"error":{"code":503,"message":"overloaded","status":"UNAVAILABLE"}}`)
	}))
	defer srv.Close()

	h, err := NewGeminiHandler(context.Background(), "k", srv.URL, DefaultGeminiModel, quietLogger())
	require.NoError(t, err)
	_, err = h.ChatResponse(context.Background(), nil, "hello")
	assert.True(t, errors.IsGeneration(err))
}
