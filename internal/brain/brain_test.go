package brain_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0x6d61/cybersec-ai/internal/brain"
)

// capturedChat はモックサーバーが受け取ったリクエストの要点。
type capturedChat struct {
	Path     string
	Model    string
	Messages []struct {
		Role    string `json:"role"`
		Content any    `json:"content"`
	}
}

// mockServer は path へのリクエストを記録し responseJSON を返すモックを提供する。
func mockServer(t *testing.T, path, responseJSON string, got *capturedChat) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != path {
			http.Error(w, "not found: "+r.URL.Path, http.StatusNotFound)
			return
		}
		var body struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content any    `json:"content"`
			} `json:"messages"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if got != nil {
			got.Path = r.URL.Path
			got.Model = body.Model
			got.Messages = body.Messages
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(responseJSON)) //nolint:errcheck // テスト専用 httptest サーバー
	}))
	t.Cleanup(srv.Close)
	return srv
}

func ollamaResponse(content string) string {
	b, _ := json.Marshal(map[string]any{
		"model":   "test_model",
		"message": map[string]string{"role": "assistant", "content": content},
		"done":    true,
	})
	return string(b)
}

func openAIResponse(content string) string {
	b, _ := json.Marshal(map[string]any{
		"id":     "chatcmpl-test",
		"object": "chat.completion",
		"choices": []map[string]any{{
			"index":         0,
			"message":       map[string]string{"role": "assistant", "content": content},
			"finish_reason": "stop",
		}},
	})
	return string(b)
}

func anthropicResponse(text string) string {
	b, _ := json.Marshal(map[string]any{
		"id":          "msg_test",
		"type":        "message",
		"role":        "assistant",
		"model":       "claude-test",
		"content":     []map[string]string{{"type": "text", "text": text}},
		"stop_reason": "end_turn",
		"usage":       map[string]int{"input_tokens": 10, "output_tokens": 20},
	})
	return string(b)
}

// --- Ollama ---

func TestOllama_Query_Success(t *testing.T) {
	var got capturedChat
	srv := mockServer(t, "/api/chat", ollamaResponse("This is a test response."), &got)

	bot, err := brain.New(brain.Config{Provider: brain.ProviderOllama, Model: "test_model", BaseURL: srv.URL})
	require.NoError(t, err)

	reply, err := bot.Query(context.Background(), "Hello, model!")
	require.NoError(t, err)
	assert.Equal(t, "This is a test response.", reply)

	assert.Equal(t, "test_model", got.Model)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "user", got.Messages[0].Role)
	assert.Equal(t, "Hello, model!", got.Messages[0].Content)
}

func TestOllama_Query_EmptyContentFallsBack(t *testing.T) {
	srv := mockServer(t, "/api/chat", ollamaResponse(""), nil)

	bot, err := brain.New(brain.Config{Provider: brain.ProviderOllama, Model: "test_model", BaseURL: srv.URL})
	require.NoError(t, err)

	reply, err := bot.Query(context.Background(), "Hello, model!")
	require.NoError(t, err)
	assert.Equal(t, "Failed to get a response from the model.", reply)
}

func TestOllama_Query_WhitespaceReplyIsKept(t *testing.T) {
	srv := mockServer(t, "/api/chat", ollamaResponse("  \n"), nil)

	bot, err := brain.New(brain.Config{Provider: brain.ProviderOllama, Model: "test_model", BaseURL: srv.URL})
	require.NoError(t, err)

	reply, err := bot.Query(context.Background(), "Hello, model!")
	require.NoError(t, err)
	assert.Equal(t, "  \n", reply)
}

func TestOllama_Query_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"model 'nope' not found"}`)) //nolint:errcheck // テスト専用
	}))
	defer srv.Close()

	bot, err := brain.New(brain.Config{Provider: brain.ProviderOllama, Model: "nope", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = bot.Query(context.Background(), "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ollama")
}

func TestNew_DefaultsToOllama(t *testing.T) {
	bot, err := brain.New(brain.Config{})
	require.NoError(t, err)
	assert.Equal(t, "ollama", bot.Provider())
	assert.Equal(t, brain.DefaultOllamaModel, bot.Model())
}

// --- OpenAI 互換 ---

func TestOpenAI_Query_Success(t *testing.T) {
	var got capturedChat
	srv := mockServer(t, "/v1/chat/completions", openAIResponse("port 22 is open"), &got)

	bot, err := brain.New(brain.Config{
		Provider: brain.ProviderOpenAI,
		Model:    "local-model",
		Token:    "sk-test",
		BaseURL:  srv.URL + "/v1",
	})
	require.NoError(t, err)

	reply, err := bot.Query(context.Background(), "analyze")
	require.NoError(t, err)
	assert.Equal(t, "port 22 is open", reply)
	assert.Equal(t, "local-model", got.Model)
	assert.Equal(t, "openai", bot.Provider())
}

func TestOpenAI_Query_EmptyChoicesFallsBack(t *testing.T) {
	srv := mockServer(t, "/v1/chat/completions", `{"id":"x","object":"chat.completion","choices":[]}`, nil)

	bot, err := brain.New(brain.Config{Provider: brain.ProviderOpenAI, Model: "m", BaseURL: srv.URL + "/v1"})
	require.NoError(t, err)

	reply, err := bot.Query(context.Background(), "analyze")
	require.NoError(t, err)
	assert.Equal(t, brain.FallbackResponse, reply)
}

// --- Anthropic ---

func TestAnthropic_Query_Success(t *testing.T) {
	var got capturedChat
	srv := mockServer(t, "/v1/messages", anthropicResponse("report body"), &got)

	bot, err := brain.New(brain.Config{
		Provider: brain.ProviderAnthropic,
		Model:    "claude-test",
		Token:    "sk-ant-test",
		BaseURL:  srv.URL,
	})
	require.NoError(t, err)

	reply, err := bot.Query(context.Background(), "write the report")
	require.NoError(t, err)
	assert.Equal(t, "report body", reply)
	assert.Equal(t, "claude-test", got.Model)
}

func TestAnthropic_Query_EmptyTextFallsBack(t *testing.T) {
	srv := mockServer(t, "/v1/messages", anthropicResponse(""), nil)

	bot, err := brain.New(brain.Config{Provider: brain.ProviderAnthropic, Model: "m", Token: "k", BaseURL: srv.URL})
	require.NoError(t, err)

	reply, err := bot.Query(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, brain.FallbackResponse, reply)
}

func TestNew_AnthropicRequiresToken(t *testing.T) {
	_, err := brain.New(brain.Config{Provider: brain.ProviderAnthropic})
	assert.Error(t, err)
}

func TestNew_UnknownProvider(t *testing.T) {
	_, err := brain.New(brain.Config{Provider: "gemini"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, brain.ErrUnknownProvider))
}

// --- LoadConfig ---

func TestLoadConfig_Ollama_EnvHost(t *testing.T) {
	t.Setenv("OLLAMA_HOST", "http://gpu-box:11434")

	cfg, err := brain.LoadConfig(brain.ConfigHint{})
	require.NoError(t, err)
	assert.Equal(t, brain.ProviderOllama, cfg.Provider)
	assert.Equal(t, "http://gpu-box:11434", cfg.BaseURL)
}

func TestLoadConfig_Ollama_DefaultHost(t *testing.T) {
	t.Setenv("OLLAMA_HOST", "")

	cfg, err := brain.LoadConfig(brain.ConfigHint{Provider: "Ollama"})
	require.NoError(t, err)
	assert.Equal(t, brain.DefaultOllamaHost, cfg.BaseURL)
}

func TestLoadConfig_OpenAI(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("OPENAI_BASE_URL", "")
	_, err := brain.LoadConfig(brain.ConfigHint{Provider: brain.ProviderOpenAI})
	assert.Error(t, err, "neither key nor local base url")

	t.Setenv("OPENAI_BASE_URL", "http://localhost:8080/v1")
	cfg, err := brain.LoadConfig(brain.ConfigHint{Provider: brain.ProviderOpenAI})
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/v1", cfg.BaseURL)
}

func TestLoadConfig_Anthropic(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	_, err := brain.LoadConfig(brain.ConfigHint{Provider: brain.ProviderAnthropic})
	assert.Error(t, err)

	t.Setenv("ANTHROPIC_API_KEY", "sk-ant-api03-test")
	cfg, err := brain.LoadConfig(brain.ConfigHint{Provider: brain.ProviderAnthropic, Model: "claude-x"})
	require.NoError(t, err)
	assert.Equal(t, "sk-ant-api03-test", cfg.Token)
	assert.Equal(t, "claude-x", cfg.Model)
}

func TestLoadConfig_UnknownProvider(t *testing.T) {
	_, err := brain.LoadConfig(brain.ConfigHint{Provider: "gemini"})
	assert.True(t, errors.Is(err, brain.ErrUnknownProvider))
}
