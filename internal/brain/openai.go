package brain

import (
	"context"
	"fmt"
	"net/http"

	openai "github.com/sashabaranov/go-openai"
)

// openAIBot は Chat Completions API を使う Chatbot 実装。
// llama.cpp server / LM Studio / vLLM などの OpenAI 互換ローカルサーバーにも BaseURL で向けられる。
type openAIBot struct {
	cfg    Config
	client *openai.Client
}

func newOpenAIBot(cfg Config) (*openAIBot, error) {
	oc := openai.DefaultConfig(cfg.Token)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	oc.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	return &openAIBot{cfg: cfg, client: openai.NewClientWithConfig(oc)}, nil
}

func (b *openAIBot) Provider() string { return string(ProviderOpenAI) }

func (b *openAIBot) Model() string { return b.cfg.Model }

func (b *openAIBot) Query(ctx context.Context, prompt string) (string, error) {
	resp, err := b.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: b.cfg.Model,
		Messages: []openai.ChatCompletionMessage{{
			Role:    openai.ChatMessageRoleUser,
			Content: prompt,
		}},
	})
	if err != nil {
		return "", fmt.Errorf("openai: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return FallbackResponse, nil
	}
	return replyOrFallback(resp.Choices[0].Message.Content), nil
}
