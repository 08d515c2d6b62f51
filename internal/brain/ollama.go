package brain

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	ollama "github.com/ollama/ollama/api"
)

// ollamaBot は Ollama のネイティブ API（POST /api/chat）を使う Chatbot 実装。
type ollamaBot struct {
	cfg    Config
	client *ollama.Client
}

func newOllamaBot(cfg Config) (*ollamaBot, error) {
	host := cfg.BaseURL
	if host == "" {
		host = DefaultOllamaHost
	}
	u, err := url.Parse(host)
	if err != nil {
		return nil, fmt.Errorf("brain: invalid ollama host %q: %w", host, err)
	}
	return &ollamaBot{
		cfg:    cfg,
		client: ollama.NewClient(u, &http.Client{Timeout: cfg.Timeout}),
	}, nil
}

func (b *ollamaBot) Provider() string { return string(ProviderOllama) }

func (b *ollamaBot) Model() string { return b.cfg.Model }

// Query は非ストリーミングで1往復のチャットを行う。
func (b *ollamaBot) Query(ctx context.Context, prompt string) (string, error) {
	stream := false
	req := &ollama.ChatRequest{
		Model:    b.cfg.Model,
		Messages: []ollama.Message{{Role: "user", Content: prompt}},
		Stream:   &stream,
	}

	var reply string
	err := b.client.Chat(ctx, req, func(resp ollama.ChatResponse) error {
		reply += resp.Message.Content
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("ollama: chat: %w", err)
	}
	return replyOrFallback(reply), nil
}
