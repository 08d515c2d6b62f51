package brain

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const anthropicMaxTokens = 4096

// anthropicBot は Anthropic Messages API を使う Chatbot 実装。
type anthropicBot struct {
	cfg    Config
	client anthropic.Client
}

func newAnthropicBot(cfg Config) (*anthropicBot, error) {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.Token),
		option.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &anthropicBot{cfg: cfg, client: anthropic.NewClient(opts...)}, nil
}

func (b *anthropicBot) Provider() string { return string(ProviderAnthropic) }

func (b *anthropicBot) Model() string { return b.cfg.Model }

func (b *anthropicBot) Query(ctx context.Context, prompt string) (string, error) {
	msg, err := b.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(b.cfg.Model),
		MaxTokens: anthropicMaxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic: messages: %w", err)
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type != "text" {
			continue
		}
		sb.WriteString(block.Text)
	}
	return replyOrFallback(sb.String()), nil
}
