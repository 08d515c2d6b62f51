// Package brain は LLM チャットクライアントを共通インターフェースで抽象化する。
// 既定はローカルの Ollama。OpenAI 互換サーバーと Anthropic もサポートする。
package brain

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

// FallbackResponse はモデルが本文を返さなかったときに返す文字列。
const FallbackResponse = "Failed to get a response from the model."

// Provider は LLM プロバイダーを識別する。
type Provider string

const (
	ProviderOllama    Provider = "ollama"
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
)

// 各プロバイダーの既定モデル。
const (
	DefaultOllamaModel    = "gemma:2b"
	DefaultOpenAIModel    = "gpt-4o-mini"
	DefaultAnthropicModel = "claude-3-5-haiku-latest"
)

// DefaultOllamaHost は OLLAMA_HOST 未設定時の接続先。
const DefaultOllamaHost = "http://localhost:11434"

// defaultRequestTimeout は1回のチャット呼び出しの HTTP タイムアウト。
// ローカルの小型モデルでも長いスキャン結果の解析には数分かかる。
const defaultRequestTimeout = 10 * time.Minute

// ErrUnknownProvider は未対応のプロバイダー名を示す。
var ErrUnknownProvider = errors.New("unknown provider")

// Config は Chatbot の設定を保持する。
type Config struct {
	Provider Provider
	Model    string
	Token    string        // OpenAI / Anthropic の API キー。Ollama では不要
	BaseURL  string        // 空なら各プロバイダーの既定エンドポイント（テスト時はモックサーバー）
	Timeout  time.Duration // 0 なら defaultRequestTimeout
}

// Chatbot は1つのユーザーメッセージを送り、1つの応答テキストを受け取る。
type Chatbot interface {
	// Query は prompt を送信して応答本文を返す。
	// 本文が空なら FallbackResponse を返し、エラーにはしない。
	Query(ctx context.Context, prompt string) (string, error)
	// Provider はプロバイダー名を返す。
	Provider() string
	// Model はモデル名を返す。
	Model() string
}

// New は Config に基づいて適切な Chatbot 実装を返す。
func New(cfg Config) (Chatbot, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultRequestTimeout
	}
	switch cfg.Provider {
	case ProviderOllama, "":
		cfg.Provider = ProviderOllama
		if cfg.Model == "" {
			cfg.Model = DefaultOllamaModel
		}
		return newOllamaBot(cfg)
	case ProviderOpenAI:
		if cfg.Model == "" {
			cfg.Model = DefaultOpenAIModel
		}
		return newOpenAIBot(cfg)
	case ProviderAnthropic:
		if cfg.Token == "" {
			return nil, errors.New("brain: anthropic token must not be empty (set ANTHROPIC_API_KEY)")
		}
		if cfg.Model == "" {
			cfg.Model = DefaultAnthropicModel
		}
		return newAnthropicBot(cfg)
	default:
		return nil, fmt.Errorf("brain: %w %q (supported: ollama, openai, anthropic)", ErrUnknownProvider, cfg.Provider)
	}
}

// ConfigHint は LoadConfig へのヒント（プロバイダー・モデル・接続先）を保持する。
// 空のフィールドは環境変数から解決する。
type ConfigHint struct {
	Provider Provider
	Model    string
	BaseURL  string
}

// LoadConfig は環境変数から接続先と認証情報を解決して Config を返す。
//
// 解決順（Ollama）:    BaseURL ← hint → OLLAMA_HOST → DefaultOllamaHost
// 解決順（OpenAI）:    BaseURL ← hint → OPENAI_BASE_URL、Token ← OPENAI_API_KEY（ローカルサーバーなら空で可）
// 解決順（Anthropic）: Token ← ANTHROPIC_API_KEY（必須）
func LoadConfig(hint ConfigHint) (Config, error) {
	cfg := Config{
		Provider: Provider(strings.ToLower(string(hint.Provider))),
		Model:    hint.Model,
		BaseURL:  hint.BaseURL,
	}
	if cfg.Provider == "" {
		cfg.Provider = ProviderOllama
	}

	switch cfg.Provider {
	case ProviderOllama:
		if cfg.BaseURL == "" {
			cfg.BaseURL = os.Getenv("OLLAMA_HOST")
		}
		if cfg.BaseURL == "" {
			cfg.BaseURL = DefaultOllamaHost
		}
		return cfg, nil

	case ProviderOpenAI:
		if cfg.BaseURL == "" {
			cfg.BaseURL = os.Getenv("OPENAI_BASE_URL")
		}
		cfg.Token = os.Getenv("OPENAI_API_KEY")
		if cfg.Token == "" && cfg.BaseURL == "" {
			return cfg, errors.New(
				"brain: OpenAI 認証情報が見つかりません\n" +
					"  export OPENAI_API_KEY=sk-...\n" +
					"  またはローカルサーバー: export OPENAI_BASE_URL=http://localhost:8080/v1",
			)
		}
		return cfg, nil

	case ProviderAnthropic:
		cfg.Token = os.Getenv("ANTHROPIC_API_KEY")
		if cfg.Token == "" {
			return cfg, errors.New(
				"brain: Anthropic 認証情報が見つかりません\n" +
					"  export ANTHROPIC_API_KEY=sk-ant-api03-...",
			)
		}
		return cfg, nil

	default:
		return cfg, fmt.Errorf("brain: %w %q", ErrUnknownProvider, hint.Provider)
	}
}

// replyOrFallback は空の応答を FallbackResponse に置き換える。
// 空白だけの応答はモデルの出力としてそのまま返す。
func replyOrFallback(content string) string {
	if content == "" {
		return FallbackResponse
	}
	return content
}
