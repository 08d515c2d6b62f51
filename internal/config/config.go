package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/0x6d61/cybersec-ai/internal/tools"
)

// RootDirEnv は出力ルートディレクトリを上書きする環境変数。
const RootDirEnv = "CYBERSEC_AI_ROOT_DIR"

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// MissingCommandPolicy はツールが PATH に無いときのドライバーの振る舞い。
type MissingCommandPolicy string

const (
	// MissingRecover は "Command 'x' not found in PATH." を結果として書き出し、次のステージへ進む。
	MissingRecover MissingCommandPolicy = "recover"
	// MissingAbort はスキャン全体を中断する。
	MissingAbort MissingCommandPolicy = "abort"
)

// ModelConfig は LLM の接続設定
type ModelConfig struct {
	Provider   string `yaml:"provider"`
	Name       string `yaml:"name"`
	BaseURL    string `yaml:"base_url"`
	TimeoutSec int    `yaml:"timeout"`
}

// ScanConfig はパイプラインの動作設定
type ScanConfig struct {
	Parallel         bool                 `yaml:"parallel"`
	ExitPolicy       string               `yaml:"exit_policy"`
	OnMissingCommand MissingCommandPolicy `yaml:"on_missing_command"`
}

// ToolOverride はツール定義の options / timeout をツール名ごとに上書きする
type ToolOverride struct {
	Options    tools.StringList `yaml:"options"`
	TimeoutSec int              `yaml:"timeout"`
}

// LogConfig はログ出力の設定
type LogConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// AppConfig は config/config.yaml の統合設定構造
type AppConfig struct {
	RootDir  string                  `yaml:"root_dir"`
	ToolsDir string                  `yaml:"tools_dir"`
	Wordlist string                  `yaml:"wordlist"`
	Model    ModelConfig             `yaml:"model"`
	Scan     ScanConfig              `yaml:"scan"`
	Tools    map[string]ToolOverride `yaml:"tools"`
	Log      LogConfig               `yaml:"log"`
}

// Default はファイルが無いときの設定を返す。
func Default() *AppConfig {
	cfg := &AppConfig{}
	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg
}

// applyDefaults はゼロ値のフィールドにデフォルト値を適用する
func (c *AppConfig) applyDefaults() {
	if c.RootDir == "" {
		c.RootDir = "."
	}
	if c.ToolsDir == "" {
		c.ToolsDir = "tools"
	}
	c.Model.Provider = providerOrDefault(c.Model.Provider)
	if c.Scan.ExitPolicy == "" {
		c.Scan.ExitPolicy = string(tools.ExitPolicyStrict)
	}
	if c.Scan.OnMissingCommand == "" {
		c.Scan.OnMissingCommand = MissingRecover
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// applyEnv は環境変数で設定を上書きする（ファイルより優先）。
func (c *AppConfig) applyEnv() {
	if v := os.Getenv(RootDirEnv); v != "" {
		c.RootDir = v
	}
	if v := os.Getenv("CYBERSEC_AI_PROVIDER"); v != "" {
		c.SetProvider(v)
	}
	if v := os.Getenv("CYBERSEC_AI_MODEL"); v != "" {
		c.Model.Name = v
	}
}

// SetProvider は LLM プロバイダーを切り替える。
// 別のプロバイダーに変わる場合、前のプロバイダー向けのモデル名は破棄し
// 新しいプロバイダーの既定モデルを使わせる。
func (c *AppConfig) SetProvider(provider string) {
	if !strings.EqualFold(provider, providerOrDefault(c.Model.Provider)) {
		c.Model.Name = ""
	}
	c.Model.Provider = provider
}

func providerOrDefault(p string) string {
	if p == "" {
		return "ollama"
	}
	return p
}

// Validate は列挙値の設定を検査する。
func (c *AppConfig) Validate() error {
	if _, err := tools.ParseExitPolicy(c.Scan.ExitPolicy); err != nil {
		return fmt.Errorf("config: scan.exit_policy: %w", err)
	}
	switch c.Scan.OnMissingCommand {
	case MissingRecover, MissingAbort:
	default:
		return fmt.Errorf("config: scan.on_missing_command: unknown value %q (supported: recover, abort)", c.Scan.OnMissingCommand)
	}
	return nil
}

// Load は config/config.yaml を読み込む。
// ${VAR} 環境変数を展開し、CYBERSEC_AI_* 環境変数で上書きする。
// ファイルが存在しない場合はデフォルトの AppConfig を返す。
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, fmt.Errorf("config: failed to read %s: %w", path, err)
	}

	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse %s: %w", path, err)
	}

	// 環境変数を展開（パス系と接続先の ${VAR}）
	cfg.RootDir = expandEnvString(cfg.RootDir)
	cfg.ToolsDir = expandEnvString(cfg.ToolsDir)
	cfg.Wordlist = expandEnvString(cfg.Wordlist)
	cfg.Model.BaseURL = expandEnvString(cfg.Model.BaseURL)

	cfg.applyEnv()
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadDotEnv は .env ファイルを読み込んで環境変数に設定する。
// 既に設定されている環境変数は上書きしない。ファイルが無ければ何もしない。
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: failed to load %s: %w", path, err)
	}
	return nil
}

// expandEnvString は文字列内の ${VAR} をホスト環境変数で展開する
func expandEnvString(s string) string {
	if !strings.Contains(s, "${") {
		return s
	}
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		return os.Getenv(varName)
	})
}
