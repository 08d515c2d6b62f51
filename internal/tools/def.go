package tools

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultTimeout は timeout 未指定時のツール実行タイムアウト。
const DefaultTimeout = 300 * time.Second

// ToolDef はYAMLから読み込むツール定義。
// Goコードを書かずに tools/*.yaml を追加・上書きするだけで引数やタイムアウトを変えられる。
type ToolDef struct {
	Name         string       `yaml:"name"`
	Binary       string       `yaml:"binary"`
	Description  string       `yaml:"description"`
	TimeoutSec   int          `yaml:"timeout"`
	ArgsTemplate string       `yaml:"args_template"`
	Options      StringList   `yaml:"options"`
	OutputFile   string       `yaml:"output_file"`
	Prompt       PromptConfig `yaml:"prompt"`
}

// PromptConfig はプロンプトに埋め込む際のツール出力の切り捨て設定。
// 生出力ファイルは常に全行を保存する。
type PromptConfig struct {
	HeadLines int `yaml:"head_lines"`
	TailLines int `yaml:"tail_lines"`
}

// ToTruncateConfig に変換する。ゼロ値はデフォルトで埋める。
func (p PromptConfig) ToTruncateConfig() TruncateConfig {
	cfg := TruncateConfig{HeadLines: p.HeadLines, TailLines: p.TailLines}
	if cfg.HeadLines == 0 {
		cfg.HeadLines = DefaultTruncateConfig.HeadLines
	}
	if cfg.TailLines == 0 {
		cfg.TailLines = DefaultTruncateConfig.TailLines
	}
	return cfg
}

// Timeout は TimeoutSec を time.Duration で返す。未指定なら DefaultTimeout。
func (d *ToolDef) Timeout() time.Duration {
	if d.TimeoutSec <= 0 {
		return DefaultTimeout
	}
	return time.Duration(d.TimeoutSec) * time.Second
}

// FileName は生出力の保存先ファイル名を返す。未指定なら "<name>_scan.txt"。
func (d *ToolDef) FileName() string {
	if d.OutputFile != "" {
		return d.OutputFile
	}
	return d.Name + "_scan.txt"
}

// Tool は ToolDef を Invoker が実行できる形に変換する。
func (d *ToolDef) Tool() Tool {
	return Tool{
		Name:    d.Name,
		Command: d.Binary,
		Timeout: d.Timeout(),
		Builder: TemplateBuilder{Template: d.ArgsTemplate},
	}
}

// StringList は YAML のスカラー1つ、またはシーケンスを受け付ける []string。
// 単一の文字列は1要素のリストとして扱う。
type StringList []string

// UnmarshalYAML はスカラーとシーケンスの両方をデコードする。
func (l *StringList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		if value.Tag == "!!null" || value.Value == "" {
			*l = nil
			return nil
		}
		*l = StringList{value.Value}
		return nil
	case yaml.SequenceNode:
		var items []string
		if err := value.Decode(&items); err != nil {
			return err
		}
		*l = items
		return nil
	default:
		return fmt.Errorf("line %d: expected string or list of strings", value.Line)
	}
}

// Validate は定義の必須項目とテンプレートのキーを検査する。
func (d *ToolDef) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("tool definition missing 'name' field")
	}
	if d.Binary == "" {
		return fmt.Errorf("tool %q: missing 'binary' field", d.Name)
	}
	if d.TimeoutSec < 0 {
		return fmt.Errorf("tool %q: timeout must not be negative", d.Name)
	}
	if err := checkTemplateKeys(d.ArgsTemplate); err != nil {
		return fmt.Errorf("tool %q: %w", d.Name, err)
	}
	return nil
}
