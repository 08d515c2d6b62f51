// Package output はスキャン結果と LLM の解析結果をターゲットごとのディレクトリに
// プレーンテキストで書き出す。
package output

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Dir はターゲットの出力ディレクトリ <root>/output/<target>_scan を返す。
// ターゲット中の "." は "_" に置き換える（例: 10.0.0.5 → 10_0_0_5_scan）。
func Dir(root, target string) string {
	if root == "" {
		root = "."
	}
	return filepath.Join(root, "output", DirName(target))
}

// DirName はターゲットからディレクトリ名を作る。
// セキュリティ: パストラバーサルを防ぐためパス区切り文字も "_" にする。
func DirName(target string) string {
	name := strings.ReplaceAll(target, ".", "_")
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	if name == "" {
		name = "unknown"
	}
	return name + "_scan"
}

// Writer は1つの出力ディレクトリへのファイル書き込みを管理する。
type Writer struct {
	dir string
}

// NewWriter は dir に書き込む Writer を返す。
// ディレクトリが存在しない場合は Write 時に自動作成する。
func NewWriter(dir string) *Writer {
	return &Writer{dir: dir}
}

// Dir は書き込み先ディレクトリを返す。
func (w *Writer) Dir() string { return w.dir }

// Write は contents を dir/filename に書き込む。既存ファイルは上書きする。
// 書き込んだファイルのパスを返す。
func (w *Writer) Write(filename, contents string) (string, error) {
	if filename == "" || filepath.Base(filename) != filename {
		return "", fmt.Errorf("output: invalid file name %q", filename)
	}
	if err := os.MkdirAll(w.dir, 0o750); err != nil {
		return "", fmt.Errorf("output: mkdir: %w", err)
	}
	path := filepath.Join(w.dir, filename)
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		return "", fmt.Errorf("output: write %s: %w", filename, err)
	}
	return path, nil
}
