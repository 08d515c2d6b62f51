package tools

import (
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

var (
	// ErrCommandNotFound はコマンドが PATH に存在しないことを示す。
	// この場合プロセスは起動されない。
	ErrCommandNotFound = errors.New("command not found")

	// ErrInvalidInvocation はコマンド名やタイムアウトが不正なことを示す。
	ErrInvalidInvocation = errors.New("invalid invocation")
)

// resolveBinary は binary 名を PATH から絶対パスに解決する。
//
// セキュリティ:
//   - パス区切り文字（/ \）を含む名前は拒否（パストラバーサル防止）
//   - lookPath で PATH 内の実在バイナリのみ許可
//   - 絶対パスであることを確認
func resolveBinary(name string, lookPath func(string) (string, error)) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", fmt.Errorf("%w: command must not be empty", ErrInvalidInvocation)
	}
	if strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("%w: command must not contain path separators: %q", ErrInvalidInvocation, name)
	}
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	absPath, err := lookPath(name)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrCommandNotFound, NotFoundMessage(name))
	}
	if !filepath.IsAbs(absPath) {
		return "", fmt.Errorf("%w: resolved path is not absolute: %q", ErrCommandNotFound, absPath)
	}
	return absPath, nil
}
