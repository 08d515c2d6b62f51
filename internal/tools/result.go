// Package tools provides the external process invoker and the YAML-driven tool registry.
package tools

import (
	"fmt"
	"strings"
	"time"
)

// ExitPolicy は非ゼロ終了コードの扱いを決める。
type ExitPolicy string

const (
	// ExitPolicyIgnore は終了コードを無視して常に stdout を返す。
	ExitPolicyIgnore ExitPolicy = "ignore"
	// ExitPolicyStrict は非ゼロ終了を失敗とし、stderr を埋め込んだメッセージを返す。
	ExitPolicyStrict ExitPolicy = "strict"
)

// ParseExitPolicy は文字列を ExitPolicy に変換する。空文字は strict。
func ParseExitPolicy(s string) (ExitPolicy, error) {
	switch ExitPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", ExitPolicyStrict:
		return ExitPolicyStrict, nil
	case ExitPolicyIgnore:
		return ExitPolicyIgnore, nil
	default:
		return "", fmt.Errorf("unknown exit policy %q (supported: strict, ignore)", s)
	}
}

// Result は1回のツール実行の結果をまとめたもの。
//
// Stdout と Stderr は生テキスト全体。タイムアウト時は部分出力を破棄するため空になる。
type Result struct {
	Tool     string
	Command  string   // PATH で解決する前のコマンド名
	Path     string   // 解決済みの絶対パス
	Argv     []string // [Command] ++ tokens
	Stdout   string
	Stderr   string
	ExitCode int
	TimedOut bool
	Timeout  time.Duration
	Policy   ExitPolicy

	StartedAt  time.Time
	FinishedAt time.Time
}

// Failed は Policy に照らして実行が失敗扱いかを返す。
func (r *Result) Failed() bool {
	if r.TimedOut {
		return true
	}
	return r.Policy == ExitPolicyStrict && r.ExitCode != 0
}

// Duration は実行にかかった時間。
func (r *Result) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Text は呼び出し元へ返す文字列を組み立てる。
//
//   - タイムアウト      → "Command 'x' timed out after N seconds."
//   - 非ゼロ終了(strict) → "Command 'x' failed with error: <stderr>"
//   - それ以外          → stdout
func (r *Result) Text() string {
	if r.TimedOut {
		return TimeoutMessage(r.Command, r.Timeout)
	}
	if r.Policy == ExitPolicyStrict && r.ExitCode != 0 {
		return FailureMessage(r.Command, r.ExitCode, r.Stderr)
	}
	return r.Stdout
}

// NotFoundMessage は CommandNotFound を文字列化したもの。
// ドライバーが失敗を結果ファイルに書き出すときに使う。
func NotFoundMessage(command string) string {
	return fmt.Sprintf("Command '%s' not found in PATH.", command)
}

// TimeoutMessage はタイムアウト時のメッセージを返す。
func TimeoutMessage(command string, timeout time.Duration) string {
	return fmt.Sprintf("Command '%s' timed out after %s.", command, formatTimeout(timeout))
}

// FailureMessage は非ゼロ終了時のメッセージを返す。stderr が空でも空文字にはしない。
func FailureMessage(command string, exitCode int, stderr string) string {
	detail := strings.TrimSpace(stderr)
	if detail == "" {
		detail = fmt.Sprintf("exit status %d", exitCode)
	}
	return fmt.Sprintf("Command '%s' failed with error: %s", command, detail)
}

// formatTimeout は秒単位で割り切れるタイムアウトを "N seconds" 形式にする。
func formatTimeout(d time.Duration) string {
	if d > 0 && d%time.Second == 0 {
		n := int64(d / time.Second)
		if n == 1 {
			return "1 second"
		}
		return fmt.Sprintf("%d seconds", n)
	}
	return d.String()
}
