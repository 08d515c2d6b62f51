package tools

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"
)

// defaultWaitDelay はタイムアウトで kill した後、孫プロセスが握ったパイプを待つ上限。
const defaultWaitDelay = 2 * time.Second

// Tool は1つの外部コマンド呼び出しの宣言。
type Tool struct {
	Name    string // ログ・結果表示用。空なら Command
	Command string // PATH で解決する実行ファイル名
	Timeout time.Duration
	Builder ArgumentBuilder
}

// Output はプロセス実行の生出力。
type Output struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Spawner は解決済みパスと引数ベクタで子プロセスを1つ起動し、完了まで待つ。
// ctx の期限切れで子プロセスを終了させ、ctx.Err() を返すこと。
type Spawner interface {
	Spawn(ctx context.Context, path string, argv []string) (Output, error)
}

// ExecSpawner は os/exec で子プロセスを起動する Spawner。
type ExecSpawner struct {
	WaitDelay time.Duration
}

// Spawn は path を argv で起動し stdout / stderr をテキストとして取り込む。
// 標準入力は渡さない（端末を継承しない）。
func (s ExecSpawner) Spawn(ctx context.Context, path string, argv []string) (Output, error) {
	// path は resolveBinary() により PATH 内の実在バイナリの絶対パスであることを検証済み。
	// exec.CommandContext はシェルを経由しないため argv のシェルインジェクションも不可。
	cmd := exec.CommandContext(ctx, path) // nosemgrep: go.lang.security.audit.dangerous-exec-command.dangerous-exec-command -- path は LookPath で検証済み
	cmd.Args = argv
	cmd.Stdin = nil
	cmd.WaitDelay = s.WaitDelay
	if cmd.WaitDelay <= 0 {
		cmd.WaitDelay = defaultWaitDelay
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	out := Output{Stdout: stdout.String(), Stderr: stderr.String()}
	if err == nil {
		// 期限直前に正常終了したプロセスはタイムアウト扱いにしない
		return out, nil
	}
	if ctx.Err() != nil {
		return out, ctx.Err()
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		out.ExitCode = exitErr.ExitCode()
		return out, nil
	}
	return out, err
}

// InputValidator は Inputs が Builder の必須項目を満たすかを検査する。
// TemplateBuilder が実装する（{key!} の必須キー）。
type InputValidator interface {
	Validate(in Inputs) error
}

// Invoker は Tool 宣言を外部プロセス呼び出しに変換する。
// 状態を持たないため、同じ入力からは常に同じ引数ベクタが作られる。
type Invoker struct {
	ExitPolicy ExitPolicy
	LookPath   func(string) (string, error) // nil なら exec.LookPath
	Spawner    Spawner                      // nil なら ExecSpawner{}
}

// NewInvoker は policy で非ゼロ終了を扱う Invoker を返す。
func NewInvoker(policy ExitPolicy) *Invoker {
	return &Invoker{ExitPolicy: policy}
}

// Run は tool を in で実行し、完了（またはタイムアウト）まで待つ。
//
// 戻り値:
//   - コマンドが PATH に無い → ErrCommandNotFound（プロセスは起動しない）
//   - 必須キー {key!} の値が無い → ErrInvalidInvocation（プロセスは起動しない）
//   - タイムアウト           → Result.TimedOut=true, err=nil（出力は破棄）
//   - 非ゼロ終了             → Result.ExitCode に記録, err=nil
//   - 呼び出し元 ctx の中断  → ctx.Err() をラップしたエラー
func (iv *Invoker) Run(ctx context.Context, tool Tool, in Inputs) (*Result, error) {
	name := tool.Name
	if name == "" {
		name = tool.Command
	}
	if tool.Timeout <= 0 {
		return nil, fmt.Errorf("tools: %s: %w: timeout must be positive", name, ErrInvalidInvocation)
	}

	path, err := resolveBinary(tool.Command, iv.LookPath)
	if err != nil {
		return nil, fmt.Errorf("tools: %s: %w", name, err)
	}

	if v, ok := tool.Builder.(InputValidator); ok {
		if err := v.Validate(in); err != nil {
			return nil, fmt.Errorf("tools: %s: %w: %v", name, ErrInvalidInvocation, err)
		}
	}

	var tokens []string
	if tool.Builder != nil {
		tokens = tool.Builder.BuildArguments(in)
	}
	argv := make([]string, 0, 1+len(tokens))
	argv = append(argv, tool.Command)
	argv = append(argv, tokens...)

	policy := iv.ExitPolicy
	if policy == "" {
		policy = ExitPolicyStrict
	}
	res := &Result{
		Tool:      name,
		Command:   tool.Command,
		Path:      path,
		Argv:      argv,
		Timeout:   tool.Timeout,
		Policy:    policy,
		StartedAt: time.Now(),
	}

	spawner := iv.Spawner
	if spawner == nil {
		spawner = ExecSpawner{}
	}

	runCtx, cancel := context.WithTimeout(ctx, tool.Timeout)
	defer cancel()

	out, err := spawner.Spawn(runCtx, path, argv)
	res.FinishedAt = time.Now()
	if err != nil {
		switch {
		case ctx.Err() != nil:
			return res, fmt.Errorf("tools: %s: %w", name, ctx.Err())
		case errors.Is(err, context.DeadlineExceeded):
			res.TimedOut = true
			return res, nil
		default:
			return res, fmt.Errorf("tools: %s: spawn: %w", name, err)
		}
	}

	res.Stdout = out.Stdout
	res.Stderr = out.Stderr
	res.ExitCode = out.ExitCode
	return res, nil
}

// Invoke は Run の結果を文字列にして返す。
// タイムアウトと非ゼロ終了（strict）は説明文字列として返し、エラーにはしない。
func (iv *Invoker) Invoke(ctx context.Context, tool Tool, in Inputs) (string, error) {
	res, err := iv.Run(ctx, tool, in)
	if err != nil {
		return "", err
	}
	return res.Text(), nil
}
