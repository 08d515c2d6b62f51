package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jessevdk/go-flags"
	"github.com/rs/zerolog"

	"github.com/0x6d61/cybersec-ai/internal/brain"
	"github.com/0x6d61/cybersec-ai/internal/config"
	"github.com/0x6d61/cybersec-ai/internal/logging"
	"github.com/0x6d61/cybersec-ai/internal/scan"
	"github.com/0x6d61/cybersec-ai/internal/tools"
	"github.com/0x6d61/cybersec-ai/internal/tui"
)

type appConfig = config.AppConfig

const usage = "Usage: scan-network <target>"

// tuiLogFile は TUI 表示中のログ出力先（root_dir 直下）。
const tuiLogFile = "scan-network.log"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run はコマンドを実行し、プロセスの終了コードを返す。
func run(args []string, stdout, stderr io.Writer) int {
	var opts Options
	parser := flags.NewParser(&opts, flags.HelpFlag|flags.PassDoubleDash)
	parser.Name = "scan-network"
	if _, err := parser.ParseArgs(args); err != nil {
		var fe *flags.Error
		if errors.As(err, &fe) && fe.Type == flags.ErrHelp {
			fmt.Fprintln(stdout, err)
			return 0
		}
		fmt.Fprintln(stderr, err)
		fmt.Fprintln(stderr, usage)
		return 1
	}

	target := strings.TrimSpace(opts.Args.Target)
	switch {
	case opts.Ask != "" && target != "":
		// --ask はスキャンしないので、ターゲットを黙って捨てずに使い方の誤りとする
		fmt.Fprintln(stderr, "--ask cannot be combined with a target")
		fmt.Fprintln(stderr, usage)
		return 1
	case target == "" && opts.Ask == "" && !opts.ListTools:
		fmt.Fprintln(stderr, usage)
		return 1
	}

	// --- Config ---
	if err := config.LoadDotEnv(opts.EnvFile); err != nil {
		fmt.Fprintln(stderr, "設定エラー:", err)
		return 1
	}
	cfg, err := config.Load(opts.Config)
	if err != nil {
		fmt.Fprintln(stderr, "設定エラー:", err)
		return 1
	}
	opts.apply(cfg)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(stderr, "設定エラー:", err)
		return 1
	}

	if opts.ListTools {
		registry, err := loadRegistry(cfg.ToolsDir)
		if err != nil {
			fmt.Fprintln(stderr, "ツールロードエラー:", err)
			return 1
		}
		listTools(stdout, registry)
		return 0
	}

	// --- Logger ---
	logOut := stderr
	if opts.TUI {
		// TUI が端末を占有するのでログはファイルへ
		f, err := openLogFile(cfg.RootDir)
		if err != nil {
			fmt.Fprintln(stderr, "ログファイルを開けません:", err)
			return 1
		}
		defer f.Close()
		logOut = f
	}
	log := logging.New(logging.Config{Level: cfg.Log.Level, JSON: cfg.Log.JSON || opts.TUI, Out: logOut})

	// --- Brain ---
	brainCfg, err := brain.LoadConfig(brain.ConfigHint{
		Provider: brain.Provider(cfg.Model.Provider),
		Model:    cfg.Model.Name,
		BaseURL:  cfg.Model.BaseURL,
	})
	if err != nil {
		log.Error().Err(err).Msg("brain config")
		return 1
	}
	if cfg.Model.TimeoutSec > 0 {
		brainCfg.Timeout = time.Duration(cfg.Model.TimeoutSec) * time.Second
	}
	bot, err := brain.New(brainCfg)
	if err != nil {
		log.Error().Err(err).Msg("brain init")
		return 1
	}
	log.Debug().Str("provider", bot.Provider()).Str("model", bot.Model()).Msg("brain ready")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if opts.Ask != "" {
		return ask(ctx, bot, opts.Ask, stdout, log)
	}

	// --- Tools ---
	registry, err := loadRegistry(cfg.ToolsDir)
	if err != nil {
		log.Error().Err(err).Str("dir", cfg.ToolsDir).Msg("tool definitions")
		return 1
	}
	policy, err := tools.ParseExitPolicy(cfg.Scan.ExitPolicy)
	if err != nil {
		log.Error().Err(err).Msg("exit policy")
		return 1
	}
	invoker := tools.NewInvoker(policy)

	pipeline := scan.New(invoker, registry, bot, cfg, log)

	if opts.TUI {
		return runTUI(ctx, pipeline, bot, target, stdout, stderr)
	}

	rep, err := pipeline.Run(ctx, target)
	if err != nil {
		log.Error().Err(err).Msg("scan failed")
		return 1
	}
	fmt.Fprintln(stdout, rep.Vulnerability)
	return 0
}

// ask はモデルに1回だけ質問して応答を表示する。
func ask(ctx context.Context, bot brain.Chatbot, question string, stdout io.Writer, log zerolog.Logger) int {
	fmt.Fprintln(stdout, "User:", question)
	reply, err := bot.Query(ctx, question)
	if err != nil {
		log.Error().Err(err).Msg("query failed")
		return 1
	}
	fmt.Fprintln(stdout, "Bot:", reply)
	return 0
}

// runTUI はスキャンを TUI 付きで実行する。
// ctx（SIGINT / SIGTERM）の中断はスキャンにも伝わり、終了前に子プロセスの停止を待つ。
func runTUI(ctx context.Context, p *scan.Pipeline, bot brain.Chatbot, target string, stdout, stderr io.Writer) int {
	events := make(chan scan.Event, 256)
	p.WithEvents(events)

	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()
	guard := newRunGuard()

	m := tui.New(tui.Options{
		Ctx:      runCtx,
		Target:   target,
		Provider: bot.Provider(),
		Model:    bot.Model(),
		Events:   events,
		Run: guard.wrap(func(c context.Context) (*scan.Report, error) {
			defer close(events)
			return p.Run(c, target)
		}),
	})

	prog := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	final, err := prog.Run()

	cancelRun()
	if !guard.wait(runStopTimeout) {
		fmt.Fprintln(stderr, "scan did not stop within", runStopTimeout)
	}

	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		fmt.Fprintln(stderr, "scan cancelled")
		return 1
	}
	if err != nil {
		fmt.Fprintln(stderr, "TUI エラー:", err)
		return 1
	}
	fm, ok := final.(tui.Model)
	if !ok {
		return 1
	}
	if err := fm.Err(); err != nil {
		if errors.Is(err, context.Canceled) {
			fmt.Fprintln(stderr, "scan cancelled")
		} else {
			fmt.Fprintln(stderr, "scan failed:", err)
		}
		return 1
	}
	if rep := fm.Report(); rep != nil {
		fmt.Fprintln(stdout, "Results saved in output directory:", rep.Dir)
	}
	return 0
}

// runStopTimeout はキャンセル後にスキャンの終了を待つ上限。
// 子プロセスの kill とパイプの回収（ExecSpawner の WaitDelay）に十分な長さ。
const runStopTimeout = 10 * time.Second

// runGuard は TUI から起動したスキャンの開始と終了を追跡する。
type runGuard struct {
	started chan struct{}
	done    chan struct{}
}

func newRunGuard() *runGuard {
	return &runGuard{started: make(chan struct{}), done: make(chan struct{})}
}

// wrap は run を開始・終了の通知付きにする。返した関数は1回だけ呼ぶこと。
func (g *runGuard) wrap(run tui.RunFunc) tui.RunFunc {
	return func(ctx context.Context) (*scan.Report, error) {
		close(g.started)
		defer close(g.done)
		return run(ctx)
	}
}

// wait は開始済みのスキャンが終わるまで最大 timeout 待つ。
// 開始していなければすぐに true を返す（開始時点で context は既にキャンセル済み）。
func (g *runGuard) wait(timeout time.Duration) bool {
	select {
	case <-g.started:
	default:
		return true
	}
	select {
	case <-g.done:
		return true
	case <-time.After(timeout):
		return false
	}
}

// loadRegistry は組み込み定義に toolsDir の YAML を重ねた Registry を返す。
func loadRegistry(toolsDir string) (*tools.Registry, error) {
	registry, err := tools.NewDefaultRegistry()
	if err != nil {
		return nil, err
	}
	if err := registry.LoadDir(toolsDir); err != nil {
		return nil, err
	}
	return registry, nil
}

// listTools は登録済みツールを名前順に表示する。
func listTools(w io.Writer, r *tools.Registry) {
	for _, d := range r.All() {
		fmt.Fprintf(w, "%-10s %-10s %-8s %s\n", d.Name, d.Binary, d.Timeout(), d.Description)
	}
}

func openLogFile(root string) (*os.File, error) {
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, err
	}
	return os.OpenFile(filepath.Join(root, tuiLogFile), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
}
