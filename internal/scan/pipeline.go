// Package scan はネットワーク列挙パイプラインを実装する。
//
// nmap → nikto → gobuster の順にツールを実行して生出力を保存し、
// LLM にポート解析・Web アプリ解析・脆弱性レポートを書かせて保存する。
package scan

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/0x6d61/cybersec-ai/internal/brain"
	"github.com/0x6d61/cybersec-ai/internal/config"
	"github.com/0x6d61/cybersec-ai/internal/output"
	"github.com/0x6d61/cybersec-ai/internal/prompt"
	"github.com/0x6d61/cybersec-ai/internal/tools"
)

// 解析結果の出力ファイル名
const (
	PortAnalysisFile   = "port_analysis.txt"
	WebAppAnalysisFile = "web_app_analysis.txt"
	ReportFile         = "vulnerability_report.txt"
)

// Stages は実行するツールの名前（実行順）。
var Stages = []string{"nmap", "nikto", "gobuster"}

// LLM 問い合わせステージの名前
const (
	StagePortAnalysis   = "port analysis"
	StageWebAppAnalysis = "web application analysis"
	StageReport         = "vulnerability report"
)

var (
	// ErrMissingTarget はターゲットが空のときに返る。I/O は一切行わない。
	ErrMissingTarget = errors.New("scan: target is required")
	// ErrUnknownTool はレジストリにステージのツール定義が無いときに返る。
	ErrUnknownTool = errors.New("scan: unknown tool")
)

// StageResult は1つのツールステージの結果。
type StageResult struct {
	Name   string
	Output string // ファイルに保存した文字列（失敗時は説明文字列）
	Path   string
	Result *tools.Result // CommandNotFound の場合は nil
}

// Report は1回のスキャンで生成したものをまとめたもの。
type Report struct {
	Target         string
	Dir            string
	Stages         []StageResult
	PortAnalysis   string
	WebAppAnalysis string
	Vulnerability  string
	Files          []string
}

// Pipeline はスキャンの実行者。
type Pipeline struct {
	invoker  *tools.Invoker
	registry *tools.Registry
	bot      brain.Chatbot
	cfg      *config.AppConfig
	log      zerolog.Logger
	events   chan<- Event
}

// New は Pipeline を返す。cfg が nil ならデフォルト設定を使う。
func New(inv *tools.Invoker, reg *tools.Registry, bot brain.Chatbot, cfg *config.AppConfig, log zerolog.Logger) *Pipeline {
	if cfg == nil {
		cfg = config.Default()
	}
	return &Pipeline{
		invoker:  inv,
		registry: reg,
		bot:      bot,
		cfg:      cfg,
		log:      log,
	}
}

// WithEvents は進捗イベントの送信先を設定する。
func (p *Pipeline) WithEvents(ch chan<- Event) *Pipeline {
	p.events = ch
	return p
}

// Run は target に対してスキャンを実行し、全ファイルを書き出す。
func (p *Pipeline) Run(ctx context.Context, target string) (*Report, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		return nil, ErrMissingTarget
	}

	w := output.NewWriter(output.Dir(p.cfg.RootDir, target))
	dir := w.Dir()
	rep := &Report{Target: target, Dir: dir}

	p.log.Info().Str("target", target).Msgf("Scanning target: %s", target)
	p.emit(Event{Type: EventLog, Message: "Scanning target: " + target})

	stages, err := p.runStages(ctx, w, target)
	if err != nil {
		return nil, err
	}
	rep.Stages = stages
	for _, s := range stages {
		rep.Files = append(rep.Files, s.Path)
	}

	ps := prompt.NetworkEnumeration(
		p.promptText(stages[0]),
		p.promptText(stages[1]),
		p.promptText(stages[2]),
	)

	rep.PortAnalysis, err = p.analyze(ctx, w, StagePortAnalysis, ps.PortAnalysis, PortAnalysisFile, rep)
	if err != nil {
		return nil, err
	}
	rep.WebAppAnalysis, err = p.analyze(ctx, w, StageWebAppAnalysis, ps.WebAppAnalysis, WebAppAnalysisFile, rep)
	if err != nil {
		return nil, err
	}
	rep.Vulnerability, err = p.analyze(ctx, w, StageReport,
		prompt.VulnerabilityReport(rep.PortAnalysis, rep.WebAppAnalysis), ReportFile, rep)
	if err != nil {
		return nil, err
	}

	p.log.Info().Msg("Network scan completed successfully.")
	p.log.Info().Str("dir", dir).Msgf("Results saved in output directory: %s", dir)
	p.log.Info().Msgf("Final vulnerability report:\n%s", rep.Vulnerability)
	p.emit(Event{Type: EventLog, Message: "Results saved in output directory: " + dir})
	return rep, nil
}

// runStages はツールステージを実行する。結果は常に Stages の順に並ぶ。
// scan.parallel が有効なら並行に実行する（ファイル名は互いに独立）。
func (p *Pipeline) runStages(ctx context.Context, w *output.Writer, target string) ([]StageResult, error) {
	results := make([]StageResult, len(Stages))

	if !p.cfg.Scan.Parallel {
		for i, name := range Stages {
			r, err := p.runStage(ctx, w, name, target)
			if err != nil {
				return nil, err
			}
			results[i] = r
		}
		return results, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, name := range Stages {
		g.Go(func() error {
			r, err := p.runStage(gctx, w, name, target)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// runStage は1つのツールを実行し、結果の文字列を <output_file> に保存する。
// CommandNotFound は on_missing_command=recover なら説明文字列として保存する。
func (p *Pipeline) runStage(ctx context.Context, w *output.Writer, name, target string) (StageResult, error) {
	def, ok := p.registry.Get(name)
	if !ok {
		return StageResult{}, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	tool := def.Tool()
	if ov, ok := p.cfg.Tools[name]; ok && ov.TimeoutSec > 0 {
		tool.Timeout = time.Duration(ov.TimeoutSec) * time.Second
	}

	p.log.Info().Str("stage", name).Msgf("Running %s scan...", name)
	p.emit(Event{Type: EventStageStart, Stage: name, Message: fmt.Sprintf("Running %s scan...", name)})

	res, err := p.invoker.Run(ctx, tool, tools.Inputs{Target: target, Options: p.options(def)})
	var text string
	switch {
	case err == nil:
		text = res.Text()
		if res.Failed() {
			p.log.Warn().Str("stage", name).Bool("timed_out", res.TimedOut).Int("exit_code", res.ExitCode).Msg(text)
			p.emit(Event{Type: EventError, Stage: name, Message: text})
		}
	case errors.Is(err, tools.ErrCommandNotFound) && p.cfg.Scan.OnMissingCommand != config.MissingAbort:
		text = tools.NotFoundMessage(def.Binary)
		p.log.Warn().Str("stage", name).Msg(text)
		p.emit(Event{Type: EventError, Stage: name, Message: text})
	default:
		p.log.Error().Err(err).Str("stage", name).Msg("scan stage failed")
		return StageResult{}, fmt.Errorf("scan: %s: %w", name, err)
	}

	path, err := w.Write(def.FileName(), text)
	if err != nil {
		return StageResult{}, err
	}
	ev := p.log.Info().Str("stage", name).Str("file", path)
	if res != nil {
		ev = ev.Dur("duration", res.Duration())
	}
	ev.Msgf("%s scan saved to %s", name, path)
	p.emit(Event{Type: EventStageDone, Stage: name, Message: path})

	return StageResult{Name: name, Output: text, Path: path, Result: res}, nil
}

// options はツール定義の options に設定ファイルの上書きと wordlist を反映する。
func (p *Pipeline) options(def *tools.ToolDef) []string {
	opts := append([]string(nil), def.Options...)
	if ov, ok := p.cfg.Tools[def.Name]; ok && len(ov.Options) > 0 {
		opts = append([]string(nil), ov.Options...)
	}
	if def.Name == "gobuster" && p.cfg.Wordlist != "" {
		opts = setFlag(opts, "-w", p.cfg.Wordlist)
	}
	return opts
}

// setFlag は opts 中の flag の値を value に置き換える。無ければ末尾に追加する。
func setFlag(opts []string, flag, value string) []string {
	for i := 0; i < len(opts)-1; i++ {
		if opts[i] == flag {
			opts[i+1] = value
			return opts
		}
	}
	return append(opts, flag, value)
}

// promptText はステージの出力をプロンプト用に切り詰める。
func (p *Pipeline) promptText(s StageResult) string {
	cfg := tools.DefaultTruncateConfig
	if def, ok := p.registry.Get(s.Name); ok {
		cfg = def.Prompt.ToTruncateConfig()
	}
	return tools.Truncate(s.Output, cfg)
}

// analyze は LLM に問い合わせ、応答を filename に保存する。
// 問い合わせの失敗はスキャン全体を中断する。
func (p *Pipeline) analyze(ctx context.Context, w *output.Writer, stage, query, filename string, rep *Report) (string, error) {
	p.log.Info().Str("stage", stage).Msgf("Querying LLM for %s...", stage)
	p.emit(Event{Type: EventStageStart, Stage: stage, Message: fmt.Sprintf("Querying LLM for %s...", stage)})

	reply, err := p.bot.Query(ctx, query)
	if err != nil {
		p.log.Error().Err(err).Str("stage", stage).Msg("LLM query failed")
		p.emit(Event{Type: EventError, Stage: stage, Message: err.Error()})
		return "", fmt.Errorf("scan: %s: %w", stage, err)
	}

	path, err := w.Write(filename, reply)
	if err != nil {
		return "", err
	}
	rep.Files = append(rep.Files, path)
	p.log.Info().Str("stage", stage).Str("file", path).Msgf("%s saved to %s", stage, path)
	p.emit(Event{Type: EventStageDone, Stage: stage, Message: path})
	return reply, nil
}
