// Package tui はスキャンの進捗を表示する Bubble Tea TUI を実装する。
package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/0x6d61/cybersec-ai/internal/scan"
)

// stagePaneOuterWidth はステージ一覧ペインの外寸（枠線込み）。
const stagePaneOuterWidth = 34

// stageStatus はステージの進行状態。
type stageStatus int

const (
	stagePending stageStatus = iota
	stageRunning
	stageDone
	stageWarned // 失敗を文字列に変換して続行した
)

type stageLine struct {
	name     string
	status   stageStatus
	started  time.Time
	finished time.Time
	file     string
}

type logLine struct {
	time    time.Time
	message string
	isError bool
}

// RunFunc はスキャンを実行する関数。キャンセル可能な ctx を受け取る。
type RunFunc func(ctx context.Context) (*scan.Report, error)

// EventMsg は Pipeline から届く Bubble Tea メッセージ。
type EventMsg scan.Event

// DoneMsg はスキャンの終了を知らせる。
type DoneMsg struct {
	Report *scan.Report
	Err    error
}

// tickMsg は経過時間の表示を更新する。
type tickMsg time.Time

// Options は Model の初期化パラメータ。
type Options struct {
	Ctx      context.Context // スキャンの親 context（シグナルで中断される）。nil なら Background
	Target   string
	Provider string
	Model    string
	Events   <-chan scan.Event
	Run      RunFunc
}

// Model はスキャン進捗画面のルートモデル。
type Model struct {
	width  int
	height int
	ready  bool

	target   string
	provider string
	model    string

	stages   []*stageLine
	logs     []logLine
	spinner  spinner.Model
	viewport viewport.Model

	events <-chan scan.Event
	run    RunFunc
	ctx    context.Context
	cancel context.CancelFunc

	started time.Time
	now     time.Time
	done    bool
	report  *scan.Report
	err     error
}

// New は opts で Model を初期化する。
func New(opts Options) Model {
	parent := opts.Ctx
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = stageRunningStyle

	var stages []*stageLine
	for _, name := range scan.Stages {
		stages = append(stages, &stageLine{name: name})
	}
	for _, name := range []string{scan.StagePortAnalysis, scan.StageWebAppAnalysis, scan.StageReport} {
		stages = append(stages, &stageLine{name: name})
	}

	now := time.Now()
	return Model{
		target:   opts.Target,
		provider: opts.Provider,
		model:    opts.Model,
		stages:   stages,
		spinner:  sp,
		events:   opts.Events,
		run:      opts.Run,
		ctx:      ctx,
		cancel:   cancel,
		started:  now,
		now:      now,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spinner.Tick, tick()}
	if m.events != nil {
		cmds = append(cmds, WaitEvent(m.events))
	}
	if m.run != nil {
		cmds = append(cmds, runCmd(m.ctx, m.run))
	}
	return tea.Batch(cmds...)
}

// Err はスキャンの結果エラーを返す（TUI 終了後に呼び出し元が参照する）。
func (m Model) Err() error { return m.err }

// Report は完了したスキャンのレポートを返す。未完了なら nil。
func (m Model) Report() *scan.Report { return m.report }

// WaitEvent は次の Pipeline イベントを待つ Bubble Tea コマンド。
// チャネルが閉じられたら nil を返す。
func WaitEvent(ch <-chan scan.Event) tea.Cmd {
	return func() tea.Msg {
		e, ok := <-ch
		if !ok {
			return nil
		}
		return EventMsg(e)
	}
}

func runCmd(ctx context.Context, run RunFunc) tea.Cmd {
	return func() tea.Msg {
		rep, err := run(ctx)
		return DoneMsg{Report: rep, Err: err}
	}
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// findStage は名前でステージを返す。
func (m *Model) findStage(name string) *stageLine {
	for _, s := range m.stages {
		if s.name == name {
			return s
		}
	}
	return nil
}

func (m *Model) addLog(msg string, isError bool) {
	m.logs = append(m.logs, logLine{time: time.Now(), message: msg, isError: isError})
}
