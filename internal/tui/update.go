package tui

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/0x6d61/cybersec-ai/internal/scan"
)

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		m.ready = true
		m.rebuildViewport()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tickMsg:
		if m.done {
			return m, nil
		}
		m.now = time.Time(msg)
		return m, tick()

	case EventMsg:
		m.handleEvent(scan.Event(msg))
		m.rebuildViewport()
		if m.events == nil {
			return m, nil
		}
		return m, WaitEvent(m.events)

	case DoneMsg:
		m.done = true
		m.now = time.Now()
		m.report = msg.Report
		m.err = msg.Err
		if m.err != nil && !errors.Is(m.err, context.Canceled) {
			m.addLog(m.err.Error(), true)
		}
		m.rebuildViewport()
		return m, nil
	}
	return m, nil
}

// handleKey はキー入力を処理する。q / ctrl+c は実行中のスキャンを中断して終了する。
// それ以外のキーはビューポートのスクロールに渡す。
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.cancel()
		if !m.done {
			m.err = context.Canceled
		}
		return m, tea.Quit
	case "g":
		m.viewport.GotoTop()
		return m, nil
	case "G":
		m.viewport.GotoBottom()
		return m, nil
	}
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// handleEvent は Pipeline イベントをステージ状態とログに反映する。
func (m *Model) handleEvent(e scan.Event) {
	s := m.findStage(e.Stage)
	switch e.Type {
	case scan.EventStageStart:
		if s != nil {
			s.status = stageRunning
			s.started = time.Now()
		}
		m.addLog(e.Message, false)
	case scan.EventStageDone:
		if s != nil {
			if s.status != stageWarned {
				s.status = stageDone
			}
			s.finished = time.Now()
			s.file = e.Message
		}
		m.addLog("saved "+e.Message, false)
	case scan.EventError:
		if s != nil {
			s.status = stageWarned
		}
		m.addLog(e.Message, true)
	default:
		m.addLog(e.Message, false)
	}
}

// resize はウィンドウサイズからビューポートの大きさを決める。
func (m *Model) resize() {
	vpW := m.width - stagePaneOuterWidth - 2
	if vpW < 20 {
		vpW = 20
	}
	vpH := m.height - 4 // status bar + hint + borders
	if vpH < 5 {
		vpH = 5
	}
	if !m.ready {
		m.viewport = viewport.New(vpW, vpH)
		return
	}
	m.viewport.Width = vpW
	m.viewport.Height = vpH
}
