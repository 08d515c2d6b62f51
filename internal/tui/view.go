package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "\n  ⚡ Starting scan...\n"
	}

	statusBar := m.renderStatusBar()

	stagePane := stagePaneStyle.
		Width(stagePaneOuterWidth - 2).
		Height(m.viewport.Height).
		Render(m.renderStages())
	logPane := logPaneStyle.
		Width(m.viewport.Width).
		Render(m.viewport.View())
	panes := lipgloss.JoinHorizontal(lipgloss.Top, stagePane, logPane)

	return lipgloss.JoinVertical(lipgloss.Left, statusBar, panes, m.renderHint())
}

// renderStatusBar はアプリ名・ターゲット・モデル・経過時間を1行で描画する。
func (m Model) renderStatusBar() string {
	appName := lipgloss.NewStyle().
		Foreground(colorPrimary).
		Bold(true).
		Render("⚡ CYBERSEC-AI")

	target := fmt.Sprintf("Target: %s", lipgloss.NewStyle().Foreground(colorWarning).Render(m.target))

	var modelInfo string
	if m.model != "" {
		modelInfo = hintStyle.Render(fmt.Sprintf("Model: %s/%s", m.provider, m.model))
	}

	state := stageRunningStyle.Render("RUNNING")
	switch {
	case m.done && m.err != nil:
		state = stageFailedStyle.Render("FAILED")
	case m.done:
		state = stageDoneStyle.Render("DONE")
	}
	elapsed := hintStyle.Render(formatDuration(m.now.Sub(m.started)))

	left := appName + "  " + target
	if modelInfo != "" {
		left += "  " + modelInfo
	}
	right := state + " " + elapsed
	gap := strings.Repeat(" ", max(0, m.width-lipgloss.Width(left)-lipgloss.Width(right)-2))

	return statusBarStyle.Width(m.width).Render(left + gap + right)
}

func (m Model) renderHint() string {
	if m.done {
		return hintStyle.Render("  [↑↓/PgUp/PgDn] Scroll  [g/G] Top/Bottom  [q] Quit")
	}
	return hintStyle.Render("  [↑↓] Scroll  [q/Ctrl+C] Cancel scan")
}
