package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// rebuildViewport はビューポートの内容を再生成する。
// スキャン完了後は脆弱性レポートを、それまでは進捗ログを表示する。
func (m *Model) rebuildViewport() {
	if !m.ready {
		return
	}
	if m.done && m.report != nil {
		m.viewport.SetContent(m.renderReport())
		m.viewport.GotoTop()
		return
	}
	m.viewport.SetContent(m.renderLogs())
	m.viewport.GotoBottom()
}

// renderLogs はログ行をタイムスタンプ付きで描画する。
// 1行がペイン幅を超える場合は表示幅で切り詰める（全角文字を考慮）。
func (m *Model) renderLogs() string {
	var sb strings.Builder
	width := m.viewport.Width
	for _, l := range m.logs {
		ts := timestampStyle.Render(l.time.Format("15:04:05"))
		msg := firstLine(l.message)
		if width > 12 {
			msg = runewidth.Truncate(msg, width-10, "…")
		}
		if l.isError {
			msg = errorStyle.Render(msg)
		}
		sb.WriteString(ts + "  " + msg + "\n")
	}
	return sb.String()
}

// renderReport は完了したスキャンのレポートを描画する。
func (m *Model) renderReport() string {
	var sb strings.Builder
	header := lipgloss.NewStyle().
		Foreground(colorPrimary).
		Bold(true).
		Render(fmt.Sprintf("═══ Vulnerability Report: %s ═══", m.report.Target))
	sb.WriteString(header + "\n")
	sb.WriteString(hintStyle.Render("saved in "+m.report.Dir) + "\n\n")

	rendered, err := renderMarkdown(m.report.Vulnerability, m.viewport.Width)
	if err != nil {
		// フォールバック: プレーンテキスト
		sb.WriteString(m.report.Vulnerability + "\n")
		return sb.String()
	}
	sb.WriteString(rendered)
	return sb.String()
}

// renderMarkdown は glamour を使って Markdown をターミナル用にレンダリングする。
// WithAutoStyle() は非 TTY 環境（テスト・CI）で plain にフォールバックするため dark を明示する。
func renderMarkdown(text string, width int) (string, error) {
	// glamour dark スタイルのマージン分を差し引く（左2+右2=4）
	wrapWidth := width - 4
	if wrapWidth < 20 {
		wrapWidth = 20
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStylePath("dark"),
		glamour.WithWordWrap(wrapWidth),
	)
	if err != nil {
		return "", err
	}
	return r.Render(text)
}

// renderStages はステージ一覧（状態アイコン・経過時間）を描画する。
func (m Model) renderStages() string {
	var sb strings.Builder
	sb.WriteString(paneTitleStyle.Render("STAGES") + "\n\n")
	for _, s := range m.stages {
		var icon string
		switch s.status {
		case stageRunning:
			icon = m.spinner.View()
		case stageDone:
			icon = stageDoneStyle.Render("✓")
		case stageWarned:
			icon = stageWarnStyle.Render("!")
		default:
			icon = stagePendingStyle.Render("○")
		}
		if s.status == stageRunning && m.done && m.err != nil {
			icon = stageFailedStyle.Render("✗")
		}

		line := fmt.Sprintf("%s %s", icon, s.name)
		if d := s.elapsed(m.now); d > 0 {
			line += " " + timestampStyle.Render(formatDuration(d))
		}
		sb.WriteString(line + "\n")
	}
	return sb.String()
}

// elapsed はステージの経過時間。未開始なら 0。
func (s *stageLine) elapsed(now time.Time) time.Duration {
	if s.started.IsZero() {
		return 0
	}
	if !s.finished.IsZero() {
		return s.finished.Sub(s.started)
	}
	return now.Sub(s.started)
}

// formatDuration は表示用の時間フォーマットを返す (例: "12s", "1m23s")。
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return "<1s"
	}
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	mins := int(d.Minutes())
	s := int(d.Seconds()) - mins*60
	return fmt.Sprintf("%dm%ds", mins, s)
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i] + " …"
	}
	return s
}
