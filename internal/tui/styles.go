package tui

import "github.com/charmbracelet/lipgloss"

// Color palette
var (
	colorPrimary = lipgloss.Color("#00D7FF") // cyan: running stage
	colorSuccess = lipgloss.Color("#87FF5F") // green: done
	colorWarning = lipgloss.Color("#FFD700") // yellow: recovered failure
	colorDanger  = lipgloss.Color("#FF5555") // red: aborted
	colorMuted   = lipgloss.Color("#555577") // dim gray: timestamps / hints
	colorBorder  = lipgloss.Color("#333355")
	colorTitle   = lipgloss.Color("#FFFFFF")
)

// Status bar (top)
var statusBarStyle = lipgloss.NewStyle().
	Background(lipgloss.Color("#0D0D1A")).
	Foreground(colorPrimary).
	Padding(0, 1)

// Pane borders
var (
	stagePaneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder)

	logPaneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder)
)

var paneTitleStyle = lipgloss.NewStyle().Foreground(colorTitle).Bold(true)

// Stage status icon styles
var (
	stagePendingStyle = lipgloss.NewStyle().Foreground(colorMuted)
	stageRunningStyle = lipgloss.NewStyle().Foreground(colorPrimary)
	stageDoneStyle    = lipgloss.NewStyle().Foreground(colorSuccess).Bold(true)
	stageWarnStyle    = lipgloss.NewStyle().Foreground(colorWarning).Bold(true)
	stageFailedStyle  = lipgloss.NewStyle().Foreground(colorDanger).Bold(true)
)

var (
	timestampStyle = lipgloss.NewStyle().Foreground(colorMuted)
	hintStyle      = lipgloss.NewStyle().Foreground(colorMuted)
	errorStyle     = lipgloss.NewStyle().Foreground(colorDanger).Bold(true)
)
