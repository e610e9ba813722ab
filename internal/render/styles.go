// Package render draws console screens as text. Every function here is a
// pure function of its input model.
package render

import "github.com/charmbracelet/lipgloss"

var (
	accent    = lipgloss.Color("#7D56F4")
	muted     = lipgloss.Color("#808080")
	okColor   = lipgloss.Color("#04B575")
	errColor  = lipgloss.Color("#FF5F5F")
	warnColor = lipgloss.Color("#FFB454")

	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(accent)
	labelStyle    = lipgloss.NewStyle().Width(28)
	mutedStyle    = lipgloss.NewStyle().Foreground(muted)
	requiredStyle = lipgloss.NewStyle().Foreground(errColor).Bold(true)
	selectedStyle = lipgloss.NewStyle().Foreground(accent).Bold(true)
	boxStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(muted).Padding(0, 1)

	noticeStyles = map[Level]lipgloss.Style{
		LevelInfo:    lipgloss.NewStyle().Foreground(accent),
		LevelSuccess: lipgloss.NewStyle().Foreground(okColor).Bold(true),
		LevelWarning: lipgloss.NewStyle().Foreground(warnColor),
		LevelError:   lipgloss.NewStyle().Foreground(errColor).Bold(true),
	}
)

// Level is the severity of a notice.
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notice renders a one-line message to the operator.
func Notice(level Level, msg string) string {
	style, ok := noticeStyles[level]
	if !ok {
		style = noticeStyles[LevelInfo]
	}
	return style.Render(msg)
}
