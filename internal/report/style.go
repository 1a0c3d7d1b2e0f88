package report

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Palette
var (
	colorSuccess = lipgloss.Color("#8BC34A")
	colorWarning = lipgloss.Color("#FFC107")
	colorError   = lipgloss.Color("#e53935")
	colorMutedLt = lipgloss.Color("#6a737d")
	colorMutedDk = lipgloss.Color("#9aa4b2")
)

// Theme selects colors for light or dark terminals.
type Theme struct {
	IsDark bool
}

// DetectTheme guesses the terminal background from COLORFGBG
// ("foreground;background"), falling back to TESTHOOK_DARK_MODE=1 and then
// to light.
func DetectTheme() Theme {
	if colorTerm := os.Getenv("COLORFGBG"); colorTerm != "" {
		parts := strings.Split(colorTerm, ";")
		if len(parts) >= 2 {
			// 0-6 and 8 are dark ANSI backgrounds.
			if bg, err := strconv.Atoi(parts[len(parts)-1]); err == nil && ((bg >= 0 && bg <= 6) || bg == 8) {
				return Theme{IsDark: true}
			}
		}
	}
	if os.Getenv("TESTHOOK_DARK_MODE") == "1" {
		return Theme{IsDark: true}
	}
	return Theme{}
}

// Styles holds the summary line styles.
type Styles struct {
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Muted   lipgloss.Style
}

// NewStyles creates the styles for theme.
func NewStyles(theme Theme) Styles {
	muted := colorMutedLt
	if theme.IsDark {
		muted = colorMutedDk
	}
	return Styles{
		Success: lipgloss.NewStyle().Foreground(colorSuccess).Bold(true),
		Warning: lipgloss.NewStyle().Foreground(colorWarning).Bold(true),
		Error:   lipgloss.NewStyle().Foreground(colorError).Bold(true),
		Muted:   lipgloss.NewStyle().Foreground(muted),
	}
}

// SummaryLine renders a one-line status for terminals, e.g.
// "✗ 3 missing test hooks in 2 files · 5 marked · 62% coverage".
func SummaryLine(s Summary, styles Styles) string {
	var head string
	if s.Candidates == 0 {
		head = styles.Success.Render("✓ no missing test hooks")
	} else {
		head = styles.Warning.Render(fmt.Sprintf("✗ %s", plural(s.Candidates, "missing test hook", "missing test hooks")))
	}
	parts := []string{
		head,
		styles.Muted.Render(fmt.Sprintf("%s scanned", plural(s.Files-s.Failed, "file", "files"))),
		styles.Muted.Render(fmt.Sprintf("%d marked", s.Marked)),
		styles.Muted.Render(fmt.Sprintf("%.0f%% coverage", s.Coverage*100)),
	}
	if s.Failed > 0 {
		parts = append(parts, styles.Error.Render(fmt.Sprintf("%s failed", plural(s.Failed, "file", "files"))))
	}
	return strings.Join(parts, styles.Muted.Render(" · "))
}
