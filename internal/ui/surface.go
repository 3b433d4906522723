package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// surface paints header segments on a shared background. lipgloss emits a
// reset after each rendered segment, so bare spaces between segments would
// otherwise fall back to the terminal background.
type surface struct {
	bg    lipgloss.Color
	space string
}

func newSurface(color string) surface {
	bg := lipgloss.Color(color)
	return surface{bg: bg, space: lipgloss.NewStyle().Background(bg).Render(" ")}
}

// Render applies style to text word by word, joining with painted spaces.
func (s surface) Render(text string, style lipgloss.Style) string {
	if text == "" {
		return ""
	}
	styled := style.Background(s.bg)
	if !strings.Contains(text, " ") {
		return styled.Render(text)
	}
	words := strings.Split(text, " ")
	for i, w := range words {
		if w != "" {
			words[i] = styled.Render(w)
		}
	}
	return strings.Join(words, s.space)
}

func (s surface) Space() string { return s.space }

func (s surface) Spaces(n int) string {
	return strings.Repeat(s.space, n)
}

// Join separates already rendered parts with painted sep.
func (s surface) Join(parts []string, sep string) string {
	return strings.Join(parts, lipgloss.NewStyle().Background(s.bg).Render(sep))
}
