package tui

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/asciigym/internal/core"
	"github.com/vovakirdan/asciigym/internal/engine"
)

// colorStyles maps core.Color to lipgloss styles.
var colorStyles = map[core.Color]lipgloss.Style{
	core.ColorDefault: lipgloss.NewStyle(),
	core.ColorRed:     lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
	core.ColorGreen:   lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
	core.ColorYellow:  lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
	core.ColorBlue:    lipgloss.NewStyle().Foreground(lipgloss.Color("4")),
	core.ColorMagenta: lipgloss.NewStyle().Foreground(lipgloss.Color("5")),
	core.ColorCyan:    lipgloss.NewStyle().Foreground(lipgloss.Color("6")),
	core.ColorWhite:   lipgloss.NewStyle().Foreground(lipgloss.Color("7")),
	core.ColorGray:    lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
}

var (
	frameStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("240"))
	panelStyle = lipgloss.NewStyle().
			PaddingLeft(2).
			Width(40)
	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Italic(true)
	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))
)

// RenderScreen converts a Screen to a styled string for display.
// Groups adjacent cells with the same color to minimize ANSI escape sequences.
func RenderScreen(s *core.Screen, pal core.Palette) string {
	var sb strings.Builder
	// Pre-allocate with extra space for ANSI codes
	sb.Grow(s.Width()*s.Height()*2 + s.Height())

	for y := range s.Height() {
		if y > 0 {
			sb.WriteRune('\n')
		}

		// Group consecutive cells with the same color for efficiency
		x := 0
		for x < s.Width() {
			startColor := pal.ColorOf(s.Get(x, y))

			var run strings.Builder
			for x < s.Width() {
				c := s.Get(x, y)
				if pal.ColorOf(c) != startColor {
					break
				}
				run.WriteRune(core.CellRune(c))
				x++
			}

			style, ok := colorStyles[startColor]
			if !ok {
				style = colorStyles[core.ColorDefault]
			}
			sb.WriteString(style.Render(run.String()))
		}
	}
	return sb.String()
}

// PanelData is what the side panel shows for one turn.
type PanelData struct {
	PlayID    int
	HighScore float64
	Turn      engine.TurnRecord
	Info      []string
	Player    map[string]string
}

// InfoPanel returns the side panel lines for d.
func InfoPanel(d PanelData) []string {
	a := d.Turn.LastAction
	lines := []string{
		fmt.Sprintf("PlayID: %d    HighScore: %g", d.PlayID, d.HighScore),
		fmt.Sprintf("Turn: %d", d.Turn.Turn),
		fmt.Sprintf("Total Score: %g", d.Turn.TotalReward),
		fmt.Sprintf("This Reward: %g", d.Turn.LastReward),
		"=== Action ===",
		fmt.Sprintf("Left : %d", flag(a, core.ActionLeft)),
		fmt.Sprintf("Right: %d", flag(a, core.ActionRight)),
		fmt.Sprintf("Up   : %d", flag(a, core.ActionUp)),
		fmt.Sprintf("Down : %d", flag(a, core.ActionDown)),
		fmt.Sprintf("A    : %d", flag(a, core.ActionButtonA)),
		fmt.Sprintf("B    : %d", flag(a, core.ActionButtonB)),
	}
	if len(d.Info) > 0 {
		lines = append(lines, "=== Info ===")
		lines = append(lines, d.Info...)
	}
	if len(d.Player) > 0 {
		lines = append(lines, "=== Player ===")
		for _, k := range slices.Sorted(maps.Keys(d.Player)) {
			lines = append(lines, fmt.Sprintf("%s: %s", k, d.Player[k]))
		}
	}
	return lines
}

func flag(a, bit core.Action) int {
	if a.Has(bit) {
		return 1
	}
	return 0
}

// renderFrame lays out the bordered grid next to the info panel.
func renderFrame(s *core.Screen, pal core.Palette, panel []string) string {
	grid := frameStyle.Render(RenderScreen(s, pal))
	return lipgloss.JoinHorizontal(lipgloss.Top, grid, panelStyle.Render(strings.Join(panel, "\n")))
}

// centerText centers text within given width.
func centerText(text string, width int) string {
	w := lipgloss.Width(text)
	if w >= width {
		return text
	}
	padding := (width - w) / 2
	return strings.Repeat(" ", padding) + text
}
