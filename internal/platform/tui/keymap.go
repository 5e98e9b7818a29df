package tui

import (
	"github.com/charmbracelet/bubbles/key"
)

// ViewerKeyMap defines the key bindings for the replay viewer.
type ViewerKeyMap struct {
	Last       key.Binding
	Current    key.Binding
	HighScores key.Binding
	Pause      key.Binding
	Skip       key.Binding
	Quit       key.Binding
}

// ShortHelp returns key bindings for the short help view.
func (k ViewerKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Last, k.Current, k.HighScores, k.Pause, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k ViewerKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Last, k.Current, k.HighScores},
		{k.Pause, k.Skip, k.Quit},
	}
}

// DefaultViewerKeyMap returns default key bindings.
func DefaultViewerKeyMap() ViewerKeyMap {
	return ViewerKeyMap{
		Last: key.NewBinding(
			key.WithKeys("1", "l"),
			key.WithHelp("1/l", "last"),
		),
		Current: key.NewBinding(
			key.WithKeys("2", "c"),
			key.WithHelp("2/c", "current"),
		),
		HighScores: key.NewBinding(
			key.WithKeys("3", "h"),
			key.WithHelp("3/h", "high scores"),
		),
		Pause: key.NewBinding(
			key.WithKeys("p", " "),
			key.WithHelp("p", "pause"),
		),
		Skip: key.NewBinding(
			key.WithKeys("n", "tab"),
			key.WithHelp("n", "next episode"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c", "esc"),
			key.WithHelp("q", "quit"),
		),
	}
}
