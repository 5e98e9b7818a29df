package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/asciigym/internal/registry"
	"github.com/vovakirdan/asciigym/internal/storage"
)

const maxBoardRows = 100

// BoardSource is the part of the episode store the scoreboard reads.
type BoardSource interface {
	TopScores(gameID string, limit int) ([]storage.ScoreEntry, error)
	GetGameStats(gameID string) (*storage.GameStats, error)
	ListEpisodes(agent string, limit int) ([]storage.EpisodeEntry, error)
}

// boardView selects what the table lists.
type boardView int

const (
	viewRewards boardView = iota
	viewEpisodes
)

func (v boardView) String() string {
	if v == viewEpisodes {
		return "Saved Episodes"
	}
	return "Rewards"
}

// ScoreboardKeyMap defines the key bindings for the scoreboard.
type ScoreboardKeyMap struct {
	Up       key.Binding
	Down     key.Binding
	NextGame key.Binding
	PrevGame key.Binding
	Toggle   key.Binding
	Quit     key.Binding
}

// ShortHelp returns key bindings for the short help view.
func (k ScoreboardKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.NextGame, k.PrevGame, k.Toggle, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k ScoreboardKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down},
		{k.NextGame, k.PrevGame, k.Toggle},
		{k.Quit},
	}
}

// DefaultScoreboardKeyMap returns default key bindings.
func DefaultScoreboardKeyMap() ScoreboardKeyMap {
	return ScoreboardKeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("up/k", "scroll up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("down/j", "scroll down"),
		),
		NextGame: key.NewBinding(
			key.WithKeys("tab", "right", "l"),
			key.WithHelp("tab", "next game"),
		),
		PrevGame: key.NewBinding(
			key.WithKeys("shift+tab", "left", "h"),
			key.WithHelp("S-tab", "prev game"),
		),
		Toggle: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "rewards/episodes"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c", "esc"),
			key.WithHelp("q", "quit"),
		),
	}
}

var (
	boardTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("229"))
	boardTabStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Padding(0, 1)
	boardActiveTabStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("229")).
				Background(lipgloss.Color("57")).
				Padding(0, 1)
	boardBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
	boardEmptyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Italic(true).
			Padding(1, 4)
)

// ScoreboardModel browses per-game episode rewards and the high-score
// episodes saved for replay.
type ScoreboardModel struct {
	source BoardSource
	games  []registry.GameInfo
	cursor int
	view   boardView

	table table.Model
	rows  int
	stats *storage.GameStats
	err   error

	keys     ScoreboardKeyMap
	help     help.Model
	width    int
	height   int
	quitting bool
}

// NewScoreboardModel creates a scoreboard over every registered game.
func NewScoreboardModel(source BoardSource, width, height int) ScoreboardModel {
	m := ScoreboardModel{
		source: source,
		games:  registry.List(),
		keys:   DefaultScoreboardKeyMap(),
		help:   help.New(),
		width:  width,
		height: height,
	}
	m.reload()
	return m
}

// gameID returns the selected game, or "" when none are registered.
func (m ScoreboardModel) gameID() string {
	if len(m.games) == 0 {
		return ""
	}
	return m.games[m.cursor].ID
}

// reload rebuilds the table for the selected game and view.
func (m *ScoreboardModel) reload() {
	m.err = nil
	m.stats = nil

	var (
		columns []table.Column
		rows    []table.Row
	)
	if id := m.gameID(); id != "" && m.source != nil {
		switch m.view {
		case viewEpisodes:
			columns, rows, m.err = m.episodeRows(id)
		default:
			columns, rows, m.err = m.rewardRows(id)
			if m.err == nil {
				m.stats, m.err = m.source.GetGameStats(id)
			}
		}
	}
	if columns == nil {
		columns = []table.Column{{Title: "", Width: 10}}
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(max(m.height-10, 3)),
	)
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	m.table = t
	m.rows = len(rows)
}

func (m ScoreboardModel) rewardRows(gameID string) ([]table.Column, []table.Row, error) {
	scores, err := m.source.TopScores(gameID, maxBoardRows)
	if err != nil {
		return nil, nil, err
	}
	columns := []table.Column{
		{Title: "Rank", Width: 6},
		{Title: "Reward", Width: 10},
		{Title: "Agent", Width: 14},
		{Title: "Date", Width: 14},
	}
	rows := make([]table.Row, len(scores))
	for i, s := range scores {
		rows[i] = table.Row{
			fmt.Sprintf("#%d", i+1),
			fmt.Sprintf("%.2f", s.Score),
			s.Agent,
			s.CreatedAt.Format("Jan 02 15:04"),
		}
	}
	return columns, rows, nil
}

func (m ScoreboardModel) episodeRows(gameID string) ([]table.Column, []table.Row, error) {
	entries, err := m.source.ListEpisodes("", maxBoardRows)
	if err != nil {
		return nil, nil, err
	}
	columns := []table.Column{
		{Title: "Reward", Width: 10},
		{Title: "Agent", Width: 12},
		{Title: "Scenes", Width: 8},
		{Title: "Episode", Width: 34},
	}
	var rows []table.Row
	for _, e := range entries {
		if e.GameID != gameID {
			continue
		}
		scenes := fmt.Sprintf("%d", e.Scenes)
		if e.Truncated {
			scenes += "+"
		}
		rows = append(rows, table.Row{
			fmt.Sprintf("%.2f", e.TotalReward),
			e.Agent,
			scenes,
			e.EpisodeID,
		})
	}
	return columns, rows, nil
}

// Init initializes the scoreboard model.
func (m ScoreboardModel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the scoreboard.
func (m ScoreboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.NextGame):
			if len(m.games) > 0 {
				m.cursor = (m.cursor + 1) % len(m.games)
				m.reload()
			}
			return m, nil
		case key.Matches(msg, m.keys.PrevGame):
			if len(m.games) > 0 {
				m.cursor = (m.cursor + len(m.games) - 1) % len(m.games)
				m.reload()
			}
			return m, nil
		case key.Matches(msg, m.keys.Toggle):
			if m.view == viewRewards {
				m.view = viewEpisodes
			} else {
				m.view = viewRewards
			}
			m.reload()
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.reload()
		return m, nil
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// View renders the scoreboard.
func (m ScoreboardModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	title := strings.ToUpper(m.view.String())
	if len(m.games) > 0 {
		title = fmt.Sprintf("%s - %s", title, m.games[m.cursor].Title)
	}
	b.WriteString(boardTitleStyle.Render(centerText(title, m.width)))
	b.WriteString("\n\n")

	tabs := make([]string, len(m.games))
	for i, g := range m.games {
		if i == m.cursor {
			tabs[i] = boardActiveTabStyle.Render(g.Title)
		} else {
			tabs[i] = boardTabStyle.Render(g.Title)
		}
	}
	b.WriteString(centerText(lipgloss.JoinHorizontal(lipgloss.Top, tabs...), m.width))
	b.WriteString("\n\n")

	b.WriteString(boardBoxStyle.Render(m.body()))
	b.WriteString("\n")
	if line := m.statsLine(); line != "" {
		b.WriteString(statusStyle.Render(line))
		b.WriteString("\n")
	}
	b.WriteString(helpStyle.Render(m.help.View(m.keys)))
	return b.String()
}

func (m ScoreboardModel) body() string {
	switch {
	case m.err != nil:
		return boardEmptyStyle.Render("Cannot read episodes: " + m.err.Error())
	case m.rows == 0 && m.view == viewEpisodes:
		return boardEmptyStyle.Render("No high-score episodes saved yet.\nThey are stored when an episode beats the high score.")
	case m.rows == 0:
		return boardEmptyStyle.Render("No episodes recorded yet.\nRun train or play to record rewards.")
	}
	return m.table.View()
}

func (m ScoreboardModel) statsLine() string {
	if m.stats == nil || m.stats.Episodes == 0 {
		return ""
	}
	return fmt.Sprintf("Episodes: %d  Best: %.2f  Average: %.2f  Last: %s",
		m.stats.Episodes, m.stats.HighScore, m.stats.AvgScore,
		m.stats.LastPlayed.Format("2006-01-02 15:04"))
}

// IsQuitting returns true if the user quit.
func (m ScoreboardModel) IsQuitting() bool {
	return m.quitting
}

// RunScoreboard runs the scoreboard until the user quits.
func RunScoreboard(source BoardSource, width, height int) error {
	p := tea.NewProgram(
		NewScoreboardModel(source, width, height),
		tea.WithAltScreen(),
	)
	_, err := p.Run()
	return err
}
