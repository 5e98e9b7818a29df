package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/asciigym/internal/agent"
	"github.com/vovakirdan/asciigym/internal/core"
	"github.com/vovakirdan/asciigym/internal/engine"
)

// snapshotMsg carries a copy of the game after an engine event.
type snapshotMsg struct {
	screen   *core.Screen
	palette  core.Palette
	panel    PanelData
	gameOver bool
}

// Sender delivers messages to a running Bubble Tea program.
type Sender interface {
	Send(msg tea.Msg)
}

// ConsoleObserver forwards engine events to the play UI. It copies the
// screen on the engine goroutine so the UI never reads live state.
type ConsoleObserver struct {
	send Sender
}

// NewConsoleObserver creates an observer that sends snapshots to s.
func NewConsoleObserver(s Sender) *ConsoleObserver {
	return &ConsoleObserver{send: s}
}

// OnGameStart implements engine.Observer.
func (o *ConsoleObserver) OnGameStart(g *engine.Game) { o.send.Send(snapshot(g, false)) }

// OnUpdate implements engine.Observer.
func (o *ConsoleObserver) OnUpdate(g *engine.Game) { o.send.Send(snapshot(g, false)) }

// OnGameOver implements engine.Observer.
func (o *ConsoleObserver) OnGameOver(g *engine.Game) { o.send.Send(snapshot(g, true)) }

func snapshot(g *engine.Game, over bool) snapshotMsg {
	msg := snapshotMsg{
		palette: g.MetaInfo().Palette,
		panel: PanelData{
			PlayID:    g.PlayID(),
			HighScore: g.HighScore(),
			Turn:      g.TurnRecord(),
			Info:      g.Info(),
			Player:    g.TurnInfo(),
		},
		gameOver: over,
	}
	if s := g.Screen(); s != nil {
		msg.screen = s.Clone()
	}
	return msg
}

// PlayModel is the Bubble Tea model for human debug play. The engine runs
// on its own goroutine; this model only forwards keys and draws snapshots.
type PlayModel struct {
	human    *agent.Human
	last     snapshotMsg
	hasFrame bool
	quitting bool
}

// NewPlayModel creates a play model feeding keys to human.
func NewPlayModel(human *agent.Human) PlayModel {
	return PlayModel{human: human}
}

// Init implements tea.Model.
func (m PlayModel) Init() tea.Cmd {
	return nil
}

// Update handles messages and updates the model state.
func (m PlayModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			return m, tea.Quit
		case "ctrl+s":
			m.saveScreenshot()
			return m, nil
		}
		if a, ok := agent.KeyAction(msg.String()); ok {
			m.human.Press(a)
		}

	case snapshotMsg:
		m.last = msg
		m.hasFrame = msg.screen != nil
	}

	return m, nil
}

// saveScreenshot writes the last frame to ~/.asciigym/screenshots.
func (m PlayModel) saveScreenshot() {
	if !m.hasFrame {
		return
	}
	dir := filepath.Join(os.Getenv("HOME"), ".asciigym", "screenshots")
	//nolint:errcheck // Best-effort directory creation
	os.MkdirAll(dir, 0o755)

	filename := fmt.Sprintf("play_%d_%s.txt", m.last.panel.PlayID, time.Now().Format("20060102_150405"))
	//nolint:errcheck // Best-effort save, game continues regardless
	os.WriteFile(filepath.Join(dir, filename), []byte(m.last.screen.String()), 0o600)
}

// View renders the last snapshot.
func (m PlayModel) View() string {
	if m.quitting {
		return ""
	}
	if !m.hasFrame {
		return "starting..."
	}

	panel := InfoPanel(m.last.panel)
	if m.last.gameOver {
		panel = append(panel, "", "GAME OVER - next episode starting")
	}

	var b strings.Builder
	b.WriteString(renderFrame(m.last.screen, m.last.palette, panel))
	b.WriteString("\n")
	b.WriteString(helpStyle.Render(strings.Join(agent.KeyHelp(), "  ") + "  q: quit"))
	return b.String()
}

// RunPlay runs episodes of g with human input until the user quits.
// g must have been created with human as its agent and is not usable
// afterwards.
func RunPlay(ctx context.Context, g *engine.Game, human *agent.Human) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(NewPlayModel(human), tea.WithAltScreen(), tea.WithContext(ctx))
	g.AddObserver(NewConsoleObserver(p))

	stop := startEngine(ctx, g, human)
	_, err := p.Run()
	cancel()
	stop()

	if errors.Is(err, tea.ErrProgramKilled) {
		return nil
	}
	return err
}

// startEngine plays episodes of g until ctx is done. The returned stop
// releases human and blocks until the engine goroutine, observers
// included, has returned. ctx must be cancelled before calling stop.
func startEngine(ctx context.Context, g *engine.Game, human *agent.Human) (stop func()) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		g.PlayEpisodes(ctx, 0)
	}()
	return func() {
		// Close makes the remaining turns return at once; the engine stops
		// at the next episode boundary.
		human.Close()
		<-done
	}
}
