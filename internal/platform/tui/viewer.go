package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/asciigym/internal/replay"
)

// Poller fetches records from a replay server.
type Poller interface {
	Poll(ctx context.Context, mode replay.Mode) ([]*replay.Record, error)
}

// ViewerConfig configures a replay viewer.
type ViewerConfig struct {
	Mode         replay.Mode   // Initial request mode
	TurnInterval time.Duration // Playback time per scene
	Backoff      time.Duration // Wait after an empty or failed poll
}

// DefaultViewerConfig returns the standard 50ms playback with 1s backoff.
func DefaultViewerConfig() ViewerConfig {
	return ViewerConfig{
		Mode:         replay.ModeLastCompleted,
		TurnInterval: replay.DefaultTurnInterval,
		Backoff:      time.Second,
	}
}

// recordsMsg carries the result of one poll.
type recordsMsg struct {
	recs []*replay.Record
	err  error
	mode replay.Mode
}

// ViewerModel polls a replay server and plays back what it receives.
// Mode changes apply at the next poll, after the current playback ends.
type ViewerModel struct {
	ctx    context.Context
	poller Poller
	cfg    ViewerConfig
	mode   replay.Mode // Mode used by the next poll

	records []*replay.Record
	served  replay.Mode // Mode the records were fetched with
	recIdx  int
	scene   int
	paused  bool
	status  string

	keys     ViewerKeyMap
	help     help.Model
	width    int
	height   int
	quitting bool
}

// NewViewerModel creates a viewer. ctx bounds every poll.
func NewViewerModel(ctx context.Context, poller Poller, cfg ViewerConfig) ViewerModel {
	def := DefaultViewerConfig()
	if cfg.TurnInterval <= 0 {
		cfg.TurnInterval = def.TurnInterval
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = def.Backoff
	}
	h := help.New()
	h.ShowAll = false
	return ViewerModel{
		ctx:    ctx,
		poller: poller,
		cfg:    cfg,
		mode:   cfg.Mode,
		status: "connecting...",
		keys:   DefaultViewerKeyMap(),
		help:   h,
	}
}

// Init starts the first poll.
func (m ViewerModel) Init() tea.Cmd {
	return m.pollCmd()
}

func (m ViewerModel) pollCmd() tea.Cmd {
	ctx, poller, mode := m.ctx, m.poller, m.mode
	return func() tea.Msg {
		recs, err := poller.Poll(ctx, mode)
		return recordsMsg{recs: recs, err: err, mode: mode}
	}
}

// Update handles messages and updates the model state.
func (m ViewerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case recordsMsg:
		return m.handleRecords(msg)

	case retryMsg:
		return m, m.pollCmd()

	case TickMsg:
		return m.handleTick()
	}

	return m, nil
}

func (m ViewerModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.Last):
		m.switchMode(replay.ModeLastCompleted)
	case key.Matches(msg, m.keys.Current):
		m.switchMode(replay.ModeCurrent)
	case key.Matches(msg, m.keys.HighScores):
		m.switchMode(replay.ModeHighScores)
	case key.Matches(msg, m.keys.Pause):
		m.paused = !m.paused
	case key.Matches(msg, m.keys.Skip):
		if len(m.records) > 0 {
			m.scene = 0
			m.recIdx++
			if m.recIdx >= len(m.records) {
				m.recIdx = len(m.records) - 1
				m.scene = m.records[m.recIdx].Len()
			}
		}
	}
	return m, nil
}

func (m *ViewerModel) switchMode(mode replay.Mode) {
	if mode == m.mode {
		return
	}
	m.mode = mode
	m.status = fmt.Sprintf("switching to %s at next poll", mode)
}

func (m ViewerModel) handleRecords(msg recordsMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		switch {
		case errors.Is(msg.err, replay.ErrNoRecord):
			m.status = fmt.Sprintf("no %s episode yet", msg.mode)
		case errors.Is(msg.err, replay.ErrBadFrame):
			m.status = "received unreadable data, retrying"
		default:
			m.status = msg.err.Error()
		}
		return m, retryCmd(m.cfg.Backoff)
	}
	if !hasScenes(msg.recs) {
		// An episode that just started has no scenes to show yet.
		m.status = fmt.Sprintf("no %s scenes yet", msg.mode)
		return m, retryCmd(m.cfg.Backoff)
	}

	m.records = msg.recs
	m.served = msg.mode
	m.recIdx = 0
	m.scene = 0
	m.status = fmt.Sprintf("playing %s (%d episode(s))", msg.mode, len(msg.recs))
	return m, tickCmd(m.cfg.TurnInterval)
}

func hasScenes(recs []*replay.Record) bool {
	for _, r := range recs {
		if r.Len() > 0 {
			return true
		}
	}
	return false
}

// handleTick advances one scene. Finishing the last record triggers the next poll.
func (m ViewerModel) handleTick() (tea.Model, tea.Cmd) {
	if m.paused {
		return m, tickCmd(m.cfg.TurnInterval)
	}
	if len(m.records) == 0 {
		return m, m.pollCmd()
	}

	m.scene++
	for m.recIdx < len(m.records) && m.scene >= m.records[m.recIdx].Len() {
		m.recIdx++
		m.scene = 0
	}
	if m.recIdx >= len(m.records) {
		// Hold the final frame while polling
		m.recIdx = len(m.records) - 1
		m.scene = max(m.records[m.recIdx].Len()-1, 0)
		return m, m.pollCmd()
	}
	return m, tickCmd(m.cfg.TurnInterval)
}

// Mode returns the mode the next poll will use.
func (m ViewerModel) Mode() replay.Mode {
	return m.mode
}

// Position returns the record and scene currently shown.
func (m ViewerModel) Position() (record, scene int) {
	return m.recIdx, m.scene
}

// View renders the current scene.
func (m ViewerModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	if rec := m.currentRecord(); rec != nil && m.scene < rec.Len() {
		sc := rec.Scenes[m.scene]
		panel := InfoPanel(PanelData{
			PlayID:    rec.Meta.PlayID,
			HighScore: rec.Meta.HighScore,
			Turn:      sc.Turn,
			Info:      rec.Info,
			Player:    sc.Player,
		})
		panel = append(panel, "=== Replay ===",
			fmt.Sprintf("Mode: %s", m.served),
			fmt.Sprintf("Episode %d/%d  Scene %d/%d", m.recIdx+1, len(m.records), m.scene+1, rec.Len()),
		)
		if rec.Truncated {
			panel = append(panel, "(truncated at scene cap)")
		}
		if m.paused {
			panel = append(panel, "PAUSED")
		}
		if s := rec.Screen(m.scene); s != nil {
			b.WriteString(renderFrame(s, rec.Meta.Palette, panel))
		}
		b.WriteString("\n")
	}

	b.WriteString(statusStyle.Render(m.status))
	b.WriteString("\n")
	b.WriteString(helpStyle.Render(m.help.View(m.keys)))
	return b.String()
}

func (m ViewerModel) currentRecord() *replay.Record {
	if m.recIdx < 0 || m.recIdx >= len(m.records) {
		return nil
	}
	return m.records[m.recIdx]
}

// RunViewer runs the replay viewer until the user quits.
func RunViewer(ctx context.Context, poller Poller, cfg ViewerConfig) error {
	p := tea.NewProgram(
		NewViewerModel(ctx, poller, cfg),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
