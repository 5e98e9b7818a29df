package tui

import (
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/asciigym/internal/agent"
	"github.com/vovakirdan/asciigym/internal/core"
	"github.com/vovakirdan/asciigym/internal/engine"
	"github.com/vovakirdan/asciigym/internal/games/jump"
	"github.com/vovakirdan/asciigym/internal/replay"
	"github.com/vovakirdan/asciigym/internal/storage"
)

type fakePoller struct {
	mu    sync.Mutex
	modes []replay.Mode
	recs  []*replay.Record
	err   error
}

func (f *fakePoller) Poll(_ context.Context, mode replay.Mode) ([]*replay.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.modes = append(f.modes, mode)
	return f.recs, f.err
}

func keyMsg(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func sampleRecord(playID, scenes int) *replay.Record {
	rec := replay.NewRecord(3, 2, engine.MetaInfo{PlayID: playID, HighScore: 1.5}, []string{"Sample"})
	for i := 1; i <= scenes; i++ {
		cells := []core.Cell{'#', ' ', ' ', ' ', ' ', core.Cell('0' + i)}
		rec.Scenes = append(rec.Scenes, replay.Scene{
			Screen: cells,
			Turn:   engine.TurnRecord{Turn: i, TotalReward: float64(i), LastAction: core.ActionLeft},
		})
	}
	return rec
}

func testViewerConfig() ViewerConfig {
	return ViewerConfig{TurnInterval: time.Millisecond, Backoff: time.Millisecond}
}

func TestViewerPollsOnInit(t *testing.T) {
	poller := &fakePoller{recs: []*replay.Record{sampleRecord(1, 2)}}
	m := NewViewerModel(context.Background(), poller, testViewerConfig())

	cmd := m.Init()
	require.NotNil(t, cmd)
	msg, ok := cmd().(recordsMsg)
	require.True(t, ok)
	assert.Len(t, msg.recs, 1)
	assert.Equal(t, []replay.Mode{replay.ModeLastCompleted}, poller.modes)
}

func TestViewerBacksOffWhenEmpty(t *testing.T) {
	m := NewViewerModel(context.Background(), &fakePoller{}, testViewerConfig())

	next, cmd := m.Update(recordsMsg{err: replay.ErrNoRecord, mode: replay.ModeCurrent})
	vm := next.(ViewerModel)
	require.NotNil(t, cmd)
	assert.Contains(t, vm.status, "no current episode yet")
	assert.IsType(t, retryMsg{}, cmd())

	next, _ = vm.Update(recordsMsg{err: replay.ErrBadFrame})
	assert.Contains(t, next.(ViewerModel).status, "unreadable")
}

func TestViewerBacksOffOnEpisodeWithoutScenes(t *testing.T) {
	poller := &fakePoller{}
	m := NewViewerModel(context.Background(), poller, testViewerConfig())

	next, cmd := m.Update(recordsMsg{recs: []*replay.Record{sampleRecord(4, 0)}, mode: replay.ModeCurrent})
	vm := next.(ViewerModel)
	require.NotNil(t, cmd)
	assert.IsType(t, retryMsg{}, cmd())
	assert.Contains(t, vm.status, "no current scenes yet")
	assert.Nil(t, vm.currentRecord())
	assert.Empty(t, poller.modes)
}

func TestViewerPlaysScenesThenPolls(t *testing.T) {
	poller := &fakePoller{}
	m := NewViewerModel(context.Background(), poller, testViewerConfig())

	next, cmd := m.Update(recordsMsg{recs: []*replay.Record{sampleRecord(1, 3), sampleRecord(2, 1)}})
	require.NotNil(t, cmd)
	vm := next.(ViewerModel)

	var positions [][2]int
	for i := 0; i < 3; i++ {
		next, cmd = vm.Update(TickMsg(time.Now()))
		vm = next.(ViewerModel)
		r, s := vm.Position()
		positions = append(positions, [2]int{r, s})
	}
	assert.Equal(t, [][2]int{{0, 1}, {0, 2}, {1, 0}}, positions)
	assert.IsType(t, TickMsg{}, cmd())

	// Past the last scene the viewer polls again
	next, cmd = vm.Update(TickMsg(time.Now()))
	vm = next.(ViewerModel)
	_, ok := cmd().(recordsMsg)
	assert.True(t, ok)
	r, s := vm.Position()
	assert.Equal(t, 1, r)
	assert.Equal(t, 0, s)
}

func TestViewerModeSwitchAppliesAtNextPoll(t *testing.T) {
	poller := &fakePoller{}
	m := NewViewerModel(context.Background(), poller, testViewerConfig())
	next, _ := m.Update(recordsMsg{recs: []*replay.Record{sampleRecord(1, 2)}})
	vm := next.(ViewerModel)

	next, cmd := vm.Update(keyMsg("2"))
	vm = next.(ViewerModel)
	assert.Nil(t, cmd)
	assert.Equal(t, replay.ModeCurrent, vm.Mode())
	assert.Empty(t, poller.modes, "switching must not poll immediately")

	next, _ = vm.Update(TickMsg(time.Now()))
	vm = next.(ViewerModel)
	_, cmd = vm.Update(TickMsg(time.Now()))
	require.NotNil(t, cmd)
	cmd()
	assert.Equal(t, []replay.Mode{replay.ModeCurrent}, poller.modes)

	next, _ = vm.Update(keyMsg("h"))
	assert.Equal(t, replay.ModeHighScores, next.(ViewerModel).Mode())
}

func TestViewerPause(t *testing.T) {
	m := NewViewerModel(context.Background(), &fakePoller{}, testViewerConfig())
	next, _ := m.Update(recordsMsg{recs: []*replay.Record{sampleRecord(1, 3)}})
	next, _ = next.Update(keyMsg("p"))
	next, _ = next.Update(TickMsg(time.Now()))

	_, s := next.(ViewerModel).Position()
	assert.Equal(t, 0, s)
	assert.Contains(t, next.View(), "PAUSED")
}

func TestViewerView(t *testing.T) {
	m := NewViewerModel(context.Background(), &fakePoller{}, testViewerConfig())
	next, _ := m.Update(recordsMsg{recs: []*replay.Record{sampleRecord(7, 2)}})

	view := next.View()
	assert.Contains(t, view, "PlayID: 7")
	assert.Contains(t, view, "HighScore: 1.5")
	assert.Contains(t, view, "Left : 1")
	assert.Contains(t, view, "Sample")
	assert.Contains(t, view, "#")

	next, cmd := next.Update(keyMsg("q"))
	require.NotNil(t, cmd)
	assert.Empty(t, next.View())
}

func TestInfoPanel(t *testing.T) {
	lines := InfoPanel(PanelData{
		PlayID: 3,
		Turn: engine.TurnRecord{
			Turn:        10,
			LastReward:  0.05,
			TotalReward: 0.5,
			LastAction:  core.ActionUp | core.ActionButtonA,
		},
		Info:   []string{"Jump"},
		Player: map[string]string{"b": "2", "a": "1"},
	})

	joined := strings.Join(lines, "\n")
	assert.Contains(t, joined, "Turn: 10")
	assert.Contains(t, joined, "This Reward: 0.05")
	assert.Contains(t, joined, "Up   : 1")
	assert.Contains(t, joined, "A    : 1")
	assert.Contains(t, joined, "Left : 0")
	assert.Less(t, strings.Index(joined, "a: 1"), strings.Index(joined, "b: 2"))
}

func TestRenderScreen(t *testing.T) {
	s := core.NewScreen(3, 2)
	s.Fill(' ')
	s.Set(0, 0, 'P')
	s.Set(2, 1, '=')

	out := RenderScreen(s, core.Palette{'P': core.ColorGreen})
	assert.Contains(t, out, "P")
	assert.Contains(t, out, "=")
	assert.Equal(t, 1, strings.Count(out, "\n"))
}

type collectSender struct {
	msgs []tea.Msg
}

func (c *collectSender) Send(msg tea.Msg) {
	c.msgs = append(c.msgs, msg)
}

func TestConsoleObserverSnapshots(t *testing.T) {
	rules := jump.New()
	g := engine.NewGame(rules, agent.NewRandom(rules, 1),
		engine.WithMaxTurns(3),
		engine.WithLogger(log.New(io.Discard)),
	)
	sender := &collectSender{}
	g.AddObserver(NewConsoleObserver(sender))
	g.Play()

	require.GreaterOrEqual(t, len(sender.msgs), 3)
	first := sender.msgs[0].(snapshotMsg)
	last := sender.msgs[len(sender.msgs)-1].(snapshotMsg)
	assert.False(t, first.gameOver)
	assert.True(t, last.gameOver)
	assert.Equal(t, 1, last.panel.PlayID)
	require.NotNil(t, last.screen)

	// Snapshots are copies, not the live screen
	assert.NotSame(t, g.Screen(), last.screen)
}

func TestPlayModelForwardsKeys(t *testing.T) {
	human := agent.NewHuman(time.Millisecond)
	m := NewPlayModel(human)
	assert.Equal(t, "starting...", m.View())

	next, cmd := m.Update(keyMsg("j"))
	assert.Nil(t, cmd)
	assert.Equal(t, core.ActionLeft, human.Action(nil, 0))

	screen := core.NewScreen(2, 1)
	screen.Fill('P')
	next, _ = next.Update(snapshotMsg{screen: screen, panel: PanelData{PlayID: 2}, gameOver: true})
	view := next.View()
	assert.Contains(t, view, "PlayID: 2")
	assert.Contains(t, view, "GAME OVER")

	_, cmd = next.Update(keyMsg("q"))
	assert.NotNil(t, cmd)
}

type fakeBoard struct{}

func (fakeBoard) TopScores(gameID string, _ int) ([]storage.ScoreEntry, error) {
	return []storage.ScoreEntry{
		{GameID: gameID, Agent: "random", Score: 2.5, CreatedAt: time.Now()},
		{GameID: gameID, Agent: "human", Score: 1.25, CreatedAt: time.Now()},
	}, nil
}

func (fakeBoard) GetGameStats(gameID string) (*storage.GameStats, error) {
	return &storage.GameStats{GameID: gameID, Episodes: 2, HighScore: 2.5, AvgScore: 1.875, LastPlayed: time.Now()}, nil
}

func (fakeBoard) ListEpisodes(string, int) ([]storage.EpisodeEntry, error) {
	return []storage.EpisodeEntry{
		{Agent: "random", GameID: "jump", EpisodeID: "20260101T000000Z-3", TotalReward: 2.5, Scenes: 40},
		{Agent: "random", GameID: "other", EpisodeID: "20260101T000000Z-9", TotalReward: 9, Scenes: 10},
	}, nil
}

func TestScoreboardViews(t *testing.T) {
	m := NewScoreboardModel(fakeBoard{}, 120, 40)

	view := m.View()
	assert.Contains(t, view, "REWARDS")
	assert.Contains(t, view, "2.50")
	assert.Contains(t, view, "Episodes: 2")

	next, _ := m.Update(keyMsg("e"))
	view = next.View()
	assert.Contains(t, view, "SAVED EPISODES")
	assert.Contains(t, view, "20260101T000000Z-3")
	assert.NotContains(t, view, "20260101T000000Z-9", "episodes of other games are filtered out")

	_, cmd := next.Update(keyMsg("q"))
	assert.NotNil(t, cmd)
}

func TestStopWaitsForGameOverObservers(t *testing.T) {
	human := agent.NewHuman(time.Millisecond)
	rules := jump.New()
	g := engine.NewGame(rules, human,
		engine.WithMaxTurns(5),
		engine.WithLogger(log.New(io.Discard)),
	)

	var mu sync.Mutex
	finished := 0
	g.AddObserver(&engine.ObserverFuncs{
		GameOver: func(*engine.Game) {
			time.Sleep(50 * time.Millisecond)
			mu.Lock()
			finished++
			mu.Unlock()
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	stop := startEngine(ctx, g, human)
	time.Sleep(10 * time.Millisecond)
	cancel()
	stop()

	mu.Lock()
	defer mu.Unlock()
	assert.GreaterOrEqual(t, finished, 1)
	assert.Equal(t, engine.PhaseGameOver, g.Phase(), "engine must be idle once stop returns")
}
