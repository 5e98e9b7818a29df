package replay

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/asciigym/internal/core"
	"github.com/vovakirdan/asciigym/internal/engine"
)

// tickState draws the turn count into the first cell.
type tickState struct {
	screen *core.Screen
	turn   int
}

func (s *tickState) Screen() *core.Screen { return s.screen }
func (s *tickState) Clone() engine.State {
	return &tickState{screen: s.screen.Clone(), turn: s.turn}
}

type tickRules struct {
	reward float64
}

func (r *tickRules) ID() string    { return "tick" }
func (r *tickRules) Title() string { return "Tick" }
func (r *tickRules) PrepareGame(cfg core.RuntimeConfig) engine.State {
	return &tickState{screen: core.NewScreen(cfg.Width, cfg.Height)}
}
func (r *tickRules) NextStateAndReward(s engine.State, _ core.Action) (engine.State, float64, bool) {
	st := s.(*tickState)
	st.turn++
	st.screen.Set(0, 0, core.Cell(st.turn))
	return st, r.reward, false
}

type idleAgent struct{}

func (idleAgent) Action(engine.State, float64) core.Action { return core.ActionNone }
func (idleAgent) Name() string                              { return "idle" }
func (idleAgent) TurnInfo() map[string]string               { return map[string]string{"q": "0.5"} }

type memRepo struct {
	mu    sync.Mutex
	saved map[string][]*Record
	calls int
	err   error
}

func newMemRepo() *memRepo {
	return &memRepo{saved: make(map[string][]*Record)}
}

func (m *memRepo) SaveEpisode(agent, _ string, rec *Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return m.err
	}
	m.saved[agent] = append(m.saved[agent], rec)
	return nil
}

func (m *memRepo) LoadAllEpisodes(agent string) ([]*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saved[agent], nil
}

func quietLogger() *log.Logger {
	return log.New(io.Discard)
}

func newTestGame(reward float64, maxTurns int, rec *Recorder) *engine.Game {
	g := engine.NewGame(&tickRules{reward: reward}, idleAgent{},
		engine.WithConfig(core.RuntimeConfig{Width: 8, Height: 4, Seed: 1}),
		engine.WithMaxTurns(maxTurns),
		engine.WithLogger(quietLogger()),
	)
	g.AddObserver(rec)
	return g
}

func startServer(t *testing.T, src Source) (*Server, string) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	srv := NewServer(ln.Addr().String(), src,
		WithServerLogger(quietLogger()),
		WithReadTimeout(200*time.Millisecond),
	)
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()
	<-srv.Ready()

	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Error("server did not stop")
		}
	})
	return srv, ln.Addr().String()
}

// rawRequest sends payload, closes the write side and returns every byte received.
func rawRequest(t *testing.T, addr, payload string) []byte {
	t.Helper()
	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer conn.Close()
	if payload != "" {
		_, err = io.WriteString(conn, payload)
		require.NoError(t, err)
	}
	require.NoError(t, conn.(*net.TCPConn).CloseWrite())
	data, err := io.ReadAll(conn)
	require.NoError(t, err)
	return data
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		token string
		want  Mode
	}{
		{"LAST", ModeLastCompleted},
		{"CURRENT", ModeCurrent},
		{"HIGHSCORES", ModeHighScores},
		{"current\n", ModeCurrent},
		{"ALL_HIGH_SCORES", ModeHighScores},
		{"", ModeLastCompleted},
		{"garbage", ModeLastCompleted},
		{"\x00\xff", ModeLastCompleted},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, ParseMode(tc.token), "token %q", tc.token)
	}

	_, ok := LookupMode("nope")
	assert.False(t, ok)
	for _, m := range []Mode{ModeLastCompleted, ModeCurrent, ModeHighScores} {
		assert.Equal(t, m, ParseMode(m.Token()))
	}
}

func TestRecorderCapsScenes(t *testing.T) {
	rec := NewRecorder(WithMaxScenes(3), WithRecorderLogger(quietLogger()))
	g := newTestGame(1, 10, rec)

	g.Start()
	for i := 0; i < 5; i++ {
		g.Step()
	}
	// Flushed early while the episode is still running
	last := rec.Last()
	require.NotNil(t, last)
	assert.Equal(t, 3, last.Len())
	assert.True(t, last.Truncated)

	for g.Step() {
	}
	assert.Equal(t, 10, g.Turn())
	assert.LessOrEqual(t, rec.Current().Len(), 3)
}

func TestRecorderSceneContents(t *testing.T) {
	rec := NewRecorder(WithRecorderLogger(quietLogger()))
	g := newTestGame(0.5, 2, rec)
	g.Play()

	last := rec.Last()
	require.NotNil(t, last)
	assert.Equal(t, 8, last.Width)
	assert.Equal(t, 4, last.Height)
	assert.Equal(t, 1, last.Meta.PlayID)
	assert.Equal(t, "idle", last.Meta.AgentName)
	assert.Equal(t, []string{"Tick"}, last.Info)
	require.Equal(t, 2, last.Len())
	assert.Equal(t, 1.0, last.TotalReward())
	assert.Equal(t, "0.5", last.Scenes[0].Player["q"])
	assert.Equal(t, core.Cell(2), last.Screen(1).Get(0, 0))
	assert.Nil(t, last.Screen(5))
	assert.False(t, last.Truncated)
}

func TestPublishedRecordsAreImmutable(t *testing.T) {
	rec := NewRecorder(WithRecorderLogger(quietLogger()))
	g := newTestGame(1, 0, rec)

	g.Start()
	g.Step()
	g.Step()
	held := rec.Current()
	firstCell := held.Scenes[1].Screen[0]

	for i := 0; i < 20; i++ {
		g.Step()
	}
	assert.Equal(t, 2, held.Len())
	assert.Equal(t, firstCell, held.Scenes[1].Screen[0])
	assert.Equal(t, 22, rec.Current().Len())
}

func TestHighScoreSavedOnce(t *testing.T) {
	repo := newMemRepo()
	rec := NewRecorder(WithRepository(repo), WithRecorderLogger(quietLogger()))
	g := newTestGame(1, 3, rec)

	g.Play()
	assert.Equal(t, 1, repo.calls, "first positive episode beats the zero high score")

	// Same total does not beat the high score
	g.Play()
	assert.Equal(t, 1, repo.calls)

	recs, err := rec.HighScores()
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, 3.0, recs[0].TotalReward())
}

func TestLowScoreNotSaved(t *testing.T) {
	repo := newMemRepo()
	rec := NewRecorder(WithRepository(repo), WithRecorderLogger(quietLogger()))
	g := newTestGame(-1, 3, rec)

	g.Play()
	g.Play()
	assert.Equal(t, 0, repo.calls)
	assert.Equal(t, 0, rec.SaveAttempts())
}

func TestSaveFailureDoesNotStopGame(t *testing.T) {
	repo := newMemRepo()
	repo.err = errors.New("disk full")
	rec := NewRecorder(WithRepository(repo), WithRecorderLogger(quietLogger()))
	g := newTestGame(1, 2, rec)

	assert.Equal(t, 2.0, g.Play())
	assert.Equal(t, 1, repo.calls)
	assert.NotNil(t, rec.Last())
}

func TestCodecRoundTrip(t *testing.T) {
	rec := NewRecorder(WithRecorderLogger(quietLogger()))
	g := newTestGame(1, 3, rec)
	g.Play()

	frame, err := EncodeRecord(rec.Last())
	require.NoError(t, err)
	recs, err := DecodeFrame(frame)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, rec.Last().Scenes, recs[0].Scenes)
	assert.Equal(t, rec.Last().Meta.Keymap, recs[0].Meta.Keymap)
}

func TestCodecErrors(t *testing.T) {
	empty, err := EncodeRecord(nil)
	require.NoError(t, err)
	_, err = DecodeFrame(empty)
	assert.ErrorIs(t, err, ErrNoRecord)

	_, err = DecodeFrame(nil)
	assert.ErrorIs(t, err, ErrNoRecord)

	good, err := EncodeRecord(NewRecord(2, 2, engine.MetaInfo{PlayID: 1}, nil))
	require.NoError(t, err)

	tests := map[string][]byte{
		"short header": good[:5],
		"truncated":    good[:len(good)-1],
		"bad magic":    append([]byte("XXXX"), good[4:]...),
		"bad version":  append(append([]byte{}, good[:4]...), append([]byte{9}, good[5:]...)...),
		"bad kind":     append(append([]byte{}, good[:5]...), append([]byte{42}, good[6:]...)...),
		"pickle bytes": []byte("\x80\x02}q\x00(U\x05widthq\x01K(u."),
	}
	for name, data := range tests {
		_, err := DecodeFrame(data)
		assert.ErrorIs(t, err, ErrBadFrame, name)
	}
}

func TestServeCurrentInProgress(t *testing.T) {
	rec := NewRecorder(WithRecorderLogger(quietLogger()))
	g := newTestGame(1, 0, rec)
	g.Start()
	for i := 0; i < 3; i++ {
		g.Step()
	}

	_, addr := startServer(t, rec)
	recs, err := NewClient(addr).Poll(context.Background(), ModeCurrent)
	require.NoError(t, err)
	require.Len(t, recs, 1)

	got := recs[0]
	assert.Equal(t, 3, got.Len())
	assert.Equal(t, 8, got.Width)
	assert.Equal(t, 4, got.Height)
	for _, sc := range got.Scenes {
		assert.Len(t, sc.Screen, got.Width*got.Height)
	}
}

func TestServeLastIsIdempotent(t *testing.T) {
	rec := NewRecorder(WithRecorderLogger(quietLogger()))
	g := newTestGame(1, 4, rec)
	g.Play()

	_, addr := startServer(t, rec)
	first := rawRequest(t, addr, TokenLast+"\n")
	second := rawRequest(t, addr, TokenLast+"\n")
	require.NotEmpty(t, first)
	assert.Equal(t, first, second)
}

func TestServeLastStableAcrossOtherModes(t *testing.T) {
	rec := NewRecorder(WithRecorderLogger(quietLogger()))
	g := newTestGame(1, 4, rec)
	g.Play()
	g.Start()
	g.Step()

	_, addr := startServer(t, rec)
	want := rawRequest(t, addr, TokenLast+"\n")
	require.NotEmpty(t, want)

	for i := 0; i < 20; i++ {
		current := rawRequest(t, addr, TokenCurrent+"\n")
		require.NotEmpty(t, current)
		got := rawRequest(t, addr, TokenLast+"\n")
		require.Equal(t, want, got, "round %d", i)
	}
}

func TestServeUnknownTokenFallsBackToLast(t *testing.T) {
	rec := NewRecorder(WithRecorderLogger(quietLogger()))
	g := newTestGame(1, 4, rec)
	g.Play()
	g.Start()
	g.Step()

	_, addr := startServer(t, rec)
	want := rawRequest(t, addr, TokenLast+"\n")

	for _, payload := range []string{"BOGUS\n", "", "\x00\x01\x02"} {
		got := rawRequest(t, addr, payload)
		assert.Equal(t, want, got, "payload %q", payload)
	}

	recs, err := DecodeFrame(want)
	require.NoError(t, err)
	assert.Equal(t, 1, recs[0].Meta.PlayID)
	assert.Equal(t, 4, recs[0].Len())
}

func TestServeNothingRecorded(t *testing.T) {
	_, addr := startServer(t, NewRecorder(WithRecorderLogger(quietLogger())))

	for _, mode := range []Mode{ModeLastCompleted, ModeCurrent, ModeHighScores} {
		_, err := NewClient(addr).Poll(context.Background(), mode)
		assert.ErrorIs(t, err, ErrNoRecord, mode.String())
	}
}

func TestServeHighScores(t *testing.T) {
	repo := newMemRepo()
	rec := NewRecorder(WithRepository(repo), WithRecorderLogger(quietLogger()))
	rules := &tickRules{reward: 1}
	g := engine.NewGame(rules, idleAgent{},
		engine.WithConfig(core.RuntimeConfig{Width: 8, Height: 4}),
		engine.WithMaxTurns(2),
		engine.WithLogger(quietLogger()),
	)
	g.AddObserver(rec)

	g.Play()
	rules.reward = 2
	g.Play()
	require.Equal(t, 2, repo.calls)

	_, addr := startServer(t, rec)
	recs, err := NewClient(addr).Poll(context.Background(), ModeHighScores)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, 1, recs[0].Meta.PlayID)
	assert.Equal(t, 2, recs[1].Meta.PlayID)
	assert.Equal(t, 4.0, recs[1].TotalReward())
}

func TestServerSurvivesBrokenConnections(t *testing.T) {
	rec := NewRecorder(WithRecorderLogger(quietLogger()))
	g := newTestGame(1, 1, rec)
	g.Play()
	_, addr := startServer(t, rec)

	// Connect and hang up without reading
	for i := 0; i < 3; i++ {
		conn, err := net.Dial("tcp", addr)
		require.NoError(t, err)
		conn.Close()
	}

	recs, err := NewClient(addr).Poll(context.Background(), ModeLastCompleted)
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}

func TestListenFailureIsReturned(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	srv := NewServer(ln.Addr().String(), NewRecorder(), WithServerLogger(quietLogger()))
	err = srv.ListenAndServe(context.Background())
	assert.Error(t, err)
	assert.Nil(t, srv.Addr())
}

func TestClientConnectError(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	ln.Close()

	_, err = NewClient(addr).Poll(context.Background(), ModeLastCompleted)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoRecord)
}

func TestPacerRemainingNeverNegative(t *testing.T) {
	p := NewPacer(50 * time.Millisecond)
	now := time.Now()
	p.now = func() time.Time { return now }

	assert.Equal(t, 50*time.Millisecond, p.Remaining(now))
	assert.Equal(t, 20*time.Millisecond, p.Remaining(now.Add(-30*time.Millisecond)))
	assert.Equal(t, time.Duration(0), p.Remaining(now.Add(-time.Second)))
}

func TestPacerPlay(t *testing.T) {
	rec := NewRecord(1, 1, engine.MetaInfo{}, nil)
	for i := 0; i < 4; i++ {
		rec = rec.withScene(Scene{Screen: []core.Cell{core.Cell(i)}})
	}

	p := NewPacer(0)
	assert.Equal(t, DefaultTurnInterval, p.Interval())
	var slept []time.Duration
	p.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}

	var seen []int
	err := p.Play(context.Background(), rec, func(i int, sc Scene) error {
		seen = append(seen, int(sc.Screen[0]))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2, 3}, seen)
	assert.Len(t, slept, 4)
	for _, d := range slept {
		assert.Greater(t, d, time.Duration(0))
		assert.LessOrEqual(t, d, DefaultTurnInterval)
	}
}

func TestPacerStopsOnCancel(t *testing.T) {
	rec := NewRecord(1, 1, engine.MetaInfo{}, nil)
	rec = rec.withScene(Scene{}).withScene(Scene{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	calls := 0
	err := NewPacer(time.Hour).Play(ctx, rec, func(int, Scene) error {
		calls++
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}
