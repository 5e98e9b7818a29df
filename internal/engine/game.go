package engine

import (
	"context"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/vovakirdan/asciigym/internal/core"
)

// Game runs episodes of one Rules implementation with one Agent.
// A Game is not safe for concurrent use; observers run on its goroutine.
type Game struct {
	rules     Rules
	agent     Agent
	config    core.RuntimeConfig
	observers []Observer
	logger    *log.Logger
	maxTurns  int
	runID     string
	info      []string
	now       func() time.Time

	phase          Phase
	state          State
	turn           int
	lastReward     float64
	totalReward    float64
	lastAction     core.Action
	gameOver       bool
	highScore      float64
	playID         int
	invalidActions int
	startedAt      time.Time
}

// Option configures a Game.
type Option func(*Game)

// WithConfig sets the runtime config handed to PrepareGame.
func WithConfig(cfg core.RuntimeConfig) Option {
	return func(g *Game) {
		g.config = cfg
	}
}

// WithMaxTurns ends an episode after n turns. 0 means unlimited.
func WithMaxTurns(n int) Option {
	return func(g *Game) {
		g.maxTurns = n
	}
}

// WithLogger sets the logger used for engine diagnostics.
func WithLogger(l *log.Logger) Option {
	return func(g *Game) {
		if l != nil {
			g.logger = l
		}
	}
}

// WithRunID overrides the generated run identifier.
func WithRunID(id string) Option {
	return func(g *Game) {
		g.runID = id
	}
}

// WithInfo adds free-form info lines published with every replay.
func WithInfo(lines ...string) Option {
	return func(g *Game) {
		g.info = append(g.info, lines...)
	}
}

// WithClock replaces time.Now for episode start stamps.
func WithClock(now func() time.Time) Option {
	return func(g *Game) {
		g.now = now
	}
}

// NewGame creates a game for the given rules and agent.
// If the agent also implements Observer it is registered first.
func NewGame(rules Rules, agent Agent, opts ...Option) *Game {
	g := &Game{
		rules:  rules,
		agent:  agent,
		config: core.DefaultConfig(),
		logger: log.NewWithOptions(os.Stderr, log.Options{
			ReportTimestamp: true,
			Prefix:          "engine",
		}),
		runID: uuid.NewString(),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	if o, ok := agent.(Observer); ok {
		g.AddObserver(o)
	}
	return g
}

// Start resets per-episode bookkeeping, prepares the initial state and
// notifies observers. The play id increments once per episode.
func (g *Game) Start() {
	g.state = nil
	g.turn = 0
	g.lastReward = 0
	g.totalReward = 0
	g.lastAction = core.ActionNone
	g.gameOver = false
	g.invalidActions = 0
	g.playID++
	g.startedAt = g.now()

	g.state = g.rules.PrepareGame(g.config)
	g.phase = PhasePlaying
	g.notifyGameStart()
}

// Step plays one turn. Returns false once the episode is over.
func (g *Game) Step() bool {
	if g.phase != PhasePlaying || g.gameOver {
		return false
	}

	g.turn++
	action := g.agent.Action(g.state, g.lastReward)
	if !g.IsValidAction(action) {
		g.logger.Debug("invalid action replaced with none",
			"game", g.rules.ID(),
			"turn", g.turn,
			"action", int(action),
		)
		g.invalidActions++
		action = core.ActionNone
	}

	next, reward, over := g.rules.NextStateAndReward(g.state, action)
	g.state = next
	g.lastReward = reward
	g.lastAction = action
	g.totalReward += reward
	if over || (g.maxTurns > 0 && g.turn >= g.maxTurns) {
		g.gameOver = true
	}

	g.notifyUpdate()
	return !g.gameOver
}

// finish notifies observers of the game over and then raises the high score.
// Observers therefore still see the previous high score.
func (g *Game) finish() {
	g.phase = PhaseGameOver
	g.notifyGameOver()
	if g.highScore < g.totalReward {
		g.highScore = g.totalReward
	}
}

// Play runs one full episode and returns its total reward.
func (g *Game) Play() float64 {
	g.Start()
	for g.Step() {
	}
	g.finish()
	return g.totalReward
}

// PlayEpisodes runs n episodes, or forever when n <= 0, stopping early
// between episodes when ctx is cancelled. Returns the number played.
func (g *Game) PlayEpisodes(ctx context.Context, n int) int {
	played := 0
	for n <= 0 || played < n {
		if ctx.Err() != nil {
			break
		}
		g.Play()
		played++
	}
	return played
}

// IsValidAction applies the game's validator, or the default range check.
func (g *Game) IsValidAction(a core.Action) bool {
	if v, ok := g.rules.(ActionValidator); ok {
		return v.IsValidAction(a)
	}
	return a.Valid()
}

// Rules returns the game rules.
func (g *Game) Rules() Rules { return g.rules }

// Agent returns the agent playing this game.
func (g *Game) Agent() Agent { return g.agent }

// Config returns the runtime config.
func (g *Game) Config() core.RuntimeConfig { return g.config }

// State returns the live state. Callers must not mutate it.
func (g *Game) State() State { return g.state }

// Phase returns the current state machine phase.
func (g *Game) Phase() Phase { return g.phase }

// Turn returns the number of turns played in the current episode.
func (g *Game) Turn() int { return g.turn }

// LastReward returns the reward of the latest turn.
func (g *Game) LastReward() float64 { return g.lastReward }

// TotalReward returns the accumulated reward of the current episode.
func (g *Game) TotalReward() float64 { return g.totalReward }

// LastAction returns the action applied in the latest turn, after validation.
func (g *Game) LastAction() core.Action { return g.lastAction }

// HighScore returns the best total reward of any finished episode.
func (g *Game) HighScore() float64 { return g.highScore }

// PlayID returns the 1-based index of the current episode.
func (g *Game) PlayID() int { return g.playID }

// IsGameOver reports whether the current episode has ended.
func (g *Game) IsGameOver() bool { return g.gameOver }

// InvalidActions returns how many actions were coerced this episode.
func (g *Game) InvalidActions() int { return g.invalidActions }

// StartedAt returns when the current episode started.
func (g *Game) StartedAt() time.Time { return g.startedAt }

// RunID identifies this process's game instance.
func (g *Game) RunID() string { return g.runID }

// Screen returns the live screen of the current state, or nil before Start.
func (g *Game) Screen() *core.Screen {
	if g.state == nil {
		return nil
	}
	return g.state.Screen()
}

// AgentName returns the agent's name, or the game id when it has none.
func (g *Game) AgentName() string {
	if n, ok := g.agent.(NamedAgent); ok && n.Name() != "" {
		return n.Name()
	}
	return g.rules.ID()
}

// TurnRecord returns a snapshot of the current turn bookkeeping.
func (g *Game) TurnRecord() TurnRecord {
	return TurnRecord{
		Turn:        g.turn,
		LastReward:  g.lastReward,
		TotalReward: g.totalReward,
		LastAction:  g.lastAction,
	}
}

// TurnInfo returns the agent's per-turn diagnostics, if any.
func (g *Game) TurnInfo() map[string]string {
	if t, ok := g.agent.(TurnInfoer); ok {
		return t.TurnInfo()
	}
	return nil
}

// MetaInfo describes the current episode.
func (g *Game) MetaInfo() MetaInfo {
	meta := MetaInfo{
		PlayID:    g.playID,
		HighScore: g.highScore,
		Keymap:    core.Keymap(),
		Player: map[string]string{
			"name": g.AgentName(),
		},
		GameID:    g.rules.ID(),
		AgentName: g.AgentName(),
		RunID:     g.runID,
		StartedAt: g.startedAt,
	}
	if p, ok := g.rules.(Paletter); ok {
		meta.Palette = p.Palette()
	}
	return meta
}

// Info returns the free-form info lines for the current episode.
func (g *Game) Info() []string {
	lines := []string{g.rules.Title()}
	lines = append(lines, g.info...)
	if l, ok := g.agent.(InfoLiner); ok {
		lines = append(lines, l.InfoLines()...)
	}
	return lines
}

// EffectiveActions returns the meaningful masks of rules, or the full
// 6-bit space when the game does not narrow it.
func EffectiveActions(rules Rules) []core.Action {
	if e, ok := rules.(EffectiveActioner); ok {
		if acts := e.EffectiveActions(); len(acts) > 0 {
			return acts
		}
	}
	return core.AllActions()
}
