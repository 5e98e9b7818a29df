// Package engine drives turn-based games: it asks an agent for an action,
// applies the game's transition rules, accumulates reward and notifies
// observers at the start, every turn and the end of each episode.
package engine

import (
	"time"

	"github.com/vovakirdan/asciigym/internal/core"
)

// State is a game-specific snapshot of the world.
// The engine owns the live state during an episode; observers and agents
// may read it but must not mutate it, and must Clone anything they keep.
type State interface {
	// Screen returns the grid embedded in the state.
	Screen() *core.Screen

	// Clone returns a deep copy, independent of the live state.
	Clone() State
}

// Rules is the contract every concrete game implements.
type Rules interface {
	// ID returns a unique identifier for this game (e.g., "jump").
	ID() string

	// Title returns a human-readable name for display.
	Title() string

	// PrepareGame builds the initial state of a new episode.
	PrepareGame(cfg core.RuntimeConfig) State

	// NextStateAndReward applies one action and returns the next state,
	// the reward earned this turn and whether the episode has ended.
	// The action has already been validated.
	NextStateAndReward(state State, action core.Action) (next State, reward float64, gameOver bool)
}

// ActionValidator lets a game override the default [0, 64) range check.
type ActionValidator interface {
	IsValidAction(action core.Action) bool
}

// EffectiveActioner enumerates the masks a game treats as meaningful.
// Used for reward shaping and exploration, never by the engine loop.
type EffectiveActioner interface {
	EffectiveActions() []core.Action
}

// Paletter lets a game publish display colors for its cell codes.
type Paletter interface {
	Palette() core.Palette
}

// Agent chooses an action from the current state and the previous reward.
type Agent interface {
	Action(state State, lastReward float64) core.Action
}

// NamedAgent is implemented by agents that identify themselves.
// The name keys high-score episodes in storage.
type NamedAgent interface {
	Name() string
}

// TurnInfoer is implemented by agents that attach diagnostics to each
// recorded replay scene.
type TurnInfoer interface {
	TurnInfo() map[string]string
}

// InfoLiner is implemented by agents that publish free-form description
// lines (model name, learn count, ...) shown next to replays.
type InfoLiner interface {
	InfoLines() []string
}

// Observer is notified of episode lifecycle events.
// Notifications are synchronous and run on the engine goroutine, so an
// observer that blocks stalls the game. Per-episode state must be reset
// in OnGameStart; observers live for the whole process.
type Observer interface {
	OnGameStart(g *Game)
	OnUpdate(g *Game)
	OnGameOver(g *Game)
}

// Phase is the engine's position in the episode state machine.
type Phase int

const (
	PhaseNotStarted Phase = iota
	PhasePlaying
	PhaseGameOver
)

// String returns a human-readable name for the phase.
func (p Phase) String() string {
	switch p {
	case PhaseNotStarted:
		return "NotStarted"
	case PhasePlaying:
		return "Playing"
	case PhaseGameOver:
		return "GameOver"
	default:
		return "Unknown"
	}
}

// TurnRecord is a value snapshot of the reward bookkeeping after a turn.
type TurnRecord struct {
	Turn        int
	LastReward  float64
	TotalReward float64
	LastAction  core.Action
}

// MetaInfo describes an episode for replay viewers and storage.
type MetaInfo struct {
	PlayID    int
	HighScore float64
	Keymap    map[string]int
	Player    map[string]string
	GameID    string
	AgentName string
	RunID     string
	StartedAt time.Time
	Palette   core.Palette
}
