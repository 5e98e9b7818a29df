// Package jump implements a side-scrolling runner: the ground moves left
// one cell per turn and the player must jump over the gaps in it.
package jump

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/vovakirdan/asciigym/internal/config"
	"github.com/vovakirdan/asciigym/internal/core"
	"github.com/vovakirdan/asciigym/internal/engine"
	"github.com/vovakirdan/asciigym/internal/registry"
)

// Cell codes drawn on the screen.
const (
	Player core.Cell = 'P'
	Block  core.Cell = '='
	Space  core.Cell = ' '
)

// PlayerX is the fixed column of the player.
const PlayerX = 5

// gameCfg stores the tuning set via SetConfig.
var gameCfg = config.DefaultJumpConfig()

// SetConfig sets the tuning used by games created afterwards.
func SetConfig(cfg config.JumpConfig) {
	gameCfg = cfg
}

// State is the jump game world.
type State struct {
	screen      *core.Screen
	PX, PY      int
	Power       int
	JumpingDown bool
}

// Screen returns the rendered grid.
func (s *State) Screen() *core.Screen { return s.screen }

// Clone returns a deep copy of the state.
func (s *State) Clone() engine.State {
	c := *s
	c.screen = s.screen.Clone()
	return &c
}

// Game implements the jump game rules.
type Game struct {
	cfg     config.JumpConfig
	rng     *rand.Rand
	groundY int // Row holding the ground
	pyMax   int // Player row when standing
	width   int
}

// New creates a new jump game with the configured tuning.
func New() *Game {
	return &Game{cfg: gameCfg}
}

// NewWithConfig creates a jump game with explicit tuning.
func NewWithConfig(cfg config.JumpConfig) *Game {
	return &Game{cfg: cfg}
}

// ID returns the unique identifier for this game.
func (g *Game) ID() string {
	return "jump"
}

// Title returns the display name for this game.
func (g *Game) Title() string {
	return "Jump"
}

// PrepareGame builds a fresh course with the player standing on it.
// The RNG is seeded on the first episode and carries over to later ones.
func (g *Game) PrepareGame(cfg core.RuntimeConfig) engine.State {
	if cfg.Width <= PlayerX {
		cfg.Width = core.DefaultWidth
	}
	if cfg.Height < 4 {
		cfg.Height = core.DefaultHeight
	}
	if g.rng == nil {
		seed := cfg.Seed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		g.rng = rand.New(rand.NewSource(seed))
	}

	g.width = cfg.Width
	g.groundY = cfg.Height - 3
	g.pyMax = g.groundY - 1

	s := &State{
		screen: core.NewScreen(cfg.Width, cfg.Height),
		PX:     PlayerX,
		PY:     g.pyMax,
		Power:  g.cfg.InitialPower,
	}
	s.screen.Fill(Space)
	for x := 0; x < cfg.Width; x++ {
		s.screen.Set(x, g.groundY, g.blockOrSpace(g.cfg.InitialSpaceRate))
	}
	s.screen.Set(s.PX, s.PY, Player)
	return s
}

// NextStateAndReward moves the player, scrolls the course and checks
// whether the player fell into a gap.
func (g *Game) NextStateAndReward(state engine.State, action core.Action) (engine.State, float64, bool) {
	s, ok := state.(*State)
	if !ok {
		panic(fmt.Sprintf("jump: unexpected state type %T", state))
	}

	s.screen.Set(s.PX, s.PY, Space)
	g.movePlayer(s, action)

	s.screen.ScrollX(-1)
	s.screen.Set(g.width-1, g.groundY, g.blockOrSpace(g.cfg.SpaceRate))
	s.screen.Set(s.PX, s.PY, Player)

	if s.PY == g.pyMax && s.screen.Get(s.PX, g.groundY) == Space {
		return s, g.cfg.FallPenalty, true
	}
	return s, g.cfg.StepReward, false
}

// movePlayer applies one turn of jump physics. Any key rises while power
// remains; otherwise the player falls back and recharges on the ground.
func (g *Game) movePlayer(s *State, action core.Action) {
	if action > core.ActionNone && s.Power > 0 && !s.JumpingDown {
		s.Power--
		if s.Power == 0 {
			s.JumpingDown = true
		}
		if s.PY > 0 {
			s.PY--
		}
		return
	}
	if s.PY < g.pyMax {
		s.PY++
		s.JumpingDown = true
		return
	}
	if s.Power < g.cfg.PowerMax {
		s.Power++
	}
	s.JumpingDown = false
}

func (g *Game) blockOrSpace(rate float64) core.Cell {
	if g.rng.Float64() < rate {
		return Space
	}
	return Block
}

// EffectiveActions returns the only distinction the game makes: jump or not.
func (g *Game) EffectiveActions() []core.Action {
	return []core.Action{core.ActionNone, core.ActionButtonA}
}

// Palette returns display colors for the game's cells.
func (g *Game) Palette() core.Palette {
	return core.Palette{
		Player: core.ColorGreen,
		Block:  core.ColorYellow,
	}
}

// Register the game on package load
func init() {
	registry.Register("jump", func() engine.Rules { return New() })
}
