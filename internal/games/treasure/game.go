// Package treasure implements a treasure hunt: the player collects '$'
// cells that appear and expire over time while two enemies chase it.
package treasure

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
	Space    core.Cell = ' '
	Player   core.Cell = 'A'
	Treasure core.Cell = '$'
	ChaserX  core.Cell = 'X'
	WalkerY  core.Cell = 'Y'
)

// maxPopAttempts bounds the search for a free cell when placing treasure.
const maxPopAttempts = 1000

// gameCfg stores the tuning set via SetConfig.
var gameCfg = config.DefaultTreasureConfig()

// SetConfig sets the tuning used by games created afterwards.
func SetConfig(cfg config.TreasureConfig) {
	gameCfg = cfg
}

// Game implements the treasure hunt rules.
type Game struct {
	cfg    config.TreasureConfig
	rng    *rand.Rand
	width  int
	height int
}

// New creates a new treasure game with the configured tuning.
func New() *Game {
	return &Game{cfg: gameCfg}
}

// NewWithConfig creates a treasure game with explicit tuning.
func NewWithConfig(cfg config.TreasureConfig) *Game {
	return &Game{cfg: cfg}
}

// ID returns the unique identifier for this game.
func (g *Game) ID() string {
	return "treasure"
}

// Title returns the display name for this game.
func (g *Game) Title() string {
	return "Treasure Hunt"
}

// PrepareGame places the player in the center, the enemies in opposite
// corners and the initial treasures on free cells.
func (g *Game) PrepareGame(cfg core.RuntimeConfig) engine.State {
	if cfg.Width < 7 {
		cfg.Width = core.DefaultWidth
	}
	if cfg.Height < 7 {
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
	g.height = cfg.Height

	s := &State{
		screen: core.NewScreen(cfg.Width, cfg.Height),
		Player: core.Pos{X: cfg.Width / 2, Y: cfg.Height / 2},
		Enemies: []Enemy{
			newEnemy(KindChaser, core.Pos{X: 3, Y: 3}, g.cfg.ChaserPeriod),
			newEnemy(KindWalker, core.Pos{X: cfg.Width - 3, Y: cfg.Height - 3}, g.cfg.WalkerPeriod),
		},
	}
	for i := 0; i < g.cfg.InitialTreasures; i++ {
		g.popTreasure(s)
	}
	s.draw()
	return s
}

// NextStateAndReward runs one turn: the player moves, enemies move,
// treasures age and new ones appear, then rewards are settled.
func (g *Game) NextStateAndReward(state engine.State, action core.Action) (engine.State, float64, bool) {
	s, ok := state.(*State)
	if !ok {
		panic(fmt.Sprintf("treasure: unexpected state type %T", state))
	}

	g.movePlayer(s, action)
	for i := range s.Enemies {
		s.Enemies[i].tick(s.Player)
	}
	s.ageTreasures()

	s.PopTimer++
	if s.PopTimer >= g.cfg.PopSpan {
		s.PopTimer = 0
		g.popTreasure(s)
	}

	reward := 0.0
	if !g.isEffective(action) {
		reward += g.cfg.KeyPenalty
	}
	reward += g.cfg.TreasureReward * float64(s.collect(s.Player))

	gameOver := false
	for _, e := range s.Enemies {
		if e.Pos == s.Player {
			reward = g.cfg.CaughtPenalty
			gameOver = true
			break
		}
	}

	s.draw()
	return s, reward, gameOver
}

func (g *Game) movePlayer(s *State, action core.Action) {
	p := &s.Player
	if action.Has(core.ActionLeft) && p.X > 0 {
		p.X--
	}
	if action.Has(core.ActionRight) && p.X < g.width-1 {
		p.X++
	}
	if action.Has(core.ActionUp) && p.Y > 0 {
		p.Y--
	}
	if action.Has(core.ActionDown) && p.Y < g.height-1 {
		p.Y++
	}
}

// popTreasure places a treasure on a random unoccupied cell.
// Gives up silently when no free cell is found in maxPopAttempts tries.
func (g *Game) popTreasure(s *State) {
	for i := 0; i < maxPopAttempts; i++ {
		pos := core.Pos{X: g.rng.Intn(g.width), Y: g.rng.Intn(g.height)}
		if s.occupied(pos) {
			continue
		}
		s.Treasures = append(s.Treasures, Item{Pos: pos, Life: g.cfg.TreasureLife})
		return
	}
}

func (g *Game) isEffective(action core.Action) bool {
	for _, a := range g.EffectiveActions() {
		if a == action {
			return true
		}
	}
	return false
}

// EffectiveActions returns every combination of at most one vertical and
// one horizontal direction.
func (g *Game) EffectiveActions() []core.Action {
	out := make([]core.Action, 0, 9)
	for _, v := range []core.Action{core.ActionNone, core.ActionUp, core.ActionDown} {
		for _, h := range []core.Action{core.ActionNone, core.ActionLeft, core.ActionRight} {
			out = append(out, v|h)
		}
	}
	return out
}

// Palette returns display colors for the game's cells.
func (g *Game) Palette() core.Palette {
	return core.Palette{
		Player:   core.ColorCyan,
		Treasure: core.ColorYellow,
		ChaserX:  core.ColorRed,
		WalkerY:  core.ColorMagenta,
	}
}

// Register the game on package load
func init() {
	registry.Register("treasure", func() engine.Rules { return New() })
}
