package treasure

import (
	"github.com/vovakirdan/asciigym/internal/core"
	"github.com/vovakirdan/asciigym/internal/engine"
)

// EnemyKind selects how an enemy steps toward the player.
type EnemyKind int

const (
	// KindChaser steps diagonally straight at the player.
	KindChaser EnemyKind = iota
	// KindWalker steps along one axis only, the one with the larger gap.
	KindWalker
)

// Enemy is a chaser that moves once every Period turns.
type Enemy struct {
	Kind    EnemyKind
	Pos     core.Pos
	Period  int
	Counter int // Turns left until the next move
}

func newEnemy(kind EnemyKind, pos core.Pos, period int) Enemy {
	if period < 1 {
		period = 1
	}
	return Enemy{Kind: kind, Pos: pos, Period: period, Counter: period}
}

// Cell returns the code drawn for this enemy.
func (e Enemy) Cell() core.Cell {
	if e.Kind == KindWalker {
		return WalkerY
	}
	return ChaserX
}

func (e *Enemy) tick(target core.Pos) {
	e.Counter--
	if e.Counter > 0 {
		return
	}
	e.Counter = e.Period

	dx := target.X - e.Pos.X
	dy := target.Y - e.Pos.Y
	switch e.Kind {
	case KindChaser:
		e.Pos = e.Pos.Add(core.Sign(dx), core.Sign(dy))
	case KindWalker:
		if core.Abs(dx) <= core.Abs(dy) {
			e.Pos.Y += core.Sign(dy)
		} else {
			e.Pos.X += core.Sign(dx)
		}
	}
}

// Item is a treasure with its remaining lifetime in turns.
type Item struct {
	Pos  core.Pos
	Life int
}

// State is the treasure game world.
type State struct {
	screen    *core.Screen
	Player    core.Pos
	Enemies   []Enemy
	Treasures []Item
	PopTimer  int
}

// Screen returns the rendered grid.
func (s *State) Screen() *core.Screen { return s.screen }

// Clone returns a deep copy of the state.
func (s *State) Clone() engine.State {
	c := *s
	c.screen = s.screen.Clone()
	c.Enemies = append([]Enemy(nil), s.Enemies...)
	c.Treasures = append([]Item(nil), s.Treasures...)
	return &c
}

func (s *State) occupied(pos core.Pos) bool {
	if pos == s.Player {
		return true
	}
	for _, e := range s.Enemies {
		if e.Pos == pos {
			return true
		}
	}
	for _, t := range s.Treasures {
		if t.Pos == pos {
			return true
		}
	}
	return false
}

// ageTreasures decrements every lifetime and drops expired treasures.
func (s *State) ageTreasures() {
	kept := s.Treasures[:0]
	for _, t := range s.Treasures {
		t.Life--
		if t.Life > 0 {
			kept = append(kept, t)
		}
	}
	s.Treasures = kept
}

// collect removes treasures at pos and returns how many were taken.
func (s *State) collect(pos core.Pos) int {
	n := 0
	kept := s.Treasures[:0]
	for _, t := range s.Treasures {
		if t.Pos == pos {
			n++
			continue
		}
		kept = append(kept, t)
	}
	s.Treasures = kept
	return n
}

// draw renders treasures, then the player, then enemies on top.
func (s *State) draw() {
	s.screen.Fill(Space)
	for _, t := range s.Treasures {
		s.screen.Set(t.Pos.X, t.Pos.Y, Treasure)
	}
	s.screen.Set(s.Player.X, s.Player.Y, Player)
	for _, e := range s.Enemies {
		s.screen.Set(e.Pos.X, e.Pos.Y, e.Cell())
	}
}
