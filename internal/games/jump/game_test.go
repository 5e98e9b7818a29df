package jump

import (
	"testing"

	"github.com/vovakirdan/asciigym/internal/config"
	"github.com/vovakirdan/asciigym/internal/core"
	"github.com/vovakirdan/asciigym/internal/registry"
)

func testRuntime() core.RuntimeConfig {
	return core.RuntimeConfig{Width: 40, Height: 24, Seed: 42}
}

func solidConfig() config.JumpConfig {
	cfg := config.DefaultJumpConfig()
	cfg.SpaceRate = 0
	cfg.InitialSpaceRate = 0
	return cfg
}

func TestPrepareGame(t *testing.T) {
	g := NewWithConfig(solidConfig())
	s := g.PrepareGame(testRuntime()).(*State)

	if s.PX != PlayerX || s.PY != 20 {
		t.Errorf("Expected player at (5,20), got (%d,%d)", s.PX, s.PY)
	}
	if s.Power != 3 {
		t.Errorf("Expected initial power 3, got %d", s.Power)
	}
	if got := s.Screen().Get(PlayerX, 20); got != Player {
		t.Errorf("Expected player cell, got %q", rune(got))
	}
	for x := 0; x < 40; x++ {
		if got := s.Screen().Get(x, 21); got != Block {
			t.Fatalf("Expected solid ground at x=%d, got %q", x, rune(got))
		}
	}
}

func TestJumpArc(t *testing.T) {
	g := NewWithConfig(solidConfig())
	s := g.PrepareGame(testRuntime()).(*State)

	// Three presses use up the initial power
	for i := 1; i <= 3; i++ {
		_, reward, over := g.NextStateAndReward(s, core.ActionButtonA)
		if over {
			t.Fatalf("Unexpected game over on press %d", i)
		}
		if reward != 0.05 {
			t.Errorf("Expected step reward 0.05, got %v", reward)
		}
		if s.PY != 20-i {
			t.Errorf("Press %d: expected py=%d, got %d", i, 20-i, s.PY)
		}
	}
	if !s.JumpingDown || s.Power != 0 {
		t.Fatalf("Expected falling with no power, got jumpingDown=%v power=%d", s.JumpingDown, s.Power)
	}

	// Holding the key while falling does not rise again
	g.NextStateAndReward(s, core.ActionButtonA)
	if s.PY != 18 {
		t.Errorf("Expected py=18 while falling, got %d", s.PY)
	}
	g.NextStateAndReward(s, core.ActionNone)
	g.NextStateAndReward(s, core.ActionNone)
	if s.PY != 20 {
		t.Errorf("Expected to land at py=20, got %d", s.PY)
	}

	// Landing turn recharges power and clears the falling flag
	g.NextStateAndReward(s, core.ActionNone)
	if s.JumpingDown {
		t.Error("Expected jumpingDown cleared on the ground")
	}
	if s.Power != 1 {
		t.Errorf("Expected power 1 after one grounded turn, got %d", s.Power)
	}
}

func TestPowerCapped(t *testing.T) {
	g := NewWithConfig(solidConfig())
	s := g.PrepareGame(testRuntime()).(*State)
	for i := 0; i < 20; i++ {
		g.NextStateAndReward(s, core.ActionNone)
	}
	if s.Power != 8 {
		t.Errorf("Expected power capped at 8, got %d", s.Power)
	}
}

func TestFallIntoGap(t *testing.T) {
	cfg := config.DefaultJumpConfig()
	cfg.SpaceRate = 1
	cfg.InitialSpaceRate = 1
	g := NewWithConfig(cfg)
	s := g.PrepareGame(testRuntime())

	_, reward, over := g.NextStateAndReward(s, core.ActionNone)
	if !over {
		t.Fatal("Expected game over standing over a gap")
	}
	if reward != -1 {
		t.Errorf("Expected reward -1, got %v", reward)
	}
}

func TestJumpOverGap(t *testing.T) {
	cfg := config.DefaultJumpConfig()
	cfg.SpaceRate = 1
	cfg.InitialSpaceRate = 1
	g := NewWithConfig(cfg)
	s := g.PrepareGame(testRuntime())

	// Airborne turns are safe even with no ground at all
	_, _, over := g.NextStateAndReward(s, core.ActionButtonA)
	if over {
		t.Fatal("Expected to survive while airborne")
	}
}

func TestCourseScrollsLeft(t *testing.T) {
	g := NewWithConfig(config.DefaultJumpConfig())
	s := g.PrepareGame(testRuntime()).(*State)
	before := s.Screen().Clone()

	g.NextStateAndReward(s, core.ActionButtonA)
	after := s.Screen()

	for x := 0; x < 39; x++ {
		if after.Get(x, 21) != before.Get(x+1, 21) {
			t.Fatalf("Ground at x=%d did not scroll from x=%d", x, x+1)
		}
	}
}

func TestDeterminism(t *testing.T) {
	run := func() []core.Cell {
		g := NewWithConfig(config.DefaultJumpConfig())
		s := g.PrepareGame(testRuntime())
		for i := 0; i < 30; i++ {
			a := core.ActionNone
			if i%4 == 0 {
				a = core.ActionButtonA
			}
			var over bool
			s, _, over = g.NextStateAndReward(s, a)
			if over {
				break
			}
		}
		return s.Screen().Cells()
	}

	a, b := run(), run()
	if len(a) != len(b) {
		t.Fatalf("Length mismatch: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("Determinism failed at cell %d", i)
		}
	}
}

func TestCloneIndependent(t *testing.T) {
	g := NewWithConfig(solidConfig())
	s := g.PrepareGame(testRuntime()).(*State)
	c := s.Clone().(*State)

	g.NextStateAndReward(s, core.ActionButtonA)
	if c.PY != 20 || c.Screen().Get(PlayerX, 20) != Player {
		t.Error("Clone changed with the live state")
	}
}

func TestEffectiveActions(t *testing.T) {
	got := New().EffectiveActions()
	if len(got) != 2 || got[0] != core.ActionNone || got[1] != core.ActionButtonA {
		t.Errorf("Unexpected effective actions %v", got)
	}
}

func TestRegistered(t *testing.T) {
	rules, err := registry.Create("jump")
	if err != nil {
		t.Fatalf("Expected jump to be registered: %v", err)
	}
	if rules.Title() != "Jump" {
		t.Errorf("Unexpected title %q", rules.Title())
	}
}
