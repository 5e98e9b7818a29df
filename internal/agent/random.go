// Package agent provides players for the engine: a seeded random agent
// used for training runs and a keyboard-fed human agent for debug play.
package agent

import (
	"fmt"
	"math/rand"
	"strconv"
	"time"

	"github.com/vovakirdan/asciigym/internal/core"
	"github.com/vovakirdan/asciigym/internal/engine"
)

// Random picks uniformly among a game's effective actions.
// With stickiness s it repeats its previous choice with probability s,
// which gives longer runs of the same key than a pure uniform policy.
type Random struct {
	name       string
	rng        *rand.Rand
	actions    []core.Action
	stickiness float64

	last     core.Action
	lastIdx  int
	sticky   bool
	picks    int
	episodes int
}

// RandomOption configures a Random agent.
type RandomOption func(*Random)

// WithName sets the name used to key stored episodes.
func WithName(name string) RandomOption {
	return func(r *Random) {
		r.name = name
	}
}

// WithStickiness sets the probability of repeating the previous action.
func WithStickiness(p float64) RandomOption {
	return func(r *Random) {
		r.stickiness = core.ClampFloat(p, 0, 1)
	}
}

// WithActions overrides the action set to choose from.
func WithActions(actions []core.Action) RandomOption {
	return func(r *Random) {
		if len(actions) > 0 {
			r.actions = append([]core.Action(nil), actions...)
		}
	}
}

// NewRandom creates a random agent for rules. A zero seed uses the clock.
func NewRandom(rules engine.Rules, seed int64, opts ...RandomOption) *Random {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	r := &Random{
		name:    "random",
		rng:     rand.New(rand.NewSource(seed)),
		actions: engine.EffectiveActions(rules),
		lastIdx: -1,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Action returns the next random action.
func (r *Random) Action(_ engine.State, _ float64) core.Action {
	r.picks++
	if r.lastIdx >= 0 && r.stickiness > 0 && r.rng.Float64() < r.stickiness {
		r.sticky = true
		return r.last
	}
	r.sticky = false
	r.lastIdx = r.rng.Intn(len(r.actions))
	r.last = r.actions[r.lastIdx]
	return r.last
}

// Name returns the agent name.
func (r *Random) Name() string {
	return r.name
}

// TurnInfo reports the last choice for replay scenes.
func (r *Random) TurnInfo() map[string]string {
	return map[string]string{
		"choice": strconv.Itoa(r.lastIdx),
		"action": r.last.String(),
		"sticky": strconv.FormatBool(r.sticky),
	}
}

// InfoLines describes the agent for replay viewers.
func (r *Random) InfoLines() []string {
	return []string{
		fmt.Sprintf("Agent: %s", r.name),
		fmt.Sprintf("Actions: %d  Sticky: %.2f", len(r.actions), r.stickiness),
		fmt.Sprintf("Episodes: %d  Picks: %d", r.episodes, r.picks),
	}
}

// OnGameStart forgets the previous episode's last choice.
func (r *Random) OnGameStart(_ *engine.Game) {
	r.episodes++
	r.lastIdx = -1
	r.last = core.ActionNone
	r.sticky = false
}

// OnUpdate implements engine.Observer.
func (r *Random) OnUpdate(_ *engine.Game) {}

// OnGameOver implements engine.Observer.
func (r *Random) OnGameOver(_ *engine.Game) {}
