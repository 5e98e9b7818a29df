package agent

import (
	"sync"
	"time"

	"github.com/vovakirdan/asciigym/internal/core"
	"github.com/vovakirdan/asciigym/internal/engine"
)

// DefaultTurnInterval is the length of one human-paced turn.
const DefaultTurnInterval = 100 * time.Millisecond

// Human turns key presses into actions at a fixed turn rate.
// Each Action call waits for the first press within the turn interval,
// then sleeps out the rest of the interval so turns stay evenly paced.
type Human struct {
	keys     chan core.Action
	interval time.Duration
	done     chan struct{}
	once     sync.Once
	sleep    func(time.Duration) <-chan time.Time
}

// NewHuman creates a human agent. interval <= 0 uses DefaultTurnInterval.
func NewHuman(interval time.Duration) *Human {
	if interval <= 0 {
		interval = DefaultTurnInterval
	}
	return &Human{
		keys:     make(chan core.Action, 8),
		interval: interval,
		done:     make(chan struct{}),
		sleep:    time.After,
	}
}

// Press queues an action for the next turn. Drops the press when the
// queue is full so the input side never blocks.
func (h *Human) Press(a core.Action) {
	select {
	case h.keys <- a:
	default:
	}
}

// Close releases a pending Action call; later calls return immediately.
func (h *Human) Close() {
	h.once.Do(func() { close(h.done) })
}

// Action waits for a key press and paces the turn.
func (h *Human) Action(_ engine.State, _ float64) core.Action {
	deadline := h.sleep(h.interval)
	wait := func() {
		select {
		case <-deadline:
		case <-h.done:
		}
	}

	// Keys pressed between turns count for this one
	select {
	case a := <-h.keys:
		wait()
		return a
	default:
	}

	select {
	case a := <-h.keys:
		wait()
		return a
	case <-deadline:
		return core.ActionNone
	case <-h.done:
		return core.ActionNone
	}
}

// Name returns the agent name.
func (h *Human) Name() string {
	return "human"
}
