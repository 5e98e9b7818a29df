// Package registry maps game ids to rule factories. Game packages register
// themselves from init, so commands only need a blank or direct import.
package registry

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/vovakirdan/asciigym/internal/engine"
)

// ErrUnknownGame is returned by Create for an id nobody registered.
var ErrUnknownGame = errors.New("registry: unknown game")

// GameInfo describes a registered game.
type GameInfo struct {
	ID      string
	Title   string
	Actions int // Number of effective action masks
}

// Factory builds fresh rules. Every call must return an independent
// instance, since each engine owns its rules.
type Factory func() engine.Rules

type entry struct {
	factory Factory
	info    GameInfo
}

var (
	mu      sync.RWMutex
	entries = map[string]entry{}
)

// Register adds a game. It panics on a duplicate id.
func Register(id string, f Factory) {
	// A probe instance supplies the title and action count.
	probe := f()
	info := GameInfo{
		ID:      id,
		Title:   probe.Title(),
		Actions: len(engine.EffectiveActions(probe)),
	}

	mu.Lock()
	defer mu.Unlock()
	if _, dup := entries[id]; dup {
		panic(fmt.Sprintf("registry: game %q already registered", id))
	}
	entries[id] = entry{factory: f, info: info}
}

// List returns every registered game ordered by id.
func List() []GameInfo {
	mu.RLock()
	defer mu.RUnlock()

	out := make([]GameInfo, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.info)
	}
	slices.SortFunc(out, func(a, b GameInfo) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

// Create returns new rules for id.
func Create(id string) (engine.Rules, error) {
	mu.RLock()
	e, ok := entries[id]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownGame, id)
	}
	return e.factory(), nil
}

// Exists reports whether id is registered.
func Exists(id string) bool {
	mu.RLock()
	defer mu.RUnlock()
	_, ok := entries[id]
	return ok
}
