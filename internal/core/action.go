package core

import "strings"

// Action is a bitmask over the six virtual controller keys.
// Multiple keys may be held in the same turn (e.g. ActionUp|ActionLeft).
type Action int

const (
	ActionNone Action = 0

	ActionUp      Action = 1 << 0
	ActionDown    Action = 1 << 1
	ActionRight   Action = 1 << 2
	ActionLeft    Action = 1 << 3
	ActionButtonA Action = 1 << 4
	ActionButtonB Action = 1 << 5

	// ActionMax is one past the largest valid mask.
	ActionMax Action = 1 << 6
)

var actionNames = []struct {
	flag Action
	name string
}{
	{ActionUp, "UP"},
	{ActionDown, "DOWN"},
	{ActionRight, "RIGHT"},
	{ActionLeft, "LEFT"},
	{ActionButtonA, "A"},
	{ActionButtonB, "B"},
}

// Valid reports whether a is within the 6-bit action space.
func (a Action) Valid() bool {
	return a >= 0 && a < ActionMax
}

// Has reports whether every bit of flag is set in a.
func (a Action) Has(flag Action) bool {
	return flag != 0 && a&flag == flag
}

// String returns the held keys joined with "|", or "NONE".
func (a Action) String() string {
	if a == ActionNone {
		return "NONE"
	}
	if !a.Valid() {
		return "INVALID"
	}
	parts := make([]string, 0, len(actionNames))
	for _, n := range actionNames {
		if a.Has(n.flag) {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, "|")
}

// AllActions returns every valid mask, 0 through 63.
func AllActions() []Action {
	out := make([]Action, 0, int(ActionMax))
	for a := ActionNone; a < ActionMax; a++ {
		out = append(out, a)
	}
	return out
}

// Keymap returns the key name to bit mapping published in replay metadata.
func Keymap() map[string]int {
	return map[string]int{
		"UP":    int(ActionUp),
		"DOWN":  int(ActionDown),
		"RIGHT": int(ActionRight),
		"LEFT":  int(ActionLeft),
		"A":     int(ActionButtonA),
		"B":     int(ActionButtonB),
	}
}
